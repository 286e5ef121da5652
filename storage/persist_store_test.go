package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceStoreBasic(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	value, found, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, store.Delete([]byte("k")))
	_, found, err = store.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersistenceStoreWriteBatch(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("old"), []byte("x")))
	require.NoError(t, store.WriteBatch(
		[][2][]byte{{[]byte("a"), []byte("1")}, {[]byte("b"), []byte("2")}},
		[][]byte{[]byte("old")},
	))

	_, found, err := store.Get([]byte("old"))
	require.NoError(t, err)
	assert.False(t, found)
	value, found, err := store.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("2"), value)
}

func TestPersistenceStorePrefixScan(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("cell:a1"), []byte("1")))
	require.NoError(t, store.Put([]byte("cell:a2"), []byte("2")))
	require.NoError(t, store.Put([]byte("contract:a1"), []byte("3")))

	records, err := store.GetWithPrefix([]byte("cell:"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []byte("cell:a1"), records[0][0])
	assert.Equal(t, []byte("2"), records[1][1])
}

func TestPersistenceStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	store, err := NewPersistenceStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	store, err = NewPersistenceStore(path)
	require.NoError(t, err)
	defer store.Close()
	value, found, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), value)
}
