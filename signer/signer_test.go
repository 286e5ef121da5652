package signer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/polyjuice/common"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func writeKeyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "privkey")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileSignerAddress(t *testing.T) {
	s, err := NewFileSigner(writeKeyFile(t, testKeyHex))
	require.NoError(t, err)
	assert.Equal(t, "0x71562b71999873db5b286df957af199ec94617f7", s.Address().Hex())
}

func TestFileSignerSignRecoverable(t *testing.T) {
	s, err := NewFileSigner(writeKeyFile(t, testKeyHex))
	require.NoError(t, err)

	digest := common.CkbBlake2b256([]byte("message"))
	sig, err := s.Sign(digest)
	require.NoError(t, err)

	pub, err := crypto.Ecrecover(digest.Bytes(), sig[:])
	require.NoError(t, err)
	recovered := common.Keccak256(pub[1:]).Bytes()[12:]
	assert.Equal(t, s.Address().Bytes(), recovered)
}

func TestFileSignerKeyFileTolerance(t *testing.T) {
	// trailing newline and 0x prefix are both accepted
	for _, content := range []string{testKeyHex + "\n", "0x" + testKeyHex, "0x" + testKeyHex + "\n"} {
		s, err := NewFileSigner(writeKeyFile(t, content))
		require.NoError(t, err)
		assert.Equal(t, "0x71562b71999873db5b286df957af199ec94617f7", s.Address().Hex())
	}
}

func TestFileSignerBadKey(t *testing.T) {
	_, err := NewFileSigner(writeKeyFile(t, "not hex at all"))
	assert.Error(t, err)

	_, err = NewFileSigner(writeKeyFile(t, testKeyHex[:30]))
	assert.Error(t, err)

	_, err = NewFileSigner(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
