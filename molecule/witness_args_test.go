package molecule

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/polyjuice/types"
)

// The default container (all three fields absent) has a fixed, documented
// encoding: full size 16 plus three offsets all pointing past the header.
func TestWitnessArgsDefaultGolden(t *testing.T) {
	w := WitnessArgs{}
	assert.Equal(t,
		"10000000100000001000000010000000",
		hex.EncodeToString(w.Serialize()))
}

func TestWitnessArgsRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		args WitnessArgs
	}{
		{"empty", WitnessArgs{}},
		{"lock only", WitnessArgs{Lock: []byte{1, 2, 3}}},
		{"input side", WitnessArgs{InputType: []byte{4, 5}}},
		{"output side", WitnessArgs{OutputType: []byte{6}}},
		{"all fields", WitnessArgs{Lock: []byte{1}, InputType: []byte{2}, OutputType: []byte{3}}},
		{"present but empty", WitnessArgs{InputType: []byte{}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeWitnessArgs(tc.args.Serialize())
			require.NoError(t, err)
			assert.Equal(t, &tc.args, decoded)
		})
	}
}

func TestWitnessArgsBuildersPreserveFields(t *testing.T) {
	original := WitnessArgs{Lock: []byte{0xaa}, OutputType: []byte{0xbb}}

	updated := original.WithInputType([]byte{0xcc})
	assert.Equal(t, []byte{0xaa}, updated.Lock)
	assert.Equal(t, []byte{0xbb}, updated.OutputType)
	assert.Equal(t, []byte{0xcc}, updated.InputType)
	// builder must not touch the receiver
	assert.Nil(t, original.InputType)

	replaced := updated.WithOutputType([]byte{0xdd})
	assert.Equal(t, []byte{0xaa}, replaced.Lock)
	assert.Equal(t, []byte{0xcc}, replaced.InputType)
	assert.Equal(t, []byte{0xdd}, replaced.OutputType)

	relocked := replaced.WithLock([]byte{0xee})
	assert.Equal(t, []byte{0xee}, relocked.Lock)
	assert.Equal(t, []byte{0xcc}, relocked.InputType)
}

func TestDecodeWitnessArgsMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty buffer", nil},
		{"header too short", []byte{0x10, 0, 0}},
		{"size mismatch", append([]byte{0xff, 0, 0, 0}, make([]byte, 12)...)},
		{"offset out of order", func() []byte {
			buf := WitnessArgs{}.Serialize()
			buf[4] = 0xff // first offset beyond full size
			return buf
		}()},
		{"field not valid bytes", func() []byte {
			// a one-byte field body cannot hold the 4-byte bytes header
			return PackTable([]byte{0x01}, nil, nil)
		}()},
		{"bytes length mismatch", func() []byte {
			// field declares 5 bytes but carries 1
			field := []byte{5, 0, 0, 0, 0xaa}
			return PackTable(field, nil, nil)
		}()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeWitnessArgs(tc.data)
			assert.ErrorIs(t, err, types.ErrMalformed)
		})
	}
}

func TestUnpackTableOffsets(t *testing.T) {
	fields := [][]byte{{1, 2}, nil, {3}}
	packed := PackTable(fields...)
	unpacked, err := UnpackTable(packed, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, unpacked[0])
	assert.Empty(t, unpacked[1])
	assert.Equal(t, []byte{3}, unpacked[2])

	_, err = UnpackTable(packed, 4)
	assert.ErrorIs(t, err, types.ErrMalformed)
}

func TestPackBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0}, PackBytes(nil))
	assert.Equal(t, []byte{2, 0, 0, 0, 0xab, 0xcd}, PackBytes([]byte{0xab, 0xcd}))

	out, err := UnpackBytes([]byte{2, 0, 0, 0, 0xab, 0xcd})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, out)
}
