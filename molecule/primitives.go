// Package molecule implements the subset of the chain's molecule wire format
// the service needs: the generic witness container and the raw-transaction
// layout that defines the canonical transaction hash.
//
// Molecule in brief: fixed-width values are raw little-endian bytes; a
// "fixvec" is a u32 item count followed by fixed-size items; a "dynvec" or
// "table" is a u32 full size, one u32 offset per item (from the start of the
// blob), then the item bodies; an "option" is the item bytes when present and
// zero bytes when absent.
package molecule

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/polyjuice/types"
)

const u32Size = 4

// PackBytes encodes a byte string as a fixvec of bytes: len(u32 LE) || data.
func PackBytes(data []byte) []byte {
	out := make([]byte, 0, u32Size+len(data))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, data...)
}

// UnpackBytes decodes a fixvec of bytes, requiring the declared length to
// match the buffer exactly.
func UnpackBytes(buf []byte) ([]byte, error) {
	if len(buf) < u32Size {
		return nil, fmt.Errorf("%w: bytes header needs %d bytes, have %d", types.ErrMalformed, u32Size, len(buf))
	}
	n := binary.LittleEndian.Uint32(buf[:u32Size])
	body := buf[u32Size:]
	if uint32(len(body)) != n {
		return nil, fmt.Errorf("%w: bytes length %d, body %d bytes", types.ErrMalformed, n, len(body))
	}
	out := make([]byte, n)
	copy(out, body)
	return out, nil
}

// PackFixVec encodes a fixvec: count(u32 LE) || items, where every item has
// the same fixed width.
func PackFixVec(count int, items []byte) []byte {
	out := make([]byte, 0, u32Size+len(items))
	out = binary.LittleEndian.AppendUint32(out, uint32(count))
	return append(out, items...)
}

// PackTable encodes a table (or dynvec) from its field bodies: full size,
// one offset per field, then the bodies.
func PackTable(fields ...[]byte) []byte {
	header := u32Size * (1 + len(fields))
	full := header
	for _, f := range fields {
		full += len(f)
	}
	out := make([]byte, 0, full)
	out = binary.LittleEndian.AppendUint32(out, uint32(full))
	offset := header
	for _, f := range fields {
		out = binary.LittleEndian.AppendUint32(out, uint32(offset))
		offset += len(f)
	}
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// UnpackTable splits a table (or dynvec) blob with a known field count into
// its field bodies. Every structural violation is reported as ErrMalformed.
func UnpackTable(buf []byte, fieldCount int) ([][]byte, error) {
	header := u32Size * (1 + fieldCount)
	if len(buf) < header {
		return nil, fmt.Errorf("%w: table header needs %d bytes, have %d", types.ErrMalformed, header, len(buf))
	}
	full := binary.LittleEndian.Uint32(buf[:u32Size])
	if uint32(len(buf)) != full {
		return nil, fmt.Errorf("%w: table size %d, buffer %d bytes", types.ErrMalformed, full, len(buf))
	}
	offsets := make([]uint32, fieldCount+1)
	for i := 0; i < fieldCount; i++ {
		offsets[i] = binary.LittleEndian.Uint32(buf[u32Size*(i+1) : u32Size*(i+2)])
	}
	offsets[fieldCount] = full
	prev := uint32(header)
	for i, off := range offsets {
		if off < prev || off > full {
			return nil, fmt.Errorf("%w: table offset %d out of order", types.ErrMalformed, i)
		}
		prev = off
	}
	fields := make([][]byte, fieldCount)
	for i := 0; i < fieldCount; i++ {
		fields[i] = buf[offsets[i]:offsets[i+1]]
	}
	return fields, nil
}
