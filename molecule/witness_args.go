package molecule

import (
	"fmt"
)

// WitnessArgs is the generic per-witness container: a primary Lock field
// (consumed by the lock script) and two auxiliary fields for input-side and
// output-side type scripts. Each field is optional; a nil slice means the
// field is absent, a non-nil slice (possibly empty) means present.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

const witnessArgsFieldCount = 3

// Serialize encodes the container as a molecule table of three optional
// byte strings.
func (w WitnessArgs) Serialize() []byte {
	return PackTable(
		packBytesOpt(w.Lock),
		packBytesOpt(w.InputType),
		packBytesOpt(w.OutputType),
	)
}

// WithLock returns a copy with the lock field replaced. The other fields are
// preserved unchanged.
func (w WitnessArgs) WithLock(payload []byte) WitnessArgs {
	w.Lock = cloneBytes(payload)
	return w
}

// WithInputType returns a copy with the input-side field replaced.
func (w WitnessArgs) WithInputType(payload []byte) WitnessArgs {
	w.InputType = cloneBytes(payload)
	return w
}

// WithOutputType returns a copy with the output-side field replaced.
func (w WitnessArgs) WithOutputType(payload []byte) WitnessArgs {
	w.OutputType = cloneBytes(payload)
	return w
}

// DecodeWitnessArgs parses a witness container blob.
func DecodeWitnessArgs(buf []byte) (*WitnessArgs, error) {
	fields, err := UnpackTable(buf, witnessArgsFieldCount)
	if err != nil {
		return nil, fmt.Errorf("witness args: %w", err)
	}
	w := &WitnessArgs{}
	if w.Lock, err = unpackBytesOpt(fields[0]); err != nil {
		return nil, fmt.Errorf("witness args lock: %w", err)
	}
	if w.InputType, err = unpackBytesOpt(fields[1]); err != nil {
		return nil, fmt.Errorf("witness args input_type: %w", err)
	}
	if w.OutputType, err = unpackBytesOpt(fields[2]); err != nil {
		return nil, fmt.Errorf("witness args output_type: %w", err)
	}
	return w, nil
}

// packBytesOpt encodes an optional byte string: absent (nil) is zero bytes.
func packBytesOpt(data []byte) []byte {
	if data == nil {
		return nil
	}
	return PackBytes(data)
}

func unpackBytesOpt(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, nil
	}
	out, err := UnpackBytes(body)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
