package types

import "errors"

var (
	// ErrTruncated reports a buffer too short to contain the fixed-width
	// region it is being decoded as.
	ErrTruncated = errors.New("truncated")

	// ErrMalformed reports a structurally invalid encoding, e.g. a declared
	// field length that exceeds the remaining buffer.
	ErrMalformed = errors.New("malformed")
)
