package signer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntranceWitness means no payload-bearing witness sits at index 0,
	// or the transaction carries no payload at all.
	ErrNoEntranceWitness = errors.New("no entrance witness found")

	// ErrSignFailed wraps a signer backend failure. Signing is not retried.
	ErrSignFailed = errors.New("sign failed")
)

// InvalidWitnessError reports a witness that could not be decoded as the
// generic witness container, with the offending index.
type InvalidWitnessError struct {
	Index int
	Err   error
}

func (e *InvalidWitnessError) Error() string {
	return fmt.Sprintf("invalid witness %d: %v", e.Index, e.Err)
}

func (e *InvalidWitnessError) Unwrap() error {
	return e.Err
}
