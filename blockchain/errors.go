package blockchain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a submitted vote fails signature verification.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrDoubleVote is returned when the sender has already had a vote admitted.
	ErrDoubleVote = errors.New("sender has already voted")
	// ErrNotVote is returned when a system transaction is submitted for admission.
	ErrNotVote = errors.New("only vote transactions can be submitted")
	// ErrInvalidChain is matched by every *ValidationError.
	ErrInvalidChain = errors.New("invalid chain")
)

// ValidationError describes the first block that failed validation.
type ValidationError struct {
	Index  int64  `json:"block_index"`
	Reason string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("block %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidChain
}

func invalid(index int64, format string, args ...interface{}) error {
	return &ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
