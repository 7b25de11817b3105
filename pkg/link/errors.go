package link

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates bytes not conforming to the wire format.
	ErrMalformed = errors.New("malformed")
	// ErrNoInput indicates no byte is pending in the Port.
	ErrNoInput = errors.New("no input")
)

// CommandError reports a command which can't be decoded or encoded.
type CommandError struct {
	Code   byte
	Reason string
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %s", e.Code, e.Reason)
}

// Unwrap makes CommandError match ErrMalformed.
func (e *CommandError) Unwrap() error {
	return ErrMalformed
}
