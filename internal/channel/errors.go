package channel

import (
	"errors"
	"fmt"
)

var (
	ErrClearInProgress = errors.New("channel: clear already in progress")
	ErrClosed          = errors.New("channel: closed")
)

// TransportError is a publish or subscribe failure. The message is dropped.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError is a write, query or delete failure against the document
// store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
