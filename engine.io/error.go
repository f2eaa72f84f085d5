package eio

import "fmt"

// InternalError flags a failure that originates inside the Engine.IO
// layer itself rather than from the transport, the remote peer, or a
// caller's handler.
type InternalError struct {
	cause error
}

func wrapInternalError(cause error) *InternalError {
	return &InternalError{cause: cause}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("eio: internal error: %v", e.cause)
}

func (e *InternalError) Unwrap() error {
	return e.cause
}
