package jsonparser

import (
	"fmt"
	"reflect"
)

var (
	errNonInterfaceableValue = fmt.Errorf("non-interfaceable value")
	errNonSettableValue      = fmt.Errorf("non-settable value")
)

// ValueError reports a failure tied to a specific reflect.Value seen
// while walking a packet's arguments, e.g. one binary.go or decode.go
// couldn't address or box because of how the caller's struct or
// interface was shaped.
type ValueError struct {
	err   error
	Value reflect.Value
}

func (e *ValueError) Error() string {
	kind := "<invalid>"
	if e.Value.IsValid() {
		kind = e.Value.Type().String()
	}
	return fmt.Sprintf("parser/json: error with value %s: %v", kind, e.err)
}

func (e *ValueError) Unwrap() error {
	return e.err
}
