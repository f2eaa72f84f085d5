package sio

import (
	"fmt"
	"reflect"
)

type eventHandler struct {
	rv         reflect.Value
	inputArgs  []reflect.Type
	outputArgs []reflect.Type
}

func newEventHandler(v any) (*eventHandler, error) {
	rv := reflect.ValueOf(v)

	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("sio: function expected")
	}

	rt := rv.Type()

	inputArgs := make([]reflect.Type, rt.NumIn())
	for i := range inputArgs {
		inputArgs[i] = rt.In(i)
	}

	outputArgs := make([]reflect.Type, rt.NumOut())
	for i := range outputArgs {
		outputArgs[i] = rt.Out(i)
	}

	return &eventHandler{
		rv:         rv,
		inputArgs:  inputArgs,
		outputArgs: outputArgs,
	}, nil
}

func (f *eventHandler) Call(args ...reflect.Value) (ret []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			err, ok = r.(error)
			if !ok {
				err = fmt.Errorf("sio: handler error: %v", r)
			}
		}
	}()

	ret = f.rv.Call(args)
	return
}

// checkAckFunc validates a function passed as an ack callback before it is
// wrapped by newAckHandler. mustHaveErrorArg requires the last argument to be
// of type error (used when registering an ack on the receiving side, where
// a decode failure must be reportable); when false, the function must take
// no arguments and return nothing (used for the sender's own outgoing ack,
// which only confirms delivery).
func checkAckFunc(handler any, mustHaveErrorArg bool) error {
	if handler == nil {
		return fmt.Errorf("sio: ack function must not be nil")
	}

	rv := reflect.ValueOf(handler)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("sio: ack function must be a function")
	}

	rt := rv.Type()
	if rt.NumOut() != 0 {
		return fmt.Errorf("sio: ack function must not return any values")
	}

	if !mustHaveErrorArg {
		if rt.NumIn() != 0 {
			return fmt.Errorf("sio: ack function must not take any arguments")
		}
		return nil
	}

	if rt.NumIn() == 0 {
		return fmt.Errorf("sio: ack function must take an error as its last argument")
	}
	if rt.In(rt.NumIn()-1) != errorType {
		return fmt.Errorf("sio: ack function's last argument must be of type error")
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type ackHandler struct {
	rv         reflect.Value
	inputArgs  []reflect.Type
	outputArgs []reflect.Type
}

func newAckHandler(v any) *ackHandler {
	rv := reflect.ValueOf(v)

	if rv.Kind() != reflect.Func {
		panic("sio: function expected")
	}

	rt := rv.Type()

	if rt.NumIn() < 1 {
		panic("sio: ack handler function must include at least 1 argument")
	}

	inputArgs := make([]reflect.Type, rt.NumIn())
	for i := range inputArgs {
		inputArgs[i] = rt.In(i)
	}

	outputArgs := make([]reflect.Type, rt.NumOut())
	for i := range outputArgs {
		outputArgs[i] = rt.Out(i)
	}

	return &ackHandler{
		rv:         rv,
		inputArgs:  inputArgs,
		outputArgs: outputArgs,
	}
}

func (f *ackHandler) Call(args ...reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			err, ok = r.(error)
			if !ok {
				err = fmt.Errorf("sio: ack handler error: %v", r)
			}
		}
	}()

	f.rv.Call(args)
	return
}
