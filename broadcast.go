package sio

import (
	"fmt"
	"reflect"

	"github.com/kamros/sio/adapter"
	"github.com/kamros/sio/parser"
)

// BroadcastOperator builds up a room/except filter before emitting to every
// matching socket in a namespace. Each modifier (To/Except/Compress/Local)
// returns a new operator rather than mutating the receiver, so a base
// operator can be reused to build several distinct broadcasts.
type BroadcastOperator struct {
	nsp     string
	adapter adapter.Adapter
	parser  parser.Parser
	opts    *adapter.BroadcastOptions
}

func newBroadcastOperator(nsp string, a adapter.Adapter, p parser.Parser) *BroadcastOperator {
	return &BroadcastOperator{
		nsp:     nsp,
		adapter: a,
		parser:  p,
		opts:    adapter.NewBroadcastOptions(),
	}
}

func (b *BroadcastOperator) clone() *BroadcastOperator {
	n := *b
	opts := adapter.NewBroadcastOptions()
	opts.Rooms = b.opts.Rooms.Clone()
	opts.Except = b.opts.Except.Clone()
	opts.Flags = b.opts.Flags
	n.opts = opts
	return &n
}

// To sets a modifier so the event is only broadcast to clients that have
// joined the given room(s). Call it more than once to target several rooms.
func (b *BroadcastOperator) To(room ...Room) *BroadcastOperator {
	n := b.clone()
	for _, r := range room {
		n.opts.Rooms.Add(r)
	}
	return n
}

// In is an alias of To.
func (b *BroadcastOperator) In(room ...Room) *BroadcastOperator {
	return b.To(room...)
}

// Except excludes clients that have joined the given room(s) from the broadcast.
func (b *BroadcastOperator) Except(room ...Room) *BroadcastOperator {
	n := b.clone()
	for _, r := range room {
		n.opts.Except.Add(r)
	}
	return n
}

// Compress is unused at the moment; it stays for API compatibility.
func (b *BroadcastOperator) Compress(compress bool) *BroadcastOperator {
	n := b.clone()
	n.opts.Flags.Compress = compress
	return n
}

// Local restricts a subsequent emission to sockets local to this process,
// skipping the channel.Layer publish that would otherwise reach sibling
// processes subscribed to the same namespace topic.
func (b *BroadcastOperator) Local() *BroadcastOperator {
	n := b.clone()
	n.opts.Flags.Local = true
	return n
}

func (b *BroadcastOperator) FetchSockets() []adapter.Socket {
	return b.adapter.FetchSockets(b.opts)
}

func (b *BroadcastOperator) SocketsJoin(room ...Room) {
	b.adapter.AddSockets(b.opts, room...)
}

func (b *BroadcastOperator) SocketsLeave(room ...Room) {
	b.adapter.DelSockets(b.opts, room...)
}

func (b *BroadcastOperator) DisconnectSockets(close bool) {
	b.adapter.DisconnectSockets(b.opts, close)
}

// Emit encodes and broadcasts an event to every socket matching this
// operator's room filter.
func (b *BroadcastOperator) Emit(eventName string, v ...any) {
	if IsEventReservedForServer(eventName) {
		panic(fmt.Errorf("sio: Emit: attempted to emit to a reserved event"))
	}

	values := append([]any{eventName}, v...)
	if len(values) > 0 {
		if reflect.TypeOf(values[len(values)-1]).Kind() == reflect.Func {
			panic(fmt.Errorf("sio: Emit: callbacks are not supported when broadcasting"))
		}
	}

	header := &parser.PacketHeader{
		Type:      parser.PacketTypeEvent,
		Namespace: b.nsp,
	}

	b.adapter.Broadcast(header, values, b.opts)
}
