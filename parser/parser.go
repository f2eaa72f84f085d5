package parser

import "reflect"

// ProtocolVersion is the Socket.IO packet protocol version this
// package implements.
const ProtocolVersion = 5

type (
	// Creator builds a fresh Parser, one per connection, so that
	// partially-reassembled packets from one connection never bleed
	// into another's state.
	Creator func() Parser

	// Finish is invoked once a packet (and any binary attachments it
	// declared) has been fully reassembled from the wire.
	Finish func(header *PacketHeader, eventName string, decode Decode)

	// Decode unmarshals a packet's argument list into the given types,
	// deferred until the caller knows what Go values it wants to
	// decode into (an event's registered handler signature, a CONNECT
	// packet's auth payload, ...).
	Decode func(types ...reflect.Type) (values []reflect.Value, err error)
)

// Parser turns raw Engine.IO message payloads into Socket.IO packets
// and back. A single instance is stateful across Add calls: a packet
// with binary attachments spans multiple Engine.IO frames, so the
// parser must hold the in-progress packet until every attachment it
// declared has arrived.
type Parser interface {
	Encode(header *PacketHeader, v any) (buffers [][]byte, err error)
	Add(data []byte, finish Finish) error
	Reset()
}
