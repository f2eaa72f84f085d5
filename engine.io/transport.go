package eio

import (
	"net/http"

	"github.com/kamros/sio/engine.io/parser"
)

// ServerTransport is the server side of one of the two Engine.IO
// transports implemented here: long polling and WebSocket.
type ServerTransport interface {
	// Name of the transport in lowercase.
	Name() string

	// handshakePacket can be nil. Do a nil check.
	// onPacket callback must not be called in this method.
	Handshake(handshakePacket *parser.Packet, w http.ResponseWriter, r *http.Request) error

	// Starts the transport's read loop. Called once, right after Handshake
	// returns successfully. Polling transports implement this as a no-op
	// since reads arrive as separate HTTP requests.
	PostHandshake()

	// If the transport supports handling HTTP requests (after the handshake is completely done) make use of this method.
	// Otherwise, just reply with 400 (Bad request).
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Return the packets that are waiting on the pollQueue (polling only).
	QueuedPackets() []*parser.Packet

	// If you run this method in a transport (see the close method of polling for example), call it on a new goroutine.
	// Otherwise it can call the close function recursively.
	Send(packets ...*parser.Packet)

	// This method closes the transport but doesn't call the onClose callback.
	// This method will be called after an upgrade to discard and remove this transport.
	//
	// You must make sure that this method doesn't block or recursively call itself.
	Discard()

	// This method closes the transport and calls the onClose callback.
	//
	// You must make sure that this method doesn't block or recursively call itself.
	Close()
}
