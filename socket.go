package sio

import (
	"encoding/json"

	mapset "github.com/deckarep/golang-set/v2"
)

type Socket interface {
	ID() SocketID

	// Is the socket (currently) connected?
	IsConnected() bool

	// Register an event handler. handler's signature determines how many
	// positional arguments are decoded off the wire for this event.
	OnEvent(eventName string, handler any)

	// Register a one-time event handler.
	// The handler will run once and will be removed afterwards.
	OnceEvent(eventName string, handler any)

	// Remove an event handler.
	//
	// If you want to remove all handlers of a particular event,
	// provide the eventName and leave handler empty.
	OffEvent(eventName string, handler ...any)

	// Remove all event handlers.
	OffAll()

	// Emit a message.
	Emit(eventName string, v ...interface{})
}

type ServerSocket interface {
	Socket

	// Retrieves the underlying Server.
	Server() *Server

	// Retrieves the Namespace this socket is connected to.
	Namespace() *Namespace

	// Auth returns the (possibly nil) JSON payload the client sent when it
	// connected to this namespace.
	Auth() json.RawMessage

	// Register a middleware for events.
	//
	// Function signature must be: func(eventName string, v []interface{}) error
	Use(f interface{})

	// Join room(s)
	Join(room ...Room)
	// Leave a room
	Leave(room Room)
	// Get a set of all rooms socket was joined to.
	Rooms() mapset.Set[Room]

	// Sets a modifier for a subsequent event emission that the event
	// will only be broadcast to clients that have joined the given room.
	//
	// To emit to multiple rooms, you can call To several times.
	To(room ...Room) *BroadcastOperator

	// Alias of To(...)
	In(room ...Room) *BroadcastOperator

	// Sets a modifier for a subsequent event emission that the event
	// will only be broadcast to clients that have not joined the given rooms.
	Except(room ...Room) *BroadcastOperator

	// Sets a modifier for a subsequent event emission that
	// the event data will only be broadcast to the current node.
	Local() *BroadcastOperator

	// Sets a modifier for a subsequent event emission that
	// the event data will only be broadcast to every sockets but the sender.
	Broadcast() *BroadcastOperator

	// Register lifecycle hooks. Unlike OnEvent, these use closed, typed
	// signatures since they aren't decoded off the wire the same way.
	OnError(f ServerSocketErrorFunc)
	OnceError(f ServerSocketErrorFunc)
	OffError(f ...ServerSocketErrorFunc)

	OnDisconnecting(f ServerSocketDisconnectingFunc)
	OnceDisconnecting(f ServerSocketDisconnectingFunc)
	OffDisconnecting(f ...ServerSocketDisconnectingFunc)

	OnDisconnect(f ServerSocketDisconnectFunc)
	OnceDisconnect(f ServerSocketDisconnectFunc)
	OffDisconnect(f ...ServerSocketDisconnectFunc)

	// Disconnect from namespace.
	//
	// If `close` is true, all namespaces are going to be disconnected (a DISCONNECT packet will be sent),
	// and the underlying Engine.IO connection will be terminated.
	//
	// If `close` is false, only the current namespace will be disconnected (a DISCONNECT packet will be sent),
	// and the underlying Engine.IO connection will be kept open.
	Disconnect(close bool)
}
