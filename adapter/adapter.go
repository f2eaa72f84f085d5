package adapter

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kamros/sio/channel"
	"github.com/kamros/sio/parser"
)

type (
	Creator func(socketStore SocketStore, parserCreator parser.Creator, layer channel.Layer, topic string) Adapter

	// A public ID, sent by the server at the beginning of
	// the Socket.IO session and which can be used for private messaging.
	SocketID string

	Room string
)

// Socket is the minimal view of a namespace socket that the adapter needs
// in order to iterate room membership and act on matched sockets (room
// join/leave, forced disconnect). The full, chainable emit API
// (To/In/Except/Emit) lives one layer up, on sio.BroadcastOperator.
type Socket interface {
	ID() SocketID
	Join(room ...Room)
	Leave(room Room)
	Disconnect(close bool)
}

// Adapter is the room-membership and broadcast engine behind a single
// namespace. The default implementation (NewInMemoryAdapterCreator) keeps
// all bookkeeping local to the process and additionally fans broadcasts out
// through a channel.Layer so that sibling processes subscribed to the same
// topic can deliver to their own local sockets. Connection-state recovery
// (Socket.IO's PID/offset reconnection protocol) is intentionally not part
// of this interface.
type Adapter interface {
	Close()

	AddAll(sid SocketID, rooms []Room)
	Delete(sid SocketID, room Room)
	DeleteAll(sid SocketID)

	Broadcast(header *parser.PacketHeader, v []any, opts *BroadcastOptions)

	// The return value 'sids' is a thread safe mapset.Set.
	Sockets(rooms mapset.Set[Room]) (sids mapset.Set[SocketID])
	// The return value 'rooms' is a thread safe mapset.Set.
	SocketRooms(sid SocketID) (rooms mapset.Set[Room], ok bool)

	FetchSockets(opts *BroadcastOptions) (sockets []Socket)

	AddSockets(opts *BroadcastOptions, rooms ...Room)
	DelSockets(opts *BroadcastOptions, rooms ...Room)
	DisconnectSockets(opts *BroadcastOptions, close bool)
}
