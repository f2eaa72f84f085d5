package sio

import (
	"encoding/json"
	"sync/atomic"

	"github.com/kamros/sio/adapter"
	"github.com/kamros/sio/parser"
)

// Namespace is a Socket.IO namespace: a named slice of a Server's socket
// population with its own room membership (via its Adapter), its own event
// handlers, and its own connection lifecycle.
type Namespace struct {
	name   string
	server *Server

	sockets *NamespaceSocketStore
	adapter adapter.Adapter
	parser  parser.Parser

	ackID uint64

	connectionHandlers *handlerStore[*NamespaceConnectionFunc]
	eventHandlers      *eventHandlerStore
}

func newNamespace(name string, server *Server, adapterCreator adapter.Creator, parserCreator parser.Creator) *Namespace {
	nsp := &Namespace{
		name:   name,
		server: server,

		sockets: newNamespaceSocketStore(),
		parser:  parserCreator(),

		connectionHandlers: newHandlerStore[*NamespaceConnectionFunc](),
		eventHandlers:      newEventHandlerStore(),
	}

	nsp.adapter = adapterCreator(nsp.sockets, parserCreator, server.channelLayer, "sio:"+name)
	return nsp
}

func (n *Namespace) Name() string {
	return n.name
}

func (n *Namespace) Server() *Server {
	return n.server
}

func (n *Namespace) Adapter() Adapter {
	return n.adapter
}

// Sockets returns every socket currently connected to this namespace.
func (n *Namespace) Sockets() []ServerSocket {
	return n.sockets.ServerSockets()
}

func (n *Namespace) nextAckID() uint64 {
	return atomic.AddUint64(&n.ackID, 1)
}

// add registers a new connection to this namespace, firing OnConnection and
// the server's OnAnyConnection handlers. auth is the (possibly nil) JSON
// payload the client sent with its CONNECT packet.
func (n *Namespace) add(conn *serverConn, auth json.RawMessage) (*serverSocket, error) {
	socket, err := newServerSocket(n.server, conn, n, n.parser)
	if err != nil {
		return nil, err
	}
	socket.auth = auth

	n.sockets.Set(socket)

	for _, handler := range n.connectionHandlers.getAll() {
		(*handler)(socket)
	}
	for _, handler := range n.server.anyConnectionHandlers.getAll() {
		(*handler)(n.name, socket)
	}

	return socket, nil
}

func (n *Namespace) remove(socket *serverSocket) {
	n.sockets.Remove(socket.ID())
}

func (n *Namespace) To(room ...Room) *BroadcastOperator {
	return n.newBroadcastOperator().To(room...)
}

func (n *Namespace) In(room ...Room) *BroadcastOperator {
	return n.To(room...)
}

func (n *Namespace) Except(room ...Room) *BroadcastOperator {
	return n.newBroadcastOperator().Except(room...)
}

func (n *Namespace) Local() *BroadcastOperator {
	return n.newBroadcastOperator().Local()
}

func (n *Namespace) Emit(eventName string, v ...any) {
	n.newBroadcastOperator().Emit(eventName, v...)
}

func (n *Namespace) FetchSockets() []adapter.Socket {
	return n.newBroadcastOperator().FetchSockets()
}

func (n *Namespace) newBroadcastOperator() *BroadcastOperator {
	return newBroadcastOperator(n.name, n.adapter, n.parser)
}
