package sio

import (
	"sync"

	"github.com/kamros/sio/adapter"
)

// NamespaceSocketStore holds every connected socket of a single namespace.
// Its Get/GetAll signatures match adapter.SocketStore exactly, since a
// Namespace hands this store straight to its adapter.Creator; call sites
// within this package that need the concrete *serverSocket type assert
// back to it.
type NamespaceSocketStore struct {
	sockets map[SocketID]*serverSocket
	mu      sync.Mutex
}

func newNamespaceSocketStore() *NamespaceSocketStore {
	return &NamespaceSocketStore{
		sockets: make(map[SocketID]*serverSocket),
	}
}

func (s *NamespaceSocketStore) Get(sid adapter.SocketID) (adapter.Socket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.sockets[SocketID(sid)]
	if !ok {
		return nil, false
	}
	return so, true
}

func (s *NamespaceSocketStore) getServerSocket(sid SocketID) (so *serverSocket, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok = s.sockets[sid]
	return so, ok
}

// SendBuffers forwards Engine.IO packets to a specific socket, used by the
// adapter when delivering a broadcast to a socket it found locally.
func (s *NamespaceSocketStore) SendBuffers(sid adapter.SocketID, buffers [][]byte) (ok bool) {
	socket, ok := s.getServerSocket(SocketID(sid))
	if !ok {
		return false
	}
	socket.conn.sendBuffers(buffers...)
	return true
}

func (s *NamespaceSocketStore) SetAck(sid SocketID, ackHandler *ackHandler) (ok bool) {
	socket, ok := s.getServerSocket(sid)
	if !ok {
		return false
	}
	socket.setAck(ackHandler)
	return true
}

func (s *NamespaceSocketStore) GetAll() []adapter.Socket {
	s.mu.Lock()
	defer s.mu.Unlock()

	sockets := make([]adapter.Socket, len(s.sockets))
	i := 0
	for _, so := range s.sockets {
		sockets[i] = so
		i++
	}
	return sockets
}

// ServerSockets returns the same sockets as GetAll, but typed as the public
// ServerSocket interface for callers outside the adapter boundary (e.g.
// Namespace.Sockets).
func (s *NamespaceSocketStore) ServerSockets() []ServerSocket {
	s.mu.Lock()
	defer s.mu.Unlock()

	sockets := make([]ServerSocket, len(s.sockets))
	i := 0
	for _, so := range s.sockets {
		sockets[i] = so
		i++
	}
	return sockets
}

func (s *NamespaceSocketStore) Set(so *serverSocket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[so.ID()] = so
}

func (s *NamespaceSocketStore) Remove(sid adapter.SocketID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, SocketID(sid))
}
