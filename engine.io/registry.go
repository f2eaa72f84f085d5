package eio

import (
	"time"

	"github.com/kamros/sio/engine.io/parser"
	"github.com/kamros/sio/internal/sync"
)

// ServerSocket is the subset of *serverSocket the rest of this package's
// caller (sio.Server) is allowed to see through the NewSocketCallback.
type ServerSocket interface {
	ID() string
	Transport() ServerTransport
	TransportName() string
	Upgrades() []string
	PingInterval() time.Duration
	PingTimeout() time.Duration
	Send(packets ...*parser.Packet)
	Close()

	// CloseWithReason force-closes the session, reporting reason through
	// Callbacks.OnClose instead of the default ReasonForcedClose. Used by
	// the Socket.IO layer above to classify a framing/protocol error as
	// such rather than as an ordinary forced close.
	CloseWithReason(reason Reason)
}

// socketStore is the process-wide session registry keyed by sid. A single
// mutex guards the map; sessions themselves are lock-light (see
// server_socket.go), so registry contention only ever happens on connect
// and disconnect, never on the data path.
type socketStore struct {
	mu      sync.RWMutex
	sockets map[string]*serverSocket
}

func newSocketStore() *socketStore {
	return &socketStore{
		sockets: make(map[string]*serverSocket),
	}
}

func (s *socketStore) Get(sid string) (socket *serverSocket, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	socket, ok = s.sockets[sid]
	return
}

func (s *socketStore) Exists(sid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sockets[sid]
	return ok
}

// Set inserts socket under sid. It returns false without inserting if sid
// is already taken, which lets the caller detect a base64 id collision.
func (s *socketStore) Set(sid string, socket *serverSocket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sockets[sid]; ok {
		return false
	}
	s.sockets[sid] = socket
	return true
}

func (s *socketStore) Delete(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, sid)
}

func (s *socketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sockets)
}

// CloseAll force-closes every registered session. Used by Server.Close.
func (s *socketStore) CloseAll() {
	s.mu.Lock()
	sockets := make([]*serverSocket, 0, len(s.sockets))
	for _, socket := range s.sockets {
		sockets = append(sockets, socket)
	}
	s.mu.Unlock()

	for _, socket := range sockets {
		socket.Close()
	}
}
