package adapter

import "sync"

// TestSocketStore is an in-memory SocketStore used by adapter tests in
// place of a real transport-backed store, so room/broadcast behavior
// can be exercised without spinning up an Engine.IO connection.
type TestSocketStore struct {
	mu          sync.Mutex
	byID        map[SocketID]Socket
	sendBuffers func(sid SocketID, buffers [][]byte) bool
}

var _ SocketStore = NewTestSocketStore()

func NewTestSocketStore() *TestSocketStore {
	return &TestSocketStore{
		byID:        make(map[SocketID]Socket),
		sendBuffers: func(SocketID, [][]byte) bool { return true },
	}
}

func (s *TestSocketStore) SendBuffers(sid SocketID, buffers [][]byte) bool {
	return s.sendBuffers(sid, buffers)
}

// SetSendBuffers lets a test observe or fake what would otherwise be
// a real write to a socket's transport.
func (s *TestSocketStore) SetSendBuffers(fn func(sid SocketID, buffers [][]byte) bool) {
	s.sendBuffers = fn
}

func (s *TestSocketStore) Get(sid SocketID) (Socket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.byID[sid]
	return so, ok
}

func (s *TestSocketStore) GetAll() []Socket {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Socket, 0, len(s.byID))
	for _, so := range s.byID {
		all = append(all, so)
	}
	return all
}

func (s *TestSocketStore) Set(so Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[so.ID()] = so
}

func (s *TestSocketStore) Remove(sid SocketID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sid)
}

// TestSocket is a Socket that tracks its own room membership and
// connected state in plain fields, for tests to assert against
// directly instead of going through the adapter's own bookkeeping.
type TestSocket struct {
	id SocketID

	Rooms     []Room
	Connected bool
}

var _ Socket = NewTestSocket("")

func NewTestSocket(id SocketID) *TestSocket {
	return &TestSocket{
		id:        id,
		Connected: true,
		// A socket always belongs to the room named after its own ID,
		// mirroring how a connecting server socket is added to it.
		Rooms: []Room{Room(id)},
	}
}

func (s *TestSocket) ID() SocketID { return s.id }

func (s *TestSocket) Join(rooms ...Room) {
	s.Rooms = append(s.Rooms, rooms...)
}

func (s *TestSocket) Leave(room Room) {
	kept := s.Rooms[:0:0]
	for _, r := range s.Rooms {
		if r != room {
			kept = append(kept, r)
		}
	}
	s.Rooms = kept
}

func (s *TestSocket) Disconnect(close bool) {
	s.Connected = false
}
