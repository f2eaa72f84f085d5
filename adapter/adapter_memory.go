package adapter

import (
	"fmt"

	"github.com/kamros/sio/internal/sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/uuid"
	"github.com/kamros/sio/channel"
	"github.com/kamros/sio/internal/json"
	"github.com/kamros/sio/parser"
)

// crossProcessFrame is the payload published to a channel.Layer topic. It
// carries enough of the original BroadcastOptions for a receiving process
// to re-apply the same room filter against its own local room membership.
// InstanceID lets a receiving adapter recognize and drop the echo of its
// own publish: unlike channel.RedisLayer, channel.MemoryLayer fans a
// publish out to every subscriber of a topic including the publisher
// itself, and the publishing adapter has already delivered locally before
// Publish was ever called.
type crossProcessFrame struct {
	InstanceID string   `json:"i"`
	Rooms      []Room   `json:"rooms,omitempty"`
	Except     []Room   `json:"except,omitempty"`
	Data       [][]byte `json:"data"`
}

// This is the equivalent of the default in-memory adapter of Socket.IO.
// Have a look at: https://github.com/socketio/socket.io-adapter
//
// Room membership is always kept local to this process. Broadcast delivers
// to locally-known matching sockets directly, then additionally publishes
// the encoded frame on a channel.Layer topic so that sibling processes
// running their own inMemoryAdapter for the same namespace (subscribed to
// the same topic) can deliver to their own local sockets.
type inMemoryAdapter struct {
	mu    sync.Mutex
	rooms map[Room]mapset.Set[SocketID]
	sids  map[SocketID]mapset.Set[Room]

	sockets SocketStore
	parser  parser.Parser

	layer      channel.Layer
	topic      string
	instanceID string
	remote     <-chan []byte
	closeCh    chan struct{}
}

func NewInMemoryAdapterCreator() Creator {
	return func(socketStore SocketStore, parserCreator parser.Creator, layer channel.Layer, topic string) Adapter {
		instanceID := ""
		if id, err := uuid.NewV4(); err == nil {
			instanceID = id.String()
		}

		a := &inMemoryAdapter{
			rooms:      make(map[Room]mapset.Set[SocketID]),
			sids:       make(map[SocketID]mapset.Set[Room]),
			sockets:    socketStore,
			parser:     parserCreator(),
			layer:      layer,
			topic:      topic,
			instanceID: instanceID,
			closeCh:    make(chan struct{}),
		}
		if layer != nil {
			if remote, err := layer.Subscribe(topic); err == nil {
				a.remote = remote
				go a.consumeRemote()
			}
		}
		return a
	}
}

// consumeRemote delivers frames published by sibling processes to sockets
// this process knows about locally. It never re-publishes: the sibling that
// originated the broadcast already published it once.
func (a *inMemoryAdapter) consumeRemote() {
	for {
		select {
		case <-a.closeCh:
			return
		case buffers, ok := <-a.remote:
			if !ok {
				return
			}
			a.deliverRaw(buffers)
		}
	}
}

// deliverRaw relays a frame published by a sibling process to whichever
// sockets are local to this namespace and still match the originating
// room/except filter.
func (a *inMemoryAdapter) deliverRaw(buf []byte) {
	var frame crossProcessFrame
	if err := json.Unmarshal(buf, &frame); err != nil {
		return
	}

	if frame.InstanceID != "" && frame.InstanceID == a.instanceID {
		// Our own publish looped back through channel.MemoryLayer's
		// fan-out; already delivered to local sockets below in Broadcast.
		return
	}

	opts := NewBroadcastOptions()
	for _, r := range frame.Rooms {
		opts.Rooms.Add(r)
	}
	for _, r := range frame.Except {
		opts.Except.Add(r)
	}

	a.apply(opts, func(socket Socket) {
		a.sockets.SendBuffers(socket.ID(), frame.Data)
	})
}

func (a *inMemoryAdapter) Close() {
	select {
	case <-a.closeCh:
	default:
		close(a.closeCh)
	}
	if a.layer != nil {
		a.layer.Unsubscribe(a.topic)
	}
}

func (a *inMemoryAdapter) AddAll(sid SocketID, rooms []Room) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.sids[sid]
	if !ok {
		a.sids[sid] = mapset.NewThreadUnsafeSet[Room]()
	}

	for _, room := range rooms {
		s := a.sids[sid]
		s.Add(room)

		r, ok := a.rooms[room]
		if !ok {
			r = mapset.NewThreadUnsafeSet[SocketID]()
			a.rooms[room] = r
		}
		if !r.Contains(sid) {
			r.Add(sid)
		}
	}
}

func (a *inMemoryAdapter) Delete(sid SocketID, room Room) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if ok {
		s.Remove(room)
	}

	a.delete(sid, room)
}

func (a *inMemoryAdapter) delete(sid SocketID, room Room) {
	r, ok := a.rooms[room]
	if ok {
		r.Remove(sid)
		if r.Cardinality() == 0 {
			delete(a.rooms, room)
		}
	}
}

func (a *inMemoryAdapter) DeleteAll(sid SocketID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if !ok {
		return
	}

	s.Each(func(room Room) bool {
		a.delete(sid, room)
		return false
	})

	delete(a.sids, sid)
}

func (a *inMemoryAdapter) Broadcast(header *parser.PacketHeader, v []any, opts *BroadcastOptions) {
	buffers, err := a.parser.Encode(header, &v)
	if err != nil {
		panic(fmt.Errorf("sio: %w", err))
	}

	a.apply(opts, func(socket Socket) {
		a.sockets.SendBuffers(socket.ID(), buffers)
	})

	if a.layer != nil && !opts.Flags.Local {
		frame := crossProcessFrame{InstanceID: a.instanceID, Data: buffers}
		opts.Rooms.Each(func(r Room) bool { frame.Rooms = append(frame.Rooms, r); return false })
		opts.Except.Each(func(r Room) bool { frame.Except = append(frame.Except, r); return false })

		payload, err := json.Marshal(frame)
		if err == nil {
			// Best-effort: local delivery already happened above, so a
			// publish failure only costs sibling processes this event.
			_ = a.layer.Publish(a.topic, payload)
		}
	}
}

// The return value 'sids' must be a thread safe mapset.Set.
func (a *inMemoryAdapter) Sockets(rooms mapset.Set[Room]) (sids mapset.Set[SocketID]) {
	a.mu.Lock()
	sids = mapset.NewSet[SocketID]()
	opts := NewBroadcastOptions()
	opts.Rooms = rooms
	a.mu.Unlock()

	a.apply(opts, func(socket Socket) {
		sids.Add(socket.ID())
	})
	return
}

// The return value 'rooms' must be a thread safe mapset.Set.
func (a *inMemoryAdapter) SocketRooms(sid SocketID) (rooms mapset.Set[Room], ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sids[sid]
	if !ok {
		return nil, false
	}

	rooms = mapset.NewSet[Room]()
	s.Each(func(room Room) bool {
		rooms.Add(room)
		return false
	})
	return
}

func (a *inMemoryAdapter) FetchSockets(opts *BroadcastOptions) (sockets []Socket) {
	a.apply(opts, func(socket Socket) {
		sockets = append(sockets, socket)
	})
	return
}

func (a *inMemoryAdapter) AddSockets(opts *BroadcastOptions, rooms ...Room) {
	a.apply(opts, func(socket Socket) {
		socket.Join(rooms...)
	})
}

func (a *inMemoryAdapter) DelSockets(opts *BroadcastOptions, rooms ...Room) {
	a.apply(opts, func(socket Socket) {
		for _, room := range rooms {
			socket.Leave(room)
		}
	})
}

func (a *inMemoryAdapter) DisconnectSockets(opts *BroadcastOptions, close bool) {
	a.apply(opts, func(socket Socket) {
		socket.Disconnect(close)
	})
}

func (a *inMemoryAdapter) apply(opts *BroadcastOptions, callback func(socket Socket)) {
	a.mu.Lock()

	exceptSids := a.computeExceptSids(opts.Except)

	// If a room was specified in opts.Rooms, we only use sockets in those
	// rooms. Otherwise (within else), any socket will be used.
	if opts.Rooms.Cardinality() > 0 {
		ids := mapset.NewThreadUnsafeSet[SocketID]()
		opts.Rooms.Each(func(room Room) bool {
			r, ok := a.rooms[room]
			if !ok {
				return false
			}

			r.Each(func(sid SocketID) bool {
				if ids.Contains(sid) || exceptSids.Contains(sid) {
					return false
				}
				socket, ok := a.sockets.Get(sid)
				if ok {
					a.mu.Unlock()
					callback(socket)
					a.mu.Lock()
					ids.Add(sid)
				}
				return false
			})
			return false
		})
	} else {
		for sid := range a.sids {
			if exceptSids.Contains(sid) {
				continue
			}
			socket, ok := a.sockets.Get(sid)
			if ok {
				a.mu.Unlock()
				callback(socket)
				a.mu.Lock()
			}
		}
	}
	a.mu.Unlock()
}

// Beware that the return value 'exceptSids' is thread unsafe.
func (a *inMemoryAdapter) computeExceptSids(exceptRooms mapset.Set[Room]) (exceptSids mapset.Set[SocketID]) {
	exceptSids = mapset.NewThreadUnsafeSet[SocketID]()

	if exceptRooms.Cardinality() > 0 {
		exceptRooms.Each(func(room Room) bool {
			r, ok := a.rooms[room]
			if ok {
				r.Each(func(sid SocketID) bool {
					exceptSids.Add(sid)
					return false
				})
			}
			return false
		})
	}
	return
}
