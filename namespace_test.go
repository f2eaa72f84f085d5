package sio

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"

	eio "github.com/kamros/sio/engine.io"
	eioparser "github.com/kamros/sio/engine.io/parser"
	"github.com/kamros/sio/internal/sync"
	"github.com/kamros/sio/internal/utils"
)

// connectTestSocket drives a fake Engine.IO connection through the
// CONNECT handshake for the given namespace (empty string or "/" for the
// default namespace) and returns the fake transport socket backing it
// along with the Engine.IO-level callbacks registered for it.
func connectTestSocket(server *Server, id, nsp string) (*utils.TestSocket, *eio.Callbacks) {
	fake := utils.NewTestSocket(id)
	callbacks := server.onSocket(fake)

	body := "0"
	if nsp != "" && nsp != "/" {
		body = "0" + nsp + ","
	}
	callbacks.OnPacket(mustCreateEIOPacket(eioparser.PacketTypeMessage, false, []byte(body)))
	return fake, callbacks
}

func TestNamespaceConnect(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(1)

	var connected ServerSocket
	server.Of("/").OnConnection(func(socket ServerSocket) {
		connected = socket
		tw.Done()
	})

	connectTestSocket(server, "s1", "/")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
	assert.NotNil(t, connected)
	assert.Len(t, server.Of("/").Sockets(), 1)
}

func TestNamespaceEmptyAndSlashAreEquivalent(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiterString()
	tw.Add("empty")
	tw.Add("slash")

	server.Of("").OnConnection(func(socket ServerSocket) {
		tw.Done("empty")
	})
	server.Of("/").OnConnection(func(socket ServerSocket) {
		tw.Done("slash")
	})

	// Both handlers sit on the same namespace, so one CONNECT fires each
	// exactly once (a second CONNECT would fire both again).
	connectTestSocket(server, "s1", "")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
}

func TestNamespaceManyNamespaces(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiterString()
	tw.Add("/chat")
	tw.Add("/news")
	tw.Add("/")

	server.Of("/chat").OnConnection(func(socket ServerSocket) {
		tw.Done("/chat")
	})
	server.Of("/news").OnConnection(func(socket ServerSocket) {
		tw.Done("/news")
	})
	server.Of("/").OnConnection(func(socket ServerSocket) {
		tw.Done("/")
	})

	connectTestSocket(server, "s1", "/chat")
	connectTestSocket(server, "s2", "/news")
	connectTestSocket(server, "s3", "/")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
}

func TestNamespaceDisconnectingFiresBeforeDisconnect(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(2)

	var socket ServerSocket
	server.Of("/").OnConnection(func(s ServerSocket) {
		socket = s
		s.Join("a")
		s.OnDisconnecting(func(reason Reason) {
			assert.True(t, s.Rooms().ContainsOne(Room("a")))
			tw.Done()
		})
		s.OnDisconnect(func(reason Reason) {
			assert.False(t, s.Rooms().ContainsOne(Room("a")))
			tw.Done()
		})
	})

	connectTestSocket(server, "s1", "/")
	socket.Disconnect(false)

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
	assert.Len(t, server.Of("/").Sockets(), 0)
}

func TestNamespaceClientDisconnectPacket(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(1)

	server.Of("/").OnConnection(func(s ServerSocket) {
		s.OnDisconnect(func(reason Reason) {
			assert.Equal(t, ReasonClientNamespaceDisconnect, reason)
			tw.Done()
		})
	})

	_, callbacks := connectTestSocket(server, "s1", "/")

	// Rather than closing the transport, the client sends its own
	// DISCONNECT packet ("1").
	callbacks.OnPacket(mustCreateEIOPacket(eioparser.PacketTypeMessage, false, []byte("1")))

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
	assert.Len(t, server.Of("/").Sockets(), 0)
}

func TestNamespaceFetchSocketsInNamespace(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(3)

	server.Of("/chat").OnConnection(func(socket ServerSocket) {
		tw.Done()
	})

	connectTestSocket(server, "s1", "/chat")
	connectTestSocket(server, "s2", "/chat")
	connectTestSocket(server, "s3", "/chat")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)

	sockets := server.Of("/chat").FetchSockets()
	assert.Len(t, sockets, 3)

	ids := mapset.NewThreadUnsafeSet[SocketID]()
	for _, s := range sockets {
		ids.Add(s.ID())
	}
	assert.Equal(t, 3, ids.Cardinality())
}

func TestNamespaceFetchSocketsInRoom(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(1)

	var (
		fooID SocketID
		mu    sync.Mutex
		total int
	)

	server.Of("/chat").OnConnection(func(socket ServerSocket) {
		mu.Lock()
		if fooID == "" {
			fooID = socket.ID()
			socket.Join("foo")
		} else {
			socket.Join("bar")
		}
		total++
		n := total
		mu.Unlock()
		if n == 2 {
			tw.Done()
		}
	})

	connectTestSocket(server, "s1", "/chat")
	connectTestSocket(server, "s2", "/chat")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)

	sockets := server.Of("/chat").In("foo").FetchSockets()
	assert.Len(t, sockets, 1)
	assert.Equal(t, fooID, sockets[0].ID())
}

func TestNamespaceEmitPanicsOnReservedEvent(t *testing.T) {
	server := NewServer(nil)
	assert.Panics(t, func() {
		server.Of("/").Emit("connect")
	})
}

func TestNamespaceNewNamespaceEvent(t *testing.T) {
	server := NewServer(nil)
	tw := utils.NewTestWaiter(1)

	server.OnNewNamespace(func(namespace *Namespace) {
		assert.Equal(t, "/nsp", namespace.Name())
		tw.Done()
	})
	server.Of("/nsp")

	tw.WaitTimeout(t, utils.DefaultTestWaitTimeout)
}

// isEventMessage reports whether an Engine.IO message packet carries a
// Socket.IO EVENT packet, as opposed to e.g. the CONNECT acknowledgment
// every socket receives on handshake.
func isEventMessage(p *eioparser.Packet) bool {
	return p.Type == eioparser.PacketTypeMessage && len(p.Data) > 0 && p.Data[0] == '2'
}

func TestNamespaceExceptExcludesSocket(t *testing.T) {
	server := NewServer(nil)
	connectWait := utils.NewTestWaiter(2)

	var (
		excludedID SocketID
		mu         sync.Mutex
	)
	server.Of("/").OnConnection(func(socket ServerSocket) {
		mu.Lock()
		if excludedID == "" {
			excludedID = socket.ID()
		}
		mu.Unlock()
		connectWait.Done()
	})

	connectTestSocket(server, "s1", "/")
	other, _ := connectTestSocket(server, "s2", "/")
	connectWait.WaitTimeout(t, utils.DefaultTestWaitTimeout)

	var (
		receivedByOther [][]byte
		otherWait       = utils.NewTestWaiter(1)
	)
	other.SendFunc = func(packets ...*eioparser.Packet) {
		for _, p := range packets {
			if isEventMessage(p) {
				mu.Lock()
				receivedByOther = append(receivedByOther, p.Data)
				mu.Unlock()
				otherWait.Done()
			}
		}
	}

	server.Of("/").Except(Room(excludedID)).Emit("a", "b")

	otherWait.WaitTimeout(t, utils.DefaultTestWaitTimeout)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, receivedByOther, 1)
	assert.Equal(t, `2["a","b"]`, string(receivedByOther[0]))
}
