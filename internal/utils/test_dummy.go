package utils

import (
	"net/http"
	"time"

	eio "github.com/kamros/sio/engine.io"
	"github.com/kamros/sio/engine.io/parser"
	"github.com/kamros/sio/engine.io/transport"
)

type TestSocket struct {
	id           string
	Closed       bool
	ClosedReason eio.Reason
	SendFunc     func(packets ...*parser.Packet)
}

func NewTestSocket(id string) *TestSocket {
	return &TestSocket{
		id:       id,
		SendFunc: func(packets ...*parser.Packet) {},
	}
}

// Session ID (sid)
func (s *TestSocket) ID() string { return s.id }

// Transport is never consulted by the sio package itself; it returns nil
// here since no fake transport is wired up to this dummy socket.
func (s *TestSocket) Transport() eio.ServerTransport { return nil }

func (s *TestSocket) Upgrades() []string { return nil }

func (s *TestSocket) PingInterval() time.Duration { return time.Second * 20 }
func (s *TestSocket) PingTimeout() time.Duration  { return time.Second * 25 }

// Name of the current transport
func (s *TestSocket) TransportName() string { return "polling" }

func (s *TestSocket) Send(packets ...*parser.Packet) { s.SendFunc(packets...) }

func (s *TestSocket) Close() { s.Closed = true }

func (s *TestSocket) CloseWithReason(reason eio.Reason) {
	s.Closed = true
	s.ClosedReason = reason
}

type TestServerTransport struct {
	Callbacks *transport.Callbacks
}

func NewTestServerTransport() *TestServerTransport {
	return &TestServerTransport{Callbacks: transport.NewCallbacks()}
}

func (t *TestServerTransport) Name() string { return "fake" }

func (t *TestServerTransport) Handshake(
	_ *parser.Packet,
	w http.ResponseWriter,
	r *http.Request,
) error {
	return nil
}

func (t *TestServerTransport) PostHandshake() {}

func (t *TestServerTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {}

func (t *TestServerTransport) QueuedPackets() []*parser.Packet { return nil }

func (t *TestServerTransport) Send(packets ...*parser.Packet) {}

func (t *TestServerTransport) Discard() {}
func (t *TestServerTransport) Close()   {}
