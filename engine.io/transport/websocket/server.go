package websocket

import (
	"context"
	"io"
	"net/http"

	"github.com/kamros/sio/internal/sync"

	"github.com/kamros/sio/engine.io/parser"
	"github.com/kamros/sio/engine.io/transport"
	"nhooyr.io/websocket"
)

type ServerTransport struct {
	readLimit      int64
	supportsBinary bool
	acceptOptions  *websocket.AcceptOptions

	ctx  context.Context
	conn *websocket.Conn

	callbacks *transport.Callbacks
	once      sync.Once
}

func NewServerTransport(
	callbacks *transport.Callbacks,
	maxBufferSize int64,
	supportsBinary bool,
	acceptOptions *websocket.AcceptOptions,
) *ServerTransport {
	return &ServerTransport{
		readLimit:      maxBufferSize,
		supportsBinary: supportsBinary,
		callbacks:      callbacks,
		acceptOptions:  acceptOptions,
	}
}

func (t *ServerTransport) Name() string { return "websocket" }

func (t *ServerTransport) QueuedPackets() []*parser.Packet {
	// There's no queue on WebSocket. Packets are directly sent.
	return nil
}

func (t *ServerTransport) Send(packets ...*parser.Packet) {
	for _, packet := range packets {
		err := t.send(packet)
		if err != nil {
			t.close(err)
			break
		}
	}
}

func (t *ServerTransport) send(packet *parser.Packet) error {
	var mt websocket.MessageType
	if packet.IsBinary {
		mt = websocket.MessageBinary
	} else {
		mt = websocket.MessageText
	}

	w, err := t.conn.Writer(t.ctx, mt)
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(packet.Build(true))
	return err
}

func (t *ServerTransport) Handshake(handshakePacket *parser.Packet, w http.ResponseWriter, r *http.Request) (err error) {
	t.ctx = r.Context()
	t.conn, err = websocket.Accept(w, r, t.acceptOptions)
	if err != nil {
		return err
	}
	if t.readLimit != 0 {
		t.conn.SetReadLimit(t.readLimit)
	}
	return t.writeHandshakePacket(handshakePacket)
}

func (t *ServerTransport) writeHandshakePacket(packet *parser.Packet) error {
	if packet != nil {
		w, err := t.conn.Writer(t.ctx, websocket.MessageText)
		if err != nil {
			t.close(err)
			return err
		}
		defer w.Close()

		_, err = w.Write(packet.Build(t.supportsBinary))
		if err != nil {
			t.close(err)
			return err
		}
	}
	return nil
}

func (t *ServerTransport) PostHandshake() {
	for {
		packet, err := t.nextPacket()
		if err != nil {
			t.close(err)
			return
		}
		t.callbacks.OnPacket(packet)
	}
}

func (t *ServerTransport) nextPacket() (*parser.Packet, error) {
	mt, r, err := t.conn.Reader(t.ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parser.Parse(data, mt == websocket.MessageBinary)
}

func (t *ServerTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusBadRequest)
}

func (t *ServerTransport) Discard() {
	t.once.Do(func() {
		if t.conn != nil {
			t.conn.Close(websocket.StatusNormalClosure, "")
		}
	})
}

func (t *ServerTransport) close(err error) {
	t.once.Do(func() {
		status := websocket.CloseStatus(err)
		if status == -1 {
			err = nil
		}
		for _, expected := range expectedCloseCodes {
			if status == expected {
				err = nil
				break
			}
		}

		defer t.callbacks.OnClose(t.Name(), err)

		if t.conn != nil {
			t.conn.Close(websocket.StatusNormalClosure, "")
		}
	})
}

func (t *ServerTransport) Close() {
	t.close(nil)
}
