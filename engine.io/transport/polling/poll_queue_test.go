package polling

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kamros/sio/engine.io/parser"
	"github.com/stretchr/testify/assert"
)

func TestPollQueue(t *testing.T) {
	pq := newPollQueue()

	test := []*parser.Packet{
		mustCreatePacket(t, parser.PacketTypeOpen, false, nil),
		mustCreatePacket(t, parser.PacketTypeClose, false, nil),
		mustCreatePacket(t, parser.PacketTypePing, false, []byte("testing123")),
		mustCreatePacket(t, parser.PacketTypePong, false, []byte("testing123")),
		mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("testing123")),
		mustCreatePacket(t, parser.PacketTypeMessage, true, []byte{0x0, 0x1, 0x2, 0x3}),
		mustCreatePacket(t, parser.PacketTypeUpgrade, false, nil),
		mustCreatePacket(t, parser.PacketTypeNoop, false, nil),
	}

	for _, p := range test {
		pq.add(p)
	}

	length := pq.len()

	packets := pq.get()
	assert.Equal(t, length, len(packets))
	assert.Equal(t, len(test), length)

	for i, p1 := range packets {
		p2 := test[i]

		if p1.Type != p2.Type {
			t.Fatal("packet types differ")
		} else if p1.IsBinary != p2.IsBinary {
			t.Fatal("isBinary fields differ")
		} else if !bytes.Equal(p1.Data, p2.Data) {
			t.Fatal("data doesn't match")
		}
	}
}

func TestPoll(t *testing.T) {
	pq := newPollQueue()

	const (
		waitFor = 500 * time.Millisecond

		// Slightly increase the time. The receive operation shouldn't exceed this duration.
		max = waitFor + 50*time.Millisecond
	)

	go func() {
		time.Sleep(waitFor)
		p := mustCreatePacket(t, parser.PacketTypeMessage, false, nil)
		pq.add(p)
	}()

	start := time.Now()
	packets := pq.poll(1 * time.Second)
	assert.Equal(t, 1, len(packets), "expected 1 packet")

	elapsed := time.Since(start)

	t.Logf("waitFor: %dms\nelapsed time: %dms\n", waitFor.Milliseconds(), elapsed.Milliseconds())

	if elapsed >= max {
		t.Fatal("it takes too much time to receive a packet from a pollQueue")
	}

	assert.Equal(t, 0, pq.len(), "pq should be empty after running pq.Poll")
}

func TestPollTimeout(t *testing.T) {
	pq := newPollQueue()

	const waitFor = 500 * time.Millisecond

	go func() {
		time.Sleep(waitFor)
		p := mustCreatePacket(t, parser.PacketTypeMessage, false, nil)
		pq.add(p)
	}()

	packets := pq.poll(waitFor - 50*time.Millisecond)
	assert.Equal(t, 0, len(packets), "expected 0 packet (because of the timeout)")
}

func TestPollCtxCancelledBeforePacket(t *testing.T) {
	pq := newPollQueue()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	packets, cancelled := pq.pollCtx(ctx, 1*time.Second)
	assert.True(t, cancelled)
	assert.Empty(t, packets)
	assert.Equal(t, 0, pq.len(), "nothing should have been drained from the queue")
}

func TestPollCtxReturnsAvailablePacket(t *testing.T) {
	pq := newPollQueue()
	pq.add(mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("hi")))

	packets, cancelled := pq.pollCtx(context.Background(), 1*time.Second)
	assert.False(t, cancelled)
	assert.Equal(t, 1, len(packets))
}

func TestPollQueuePrependRestoresOrder(t *testing.T) {
	pq := newPollQueue()

	drained := []*parser.Packet{
		mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("first")),
		mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("second")),
	}
	pq.add(mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("third")))

	pq.prepend(drained)

	packets := pq.get()
	assert.Equal(t, 3, len(packets))
	assert.Equal(t, "first", string(packets[0].Data))
	assert.Equal(t, "second", string(packets[1].Data))
	assert.Equal(t, "third", string(packets[2].Data))
}

func mustCreatePacket(t *testing.T, packetType parser.PacketType, isBinary bool, data []byte) *parser.Packet {
	p, err := parser.NewPacket(packetType, isBinary, data)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
