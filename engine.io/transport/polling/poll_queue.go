package polling

import (
	"context"
	"time"

	"github.com/kamros/sio/internal/sync"

	"github.com/kamros/sio/engine.io/parser"
)

type pollQueue struct {
	packets []*parser.Packet
	ready   chan struct{}
	mu      sync.Mutex
}

func newPollQueue() *pollQueue {
	return &pollQueue{
		ready: make(chan struct{}),
	}
}

// poll for packets. If we already have a packet, this function will immediately return.
// Otherwise it will wait for a packet until pollTimeout is reached.
func (pq *pollQueue) poll(pollTimeout time.Duration) []*parser.Packet {
	packets := pq.get()

	if len(packets) > 0 {
		return packets
	}

	select {
	case <-pq.ready:
		packets = pq.get()
	case <-time.After(pollTimeout):
	}
	return packets
}

// pollCtx behaves like poll, but also wakes up if ctx is cancelled (the
// client dropped the connection) before a packet arrives. cancelled is true
// only when ctx was done before a packet arrived or the timeout elapsed; in
// that case nothing was drained from the queue.
func (pq *pollQueue) pollCtx(ctx context.Context, pollTimeout time.Duration) (packets []*parser.Packet, cancelled bool) {
	packets = pq.get()
	if len(packets) > 0 {
		return packets, false
	}

	select {
	case <-pq.ready:
		return pq.get(), false
	case <-ctx.Done():
		return nil, true
	case <-time.After(pollTimeout):
		return nil, false
	}
}

// prepend puts packets back at the head of the queue, ahead of anything
// added since they were drained. Used when a poll request's HTTP
// connection was cancelled after packets were drained but before they
// could be written to the response.
func (pq *pollQueue) prepend(packets []*parser.Packet) {
	if len(packets) == 0 {
		return
	}

	pq.mu.Lock()
	pq.packets = append(packets, pq.packets...)
	pq.mu.Unlock()

	select {
	case pq.ready <- struct{}{}:
	default:
	}
}

// add a packet to the queue and signal the other goroutine (if any).
func (pq *pollQueue) add(packets ...*parser.Packet) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if len(pq.packets) == 0 {
		pq.packets = packets
	} else {
		pq.packets = append(pq.packets, packets...)
	}

	// Send the signal.
	select {
	case pq.ready <- struct{}{}:
	default:
	}
}

// Retrieve the packets without waiting.
func (pq *pollQueue) get() []*parser.Packet {
	pq.mu.Lock()
	packets := pq.packets
	pq.packets = nil
	pq.mu.Unlock()
	return packets
}

func (pq *pollQueue) len() int {
	pq.mu.Lock()
	l := len(pq.packets)
	pq.mu.Unlock()
	return l
}
