package channel

import "sync"

// MemoryLayer is a process-local Layer: Publish fans a payload out to every
// Subscribe'd channel for that topic within the same process. It is the
// default Layer for a single-instance deployment, and lets tests exercise
// the publish/subscribe wiring without a Redis instance.
type MemoryLayer struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{subs: make(map[string][]chan []byte)}
}

func (l *MemoryLayer) Publish(topic string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range l.subs[topic] {
		select {
		case ch <- payload:
		default:
			// Slow subscriber; drop rather than block the publisher.
		}
	}
	return nil
}

func (l *MemoryLayer) Subscribe(topic string) (<-chan []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan []byte, 64)
	l.subs[topic] = append(l.subs[topic], ch)
	return ch, nil
}

func (l *MemoryLayer) Unsubscribe(topic string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range l.subs[topic] {
		close(ch)
	}
	delete(l.subs, topic)
}

func (l *MemoryLayer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for topic, chs := range l.subs {
		for _, ch := range chs {
			close(ch)
		}
		delete(l.subs, topic)
	}
	return nil
}
