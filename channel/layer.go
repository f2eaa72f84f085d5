// Package channel provides the cross-process fan-out primitive used by
// adapter.Adapter to broadcast room events to sibling Socket.IO server
// processes. Local delivery never goes through here: a Layer only carries
// the encoded frame to other processes' adapters, each of which delivers to
// its own locally-known sockets.
package channel

// Layer is deliberately tiny: publish/subscribe by topic name, nothing
// else. A namespace's adapter owns exactly one topic for its whole
// lifetime (see adapter.NewInMemoryAdapterCreator).
type Layer interface {
	Publish(topic string, payload []byte) error

	// Subscribe returns a channel of raw payloads published to topic by any
	// process. Whether this process's own publishes come back depends on
	// the implementation: MemoryLayer echoes them, RedisLayer drops them.
	// The adapter tags its frames with its own instance id and ignores its
	// own echoes either way. The channel is closed when Unsubscribe or
	// Close is called.
	Subscribe(topic string) (<-chan []byte, error)

	Unsubscribe(topic string)

	Close() error
}
