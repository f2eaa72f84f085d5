package adapter

// SocketStore is how an Adapter reaches the namespace's live local sockets.
// It is implemented by *sio.NamespaceSocketStore; the adapter package never imports sio
// (the dependency runs the other way), so this interface is the seam
// between the two.
type SocketStore interface {
	Get(sid SocketID) (so Socket, ok bool)

	// SendBuffers pushes already-encoded Engine.IO payload buffers to a
	// specific local socket. ok is false if sid isn't a local socket.
	SendBuffers(sid SocketID, buffers [][]byte) (ok bool)

	GetAll() []Socket

	Remove(sid SocketID)
}
