package main

import (
	"fmt"
	"sync"

	sio "github.com/kamros/sio"
)

// chatAPI tracks which room each connected socket has joined, so a
// disconnect can announce departure to the right room without the client
// having to say so again.
type chatAPI struct {
	mu    sync.Mutex
	rooms map[sio.ServerSocket]sio.Room
	names map[sio.ServerSocket]string
}

func newChatAPI() *chatAPI {
	return &chatAPI{
		rooms: make(map[sio.ServerSocket]sio.Room),
		names: make(map[sio.ServerSocket]string),
	}
}

type chatMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type joinAck struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
}

func (a *chatAPI) setup(nsp *sio.Namespace) {
	nsp.OnConnection(func(socket sio.ServerSocket) {
		fmt.Printf("chatserver: %s connected\n", socket.ID())

		// The return value becomes the ack payload sent back to whichever
		// client called this event with a callback of its own.
		socket.OnEvent("join", func(username, roomName string) joinAck {
			room := sio.Room(roomName)

			a.mu.Lock()
			if old, ok := a.rooms[socket]; ok {
				socket.Leave(old)
			}
			a.rooms[socket] = room
			a.names[socket] = username
			a.mu.Unlock()

			socket.Join(room)

			members := len(nsp.In(room).FetchSockets())

			socket.To(room).Emit("user joined", struct {
				Username string `json:"username"`
				Members  int    `json:"members"`
			}{username, members})

			return joinAck{Room: roomName, Members: members}
		})

		socket.OnEvent("message", func(text string) {
			a.mu.Lock()
			room, hasRoom := a.rooms[socket]
			username := a.names[socket]
			a.mu.Unlock()
			if !hasRoom {
				return
			}

			socket.To(room).Except(sio.Room(socket.ID())).Emit("message", chatMessage{
				Username: username,
				Message:  text,
			})
		})

		socket.OnEvent("typing", func() {
			a.withRoom(socket, func(room sio.Room, username string) {
				socket.To(room).Except(sio.Room(socket.ID())).Emit("typing", username)
			})
		})

		socket.OnDisconnect(func(reason sio.Reason) {
			a.mu.Lock()
			room, hasRoom := a.rooms[socket]
			username := a.names[socket]
			delete(a.rooms, socket)
			delete(a.names, socket)
			a.mu.Unlock()

			fmt.Printf("chatserver: %s disconnected (%s)\n", socket.ID(), reason)
			if hasRoom {
				nsp.To(room).Emit("user left", username)
			}
		})
	})
}

func (a *chatAPI) withRoom(socket sio.ServerSocket, f func(room sio.Room, username string)) {
	a.mu.Lock()
	room, ok := a.rooms[socket]
	username := a.names[socket]
	a.mu.Unlock()
	if ok {
		f(room, username)
	}
}
