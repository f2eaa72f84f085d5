package sio

import "github.com/kamros/sio/adapter"

type (
	SocketID = adapter.SocketID
	Room     = adapter.Room
	Adapter  = adapter.Adapter
)
