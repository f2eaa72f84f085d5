package sio

import (
	eio "github.com/kamros/sio/engine.io"
	"github.com/kamros/sio/parser"
)

const (
	SocketIOProtocolVersion = parser.ProtocolVersion
	EngineIOProtocolVersion = eio.ProtocolVersion
)
