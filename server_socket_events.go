package sio

func (s *serverSocket) OnEvent(eventName string, handler any) {
	if IsEventReservedForServer(eventName) {
		panic("sio: OnEvent: attempted to register a reserved event: `" + eventName + "`")
	}
	h, err := newEventHandler(handler)
	if err != nil {
		panic(err)
	}
	s.eventHandlers.On(eventName, h)
}

func (s *serverSocket) OnceEvent(eventName string, handler any) {
	if IsEventReservedForServer(eventName) {
		panic("sio: OnceEvent: attempted to register a reserved event: `" + eventName + "`")
	}
	h, err := newEventHandler(handler)
	if err != nil {
		panic(err)
	}
	s.eventHandlers.Once(eventName, h)
}

func (s *serverSocket) OffEvent(eventName string, handler ...any) {
	s.eventHandlers.Off(eventName, handler...)
}

func (s *serverSocket) OffAll() {
	s.eventHandlers.OffAll()
	s.errorHandlers.offAll()
	s.disconnectingHandlers.offAll()
	s.disconnectHandlers.offAll()
}

type (
	ServerSocketDisconnectingFunc func(reason Reason)
	ServerSocketDisconnectFunc    func(reason Reason)
	ServerSocketErrorFunc         func(err error)
)

func (s *serverSocket) OnError(f ServerSocketErrorFunc) {
	s.errorHandlers.on(&f)
}

func (s *serverSocket) OnceError(f ServerSocketErrorFunc) {
	s.errorHandlers.once(&f)
}

func (s *serverSocket) OffError(funcs ...ServerSocketErrorFunc) {
	s.errorHandlers.off(handlerRefs(funcs)...)
}

func (s *serverSocket) OnDisconnecting(f ServerSocketDisconnectingFunc) {
	s.disconnectingHandlers.on(&f)
}

func (s *serverSocket) OnceDisconnecting(f ServerSocketDisconnectingFunc) {
	s.disconnectingHandlers.once(&f)
}

func (s *serverSocket) OffDisconnecting(funcs ...ServerSocketDisconnectingFunc) {
	s.disconnectingHandlers.off(handlerRefs(funcs)...)
}

func (s *serverSocket) OnDisconnect(f ServerSocketDisconnectFunc) {
	s.disconnectHandlers.on(&f)
}

func (s *serverSocket) OnceDisconnect(f ServerSocketDisconnectFunc) {
	s.disconnectHandlers.once(&f)
}

func (s *serverSocket) OffDisconnect(funcs ...ServerSocketDisconnectFunc) {
	s.disconnectHandlers.off(handlerRefs(funcs)...)
}
