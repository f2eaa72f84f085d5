package sio

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	eio "github.com/kamros/sio/engine.io"
	"github.com/kamros/sio/parser"
)

type serverSocket struct {
	id   SocketID
	auth json.RawMessage

	connected   bool
	connectedMu sync.RWMutex

	server  *Server
	conn    *serverConn
	nsp     *Namespace
	adapter Adapter
	parser  parser.Parser

	acks   map[uint64]*ackHandler
	acksMu sync.Mutex

	middlewareFuncs   []reflect.Value
	middlewareFuncsMu sync.RWMutex

	eventHandlers         *eventHandlerStore
	errorHandlers         *handlerStore[*ServerSocketErrorFunc]
	disconnectingHandlers *handlerStore[*ServerSocketDisconnectingFunc]
	disconnectHandlers    *handlerStore[*ServerSocketDisconnectFunc]

	closeOnce sync.Once
}

func newServerSocket(server *Server, c *serverConn, nsp *Namespace, p parser.Parser) (*serverSocket, error) {
	id, err := eio.GenerateBase64ID(eio.Base64IDSize)
	if err != nil {
		return nil, err
	}

	s := &serverSocket{
		id: SocketID(id),

		server:  server,
		conn:    c,
		nsp:     nsp,
		adapter: nsp.Adapter(),
		parser:  p,

		acks: make(map[uint64]*ackHandler),

		eventHandlers:         newEventHandlerStore(),
		errorHandlers:         newHandlerStore[*ServerSocketErrorFunc](),
		disconnectingHandlers: newHandlerStore[*ServerSocketDisconnectingFunc](),
		disconnectHandlers:    newHandlerStore[*ServerSocketDisconnectFunc](),
	}
	return s, nil
}

func (s *serverSocket) Server() *Server { return s.server }

func (s *serverSocket) Namespace() *Namespace { return s.nsp }

// Auth returns the (possibly nil) JSON payload the client sent when it
// connected to this namespace.
func (s *serverSocket) Auth() json.RawMessage { return s.auth }

func (s *serverSocket) IsConnected() bool {
	s.connectedMu.RLock()
	defer s.connectedMu.RUnlock()
	return s.connected
}

var _emptyError error
var reflectError = reflect.TypeOf(&_emptyError).Elem()

// Use registers a middleware run against every incoming event before its
// handler. The function signature must be func(eventName string, v
// []interface{}) error.
func (s *serverSocket) Use(f interface{}) {
	s.middlewareFuncsMu.Lock()
	defer s.middlewareFuncsMu.Unlock()
	rv := reflect.ValueOf(f)
	if rv.Kind() != reflect.Func {
		panic("sio: function expected")
	}
	rt := rv.Type()
	if rt.NumIn() != 2 {
		panic("sio: function signature: func(eventName string, v []interface{}) error")
	}
	if rt.In(0).Kind() != reflect.String {
		panic("sio: function signature: func(eventName string, v []interface{}) error")
	}
	if rt.In(1).Kind() != reflect.Slice || rt.In(1).Elem().Kind() != reflect.Interface {
		panic("sio: function signature: func(eventName string, v []interface{}) error")
	}
	if rt.NumOut() != 1 {
		panic("sio: function signature: func(eventName string, v []interface{}) error")
	}
	if rt.Out(0).Kind() != reflect.Interface || !rt.Out(0).Implements(reflectError) {
		panic("sio: function signature: func(eventName string, v []interface{}) error")
	}
	s.middlewareFuncs = append(s.middlewareFuncs, rv)
}

func (s *serverSocket) onPacket(header *parser.PacketHeader, eventName string, decode parser.Decode) error {
	switch header.Type {
	case parser.PacketTypeEvent, parser.PacketTypeBinaryEvent:
		handlers := s.eventHandlers.GetAll(eventName)

		go func() {
			for _, handler := range handlers {
				s.onEvent(eventName, handler, header, decode)
			}
		}()
	case parser.PacketTypeAck, parser.PacketTypeBinaryAck:
		go s.onAck(header, decode)

	case parser.PacketTypeDisconnect:
		s.onDisconnect()
	default:
		return wrapInternalError(fmt.Errorf("invalid packet type: %d", header.Type))
	}

	return nil
}

func (s *serverSocket) onDisconnect() {
	s.onClose(ReasonClientNamespaceDisconnect)
}

func (s *serverSocket) onEvent(eventName string, handler *eventHandler, header *parser.PacketHeader, decode parser.Decode) {
	values, err := decode(handler.inputArgs...)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}

	if len(values) != len(handler.inputArgs) {
		s.onError(fmt.Errorf("sio: onEvent: invalid number of arguments"))
		return
	}
	for i, v := range values {
		if handler.inputArgs[i].Kind() != reflect.Ptr && v.Kind() == reflect.Ptr {
			values[i] = v.Elem()
		}
	}

	if err := s.callMiddlewares(eventName, values); err != nil {
		s.onError(err)
		return
	}

	if !s.IsConnected() {
		return
	}

	ret, err := handler.Call(values...)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}

	if header.ID != nil {
		s.sendAckPacket(*header.ID, ret)
	}
}

func (s *serverSocket) callMiddlewares(eventName string, values []reflect.Value) error {
	s.middlewareFuncsMu.RLock()
	defer s.middlewareFuncsMu.RUnlock()

	for _, f := range s.middlewareFuncs {
		if err := s.callMiddlewareFunc(f, eventName, values); err != nil {
			return err
		}
	}
	return nil
}

func (s *serverSocket) callMiddlewareFunc(rv reflect.Value, eventName string, values []reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			err, ok = r.(error)
			if !ok {
				err = fmt.Errorf("sio: middleware error: %v", r)
			}
		}
	}()

	anyValues := make([]interface{}, len(values))
	for i, v := range values {
		if v.CanInterface() {
			anyValues[i] = v.Interface()
		}
	}

	args := []reflect.Value{reflect.ValueOf(eventName), reflect.ValueOf(anyValues)}
	rets := rv.Call(args)
	ret := rets[0]
	if ret.IsNil() {
		return nil
	}
	err = ret.Interface().(error)
	return
}

func (s *serverSocket) onAck(header *parser.PacketHeader, decode parser.Decode) {
	if header.ID == nil {
		s.onError(wrapInternalError(fmt.Errorf("header.ID is nil")))
		return
	}

	s.acksMu.Lock()
	ack, ok := s.acks[*header.ID]
	if ok {
		delete(s.acks, *header.ID)
	}
	s.acksMu.Unlock()

	if !ok {
		s.onError(wrapInternalError(fmt.Errorf("ACK with ID %d not found", *header.ID)))
		return
	}

	values, err := decode(ack.inputArgs...)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}

	if len(values) != len(ack.inputArgs) {
		s.onError(fmt.Errorf("sio: onAck: invalid number of arguments"))
		return
	}
	for i, v := range values {
		if ack.inputArgs[i].Kind() != reflect.Ptr && v.Kind() == reflect.Ptr {
			values[i] = v.Elem()
		}
	}

	if err := ack.Call(values...); err != nil {
		s.onError(wrapInternalError(err))
	}
}

func (s *serverSocket) Join(room ...Room) {
	s.adapter.AddAll(s.ID(), room)
}

func (s *serverSocket) Leave(room Room) {
	s.adapter.Delete(s.ID(), room)
}

func (s *serverSocket) Rooms() mapset.Set[Room] {
	rooms, ok := s.adapter.SocketRooms(s.ID())
	if !ok {
		return mapset.NewSet[Room]()
	}
	return rooms
}

func (s *serverSocket) To(room ...Room) *BroadcastOperator {
	return s.newBroadcastOperator().To(room...)
}

func (s *serverSocket) In(room ...Room) *BroadcastOperator {
	return s.To(room...)
}

func (s *serverSocket) Except(room ...Room) *BroadcastOperator {
	return s.newBroadcastOperator().Except(room...)
}

func (s *serverSocket) Local() *BroadcastOperator {
	return s.newBroadcastOperator().Local()
}

func (s *serverSocket) Broadcast() *BroadcastOperator {
	return s.newBroadcastOperator()
}

func (s *serverSocket) newBroadcastOperator() *BroadcastOperator {
	return newBroadcastOperator(s.nsp.Name(), s.adapter, s.parser).Except(Room(s.ID()))
}

type sidInfo struct {
	SID string `json:"sid"`
}

func (s *serverSocket) onConnect() error {
	s.connectedMu.Lock()
	defer s.connectedMu.Unlock()

	// A socket's own ID is always a room it belongs to, so To(socket.ID())
	// reaches exactly that socket.
	s.adapter.AddAll(s.ID(), []Room{Room(s.ID())})

	header := &parser.PacketHeader{
		Type:      parser.PacketTypeConnect,
		Namespace: s.nsp.Name(),
	}

	c := &sidInfo{SID: string(s.ID())}

	buffers, err := s.parser.Encode(header, c)
	if err != nil {
		return wrapInternalError(err)
	}

	s.conn.sendBuffers(buffers...)
	s.connected = true
	return nil
}

func (s *serverSocket) onError(err error) {
	for _, handler := range s.errorHandlers.getAll() {
		(*handler)(err)
	}
}

func (s *serverSocket) onClose(reason Reason) {
	s.closeOnce.Do(func() {
		if !s.IsConnected() {
			return
		}

		for _, handler := range s.disconnectingHandlers.getAll() {
			(*handler)(reason)
		}

		s.adapter.DeleteAll(s.ID())

		s.nsp.remove(s)
		s.conn.sockets.Remove(string(s.ID()))

		s.connectedMu.Lock()
		s.connected = false
		s.connectedMu.Unlock()

		for _, handler := range s.disconnectHandlers.getAll() {
			(*handler)(reason)
		}
	})
}

func (s *serverSocket) ID() SocketID {
	return s.id
}

func (s *serverSocket) setAck(handler *ackHandler) (id uint64) {
	id = s.nsp.nextAckID()
	s.acksMu.Lock()
	s.acks[id] = handler
	s.acksMu.Unlock()
	return
}

func (s *serverSocket) Emit(eventName string, v ...interface{}) {
	s.sendDataPacket(parser.PacketTypeEvent, eventName, v...)
}

func (s *serverSocket) sendDataPacket(typ parser.PacketType, eventName string, _v ...interface{}) {
	if IsEventReservedForServer(eventName) {
		panic(fmt.Errorf("sio: Emit: attempted to emit a reserved event"))
	}

	header := &parser.PacketHeader{
		Type:      typ,
		Namespace: s.nsp.Name(),
	}

	v := make([]interface{}, 0, len(_v)+1)
	v = append(v, eventName)
	v = append(v, _v...)

	if len(v) > 0 {
		f := v[len(v)-1]
		if rt := reflect.TypeOf(f); rt != nil && rt.Kind() == reflect.Func {
			ackID := s.setAck(newAckHandler(f))
			header.ID = &ackID
			v = v[:len(v)-1]
		}
	}

	buffers, err := s.parser.Encode(header, &v)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}
	s.conn.sendBuffers(buffers...)
}

func (s *serverSocket) sendControlPacket(typ parser.PacketType, v ...interface{}) {
	header := parser.PacketHeader{
		Type:      typ,
		Namespace: s.nsp.Name(),
	}

	buffers, err := s.parser.Encode(&header, &v)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}

	s.conn.sendBuffers(buffers...)
}

func (s *serverSocket) sendAckPacket(id uint64, values []reflect.Value) {
	header := parser.PacketHeader{
		Type:      parser.PacketTypeAck,
		Namespace: s.nsp.Name(),
		ID:        &id,
	}

	v := make([]interface{}, len(values))

	for i := range values {
		if values[i].CanInterface() {
			v[i] = values[i].Interface()
		} else {
			s.onError(fmt.Errorf("sio: sendAck: CanInterface must be true"))
			return
		}
	}

	buffers, err := s.parser.Encode(&header, &v)
	if err != nil {
		s.onError(wrapInternalError(err))
		return
	}

	s.conn.sendBuffers(buffers...)
}

func (s *serverSocket) Disconnect(close bool) {
	if !s.IsConnected() {
		return
	}
	if close {
		s.conn.DisconnectAll()
		s.conn.Close()
	} else {
		s.sendControlPacket(parser.PacketTypeDisconnect)
		s.onClose(ReasonServerNamespaceDisconnect)
	}
}
