package sio

import (
	"net/http"
	"time"

	"github.com/kamros/sio/adapter"
	"github.com/kamros/sio/channel"
	eio "github.com/kamros/sio/engine.io"
	"github.com/kamros/sio/parser"
	jsonparser "github.com/kamros/sio/parser/json"
	"github.com/kamros/sio/parser/json/serializer/stdjson"
)

type ServerConfig struct {
	ParserCreator  parser.Creator
	AdapterCreator adapter.Creator

	// ChannelLayer fans broadcasts out to sibling processes subscribed to
	// the same namespace topics. Left nil, a namespace's adapter never
	// subscribes to anything and broadcasts stay local to this process.
	//
	// A channel.MemoryLayer fans every publish out to all of its
	// subscribers, including the adapter that published it; each
	// adapter.inMemoryAdapter stamps its own publishes with an instance id
	// and drops the echo on receipt, so a single MemoryLayer can safely be
	// shared across every Namespace of one Server, or across several
	// Servers simulating sibling processes in tests.
	ChannelLayer channel.Layer

	// ConnectTimeout is how long a newly accepted Engine.IO connection is
	// given to open at least one namespace before it's dropped.
	ConnectTimeout time.Duration

	EIO eio.ServerConfig
}

type Server struct {
	parserCreator  parser.Creator
	adapterCreator adapter.Creator
	channelLayer   channel.Layer
	connectTimeout time.Duration

	eio *eio.Server

	nsps *namespaceStore

	newNamespaceHandlers  *handlerStore[*ServerNewNamespaceFunc]
	anyConnectionHandlers *handlerStore[*ServerAnyConnectionFunc]
}

func NewServer(config *ServerConfig) *Server {
	if config == nil {
		config = new(ServerConfig)
	}

	server := &Server{
		parserCreator:  config.ParserCreator,
		adapterCreator: config.AdapterCreator,
		channelLayer:   config.ChannelLayer,
		connectTimeout: config.ConnectTimeout,

		nsps: newNamespaceStore(),

		newNamespaceHandlers:  newHandlerStore[*ServerNewNamespaceFunc](),
		anyConnectionHandlers: newHandlerStore[*ServerAnyConnectionFunc](),
	}

	if server.parserCreator == nil {
		server.parserCreator = jsonparser.NewCreator(0, stdjson.New())
	}
	if server.adapterCreator == nil {
		server.adapterCreator = adapter.NewInMemoryAdapterCreator()
	}
	if server.connectTimeout == 0 {
		server.connectTimeout = 45 * time.Second
	}

	server.eio = eio.NewServer(server.onSocket, &config.EIO)

	return server
}

// Of returns the namespace identified by name, creating it (and firing
// OnNewNamespace) on first access. An empty name is the default
// namespace "/".
func (s *Server) Of(name string) *Namespace {
	if name == "" {
		name = "/"
	}
	nsp, created := s.nsps.GetOrCreate(name, s, s.adapterCreator, s.parserCreator)
	if created {
		for _, handler := range s.newNamespaceHandlers.getAll() {
			(*handler)(nsp)
		}
	}
	return nsp
}

func (s *Server) onSocket(eioSocket eio.ServerSocket) *eio.Callbacks {
	_, callbacks := newServerConn(s, eioSocket, s.parserCreator)
	return callbacks
}

func (s *Server) Run() error {
	return s.eio.Run()
}

func (s *Server) PollTimeout() time.Duration {
	return s.eio.PollTimeout()
}

func (s *Server) HTTPWriteTimeout() time.Duration {
	return s.eio.HTTPWriteTimeout()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.eio.ServeHTTP(w, r)
}

func (s *Server) IsClosed() bool {
	return s.eio.IsClosed()
}

func (s *Server) Close() error {
	return s.eio.Close()
}
