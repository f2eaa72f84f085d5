package sio

import (
	"sync"

	"github.com/kamros/sio/adapter"
	"github.com/kamros/sio/parser"
)

// namespaceStore is a concurrency-safe registry of namespaces keyed by
// name. The server keeps one to hold every namespace created through
// Server.Of; each serverConn keeps its own to track which of those
// namespaces the connection has actually joined.
type namespaceStore struct {
	mu     sync.RWMutex
	byName map[string]*Namespace
}

func newNamespaceStore() *namespaceStore {
	return &namespaceStore{byName: make(map[string]*Namespace)}
}

// GetOrCreate returns the namespace registered under name, creating and
// registering a fresh one if none exists yet. created reports whether
// this call is what brought the namespace into existence.
func (s *namespaceStore) GetOrCreate(
	name string,
	server *Server,
	adapterCreator adapter.Creator,
	parserCreator parser.Creator,
) (nsp *Namespace, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byName[name]; ok {
		return existing, false
	}

	nsp = newNamespace(name, server, adapterCreator, parserCreator)
	s.byName[nsp.Name()] = nsp
	return nsp, true
}

func (s *namespaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

func (s *namespaceStore) Set(nsp *Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[nsp.Name()] = nsp
}

func (s *namespaceStore) Get(name string) (nsp *Namespace, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nsp, ok = s.byName[name]
	return
}

func (s *namespaceStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byName, name)
}
