package sio

import "sync"

// eventRegistration groups the persistent and one-shot handlers bound
// to a single event name, so a lookup by name costs one map access
// instead of two.
type eventRegistration struct {
	on   []*eventHandler
	once []*eventHandler
}

// eventHandlerStore maps Socket.IO event names to the handlers bound
// to them via OnEvent/OnceEvent. Namespaces and individual sockets
// each keep one.
type eventHandlerStore struct {
	mu  sync.Mutex
	reg map[string]*eventRegistration
}

func newEventHandlerStore() *eventHandlerStore {
	return &eventHandlerStore{reg: make(map[string]*eventRegistration)}
}

func (e *eventHandlerStore) entry(eventName string, create bool) *eventRegistration {
	r, ok := e.reg[eventName]
	if !ok && create {
		r = &eventRegistration{}
		e.reg[eventName] = r
	}
	return r
}

func (e *eventHandlerStore) On(eventName string, handler *eventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.entry(eventName, true)
	r.on = append(r.on, handler)
}

func (e *eventHandlerStore) Once(eventName string, handler *eventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.entry(eventName, true)
	r.once = append(r.once, handler)
}

// Off unregisters handlers from eventName. With no handler arguments,
// every listener bound to that event is dropped.
func (e *eventHandlerStore) Off(eventName string, handlers ...any) {
	if eventName == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.entry(eventName, false)
	if r == nil {
		return
	}

	if len(handlers) == 0 {
		delete(e.reg, eventName)
		return
	}

	matches := func(h *eventHandler) bool {
		for _, target := range handlers {
			if h.rv.Interface() == target {
				return true
			}
		}
		return false
	}

	r.on = filterOutHandlers(r.on, matches)
	r.once = filterOutHandlers(r.once, matches)
}

func filterOutHandlers(handlers []*eventHandler, remove func(*eventHandler) bool) []*eventHandler {
	kept := handlers[:0:0]
	for _, h := range handlers {
		if !remove(h) {
			kept = append(kept, h)
		}
	}
	return kept
}

func (e *eventHandlerStore) OffAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg = make(map[string]*eventRegistration)
}

// GetAll returns every handler bound to eventName, persistent handlers
// followed by pending one-shot handlers, and clears the one-shot set.
func (e *eventHandlerStore) GetAll(eventName string) []*eventHandler {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.entry(eventName, false)
	if r == nil {
		return nil
	}

	out := make([]*eventHandler, 0, len(r.on)+len(r.once))
	out = append(out, r.on...)
	out = append(out, r.once...)
	r.once = nil
	return out
}
