package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/studyhub/client/internal/models"
)

// HandlerFunc receives the decoded body of an inbound frame. The payload
// schema is owned by the backend; handlers decode what they need.
type HandlerFunc func(data json.RawMessage)

// Registration is the disposable handle returned by On. Calling Off is
// the only way to unregister a handler; handlers are never matched by
// function identity.
type Registration struct {
	d     *Dispatcher
	event models.EventType
	seq   uint64
	once  sync.Once
}

// Off removes the handler. Safe to call more than once.
func (r *Registration) Off() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.d.remove(r.event, r.seq)
	})
}

type handlerEntry struct {
	seq uint64
	fn  HandlerFunc
}

// Dispatcher fans decoded frames out to handlers by event type. Handlers
// for the same event run in registration order on every matching event.
type Dispatcher struct {
	mu       sync.RWMutex
	seq      uint64
	handlers map[models.EventType][]handlerEntry
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[models.EventType][]handlerEntry),
	}
}

// On appends a handler for the event and returns its registration
func (d *Dispatcher) On(event models.EventType, fn HandlerFunc) *Registration {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.handlers[event] = append(d.handlers[event], handlerEntry{seq: d.seq, fn: fn})
	return &Registration{d: d, event: event, seq: d.seq}
}

// Dispatch invokes every handler registered for the event, in
// registration order. A panicking handler is recovered and logged so it
// cannot block delivery to the others.
func (d *Dispatcher) Dispatch(event models.EventType, data json.RawMessage) {
	d.mu.RLock()
	entries := make([]handlerEntry, len(d.handlers[event]))
	copy(entries, d.handlers[event])
	d.mu.RUnlock()

	for _, entry := range entries {
		invoke(event, entry.fn, data)
	}
}

func invoke(event models.EventType, fn HandlerFunc, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime: handler for %s panicked: %v", event, r)
		}
	}()
	fn(data)
}

// HandlerCount returns the number of handlers registered for the event
func (d *Dispatcher) HandlerCount(event models.EventType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[event])
}

// Clear drops every registered handler
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[models.EventType][]handlerEntry)
}

func (d *Dispatcher) remove(event models.EventType, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.handlers[event]
	for i, entry := range entries {
		if entry.seq == seq {
			d.handlers[event] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}
