package realtime

import (
	"encoding/json"
	"sync"
)

// SubscriptionFunc receives the body of each frame delivered on a
// subscribed destination.
type SubscriptionFunc func(body json.RawMessage)

// Subscription is a live destination subscription. It stays registered
// across reconnects until unsubscribed; the broker-side leg is re-established
// on every successful connect.
type Subscription struct {
	ID          string
	Destination string
	fn          SubscriptionFunc
	client      *Client
}

// Unsubscribe releases the subscription. Safe no-op if it was already
// replaced or released.
func (s *Subscription) Unsubscribe() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.unsubscribeHandle(s)
}

// registry maps destinations to their current subscription handle. At most
// one subscription per destination; replacing is done by the client, which
// releases the prior handle first.
type registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]*Subscription)}
}

func (r *registry) get(destination string) *Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subs[destination]
}

func (r *registry) put(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.Destination] = sub
}

// removeIf removes the entry only if it still holds the given handle
func (r *registry) removeIf(sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.subs[sub.Destination]
	if !ok || current != sub {
		return false
	}
	delete(r.subs, sub.Destination)
	return true
}

func (r *registry) remove(destination string) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := r.subs[destination]
	delete(r.subs, destination)
	return sub
}

func (r *registry) all() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[string]*Subscription)
}
