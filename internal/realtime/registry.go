package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is one live connection as the registry and dispatcher see it.
type Handle interface {
	ID() string
	Send(Event) error
}

// Subscription ties a live handle to the identity that opened it.
type Subscription struct {
	Identity    uuid.UUID
	Handle      Handle
	ConnectedAt time.Time
}

// Registry maps identities to their open connections. All methods are
// safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[uuid.UUID]map[string]*Subscription
	byHandle   map[string]uuid.UUID
	now        func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[uuid.UUID]map[string]*Subscription),
		byHandle:   make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

// Register adds h under identity. Registering a handle that is already
// known, under any identity, changes nothing and returns false.
func (r *Registry) Register(identity uuid.UUID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHandle[h.ID()]; ok {
		return false
	}

	set, ok := r.byIdentity[identity]
	if !ok {
		set = make(map[string]*Subscription)
		r.byIdentity[identity] = set
	}
	set[h.ID()] = &Subscription{Identity: identity, Handle: h, ConnectedAt: r.now()}
	r.byHandle[h.ID()] = identity
	return true
}

// Unregister removes h wherever it is. Unknown handles are ignored so
// duplicate close events are harmless.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byHandle[h.ID()]
	if !ok {
		return false
	}
	delete(r.byHandle, h.ID())

	set := r.byIdentity[identity]
	delete(set, h.ID())
	if len(set) == 0 {
		delete(r.byIdentity, identity)
	}
	return true
}

// HandlesFor returns a snapshot of identity's live handles.
func (r *Registry) HandlesFor(identity uuid.UUID) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byIdentity[identity]
	out := make([]Handle, 0, len(set))
	for _, sub := range set {
		out = append(out, sub.Handle)
	}
	return out
}

// Subscriptions returns a snapshot of every live subscription.
func (r *Registry) Subscriptions() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Subscription, 0, len(r.byHandle))
	for _, set := range r.byIdentity {
		for _, sub := range set {
			out = append(out, *sub)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}
