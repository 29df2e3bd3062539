package event

import (
	"slices"
	"sync"

	"github.com/smartinvoice/backend/internal/domain/shared"
)

type subscription struct {
	handler shared.EventHandler
	types   []string // nil receives every event
}

func (s subscription) wants(eventType string) bool {
	return s.types == nil || slices.Contains(s.types, eventType)
}

// HandlerRegistry keeps subscriptions in the order they were made, which is
// also the order handlers see an event.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to everything when none are given.
// Registering the same handler again widens its existing subscription.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var types []string
	if len(eventTypes) > 0 {
		types = slices.Clone(eventTypes)
	}
	for i := range r.subs {
		if r.subs[i].handler != handler {
			continue
		}
		if types == nil || r.subs[i].types == nil {
			r.subs[i].types = nil
			return
		}
		for _, t := range types {
			if !slices.Contains(r.subs[i].types, t) {
				r.subs[i].types = append(r.subs[i].types, t)
			}
		}
		return
	}
	r.subs = append(r.subs, subscription{handler: handler, types: types})
}

func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// GetHandlers returns the handlers subscribed to eventType in subscription order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.EventHandler
	for _, s := range r.subs {
		if s.wants(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

func (r *HandlerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
