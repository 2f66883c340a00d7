// internal/app/system/appstate/registry.go
package appstate

import (
	"sync"
	"time"
)

// Registry maps browser session ids to their controllers.
type Registry struct {
	mu    sync.Mutex
	items map[string]*Controller
	build func() *Controller
}

// NewRegistry returns an empty registry that creates controllers with build.
func NewRegistry(build func() *Controller) *Registry {
	return &Registry{items: map[string]*Controller{}, build: build}
}

// Get returns the controller for id, creating it when absent. created is
// true for a new controller so the caller can restore its session.
func (r *Registry) Get(id string) (c *Controller, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.items[id]; ok {
		return c, false
	}
	c = r.build()
	r.items[id] = c
	return c, true
}

// Remove forgets id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// EvictIdle drops controllers not touched within threshold of now and
// returns how many were dropped. Durable storage is untouched, so an
// evicted browser is restored on its next request.
func (r *Registry) EvictIdle(now time.Time, threshold time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.items {
		if now.Sub(c.LastActive()) > threshold {
			delete(r.items, id)
			n++
		}
	}
	return n
}
