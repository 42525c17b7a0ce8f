// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime probe registry for observability. Components register named probe
// functions; a snapshot evaluates them all. Observability only — nothing in
// the allocator or task contract depends on this package.

package control

import (
	"sync"
	"time"
)

// Registry holds named probe functions in a thread-safe map.
type Registry struct {
	mu      sync.RWMutex
	probes  map[string]func() any
	updated time.Time
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]func() any)}
}

// RegisterProbe inserts or replaces a named probe.
func (r *Registry) RegisterProbe(name string, fn func() any) {
	r.mu.Lock()
	r.probes[name] = fn
	r.updated = time.Now()
	r.mu.Unlock()
}

// Snapshot evaluates every probe and returns the results.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.probes))
	for name, fn := range r.probes {
		out[name] = fn()
	}
	return out
}
