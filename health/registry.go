package health

import (
	"sync"
	"sync/atomic"
)

// Registry holds probes in registration order.
//
// Duplicate names are allowed; every registered probe runs and is reported.
// Probes cannot be removed.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
}

// entry is one registration. busy is set while a Check call is running,
// including one abandoned after a probe timeout.
type entry struct {
	probe Probe
	busy  atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends probe. A nil probe is ignored.
func (r *Registry) Register(probe Probe) {
	if probe == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &entry{probe: probe})
}

// Probes returns a copy of the registered probes in order.
func (r *Registry) Probes() []Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Probe, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.probe
	}
	return out
}

// Len returns the number of registered probes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) snapshot() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entry, len(r.entries))
	copy(out, r.entries)
	return out
}
