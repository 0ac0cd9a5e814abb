package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/carepath/pkg/ports"
)

// Registry manages the handlers behind step names.
// Named and parameterized steps live in separate tables.
type Registry struct {
	mu     sync.RWMutex
	nodes  map[string]ports.NodeHandler
	params map[string]ports.ParamHandler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:  make(map[string]ports.NodeHandler),
		params: make(map[string]ports.ParamHandler),
	}
}

// Register adds a named-step handler.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ports.NodeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[name] = fn
}

// RegisterParam adds a parameterized-step handler.
func (r *Registry) RegisterParam(name string, fn ports.ParamHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[name] = fn
}

// Handler looks up a named-step handler.
func (r *Registry) Handler(name string) (ports.NodeHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.nodes[name]
	return fn, ok
}

// ParamHandler looks up a parameterized-step handler.
func (r *Registry) ParamHandler(name string) (ports.ParamHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.params[name]
	return fn, ok
}

// Names lists every registered step name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nodes)+len(r.params))
	for n := range r.nodes {
		names = append(names, n)
	}
	for n := range r.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
