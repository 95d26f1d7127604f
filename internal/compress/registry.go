package compress

import (
	"sort"
	"sync"
)

// Registry is a name-keyed catalog of transforms. Instances are constructor
// injected; there is no package-level registry.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// NewDefaultRegistry creates a registry with every built-in transform
// registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewBasic())
	r.Register(NewAbbreviation())
	r.Register(NewVowel())
	r.Register(NewSymbol())
	r.Register(NewGzip())
	r.Register(NewLogarithmic())
	return r
}

// Register adds a transform under its own name. Re-registering a name
// silently overwrites the previous transform.
func (r *Registry) Register(t Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[t.Name()] = t
}

// Unregister removes a transform. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transforms, name)
}

// Get returns the transform registered under name, or nil.
func (r *Registry) Get(name string) Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transforms[name]
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
