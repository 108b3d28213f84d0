package scope

import "sync"

// Registry maps a named scope identifier (binding.ScopePolicy.Name) to its
// Scope implementation, letting a binder register custom named scopes
// beyond the three intrinsic ones (§4.4 "Named scopes are resolved
// through a registry keyed by name").
type Registry struct {
	mu    sync.RWMutex
	named map[string]Scope
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{named: make(map[string]Scope)}
}

// Register installs scope under name, overwriting any previous
// registration for that name.
func (r *Registry) Register(name string, s Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = s
}

// Lookup returns the Scope registered under name, if any.
func (r *Registry) Lookup(name string) (Scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.named[name]
	return s, ok
}
