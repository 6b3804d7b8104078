package provider

import "fmt"

// Registry holds the configured login providers in configuration order.
// It performs no auth logic itself.
type Registry struct {
	providers []LoginProvider
	byName    map[string]LoginProvider
}

// NewRegistry registers the given login providers.
// Provider names must be unique.
func NewRegistry(list ...LoginProvider) (*Registry, error) {
	m := make(map[string]LoginProvider, len(list))
	for _, p := range list {
		if _, dup := m[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate login provider: %s", p.Name())
		}
		m[p.Name()] = p
	}
	return &Registry{providers: list, byName: m}, nil
}

// Get returns the login provider by name or an error if not registered.
func (r *Registry) Get(name string) (LoginProvider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown login provider: %s", name)
	}
	return p, nil
}

// All returns the providers in the order they were registered.
func (r *Registry) All() []LoginProvider {
	out := make([]LoginProvider, len(r.providers))
	copy(out, r.providers)
	return out
}
