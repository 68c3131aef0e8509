package provider

import "fmt"

// Registry holds all configured provider adapters and allows lookup by
// provider name. It performs no auth logic itself.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its name. Registering the same
// provider name twice is a configuration error.
func (r *Registry) Register(a Adapter) error {
	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("provider %s is already mounted", name)
	}
	r.adapters[name] = a
	return nil
}

// Get returns the adapter by name or an error if not registered.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%s is not an auth provider", name)
	}
	return a, nil
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
