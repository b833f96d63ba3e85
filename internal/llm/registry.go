package llm

import (
	"fmt"
	"sort"
)

// Registry maps provider names to constructed clients so the orchestrator
// can turn a candidate's provider name into a live backend.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under a name, replacing any previous entry.
func (r *Registry) Register(name string, provider Provider) {
	r.providers[name] = provider
}

// Provider returns the client registered under the name.
func (r *Registry) Provider(name string) (Provider, error) {
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown generation provider %q (registered: %v)", name, r.Names())
	}
	return provider, nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
