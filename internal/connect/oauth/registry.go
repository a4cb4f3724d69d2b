package oauth

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
)

// Registry maps provider names to strategies. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p. Names are unique.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[p.Name()]; ok {
		return fmt.Errorf("oauth: provider %q already registered", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Lookup returns ErrUnknownProvider for names that were never registered.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Infos describes every registered provider, ordered by name.
func (r *Registry) Infos() []domain.ProviderInfo {
	names := r.Names()
	out := make([]domain.ProviderInfo, 0, len(names))
	for _, n := range names {
		p, err := r.Lookup(n)
		if err != nil {
			continue
		}
		out = append(out, domain.ProviderInfo{Name: n, Capabilities: p.Capabilities()})
	}
	return out
}
