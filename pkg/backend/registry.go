package backend

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Registry maps URI schemes to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Default is the process-wide registry. Backend packages register their
// schemes here from init.
var Default = NewRegistry()

// Register adds p under scheme, replacing any previous provider.
func Register(scheme string, p Provider) {
	Default.Register(scheme, p)
}

// Register adds p under scheme, replacing any previous provider.
func (r *Registry) Register(scheme string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[scheme] = p
}

// Unregister removes the provider for scheme.
func (r *Registry) Unregister(scheme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, scheme)
}

// Lookup returns the provider for scheme.
func (r *Registry) Lookup(scheme string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[scheme]
	return p, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for s := range r.providers {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Open parses uri and opens it with the provider registered for its
// scheme.
func (r *Registry) Open(ctx context.Context, uri string) (Conn, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	p, ok := r.Lookup(u.Scheme)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoProvider, u.Scheme)
	}
	return p.Open(ctx, uri)
}

// Scan asks the providers for schemes to list their contexts. With no
// schemes every registered provider is asked. Providers registered under
// several schemes are asked once.
func (r *Registry) Scan(ctx context.Context, schemes ...string) ([]ContextInfo, error) {
	if len(schemes) == 0 {
		schemes = r.Schemes()
	}

	var (
		out  []ContextInfo
		seen = make(map[Provider]bool)
	)
	for _, s := range schemes {
		p, ok := r.Lookup(s)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrNoProvider, s)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		infos, err := p.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s, err)
		}
		out = append(out, infos...)
	}
	return out, nil
}
