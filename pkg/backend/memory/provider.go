package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/industrial-io/iio-go/pkg/backend"
)

// Provider opens "mem:<name>" URIs on registered models and "yaml:<path>"
// URIs on a fresh model loaded from the file.
type Provider struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewProvider returns a provider with no registered models.
func NewProvider() *Provider {
	return &Provider{models: make(map[string]*Model)}
}

// Add registers m under its name, replacing any previous model.
func (p *Provider) Add(m *Model) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models[m.Name()] = m
}

// Remove unregisters the model called name.
func (p *Provider) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.models, name)
}

// Model returns the registered model called name.
func (p *Provider) Model(name string) (*Model, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[name]
	return m, ok
}

// Open implements backend.Provider.
func (p *Provider) Open(ctx context.Context, uri string) (backend.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := backend.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case backend.SchemeMemory:
		m, ok := p.Model(u.Rest)
		if !ok {
			return nil, fmt.Errorf("model %q: %w", u.Rest, backend.ErrNotFound)
		}
		return m.Open(), nil
	case backend.SchemeYAML:
		spec, err := LoadFile(u.Rest)
		if err != nil {
			return nil, err
		}
		m, err := NewModel(u.Rest, spec)
		if err != nil {
			return nil, err
		}
		return m.Open(), nil
	default:
		return nil, fmt.Errorf("scheme %q: %w", u.Scheme, backend.ErrNoProvider)
	}
}

// Scan lists the registered models.
func (p *Provider) Scan(ctx context.Context) ([]backend.ContextInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	infos := make([]backend.ContextInfo, 0, len(p.models))
	for name, m := range p.models {
		infos = append(infos, backend.ContextInfo{
			URI:         backend.SchemeMemory + ":" + name,
			Description: m.Description(),
		})
	}
	slices.SortFunc(infos, func(a, b backend.ContextInfo) int {
		if a.URI < b.URI {
			return -1
		}
		if a.URI > b.URI {
			return 1
		}
		return 0
	})
	return infos, nil
}

var defaultProvider = NewProvider()

// Default returns the provider registered in backend.Default.
func Default() *Provider {
	return defaultProvider
}

// Register makes m reachable as "mem:<name>" through backend.Default.
func Register(m *Model) {
	defaultProvider.Add(m)
}

// Unregister removes the model called name from backend.Default.
func Unregister(name string) {
	defaultProvider.Remove(name)
}

// DummyName is the model registered at start-up, reachable as "mem:dummy".
const DummyName = "dummy"

func init() {
	Register(NewDummy(DummyName))
	backend.Register(backend.SchemeMemory, defaultProvider)
	backend.Register(backend.SchemeYAML, defaultProvider)
}

var _ backend.Provider = (*Provider)(nil)
