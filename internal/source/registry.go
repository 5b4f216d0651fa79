package source

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Factory builds an adapter for one configured source.
type Factory func(cfg config.SourceConfig, client *http.Client) (ports.SourceAdapter, error)

// Registry keeps a mapping from source kinds to adapter factories.
type Registry struct {
	factories map[domain.SourceKind]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[domain.SourceKind]Factory{}}
}

// Register adds or replaces a factory for kind.
func (r *Registry) Register(kind domain.SourceKind, factory Factory) {
	if r.factories == nil {
		r.factories = map[domain.SourceKind]Factory{}
	}
	r.factories[kind] = factory
}

// Resolve returns the factory for kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (Factory, error) {
	if f, ok := r.factories[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("source kind %s is not registered (known: %v)", kind, r.Kinds())
}

// Kinds lists registered kinds in stable order.
func (r *Registry) Kinds() []domain.SourceKind {
	kinds := make([]domain.SourceKind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Build instantiates one adapter per configured source, in config order.
// Each adapter gets its own HTTP client bounded by the source timeout.
func (r *Registry) Build(sources []config.SourceConfig) ([]ports.SourceAdapter, error) {
	adapters := make([]ports.SourceAdapter, 0, len(sources))
	for _, src := range sources {
		factory, err := r.Resolve(domain.SourceKind(src.Kind))
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		client := &http.Client{Timeout: src.Timeout}
		if src.Timeout <= 0 {
			client.Timeout = 20 * time.Second
		}
		adapter, err := factory(src, client)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
