package llm

import (
	"codecalm/internal/config"
	"fmt"
	"net/http"
	"sync"
)

// Registry holds the providers known to the process, by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	costs     map[string]float64
	fallback  string
}

// NewRegistry creates an empty registry with the named fallback provider.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		costs:     make(map[string]float64),
		fallback:  fallback,
	}
}

// BuildRegistry instantiates every provider in the catalogue. httpClient may be nil.
func BuildRegistry(cfg *config.ProvidersConfig, httpClient *http.Client) (*Registry, error) {
	reg := NewRegistry(cfg.Fallback)
	for _, pc := range cfg.Providers {
		var p Provider
		switch pc.Kind {
		case config.KindOpenRouter:
			p = NewOpenRouterProvider(pc, httpClient)
		case config.KindOpenAI:
			p = NewOpenAICompatProvider(pc, httpClient)
		case config.KindOllama:
			p = NewOllamaProvider(pc, httpClient)
		default:
			return nil, fmt.Errorf("provider %q: unsupported kind %q", pc.Name, pc.Kind)
		}
		reg.Register(p, pc.CostPer1KTokens)
	}
	return reg, nil
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider, costPer1KTokens float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	r.costs[p.Name()] = costPer1KTokens
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Fallback returns the name of the designated secondary provider.
func (r *Registry) Fallback() string {
	return r.fallback
}

// EstimateCost prices a completion using the provider's configured per-1k-token rate.
func (r *Registry) EstimateCost(name string, tokens int) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.costs[name] * float64(tokens) / 1000
}
