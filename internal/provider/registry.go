// Package provider contains the factory registry for text-generation
// backends.
//
// # Adding a new provider
//
// Implement domain.Provider and expose an explicit registration function
// that calls RegisterFactory. Wire that registration from cmd/launchkit (or
// tests) so we avoid init() side effects.
package provider

import (
	"fmt"
	"sync"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
)

// Factory creates providers of one type from configuration.
type Factory struct {
	Type        string
	Description string
	Create      func(cfg config.ProviderConfig) (domain.Provider, error)
}

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a provider factory. Registering the same type
// twice is a no-op.
func RegisterFactory(f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, ok := factories[f.Type]; ok {
		return
	}
	factories[f.Type] = f
}

// IsRegistered returns true if a provider type is registered.
func IsRegistered(providerType string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[providerType]
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories = make(map[string]Factory)
}

// Registry holds the providers built from configuration, by name.
type Registry struct {
	providers map[string]domain.Provider
}

// NewRegistry builds every configured provider through its registered
// factory.
func NewRegistry(configs []config.ProviderConfig) (*Registry, error) {
	providers := make(map[string]domain.Provider)
	for _, cfg := range configs {
		factoriesMu.RLock()
		f, ok := factories[cfg.Type]
		factoriesMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown provider type %q for provider %q", cfg.Type, cfg.Name)
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider %q: missing api_key", cfg.Name)
		}
		p, err := f.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %s: %w", cfg.Name, err)
		}
		name := cfg.Name
		if name == "" {
			name = cfg.Type
		}
		providers[name] = p
	}
	return &Registry{providers: providers}, nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (domain.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

// Names returns the configured provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
