// Package registry resolves travel categories and service types to the
// provider endpoints configured at startup. The registry is an immutable
// value built once and passed explicitly; fanning out to a new provider is
// a configuration change, never a code change.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tripsetu/backend/internal/domain/trip"
	"github.com/tripsetu/backend/internal/infrastructure/config"
)

var (
	// ErrNoProvidersForCategory indicates no registry entry serves a category
	ErrNoProvidersForCategory = errors.New("registry: no providers registered for category")
	// ErrNoProviderForService indicates no registry entry serves a service type
	ErrNoProviderForService = errors.New("registry: no provider registered for service type")
)

// Provider is one registered BPP endpoint
type Provider struct {
	Name         string
	SubscriberID string
	BaseURL      string
	Category     trip.Category
	ServiceType  trip.ServiceType
}

// Registry is the immutable (category, service type) -> provider mapping
type Registry struct {
	ordered    []Provider
	byCategory map[trip.Category][]Provider
	byService  map[trip.ServiceType]Provider
}

// NewFromConfig builds a registry from startup configuration. Entry order
// is preserved: discovery merges catalogs in this order regardless of
// response arrival.
func NewFromConfig(entries []config.ProviderConfig) (*Registry, error) {
	r := &Registry{
		byCategory: make(map[trip.Category][]Provider),
		byService:  make(map[trip.ServiceType]Provider),
	}

	for _, e := range entries {
		serviceType := trip.ServiceType(strings.ToUpper(strings.TrimSpace(e.ServiceType)))
		if !serviceType.IsValid() {
			return nil, fmt.Errorf("registry: provider %q: unknown service type %q", e.Name, e.ServiceType)
		}

		category := serviceType.Category()
		if e.Category != "" {
			parsed, ok := trip.ParseCategory(e.Category)
			if !ok {
				return nil, fmt.Errorf("registry: provider %q: unknown category %q", e.Name, e.Category)
			}
			if parsed != category {
				return nil, fmt.Errorf("registry: provider %q: category %s does not match service type %s", e.Name, parsed, serviceType)
			}
		}

		if _, exists := r.byService[serviceType]; exists {
			return nil, fmt.Errorf("registry: duplicate provider for service type %s", serviceType)
		}

		p := Provider{
			Name:         e.Name,
			SubscriberID: e.SubscriberID,
			BaseURL:      strings.TrimRight(e.BaseURL, "/"),
			Category:     category,
			ServiceType:  serviceType,
		}
		r.ordered = append(r.ordered, p)
		r.byCategory[category] = append(r.byCategory[category], p)
		r.byService[serviceType] = p
	}

	return r, nil
}

// ForCategory returns all providers serving a category, in registration
// order. MOBILITY fans out across its subtypes; HOSPITALITY and EXPERIENCE
// resolve to a single provider.
func (r *Registry) ForCategory(category trip.Category) ([]Provider, error) {
	providers, ok := r.byCategory[category]
	if !ok || len(providers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProvidersForCategory, category)
	}
	return providers, nil
}

// ForService returns the provider serving a specific service type
func (r *Registry) ForService(serviceType trip.ServiceType) (Provider, error) {
	p, ok := r.byService[serviceType]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s", ErrNoProviderForService, serviceType)
	}
	return p, nil
}

// Providers returns every registered provider in registration order
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Size returns the number of registered providers
func (r *Registry) Size() int {
	return len(r.ordered)
}
