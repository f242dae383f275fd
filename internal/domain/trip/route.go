package trip

import (
	"context"
	"errors"
	"time"
)

// ErrRouteNotFound is returned when no route is cached for a transaction
var ErrRouteNotFound = errors.New("trip: route not found")

// Route pins a journey to the provider chosen at discovery time. Once a
// caller selects an item, every later call in the same transaction goes to
// the same provider.
type Route struct {
	ServiceType  ServiceType `json:"service_type"`
	ProviderName string      `json:"provider_name"`
	SubscriberID string      `json:"subscriber_id"`
	BaseURL      string      `json:"base_url"`
}

// RouteStore records which provider a transaction is pinned to. Entries
// expire with the journey; a missing entry falls back to item
// classification.
type RouteStore interface {
	// SaveRoute pins transactionID to route for at most ttl
	SaveRoute(ctx context.Context, transactionID string, route Route, ttl time.Duration) error

	// FindRoute returns the pinned route, or ErrRouteNotFound
	FindRoute(ctx context.Context, transactionID string) (*Route, error)
}
