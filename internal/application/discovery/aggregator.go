// Package discovery fans a search out to every provider registered for a
// category and merges whatever comes back. Provider failure is a per-slot
// outcome, never an aggregation failure.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/domain/protocol"
	"github.com/tripsetu/backend/internal/domain/trip"
	"github.com/tripsetu/backend/internal/infrastructure/registry"
)

// Aggregator merges concurrent provider searches into one catalog
type Aggregator struct {
	registry   *registry.Registry
	client     protocol.ProviderClient
	perCallTTL time.Duration
	logger     *zap.Logger
}

// NewAggregator creates an Aggregator. perCallTimeout bounds each provider
// search independently; total discovery latency is bounded by the slowest
// provider, not the sum.
func NewAggregator(reg *registry.Registry, client protocol.ProviderClient, perCallTimeout time.Duration, logger *zap.Logger) *Aggregator {
	if perCallTimeout <= 0 {
		perCallTimeout = 10 * time.Second
	}
	return &Aggregator{
		registry:   reg,
		client:     client,
		perCallTTL: perCallTimeout,
		logger:     logger.Named("discovery"),
	}
}

// providerResult is one provider's outcome, indexed by registry position so
// the merge order is deterministic regardless of response arrival
type providerResult struct {
	catalog *protocol.OnSearchMessage
	err     error
}

// Aggregate resolves the searched category to its provider set, issues one
// concurrent search per provider sharing the transaction id, and
// concatenates successful catalogs in registry order. An empty merged
// catalog is success; only a missing or malformed intent is an error.
func (a *Aggregator) Aggregate(ctx context.Context, pctx protocol.Context, req *protocol.SearchRequest) (*protocol.OnSearchMessage, error) {
	if req == nil || req.Intent == nil {
		return nil, protocol.ErrMissingIntent
	}

	category := a.resolveCategory(req.Intent)
	providers, err := a.registry.ForCategory(category)
	if err != nil {
		return nil, err
	}

	results := make([]providerResult, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p registry.Provider) {
			defer wg.Done()
			results[i] = a.search(ctx, p, pctx, req)
		}(i, p)
	}
	wg.Wait()

	merged := &protocol.OnSearchMessage{
		Catalog: protocol.Catalog{Providers: []protocol.ProviderCatalog{}},
	}
	for i, r := range results {
		if r.err != nil {
			a.logger.Warn("Provider search failed, continuing without it",
				zap.String("provider", providers[i].Name),
				zap.String("transaction_id", pctx.TransactionID),
				zap.Error(r.err),
			)
			continue
		}
		merged.Catalog.Providers = append(merged.Catalog.Providers, a.stamp(r.catalog, providers[i])...)
	}

	a.logger.Info("Discovery aggregation completed",
		zap.String("category", category.String()),
		zap.String("transaction_id", pctx.TransactionID),
		zap.Int("providers_queried", len(providers)),
		zap.Int("providers_responded", len(merged.Catalog.Providers)),
		zap.Int("items", merged.Catalog.ItemCount()),
	)
	return merged, nil
}

// search issues one provider search with a fresh message id and an
// independent timeout
func (a *Aggregator) search(ctx context.Context, p registry.Provider, pctx protocol.Context, req *protocol.SearchRequest) providerResult {
	callCtx, cancel := context.WithTimeout(ctx, a.perCallTTL)
	defer cancel()

	providerCtx := pctx.ForProvider(p.SubscriberID, p.BaseURL).WithAction(protocol.ActionSearch)
	catalog, err := a.client.Search(callCtx, p.BaseURL, providerCtx, req)
	if err != nil {
		return providerResult{err: fmt.Errorf("provider %s: %w", p.Name, err)}
	}
	return providerResult{catalog: catalog}
}

// stamp tags a provider's catalog sections with the provider identity so
// callers can address it on later select/confirm calls
func (a *Aggregator) stamp(msg *protocol.OnSearchMessage, p registry.Provider) []protocol.ProviderCatalog {
	sections := msg.Catalog.Providers
	for i := range sections {
		sections[i].BppID = p.SubscriberID
		sections[i].BppURI = p.BaseURL
		if sections[i].Items == nil {
			sections[i].Items = []protocol.CatalogItem{}
		}
	}
	return sections
}

// resolveCategory reads the intent's category, defaulting to MOBILITY when
// absent or unrecognized
func (a *Aggregator) resolveCategory(intent *protocol.Intent) trip.Category {
	if intent.Category != nil {
		if c, ok := trip.ParseCategory(intent.Category.ID); ok {
			return c
		}
		if intent.Category.Descriptor != nil {
			if c, ok := trip.ParseCategory(intent.Category.Descriptor.Code); ok {
				return c
			}
			if c, ok := trip.ParseCategory(intent.Category.Descriptor.Name); ok {
				return c
			}
		}
	}
	return trip.CategoryMobility
}
