// Package transaction routes order lifecycle calls (select through rating)
// to the single provider that owns the journey, degrading to synthesized
// responses when that provider cannot be reached.
package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/domain/booking"
	"github.com/tripsetu/backend/internal/domain/protocol"
	"github.com/tripsetu/backend/internal/domain/trip"
	"github.com/tripsetu/backend/internal/infrastructure/registry"
)

// SupportContact is the platform contact payload returned for support calls
type SupportContact struct {
	Phone string
	Email string
}

// Router forwards transaction calls to the provider pinned for the journey
type Router struct {
	registry   *registry.Registry
	client     protocol.ProviderClient
	mappings   booking.MappingStore
	routes     trip.RouteStore
	fallback   FallbackPolicy
	journeyTTL time.Duration
	support    SupportContact
	logger     *zap.Logger
}

// NewRouter creates a Router. journeyTTL bounds how long a transaction's
// provider pin stays valid in the route store.
func NewRouter(
	reg *registry.Registry,
	client protocol.ProviderClient,
	mappings booking.MappingStore,
	routes trip.RouteStore,
	journeyTTL time.Duration,
	support SupportContact,
	logger *zap.Logger,
) *Router {
	if journeyTTL <= 0 {
		journeyTTL = 24 * time.Hour
	}
	return &Router{
		registry:   reg,
		client:     client,
		mappings:   mappings,
		routes:     routes,
		fallback:   NewFallbackPolicy(),
		journeyTTL: journeyTTL,
		support:    support,
		logger:     logger.Named("transaction"),
	}
}

// Select forwards a select call to the provider owning the journey. The
// provider is pinned to the transaction id on first contact; later calls in
// the same journey reuse the pin.
func (r *Router) Select(ctx context.Context, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	return r.forwardOrder(ctx, protocol.ActionSelect, pctx, req)
}

// Init forwards an init call to the provider owning the journey
func (r *Router) Init(ctx context.Context, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	return r.forwardOrder(ctx, protocol.ActionInit, pctx, req)
}

// forwardOrder implements the shared select/init path: resolve the pinned
// provider, reshape the context, forward, and degrade on failure
func (r *Router) forwardOrder(ctx context.Context, action protocol.Action, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	if req == nil || req.Order == nil {
		return nil, protocol.ErrMissingOrder
	}

	provider, err := r.resolveProvider(ctx, pctx.TransactionID, req.Order)
	if err != nil {
		return nil, err
	}

	providerCtx := pctx.ForProvider(provider.SubscriberID, provider.BaseURL).WithAction(action)
	resp, err := r.client.SubmitOrder(ctx, provider.BaseURL, action, providerCtx, req)
	if err != nil {
		r.logProviderFailure(action, provider, pctx.TransactionID, err)
		return r.fallback.Synthesize(action, providerCtx, req.Order, err), nil
	}
	return resp, nil
}

// Confirm classifies the order, forwards the confirm, and persists the
// booking mapping on success. A provider failure still yields a CONFIRMED
// response carrying a diagnostic for reconciliation.
func (r *Router) Confirm(ctx context.Context, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	if req == nil || req.Order == nil {
		return nil, protocol.ErrMissingOrder
	}
	if req.Order.ID == "" {
		return nil, protocol.ErrMissingOrderID
	}

	provider, err := r.resolveProvider(ctx, pctx.TransactionID, req.Order)
	if err != nil {
		return nil, err
	}

	providerCtx := pctx.ForProvider(provider.SubscriberID, provider.BaseURL).WithAction(protocol.ActionConfirm)
	resp, err := r.client.SubmitOrder(ctx, provider.BaseURL, protocol.ActionConfirm, providerCtx, req)
	if err != nil {
		r.logProviderFailure(protocol.ActionConfirm, provider, pctx.TransactionID, err)
		return r.fallback.Synthesize(protocol.ActionConfirm, providerCtx, req.Order, err), nil
	}

	r.persistMapping(ctx, provider, providerCtx, req.Order.ID, resp.Order.ID)

	resp.Order.State = protocol.OrderStateConfirmed.String()
	return resp, nil
}

// persistMapping records the platform-to-provider booking association. A
// duplicate from a retried confirm is benign; any other store failure is
// logged but never fails the customer-facing confirm.
func (r *Router) persistMapping(ctx context.Context, provider registry.Provider, pctx protocol.Context, platformID, bppBookingID string) {
	if bppBookingID == "" {
		r.logger.Error("Provider confirm response carried no booking id",
			zap.String("provider", provider.Name),
			zap.String("platform_booking_id", platformID),
			zap.String("transaction_id", pctx.TransactionID),
		)
		return
	}

	mapping, err := booking.NewMapping(platformID, bppBookingID, provider.BaseURL,
		provider.ServiceType, pctx.TransactionID, pctx.MessageID)
	if err != nil {
		r.logger.Error("Failed to build booking mapping",
			zap.String("platform_booking_id", platformID),
			zap.Error(err),
		)
		return
	}
	mapping.BookingReference = bppBookingID

	if err := r.mappings.Create(ctx, mapping); err != nil {
		if errors.Is(err, booking.ErrDuplicateMapping) {
			r.logger.Info("Booking mapping already exists, confirm retry assumed",
				zap.String("bpp_booking_id", bppBookingID),
			)
			return
		}
		r.logger.Error("Failed to persist booking mapping",
			zap.String("platform_booking_id", platformID),
			zap.String("bpp_booking_id", bppBookingID),
			zap.Error(err),
		)
	}
}

// Status looks up the booking mapping and queries the provider with its own
// booking id. Provider failure degrades to UNKNOWN; a missing mapping is
// assumed benign and reports CONFIRMED.
func (r *Router) Status(ctx context.Context, pctx protocol.Context, req *protocol.StatusRequest) (*protocol.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, protocol.ErrMissingOrderID
	}

	mapping := r.lookupMapping(ctx, req.OrderID)
	if mapping == nil {
		// The mapping store may lag behind confirm; absence is not proof
		// the booking failed
		order := &protocol.Order{ID: req.OrderID, State: protocol.OrderStateConfirmed.String()}
		return &protocol.OrderResponse{Order: order}, nil
	}

	providerCtx := pctx.ForProvider("", mapping.BppServiceURL).WithAction(protocol.ActionStatus)
	resp, err := r.client.OrderStatus(ctx, mapping.BppServiceURL, providerCtx,
		&protocol.StatusRequest{OrderID: mapping.BppBookingID})
	if err != nil {
		r.logger.Warn("Provider status call failed, reporting UNKNOWN",
			zap.String("bpp_booking_id", mapping.BppBookingID),
			zap.Error(err),
		)
		base := &protocol.Order{ID: req.OrderID}
		return r.fallback.Synthesize(protocol.ActionStatus, providerCtx, base, err), nil
	}

	resp.Order.ID = req.OrderID
	return resp, nil
}

// Cancel cancels the booking, capturing the provider's refund figures when
// possible and falling back to the platform refund schedule when not.
// Cancellation never hard-fails: the response is always CANCELLED with a
// refund id and a charge/refund breakdown.
func (r *Router) Cancel(ctx context.Context, pctx protocol.Context, req *protocol.CancelRequest) (*protocol.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, protocol.ErrMissingOrderID
	}

	mapping := r.lookupMapping(ctx, req.OrderID)
	if mapping == nil {
		return r.platformCancel(req, nil, protocol.Context{}, ""), nil
	}

	providerCtx := pctx.ForProvider("", mapping.BppServiceURL).WithAction(protocol.ActionCancel)
	resp, err := r.client.CancelOrder(ctx, mapping.BppServiceURL, providerCtx,
		&protocol.CancelRequest{
			OrderID:              mapping.BppBookingID,
			CancellationReasonID: req.CancellationReasonID,
			Descriptor:           req.Descriptor,
		})

	r.markCancelled(ctx, mapping.BppBookingID)

	if err != nil {
		r.logger.Warn("Provider cancel call failed, applying platform cancellation",
			zap.String("bpp_booking_id", mapping.BppBookingID),
			zap.Error(err),
		)
		return r.platformCancel(req, nil, providerCtx, classifyFailure(err)), nil
	}

	if resp.Order.Cancellation == nil || resp.Order.Cancellation.RefundAmount == nil {
		// Provider reachable but silent on charges: quote from our schedule
		return r.platformCancel(req, resp.Order, providerCtx, bppErrorCodeNoQuote), nil
	}

	resp.Order.ID = req.OrderID
	resp.Order.State = protocol.OrderStateCancelled.String()
	if resp.Order.Cancellation.RefundID == "" {
		resp.Order.Cancellation.RefundID = uuid.NewString()
	}
	return resp, nil
}

// platformCancel synthesizes the CANCELLED response with the local refund
// schedule. base, when present, supplies the order amount via its quote;
// diagnostic, when set, records why the provider's own figures are absent.
func (r *Router) platformCancel(req *protocol.CancelRequest, base *protocol.Order, pctx protocol.Context, diagnostic string) *protocol.OrderResponse {
	amount := booking.ParseAmount("")
	currency := "INR"
	order := &protocol.Order{ID: req.OrderID}
	if base != nil {
		*order = *base
		order.ID = req.OrderID
		if base.Quote != nil && base.Quote.Price != nil {
			amount = booking.ParseAmount(base.Quote.Price.Value)
			if base.Quote.Price.Currency != "" {
				currency = base.Quote.Price.Currency
			}
		}
	}

	breakdown := booking.ComputeRefund(amount, nil)
	order.State = protocol.OrderStateCancelled.String()
	order.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	order.Cancellation = &protocol.Cancellation{
		RefundID: uuid.NewString(),
		ReasonID: req.CancellationReasonID,
		CancellationFee: &protocol.Price{
			Currency: currency,
			Value:    breakdown.CancellationFee.StringFixed(2),
		},
		RefundAmount: &protocol.Price{
			Currency: currency,
			Value:    breakdown.RefundAmount.StringFixed(2),
		},
	}
	if pctx.BppURI != "" && diagnostic != "" {
		message := "cancellation applied at platform level"
		if diagnostic == bppErrorCodeNoQuote {
			message = "provider returned no refund quote, platform schedule applied"
		}
		order.BppError = &protocol.BppError{
			Code:     diagnostic,
			Message:  message,
			Provider: pctx.BppID,
		}
	}
	return &protocol.OrderResponse{Order: order}
}

// markCancelled transitions the stored mapping; failures are logged only
func (r *Router) markCancelled(ctx context.Context, bppBookingID string) {
	if err := r.mappings.UpdateStatus(ctx, bppBookingID, booking.MappingStatusCancelled); err != nil {
		r.logger.Warn("Failed to update mapping status",
			zap.String("bpp_booking_id", bppBookingID),
			zap.Error(err),
		)
	}
}

// Update forwards an order update to the provider. Provider failure is
// logged and the platform optimistically reports UPDATED.
func (r *Router) Update(ctx context.Context, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	if req == nil || req.Order == nil {
		return nil, protocol.ErrMissingOrder
	}
	if req.Order.ID == "" {
		return nil, protocol.ErrMissingOrderID
	}

	mapping := r.lookupMapping(ctx, req.Order.ID)
	if mapping == nil {
		order := *req.Order
		order.State = protocol.OrderStateUpdated.String()
		order.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return &protocol.OrderResponse{Order: &order}, nil
	}

	forwarded := *req.Order
	forwarded.ID = mapping.BppBookingID

	providerCtx := pctx.ForProvider("", mapping.BppServiceURL).WithAction(protocol.ActionUpdate)
	resp, err := r.client.SubmitOrder(ctx, mapping.BppServiceURL, protocol.ActionUpdate, providerCtx,
		&protocol.OrderRequest{Order: &forwarded})
	if err != nil {
		r.logger.Warn("Provider update call failed, reporting UPDATED optimistically",
			zap.String("bpp_booking_id", mapping.BppBookingID),
			zap.Error(err),
		)
		return r.fallback.Synthesize(protocol.ActionUpdate, providerCtx, req.Order, err), nil
	}

	resp.Order.ID = req.Order.ID
	resp.Order.State = protocol.OrderStateUpdated.String()
	return resp, nil
}

// Rating forwards a rating to the provider holding the booking. Ratings are
// best-effort: a missing mapping or provider failure is logged and the
// caller still gets an acknowledgement.
func (r *Router) Rating(ctx context.Context, pctx protocol.Context, req *protocol.RatingRequest) error {
	if req == nil || req.ID == "" {
		return protocol.ErrMissingOrderID
	}

	mapping := r.lookupMapping(ctx, req.ID)
	if mapping == nil {
		r.logger.Info("Rating received for unmapped booking, acknowledged locally",
			zap.String("platform_booking_id", req.ID),
		)
		return nil
	}

	providerCtx := pctx.ForProvider("", mapping.BppServiceURL).WithAction(protocol.ActionRating)
	err := r.client.SubmitRating(ctx, mapping.BppServiceURL, providerCtx,
		&protocol.RatingRequest{ID: mapping.BppBookingID, Value: req.Value})
	if err != nil {
		r.logger.Warn("Provider rating call failed, acknowledged locally",
			zap.String("bpp_booking_id", mapping.BppBookingID),
			zap.Error(err),
		)
	}
	return nil
}

// Support returns the platform support contact. No provider call is made;
// support is a platform concern.
func (r *Router) Support(req *protocol.SupportRequest) *protocol.SupportResponse {
	return &protocol.SupportResponse{
		Phone: r.support.Phone,
		Email: r.support.Email,
	}
}

// resolveProvider fixes the provider for a transaction: the pinned route
// wins; otherwise the order payload is classified and the result pinned for
// the rest of the journey.
func (r *Router) resolveProvider(ctx context.Context, transactionID string, order *protocol.Order) (registry.Provider, error) {
	if route, err := r.routes.FindRoute(ctx, transactionID); err == nil {
		if provider, perr := r.registry.ForService(route.ServiceType); perr == nil {
			return provider, nil
		}
	} else if !errors.Is(err, trip.ErrRouteNotFound) {
		r.logger.Warn("Route store lookup failed, classifying order instead",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
	}

	serviceType := trip.ClassifyOrder(order)
	provider, err := r.registry.ForService(serviceType)
	if err != nil {
		return registry.Provider{}, err
	}

	if err := r.routes.SaveRoute(ctx, transactionID, trip.Route{
		ServiceType:  provider.ServiceType,
		ProviderName: provider.Name,
		SubscriberID: provider.SubscriberID,
		BaseURL:      provider.BaseURL,
	}, r.journeyTTL); err != nil {
		r.logger.Warn("Failed to pin journey route",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
	}
	return provider, nil
}

// lookupMapping fetches the first mapping for a platform booking id,
// returning nil when none exists or the store fails. Multi-item carts can
// produce several mappings; routing uses the oldest.
func (r *Router) lookupMapping(ctx context.Context, platformBookingID string) *booking.Mapping {
	mappings, err := r.mappings.FindByPlatformID(ctx, platformBookingID)
	if err != nil {
		r.logger.Warn("Mapping store lookup failed",
			zap.String("platform_booking_id", platformBookingID),
			zap.Error(err),
		)
		return nil
	}
	if len(mappings) == 0 {
		return nil
	}
	return &mappings[0]
}

// logProviderFailure records a degraded provider call
func (r *Router) logProviderFailure(action protocol.Action, provider registry.Provider, transactionID string, err error) {
	r.logger.Warn("Provider call failed, synthesizing degraded response",
		zap.String("action", action.String()),
		zap.String("provider", provider.Name),
		zap.String("transaction_id", transactionID),
		zap.Error(err),
	)
}
