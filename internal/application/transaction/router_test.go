package transaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/domain/booking"
	"github.com/tripsetu/backend/internal/domain/protocol"
	"github.com/tripsetu/backend/internal/domain/trip"
	"github.com/tripsetu/backend/internal/infrastructure/cache"
	"github.com/tripsetu/backend/internal/infrastructure/config"
	"github.com/tripsetu/backend/internal/infrastructure/registry"
)

// fakeOrderClient simulates provider order endpoints
type fakeOrderClient struct {
	protocol.ProviderClient

	mu            sync.Mutex
	failWith      error
	orderResponse *protocol.OrderResponse
	lastEndpoint  string
	lastAction    protocol.Action
	lastOrderID   string
	ratingErr     error
	lastRating    *protocol.RatingRequest
}

func (f *fakeOrderClient) SubmitOrder(ctx context.Context, endpoint string, action protocol.Action, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEndpoint = endpoint
	f.lastAction = action
	if req.Order != nil {
		f.lastOrderID = req.Order.ID
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.orderResponse, nil
}

func (f *fakeOrderClient) OrderStatus(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.StatusRequest) (*protocol.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEndpoint = endpoint
	f.lastAction = protocol.ActionStatus
	f.lastOrderID = req.OrderID
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.orderResponse, nil
}

func (f *fakeOrderClient) CancelOrder(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.CancelRequest) (*protocol.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEndpoint = endpoint
	f.lastAction = protocol.ActionCancel
	f.lastOrderID = req.OrderID
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.orderResponse, nil
}

func (f *fakeOrderClient) SubmitRating(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.RatingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEndpoint = endpoint
	f.lastAction = protocol.ActionRating
	f.lastRating = req
	return f.ratingErr
}

// memoryMappingStore is an in-memory MappingStore for router tests
type memoryMappingStore struct {
	mu       sync.Mutex
	mappings []booking.Mapping
}

func (s *memoryMappingStore) Create(ctx context.Context, m *booking.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.mappings {
		if existing.BppBookingID == m.BppBookingID {
			return booking.ErrDuplicateMapping
		}
	}
	s.mappings = append(s.mappings, *m)
	return nil
}

func (s *memoryMappingStore) FindByPlatformID(ctx context.Context, platformID string) ([]booking.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.Mapping
	for _, m := range s.mappings {
		if m.PlatformBookingID == platformID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryMappingStore) FindByBppID(ctx context.Context, bppID string) (*booking.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.BppBookingID == bppID {
			found := m
			return &found, nil
		}
	}
	return nil, booking.ErrMappingNotFound
}

func (s *memoryMappingStore) UpdateStatus(ctx context.Context, bppID string, status booking.MappingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].BppBookingID == bppID {
			s.mappings[i].Status = status
			return nil
		}
	}
	return booking.ErrMappingNotFound
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewFromConfig([]config.ProviderConfig{
		{Name: "domestic-flights", ServiceType: "FLIGHT", SubscriberID: "flights.bpp.in", BaseURL: "https://flights.bpp.in"},
		{Name: "international-flights", ServiceType: "INTERNATIONAL_FLIGHT", SubscriberID: "intl.bpp.in", BaseURL: "https://intl.bpp.in"},
		{Name: "buses", ServiceType: "BUS", SubscriberID: "buses.bpp.in", BaseURL: "https://buses.bpp.in"},
		{Name: "trains", ServiceType: "TRAIN", SubscriberID: "trains.bpp.in", BaseURL: "https://trains.bpp.in"},
		{Name: "hotels", ServiceType: "HOTEL", SubscriberID: "hotels.bpp.in", BaseURL: "https://hotels.bpp.in"},
	})
	require.NoError(t, err)
	return reg
}

type routerFixture struct {
	router   *Router
	client   *fakeOrderClient
	mappings *memoryMappingStore
	routes   *cache.InMemoryRouteStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	client := &fakeOrderClient{}
	mappings := &memoryMappingStore{}
	routes := cache.NewInMemoryRouteStore()
	t.Cleanup(func() { routes.Close() })

	router := NewRouter(testRegistry(t), client, mappings, routes, time.Hour,
		SupportContact{Phone: "1800-11-0000", Email: "care@tripsetu.in"}, zap.NewNop())
	return &routerFixture{router: router, client: client, mappings: mappings, routes: routes}
}

func orderContext(action protocol.Action) protocol.Context {
	factory := protocol.NewContextFactory("ONDC:TRV", "IND", "std:011", "bap.test.in", "https://bap.test.in")
	return factory.New(action)
}

func flightOrder(id string) *protocol.Order {
	return &protocol.Order{
		ID: id,
		Items: []protocol.OrderItem{
			{ID: "item-1", CategoryID: "Flight", Descriptor: &protocol.Descriptor{Name: "DEL-BOM morning flight"}},
		},
		Quote: &protocol.Quote{Price: &protocol.Price{Currency: "INR", Value: "4500.00"}},
	}
}

func TestRouter_Select_PinsProvider(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{Order: &protocol.Order{State: "SELECTED"}}

	pctx := orderContext(protocol.ActionSelect)
	resp, err := fx.router.Select(context.Background(), pctx, &protocol.OrderRequest{Order: flightOrder("")})

	require.NoError(t, err)
	assert.Equal(t, "SELECTED", resp.Order.State)
	assert.Equal(t, "https://flights.bpp.in", fx.client.lastEndpoint)

	route, err := fx.routes.FindRoute(context.Background(), pctx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, trip.ServiceTypeFlight, route.ServiceType)
}

func TestRouter_Init_UsesPinnedRoute(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{Order: &protocol.Order{State: "INITIALIZED"}}

	pctx := orderContext(protocol.ActionInit)
	// Journey was pinned to hotels at discovery; a flight-looking payload
	// must not reroute it
	require.NoError(t, fx.routes.SaveRoute(context.Background(), pctx.TransactionID,
		trip.Route{ServiceType: trip.ServiceTypeHotel, BaseURL: "https://hotels.bpp.in"}, time.Hour))

	_, err := fx.router.Init(context.Background(), pctx, &protocol.OrderRequest{Order: flightOrder("")})

	require.NoError(t, err)
	assert.Equal(t, "https://hotels.bpp.in", fx.client.lastEndpoint)
}

func TestRouter_Select_ProviderFailureDegrades(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.failWith = protocol.ErrProviderUnavailable

	resp, err := fx.router.Select(context.Background(), orderContext(protocol.ActionSelect),
		&protocol.OrderRequest{Order: flightOrder("")})

	require.NoError(t, err)
	assert.Equal(t, "SELECTED", resp.Order.State)
	require.NotNil(t, resp.Order.BppError)
	assert.Equal(t, bppErrorCodeUnreachable, resp.Order.BppError.Code)
}

func TestRouter_Confirm_PersistsMapping(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{ID: "bpp-order-9", State: "CONFIRMED"},
	}

	pctx := orderContext(protocol.ActionConfirm)
	resp, err := fx.router.Confirm(context.Background(), pctx, &protocol.OrderRequest{Order: flightOrder("BK-1001")})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Order.State)

	mappings, err := fx.mappings.FindByPlatformID(context.Background(), "BK-1001")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "bpp-order-9", mappings[0].BppBookingID)
	assert.Equal(t, "https://flights.bpp.in", mappings[0].BppServiceURL)
	assert.Equal(t, pctx.TransactionID, mappings[0].BecknTransactionID)
	assert.Equal(t, booking.MappingStatusActive, mappings[0].Status)
}

func TestRouter_Confirm_InternationalRoutesToInternational(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{ID: "bpp-intl-1", State: "CONFIRMED"},
	}

	order := &protocol.Order{
		ID: "BK-2002",
		Items: []protocol.OrderItem{
			{ID: "item-1", Descriptor: &protocol.Descriptor{Name: "International flight DEL-LHR"}},
		},
	}
	_, err := fx.router.Confirm(context.Background(), orderContext(protocol.ActionConfirm),
		&protocol.OrderRequest{Order: order})

	require.NoError(t, err)
	assert.Equal(t, "https://intl.bpp.in", fx.client.lastEndpoint)
}

func TestRouter_Confirm_ProviderUnreachableStillConfirms(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.failWith = protocol.ErrProviderUnavailable

	resp, err := fx.router.Confirm(context.Background(), orderContext(protocol.ActionConfirm),
		&protocol.OrderRequest{Order: flightOrder("BK-1001")})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Order.State)
	require.NotNil(t, resp.Order.BppError)
	assert.Equal(t, "flights.bpp.in", resp.Order.BppError.Provider)

	// No mapping: the provider never issued a booking id
	mappings, err := fx.mappings.FindByPlatformID(context.Background(), "BK-1001")
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestRouter_Confirm_RetryIsIdempotent(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{ID: "bpp-order-9", State: "CONFIRMED"},
	}

	pctx := orderContext(protocol.ActionConfirm)
	req := &protocol.OrderRequest{Order: flightOrder("BK-1001")}

	_, err := fx.router.Confirm(context.Background(), pctx, req)
	require.NoError(t, err)
	resp, err := fx.router.Confirm(context.Background(), pctx, req)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Order.State)

	mappings, err := fx.mappings.FindByPlatformID(context.Background(), "BK-1001")
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
}

func TestRouter_Confirm_MissingOrder(t *testing.T) {
	fx := newRouterFixture(t)

	_, err := fx.router.Confirm(context.Background(), orderContext(protocol.ActionConfirm), nil)
	assert.ErrorIs(t, err, protocol.ErrMissingOrder)

	_, err = fx.router.Confirm(context.Background(), orderContext(protocol.ActionConfirm),
		&protocol.OrderRequest{Order: &protocol.Order{}})
	assert.ErrorIs(t, err, protocol.ErrMissingOrderID)
}

func TestRouter_Status_ForwardsProviderBookingID(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{ID: "bpp-order-9", State: "CONFIRMED"},
	}

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Status(context.Background(), orderContext(protocol.ActionStatus),
		&protocol.StatusRequest{OrderID: "BK-1001"})

	require.NoError(t, err)
	assert.Equal(t, "bpp-order-9", fx.client.lastOrderID)
	assert.Equal(t, "https://flights.bpp.in", fx.client.lastEndpoint)
	// Response is re-keyed to the platform booking id
	assert.Equal(t, "BK-1001", resp.Order.ID)
}

func TestRouter_Status_ProviderFailureReportsUnknown(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.failWith = protocol.ErrProviderRequestFailed

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Status(context.Background(), orderContext(protocol.ActionStatus),
		&protocol.StatusRequest{OrderID: "BK-1001"})

	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", resp.Order.State)
	require.NotNil(t, resp.Order.BppError)
	assert.Equal(t, bppErrorCodeRejected, resp.Order.BppError.Code)
}

func TestRouter_Status_NoMappingAssumedConfirmed(t *testing.T) {
	fx := newRouterFixture(t)

	resp, err := fx.router.Status(context.Background(), orderContext(protocol.ActionStatus),
		&protocol.StatusRequest{OrderID: "BK-9999"})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Order.State)
	assert.Equal(t, "BK-9999", resp.Order.ID)
	// No provider call was made
	assert.Empty(t, fx.client.lastEndpoint)
}

func TestRouter_Cancel_WithProviderFigures(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{
			ID:    "bpp-order-9",
			State: "CANCELLED",
			Cancellation: &protocol.Cancellation{
				CancellationFee: &protocol.Price{Currency: "INR", Value: "450.00"},
				RefundAmount:    &protocol.Price{Currency: "INR", Value: "4050.00"},
			},
		},
	}

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Cancel(context.Background(), orderContext(protocol.ActionCancel),
		&protocol.CancelRequest{OrderID: "BK-1001", CancellationReasonID: "1"})

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Order.State)
	assert.Equal(t, "BK-1001", resp.Order.ID)
	assert.Equal(t, "4050.00", resp.Order.Cancellation.RefundAmount.Value)
	assert.NotEmpty(t, resp.Order.Cancellation.RefundID)

	stored, err := fx.mappings.FindByBppID(context.Background(), "bpp-order-9")
	require.NoError(t, err)
	assert.Equal(t, booking.MappingStatusCancelled, stored.Status)
}

func TestRouter_Cancel_ProviderUnreachable(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.failWith = protocol.ErrProviderUnavailable

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Cancel(context.Background(), orderContext(protocol.ActionCancel),
		&protocol.CancelRequest{OrderID: "BK-1001"})

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Order.State)
	require.NotNil(t, resp.Order.Cancellation)
	assert.NotEmpty(t, resp.Order.Cancellation.RefundID)
	require.NotNil(t, resp.Order.BppError)
	assert.Equal(t, "BPP_UNREACHABLE", resp.Order.BppError.Code)

	stored, err := fx.mappings.FindByBppID(context.Background(), "bpp-order-9")
	require.NoError(t, err)
	assert.Equal(t, booking.MappingStatusCancelled, stored.Status)
}

func TestRouter_Cancel_ProviderSilentOnRefund(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{
			ID:    "bpp-order-9",
			State: "CANCELLED",
			Quote: &protocol.Quote{
				Price: &protocol.Price{Currency: "INR", Value: "4500.00"},
			},
		},
	}

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Cancel(context.Background(), orderContext(protocol.ActionCancel),
		&protocol.CancelRequest{OrderID: "BK-1001", CancellationReasonID: "2"})

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Order.State)
	assert.Equal(t, "BK-1001", resp.Order.ID)
	require.NotNil(t, resp.Order.Cancellation)
	assert.NotEmpty(t, resp.Order.Cancellation.RefundID)

	// Unknown time-to-service applies the 25% slab to the quoted amount
	assert.Equal(t, "1125.00", resp.Order.Cancellation.CancellationFee.Value)
	assert.Equal(t, "3375.00", resp.Order.Cancellation.RefundAmount.Value)

	// Provider answered; the diagnostic must not read as an outage
	require.NotNil(t, resp.Order.BppError)
	assert.Equal(t, "BPP_NO_REFUND_QUOTE", resp.Order.BppError.Code)
}

func TestRouter_Cancel_NoMappingStillCancels(t *testing.T) {
	fx := newRouterFixture(t)

	resp, err := fx.router.Cancel(context.Background(), orderContext(protocol.ActionCancel),
		&protocol.CancelRequest{OrderID: "BK-9999"})

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Order.State)
	require.NotNil(t, resp.Order.Cancellation)
	assert.NotEmpty(t, resp.Order.Cancellation.RefundID)

	refund := booking.ParseAmount(resp.Order.Cancellation.RefundAmount.Value)
	fee := booking.ParseAmount(resp.Order.Cancellation.CancellationFee.Value)
	assert.False(t, refund.IsNegative())
	assert.False(t, fee.IsNegative())
}

func TestRouter_Update_Optimistic(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.failWith = protocol.ErrProviderUnavailable

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Update(context.Background(), orderContext(protocol.ActionUpdate),
		&protocol.OrderRequest{Order: flightOrder("BK-1001")})

	require.NoError(t, err)
	assert.Equal(t, "UPDATED", resp.Order.State)
	require.NotNil(t, resp.Order.BppError)
}

func TestRouter_Update_ForwardsProviderBookingID(t *testing.T) {
	fx := newRouterFixture(t)
	fx.client.orderResponse = &protocol.OrderResponse{
		Order: &protocol.Order{ID: "bpp-order-9", State: "UPDATED"},
	}

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	resp, err := fx.router.Update(context.Background(), orderContext(protocol.ActionUpdate),
		&protocol.OrderRequest{Order: flightOrder("BK-1001")})

	require.NoError(t, err)
	assert.Equal(t, "bpp-order-9", fx.client.lastOrderID)
	assert.Equal(t, "BK-1001", resp.Order.ID)
	assert.Equal(t, "UPDATED", resp.Order.State)
}

func TestRouter_Rating_ForwardsToProvider(t *testing.T) {
	fx := newRouterFixture(t)

	m, err := booking.NewMapping("BK-1001", "bpp-order-9", "https://flights.bpp.in",
		trip.ServiceTypeFlight, "txn-1", "msg-1")
	require.NoError(t, err)
	require.NoError(t, fx.mappings.Create(context.Background(), m))

	err = fx.router.Rating(context.Background(), orderContext(protocol.ActionRating),
		&protocol.RatingRequest{ID: "BK-1001", Value: 4})

	require.NoError(t, err)
	require.NotNil(t, fx.client.lastRating)
	assert.Equal(t, "bpp-order-9", fx.client.lastRating.ID)
	assert.Equal(t, 4, fx.client.lastRating.Value)
}

func TestRouter_Rating_UnmappedAcknowledged(t *testing.T) {
	fx := newRouterFixture(t)

	err := fx.router.Rating(context.Background(), orderContext(protocol.ActionRating),
		&protocol.RatingRequest{ID: "BK-9999", Value: 5})

	require.NoError(t, err)
	assert.Nil(t, fx.client.lastRating)
}

func TestRouter_Support(t *testing.T) {
	fx := newRouterFixture(t)

	resp := fx.router.Support(&protocol.SupportRequest{RefID: "BK-1001"})

	assert.Equal(t, "1800-11-0000", resp.Phone)
	assert.Equal(t, "care@tripsetu.in", resp.Email)
}
