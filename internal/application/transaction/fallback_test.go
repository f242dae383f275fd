package transaction

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsetu/backend/internal/domain/protocol"
)

func TestFallbackPolicy_StatePerAction(t *testing.T) {
	tests := []struct {
		action protocol.Action
		state  string
	}{
		{protocol.ActionSelect, "SELECTED"},
		{protocol.ActionInit, "INITIALIZED"},
		{protocol.ActionConfirm, "CONFIRMED"},
		{protocol.ActionStatus, "UNKNOWN"},
		{protocol.ActionCancel, "CANCELLED"},
		{protocol.ActionUpdate, "UPDATED"},
		{protocol.ActionSearch, "UNKNOWN"},
	}

	policy := NewFallbackPolicy()
	pctx := protocol.Context{BppID: "flights.bpp.in"}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			resp := policy.Synthesize(tt.action, pctx, nil, protocol.ErrProviderUnavailable)
			require.NotNil(t, resp.Order)
			assert.Equal(t, tt.state, resp.Order.State)
			require.NotNil(t, resp.Order.BppError)
			assert.Equal(t, "flights.bpp.in", resp.Order.BppError.Provider)
			assert.NotEmpty(t, resp.Order.UpdatedAt)
		})
	}
}

func TestFallbackPolicy_KeepsBaseOrderFields(t *testing.T) {
	policy := NewFallbackPolicy()
	base := &protocol.Order{
		ID:    "BK-1001",
		Items: []protocol.OrderItem{{ID: "item-1"}},
		Quote: &protocol.Quote{Price: &protocol.Price{Currency: "INR", Value: "4500.00"}},
	}

	resp := policy.Synthesize(protocol.ActionConfirm, protocol.Context{}, base, protocol.ErrProviderUnavailable)

	assert.Equal(t, "BK-1001", resp.Order.ID)
	assert.Len(t, resp.Order.Items, 1)
	require.NotNil(t, resp.Order.Quote)
	// Base order is not mutated
	assert.Empty(t, base.State)
	assert.Nil(t, base.BppError)
}

func TestFallbackPolicy_DiagnosticCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{protocol.ErrProviderUnavailable, bppErrorCodeUnreachable},
		{fmt.Errorf("%w: confirm: HTTP 503", protocol.ErrProviderRequestFailed), bppErrorCodeRejected},
		{protocol.ErrProviderInvalidResponse, bppErrorCodeBadResponse},
		{protocol.ErrProviderErrorResponse, bppErrorCodeError},
		{errors.New("something else"), bppErrorCodeUnreachable},
	}

	policy := NewFallbackPolicy()
	for _, tt := range tests {
		resp := policy.Synthesize(protocol.ActionStatus, protocol.Context{}, nil, tt.err)
		assert.Equal(t, tt.code, resp.Order.BppError.Code)
	}
}
