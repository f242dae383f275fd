package transaction

import (
	"errors"
	"time"

	"github.com/tripsetu/backend/internal/domain/protocol"
)

// Diagnostic codes embedded in degraded responses. Machine-readable so the
// reconciliation job can triage without parsing messages.
const (
	bppErrorCodeUnreachable = "BPP_UNREACHABLE"
	bppErrorCodeRejected    = "BPP_REQUEST_REJECTED"
	bppErrorCodeBadResponse = "BPP_INVALID_RESPONSE"
	bppErrorCodeError       = "BPP_ERROR_RESPONSE"
	// bppErrorCodeNoQuote marks a reachable provider that answered a cancel
	// without refund figures
	bppErrorCodeNoQuote = "BPP_NO_REFUND_QUOTE"
)

// fallbackStates maps each action to the order state reported when the
// provider cannot be reached. Confirm and cancel deliberately report
// success; a booking or payment may already exist upstream, and rejecting
// the customer here would be worse than flagging the order for
// reconciliation.
var fallbackStates = map[protocol.Action]protocol.OrderState{
	protocol.ActionSelect:  protocol.OrderStateSelected,
	protocol.ActionInit:    protocol.OrderStateInitialized,
	protocol.ActionConfirm: protocol.OrderStateConfirmed,
	protocol.ActionStatus:  protocol.OrderStateUnknown,
	protocol.ActionCancel:  protocol.OrderStateCancelled,
	protocol.ActionUpdate:  protocol.OrderStateUpdated,
}

// FallbackPolicy synthesizes schema-valid degraded responses when a
// provider call fails. Every action degrades through this one code path so
// callers always see the same shape.
type FallbackPolicy struct {
	now func() time.Time
}

// NewFallbackPolicy creates a FallbackPolicy
func NewFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{now: time.Now}
}

// Synthesize builds the degraded response for a failed provider call. base
// carries whatever order fields the caller already knows (ids, items,
// quote); the synthesized order keeps them and adds the fallback state plus
// a diagnostic bpp_error block.
func (f FallbackPolicy) Synthesize(action protocol.Action, pctx protocol.Context, base *protocol.Order, callErr error) *protocol.OrderResponse {
	order := protocol.Order{}
	if base != nil {
		order = *base
	}

	state, ok := fallbackStates[action]
	if !ok {
		state = protocol.OrderStateUnknown
	}
	order.State = state.String()
	order.UpdatedAt = f.now().UTC().Format(time.RFC3339)
	order.BppError = &protocol.BppError{
		Code:     classifyFailure(callErr),
		Message:  safeErrorMessage(callErr),
		Provider: pctx.BppID,
	}

	return &protocol.OrderResponse{Order: &order}
}

// classifyFailure maps a provider call error onto a diagnostic code
func classifyFailure(err error) string {
	switch {
	case errors.Is(err, protocol.ErrProviderUnavailable):
		return bppErrorCodeUnreachable
	case errors.Is(err, protocol.ErrProviderRequestFailed):
		return bppErrorCodeRejected
	case errors.Is(err, protocol.ErrProviderInvalidResponse):
		return bppErrorCodeBadResponse
	case errors.Is(err, protocol.ErrProviderErrorResponse):
		return bppErrorCodeError
	default:
		return bppErrorCodeUnreachable
	}
}

// safeErrorMessage renders the error for the diagnostic block
func safeErrorMessage(err error) string {
	if err == nil {
		return "provider call failed"
	}
	return err.Error()
}
