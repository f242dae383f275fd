// Package bpp implements the HTTP client used for all outbound provider
// calls. One client instance is shared across providers; the target
// endpoint comes from the provider registry per call.
package bpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/domain/protocol"
)

// maxResponseSize is the maximum allowed provider response body (4MB).
// Catalogs can be large; anything beyond this is a misbehaving provider.
const maxResponseSize = 4 * 1024 * 1024

// Client posts protocol envelopes to provider endpoints
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a provider client with the given call timeout. The
// timeout applies to every outbound call; expiry is treated the same as a
// connection failure.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = protocol.DefaultTTL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("bpp"),
	}
}

// Search issues a discovery call and returns the provider's catalog
func (c *Client) Search(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.SearchRequest) (*protocol.OnSearchMessage, error) {
	body, err := c.call(ctx, endpoint, protocol.ActionSearch, pctx, req)
	if err != nil {
		return nil, err
	}

	var msg protocol.OnSearchMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: on_search: %v", protocol.ErrProviderInvalidResponse, err)
	}
	return &msg, nil
}

// SubmitOrder issues a select/init/confirm/update call
func (c *Client) SubmitOrder(ctx context.Context, endpoint string, action protocol.Action, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error) {
	body, err := c.call(ctx, endpoint, action, pctx, req)
	if err != nil {
		return nil, err
	}
	return decodeOrderResponse(action, body)
}

// OrderStatus queries the provider-side order state
func (c *Client) OrderStatus(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.StatusRequest) (*protocol.OrderResponse, error) {
	body, err := c.call(ctx, endpoint, protocol.ActionStatus, pctx, req)
	if err != nil {
		return nil, err
	}
	return decodeOrderResponse(protocol.ActionStatus, body)
}

// CancelOrder cancels the provider-side order
func (c *Client) CancelOrder(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.CancelRequest) (*protocol.OrderResponse, error) {
	body, err := c.call(ctx, endpoint, protocol.ActionCancel, pctx, req)
	if err != nil {
		return nil, err
	}
	return decodeOrderResponse(protocol.ActionCancel, body)
}

// SubmitRating forwards a rating; providers reply with a bare ack
func (c *Client) SubmitRating(ctx context.Context, endpoint string, pctx protocol.Context, req *protocol.RatingRequest) error {
	_, err := c.call(ctx, endpoint, protocol.ActionRating, pctx, req)
	return err
}

// call posts {context, message} to {endpoint}/{action} and returns the raw
// message block of the reply
func (c *Client) call(ctx context.Context, endpoint string, action protocol.Action, pctx protocol.Context, message any) (json.RawMessage, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("bpp: failed to encode %s message: %w", action, err)
	}

	envelope := protocol.Envelope{Context: &pctx, Message: payload}
	reqBody, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("bpp: failed to encode %s envelope: %w", action, err)
	}

	url := endpoint + "/" + action.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("bpp: failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and refused connections look the same to the caller
		return nil, fmt.Errorf("%w: %s %s: %v", protocol.ErrProviderUnavailable, action, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", protocol.ErrProviderInvalidResponse, action, err)
	}

	c.logger.Debug("Provider call completed",
		zap.String("action", action.String()),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("transaction_id", pctx.TransactionID),
		zap.String("message_id", pctx.MessageID),
	)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", protocol.ErrProviderRequestFailed, action, resp.StatusCode)
	}

	var reply protocol.Envelope
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", protocol.ErrProviderInvalidResponse, action, err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s %s", protocol.ErrProviderErrorResponse, action, reply.Error.Code, reply.Error.Message)
	}
	if len(reply.Message) == 0 {
		return nil, fmt.Errorf("%w: %s: empty message", protocol.ErrProviderInvalidResponse, action)
	}

	return reply.Message, nil
}

// decodeOrderResponse parses an on_{action} order response, requiring the
// order block to be present
func decodeOrderResponse(action protocol.Action, body json.RawMessage) (*protocol.OrderResponse, error) {
	var msg protocol.OrderResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", protocol.ErrProviderInvalidResponse, action.CallbackAction(), err)
	}
	if msg.Order == nil {
		return nil, fmt.Errorf("%w: %s: missing order", protocol.ErrProviderInvalidResponse, action.CallbackAction())
	}
	return &msg, nil
}

// Ensure Client implements the provider port
var _ protocol.ProviderClient = (*Client)(nil)
