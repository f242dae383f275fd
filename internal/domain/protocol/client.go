package protocol

import "context"

// ProviderClient is the outbound port to a BPP endpoint. Every method
// posts {context, message} to {endpoint}/{action} and decodes the
// synchronous {context, message} | {context, error} reply.
type ProviderClient interface {
	// Search issues a discovery call and returns the provider's catalog
	Search(ctx context.Context, endpoint string, pctx Context, req *SearchRequest) (*OnSearchMessage, error)
	// SubmitOrder issues a select/init/confirm/update call
	SubmitOrder(ctx context.Context, endpoint string, action Action, pctx Context, req *OrderRequest) (*OrderResponse, error)
	// OrderStatus queries the provider-side order state
	OrderStatus(ctx context.Context, endpoint string, pctx Context, req *StatusRequest) (*OrderResponse, error)
	// CancelOrder cancels the provider-side order
	CancelOrder(ctx context.Context, endpoint string, pctx Context, req *CancelRequest) (*OrderResponse, error)
	// SubmitRating forwards a rating; providers reply with a bare ack
	SubmitRating(ctx context.Context, endpoint string, pctx Context, req *RatingRequest) error
}
