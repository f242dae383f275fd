package protocol

import "errors"

var (
	// ErrMissingContext indicates the inbound envelope has no context block
	ErrMissingContext = errors.New("protocol: missing context")
	// ErrMissingMessage indicates the inbound envelope has no message block
	ErrMissingMessage = errors.New("protocol: missing message")
	// ErrMissingIntent indicates a search request carried no intent
	ErrMissingIntent = errors.New("protocol: missing intent")
	// ErrMissingOrder indicates a transaction request carried no order
	ErrMissingOrder = errors.New("protocol: missing order")
	// ErrMissingOrderID indicates a lookup request carried no order id
	ErrMissingOrderID = errors.New("protocol: missing order id")

	// ErrProviderUnavailable indicates the provider endpoint could not be reached
	ErrProviderUnavailable = errors.New("protocol: provider temporarily unavailable")
	// ErrProviderRequestFailed indicates the provider returned a non-2xx status
	ErrProviderRequestFailed = errors.New("protocol: provider request failed")
	// ErrProviderInvalidResponse indicates the provider returned an unparseable body
	ErrProviderInvalidResponse = errors.New("protocol: invalid provider response")
	// ErrProviderErrorResponse indicates the provider returned a protocol-level error
	ErrProviderErrorResponse = errors.New("protocol: provider returned an error")
)
