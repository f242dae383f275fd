package protocol

import "encoding/json"

// Envelope is the wire shape shared by every inbound and outbound call:
// {context, message} on success, {context, error} on failure.
type Envelope struct {
	Context *Context        `json:"context"`
	Message json.RawMessage `json:"message,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the protocol-level error block
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Descriptor carries human-readable naming for items and providers
type Descriptor struct {
	Name      string `json:"name,omitempty"`
	Code      string `json:"code,omitempty"`
	ShortDesc string `json:"short_desc,omitempty"`
}

// Price is a currency/value pair. Values stay strings on the wire; money
// arithmetic happens on parsed decimals at the edges that need it.
type Price struct {
	Currency string `json:"currency,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Intent is the discovery query. It is forwarded to providers unmodified;
// the orchestrator only reads the category to resolve the provider set.
type Intent struct {
	Category    *IntentCategory `json:"category,omitempty"`
	Fulfillment json.RawMessage `json:"fulfillment,omitempty"`
	Item        json.RawMessage `json:"item,omitempty"`
	Tags        json.RawMessage `json:"tags,omitempty"`
}

// IntentCategory identifies the vertical being searched
type IntentCategory struct {
	ID         string      `json:"id,omitempty"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
}

// SearchRequest is the message body of a search call
type SearchRequest struct {
	Intent *Intent `json:"intent"`
}

// CatalogItem is a single purchasable entry returned from discovery. It is
// never retained; it only flows back to the caller.
type CatalogItem struct {
	ID         string            `json:"id"`
	ProviderID string            `json:"provider_id,omitempty"`
	Descriptor *Descriptor       `json:"descriptor,omitempty"`
	Price      *Price            `json:"price,omitempty"`
	CategoryID string            `json:"category_id,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// ProviderCatalog is one provider's section of a merged catalog
type ProviderCatalog struct {
	ID         string        `json:"id"`
	Descriptor *Descriptor   `json:"descriptor,omitempty"`
	BppID      string        `json:"bpp_id,omitempty"`
	BppURI     string        `json:"bpp_uri,omitempty"`
	Items      []CatalogItem `json:"items"`
}

// Catalog is the merged discovery result
type Catalog struct {
	Descriptor *Descriptor       `json:"bpp/descriptor,omitempty"`
	Providers  []ProviderCatalog `json:"bpp/providers"`
}

// OnSearchMessage is the message body of a provider's on_search response
type OnSearchMessage struct {
	Catalog Catalog `json:"catalog"`
}

// OrderItem is a line item inside an order payload
type OrderItem struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id,omitempty"`
	Descriptor *Descriptor     `json:"descriptor,omitempty"`
	Price      *Price          `json:"price,omitempty"`
	Quantity   json.RawMessage `json:"quantity,omitempty"`
}

// Quote carries the order total; the breakup is passed through untouched
type Quote struct {
	Price   *Price          `json:"price,omitempty"`
	Breakup json.RawMessage `json:"breakup,omitempty"`
	TTL     string          `json:"ttl,omitempty"`
}

// Order is the transient transaction payload. Billing, fulfillment and
// payment blocks cross the orchestrator unchanged; only ids, items, state
// and quote are interpreted.
type Order struct {
	ID           string          `json:"id,omitempty"`
	State        string          `json:"state,omitempty"`
	ProviderID   string          `json:"provider_id,omitempty"`
	Items        []OrderItem     `json:"items,omitempty"`
	Billing      json.RawMessage `json:"billing,omitempty"`
	Fulfillment  json.RawMessage `json:"fulfillment,omitempty"`
	Quote        *Quote          `json:"quote,omitempty"`
	Payment      json.RawMessage `json:"payment,omitempty"`
	Cancellation *Cancellation   `json:"cancellation,omitempty"`
	BppError     *BppError       `json:"bpp_error,omitempty"`
	UpdatedAt    string          `json:"updated_at,omitempty"`
}

// Cancellation carries refund figures attached to a cancelled order
type Cancellation struct {
	RefundID        string `json:"refund_id,omitempty"`
	ReasonID        string `json:"reason_id,omitempty"`
	CancellationFee *Price `json:"cancellation_fee,omitempty"`
	RefundAmount    *Price `json:"refund_amount,omitempty"`
}

// BppError is the machine-readable diagnostic embedded in degraded
// responses when a provider call could not complete. Its presence marks the
// order for out-of-band reconciliation.
type BppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// OrderRequest is the message body of select/init/confirm/update calls
type OrderRequest struct {
	Order *Order `json:"order"`
}

// OrderResponse is the message body of on_select/on_init/on_confirm/
// on_update/on_status responses
type OrderResponse struct {
	Order *Order `json:"order"`
}

// StatusRequest is the message body of a status call
type StatusRequest struct {
	OrderID string `json:"order_id"`
}

// CancelRequest is the message body of a cancel call
type CancelRequest struct {
	OrderID              string      `json:"order_id"`
	CancellationReasonID string      `json:"cancellation_reason_id,omitempty"`
	Descriptor           *Descriptor `json:"descriptor,omitempty"`
}

// RatingRequest is the message body of a rating call
type RatingRequest struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// SupportRequest is the message body of a support call
type SupportRequest struct {
	RefID string `json:"ref_id,omitempty"`
}

// SupportResponse is the message body of an on_support response
type SupportResponse struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// ItemCount returns the total number of items across all providers in the
// merged catalog
func (c Catalog) ItemCount() int {
	n := 0
	for _, p := range c.Providers {
		n += len(p.Items)
	}
	return n
}

// FirstItem returns the order's first line item, the routing anchor for
// classification. Mixed-cart orders route on the first item only.
func (o *Order) FirstItem() *OrderItem {
	if o == nil || len(o.Items) == 0 {
		return nil
	}
	return &o.Items[0]
}
