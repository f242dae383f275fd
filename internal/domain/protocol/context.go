package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the protocol deadline attached to outbound calls when none
// is configured.
const DefaultTTL = 30 * time.Second

// Context is the protocol envelope accompanying every message. The
// transaction id is stable across one user journey; the message id is
// unique per request.
type Context struct {
	Domain        string `json:"domain"`
	Country       string `json:"country"`
	City          string `json:"city"`
	Action        string `json:"action"`
	CoreVersion   string `json:"core_version"`
	BapID         string `json:"bap_id"`
	BapURI        string `json:"bap_uri"`
	BppID         string `json:"bpp_id,omitempty"`
	BppURI        string `json:"bpp_uri,omitempty"`
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
	Timestamp     string `json:"timestamp"`
	TTL           string `json:"ttl,omitempty"`
}

// ContextFactory builds protocol contexts carrying the platform's subscriber
// identity. Built once at startup and passed explicitly to callers.
type ContextFactory struct {
	domain      string
	country     string
	city        string
	coreVersion string
	bapID       string
	bapURI      string
	ttl         time.Duration
	now         func() time.Time
}

// ContextFactoryOption configures a ContextFactory
type ContextFactoryOption func(*ContextFactory)

// WithTTL overrides the protocol TTL attached to contexts
func WithTTL(ttl time.Duration) ContextFactoryOption {
	return func(f *ContextFactory) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithClock overrides the timestamp source, used by tests
func WithClock(now func() time.Time) ContextFactoryOption {
	return func(f *ContextFactory) {
		f.now = now
	}
}

// NewContextFactory creates a factory for the given subscriber identity
func NewContextFactory(domain, country, city, bapID, bapURI string, opts ...ContextFactoryOption) *ContextFactory {
	f := &ContextFactory{
		domain:      domain,
		country:     country,
		city:        city,
		coreVersion: "1.1.0",
		bapID:       bapID,
		bapURI:      bapURI,
		ttl:         DefaultTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New builds a context for a fresh journey: new transaction id, new message id.
func (f *ContextFactory) New(action Action) Context {
	return f.Continue(action, uuid.NewString())
}

// Continue builds a context that continues an existing journey. The
// transaction id is carried over; the message id is always freshly
// generated, including on retries.
func (f *ContextFactory) Continue(action Action, transactionID string) Context {
	if transactionID == "" {
		transactionID = uuid.NewString()
	}
	return Context{
		Domain:        f.domain,
		Country:       f.country,
		City:          f.city,
		Action:        action.String(),
		CoreVersion:   f.coreVersion,
		BapID:         f.bapID,
		BapURI:        f.bapURI,
		TransactionID: transactionID,
		MessageID:     uuid.NewString(),
		Timestamp:     f.now().UTC().Format(time.RFC3339),
		TTL:           formatTTL(f.ttl),
	}
}

// ForProvider returns a copy of ctx addressed to a specific provider
func (c Context) ForProvider(bppID, bppURI string) Context {
	c.BppID = bppID
	c.BppURI = bppURI
	return c
}

// WithAction returns a copy of ctx reshaped for a different action with a
// fresh message id. The invariant that the context action matches the call
// being issued is enforced here rather than at call sites.
func (c Context) WithAction(action Action) Context {
	c.Action = action.String()
	c.MessageID = uuid.NewString()
	return c
}

// formatTTL renders a duration as an ISO 8601 duration (PT30S)
func formatTTL(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	if secs <= 0 {
		secs = int(DefaultTTL.Seconds())
	}
	return fmt.Sprintf("PT%dS", secs)
}
