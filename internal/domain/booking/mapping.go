// Package booking holds the one piece of cross-request state the
// orchestrator owns: the mapping between a platform booking and the
// provider booking created at confirm time.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tripsetu/backend/internal/domain/trip"
)

var (
	// ErrMappingNotFound indicates no mapping exists for the given id
	ErrMappingNotFound = errors.New("booking: mapping not found")
	// ErrDuplicateMapping indicates a mapping for the provider booking id
	// already exists; a retried confirm hits this instead of double-writing
	ErrDuplicateMapping = errors.New("booking: mapping already exists for provider booking id")
	// ErrInvalidMapping indicates the mapping fails validation
	ErrInvalidMapping = errors.New("booking: invalid mapping")
)

// MappingStatus is the lifecycle status of a booking mapping
type MappingStatus string

const (
	// MappingStatusActive marks a live confirmed booking
	MappingStatusActive MappingStatus = "ACTIVE"
	// MappingStatusCancelled marks a cancelled booking; rows are never
	// physically deleted
	MappingStatusCancelled MappingStatus = "CANCELLED"
	// MappingStatusFailed marks a booking whose provider-side state is in
	// doubt and needs reconciliation
	MappingStatusFailed MappingStatus = "FAILED"
)

// IsValid returns true if the status is known
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusActive, MappingStatusCancelled, MappingStatusFailed:
		return true
	default:
		return false
	}
}

// Mapping associates a platform booking id with the provider booking id and
// endpoint needed to address the provider on later status/cancel/update
// calls. Created exactly once per successful confirm.
type Mapping struct {
	ID                 uuid.UUID
	PlatformBookingID  string
	BookingReference   string
	BppServiceType     trip.ServiceType
	BppBookingID       string
	BppServiceURL      string
	BecknTransactionID string
	BecknMessageID     string
	Status             MappingStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewMapping builds an ACTIVE mapping for a freshly confirmed booking
func NewMapping(platformBookingID, bppBookingID, bppServiceURL string, serviceType trip.ServiceType, transactionID, messageID string) (*Mapping, error) {
	m := &Mapping{
		ID:                 uuid.New(),
		PlatformBookingID:  platformBookingID,
		BppServiceType:     serviceType,
		BppBookingID:       bppBookingID,
		BppServiceURL:      bppServiceURL,
		BecknTransactionID: transactionID,
		BecknMessageID:     messageID,
		Status:             MappingStatusActive,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the mapping invariants
func (m *Mapping) Validate() error {
	if m.PlatformBookingID == "" {
		return errors.Join(ErrInvalidMapping, errors.New("platform booking id is required"))
	}
	if m.BppBookingID == "" {
		return errors.Join(ErrInvalidMapping, errors.New("provider booking id is required"))
	}
	if m.BppServiceURL == "" {
		return errors.Join(ErrInvalidMapping, errors.New("provider service url is required"))
	}
	if !m.BppServiceType.IsValid() {
		return errors.Join(ErrInvalidMapping, errors.New("unknown provider service type"))
	}
	if !m.Status.IsValid() {
		return errors.Join(ErrInvalidMapping, errors.New("unknown mapping status"))
	}
	return nil
}

// Cancel marks the mapping cancelled. Terminal for the booking; the row
// itself is retained.
func (m *Mapping) Cancel() {
	m.Status = MappingStatusCancelled
	m.UpdatedAt = time.Now()
}

// IsActive returns true if the booking is live
func (m *Mapping) IsActive() bool {
	return m.Status == MappingStatusActive
}

// MappingStore is the durable store for booking mappings. Cancel and status
// calls can arrive long after confirm, so implementations must survive
// process restarts.
type MappingStore interface {
	// Create persists a new mapping. Returns ErrDuplicateMapping when a
	// mapping for the same provider booking id already exists.
	Create(ctx context.Context, mapping *Mapping) error
	// FindByPlatformID returns all mappings for a platform booking id. An
	// order may map to multiple provider bookings for multi-item carts.
	FindByPlatformID(ctx context.Context, platformBookingID string) ([]Mapping, error)
	// FindByBppID returns the mapping for a provider booking id, or
	// ErrMappingNotFound.
	FindByBppID(ctx context.Context, bppBookingID string) (*Mapping, error)
	// UpdateStatus transitions the mapping identified by provider booking id
	// to the given status.
	UpdateStatus(ctx context.Context, bppBookingID string, status MappingStatus) error
}
