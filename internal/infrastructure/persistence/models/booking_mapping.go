// Package models holds the GORM persistence models. Domain entities stay
// free of persistence tags; conversion happens here.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripsetu/backend/internal/domain/booking"
	"github.com/tripsetu/backend/internal/domain/trip"
)

// BookingMappingModel is the persistence model for the booking Mapping
// entity.
type BookingMappingModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	PlatformBookingID  string    `gorm:"type:varchar(100);not null;index:idx_booking_mappings_platform_id"`
	BookingReference   string    `gorm:"type:varchar(100);index"`
	BppServiceType     string    `gorm:"type:varchar(40);not null"`
	BppBookingID       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_booking_mappings_bpp_id"`
	BppServiceURL      string    `gorm:"type:varchar(500);not null"`
	BecknTransactionID string    `gorm:"type:varchar(100);not null;index"`
	BecknMessageID     string    `gorm:"type:varchar(100)"`
	Status             string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BookingMappingModel) TableName() string {
	return "booking_mappings"
}

// ToDomain converts the persistence model to a domain Mapping entity.
func (m *BookingMappingModel) ToDomain() *booking.Mapping {
	return &booking.Mapping{
		ID:                 m.ID,
		PlatformBookingID:  m.PlatformBookingID,
		BookingReference:   m.BookingReference,
		BppServiceType:     trip.ServiceType(m.BppServiceType),
		BppBookingID:       m.BppBookingID,
		BppServiceURL:      m.BppServiceURL,
		BecknTransactionID: m.BecknTransactionID,
		BecknMessageID:     m.BecknMessageID,
		Status:             booking.MappingStatus(m.Status),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Mapping entity.
func (m *BookingMappingModel) FromDomain(b *booking.Mapping) {
	m.ID = b.ID
	m.PlatformBookingID = b.PlatformBookingID
	m.BookingReference = b.BookingReference
	m.BppServiceType = string(b.BppServiceType)
	m.BppBookingID = b.BppBookingID
	m.BppServiceURL = b.BppServiceURL
	m.BecknTransactionID = b.BecknTransactionID
	m.BecknMessageID = b.BecknMessageID
	m.Status = string(b.Status)
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
}

// BookingMappingModelFromDomain creates a new persistence model from a
// domain Mapping entity.
func BookingMappingModelFromDomain(b *booking.Mapping) *BookingMappingModel {
	m := &BookingMappingModel{}
	m.FromDomain(b)
	return m
}
