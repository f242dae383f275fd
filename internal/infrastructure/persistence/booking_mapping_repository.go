package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tripsetu/backend/internal/domain/booking"
	"github.com/tripsetu/backend/internal/infrastructure/persistence/models"
)

// GormMappingStore implements booking.MappingStore using GORM
type GormMappingStore struct {
	db *gorm.DB
}

// NewGormMappingStore creates a new GormMappingStore
func NewGormMappingStore(db *gorm.DB) *GormMappingStore {
	return &GormMappingStore{db: db}
}

// Create persists a new mapping. A retried confirm for the same provider
// booking id gets booking.ErrDuplicateMapping instead of a second row.
func (r *GormMappingStore) Create(ctx context.Context, mapping *booking.Mapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BookingMappingModel{}).
		Where("bpp_booking_id = ?", mapping.BppBookingID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return booking.ErrDuplicateMapping
	}

	model := models.BookingMappingModelFromDomain(mapping)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		// Concurrent confirms can race past the precheck; the unique index
		// on bpp_booking_id is the backstop
		if isUniqueViolation(err) {
			return booking.ErrDuplicateMapping
		}
		return err
	}
	return nil
}

// FindByPlatformID returns all mappings for a platform booking id, oldest
// first
func (r *GormMappingStore) FindByPlatformID(ctx context.Context, platformBookingID string) ([]booking.Mapping, error) {
	var rows []models.BookingMappingModel
	if err := r.db.WithContext(ctx).
		Where("platform_booking_id = ?", platformBookingID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make([]booking.Mapping, 0, len(rows))
	for i := range rows {
		mappings = append(mappings, *rows[i].ToDomain())
	}
	return mappings, nil
}

// FindByBppID returns the mapping for a provider booking id
func (r *GormMappingStore) FindByBppID(ctx context.Context, bppBookingID string) (*booking.Mapping, error) {
	var row models.BookingMappingModel
	if err := r.db.WithContext(ctx).
		Where("bpp_booking_id = ?", bppBookingID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrMappingNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// UpdateStatus transitions the mapping identified by provider booking id
func (r *GormMappingStore) UpdateStatus(ctx context.Context, bppBookingID string, status booking.MappingStatus) error {
	if !status.IsValid() {
		return booking.ErrInvalidMapping
	}

	result := r.db.WithContext(ctx).
		Model(&models.BookingMappingModel{}).
		Where("bpp_booking_id = ?", bppBookingID).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return booking.ErrMappingNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a unique index violation from
// postgres or sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Ensure GormMappingStore implements MappingStore
var _ booking.MappingStore = (*GormMappingStore)(nil)
