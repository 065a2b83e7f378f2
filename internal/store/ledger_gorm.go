package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carespace-backend/internal/model"
)

// ErrDuplicateBooking is returned by the GORM ledger when a booking ID is
// already taken by a stored row.
var ErrDuplicateBooking = errors.New("booking id already stored")

// gormLedger keeps bookings in a database table, one row per booking.
type gormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a GORM-backed ledger. The bookings table must
// already be migrated.
func NewGormLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

// Load returns all bookings ordered by start time.
func (l *gormLedger) Load(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := l.db.WithContext(ctx).Order("start_at ASC").Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	return bookings, nil
}

// Save inserts added. A stored row with the same ID is left untouched and
// reported as ErrDuplicateBooking, so the new booking is never silently lost.
func (l *gormLedger) Save(ctx context.Context, _ []model.Booking, added model.Booking) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&added)
		if res.Error != nil {
			return fmt.Errorf("failed to insert booking %s: %w", added.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to insert booking %s: %w", added.ID, ErrDuplicateBooking)
		}
		return nil
	})
}
