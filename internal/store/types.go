package store

import (
	"context"

	"carespace-backend/internal/model"
)

// Store owns the in-memory collections. Doctors, spaces and schedules are
// reference data fixed at load; bookings grow through AppendBooking.
type Store interface {
	Snapshot() Snapshot
	Doctors() []model.Doctor
	Doctor(id string) (model.Doctor, bool)
	Spaces() []model.Space
	Space(id string) (model.Space, bool)
	Schedules() []model.ScheduleEntry
	ScheduleFor(doctorID, date string) []model.ScheduleEntry
	Bookings(filter BookingFilter) []model.Booking
	AppendBooking(ctx context.Context, b model.Booking) error
}

// Ledger persists the booking collection.
type Ledger interface {
	Load(ctx context.Context) ([]model.Booking, error)
	// Save persists all bookings after added was appended. File ledgers
	// rewrite everything; database ledgers may insert added only.
	Save(ctx context.Context, all []model.Booking, added model.Booking) error
}

// BookingFilter narrows ListBookings. Empty fields match everything. Date
// (YYYY-MM-DD) matches bookings overlapping that calendar day.
type BookingFilter struct {
	SpaceID  string
	DoctorID string
	Date     string
}

// Snapshot is a consistent copy of every collection taken under one lock.
type Snapshot struct {
	Doctors   []model.Doctor
	Spaces    []model.Space
	Schedules []model.ScheduleEntry
	Bookings  []model.Booking
}

// ReferenceData is the read-only part of the store.
type ReferenceData struct {
	Doctors   []model.Doctor
	Spaces    []model.Space
	Schedules []model.ScheduleEntry
}
