package model

import "time"

const (
	DefaultActivity = "General"
	StatusConfirmed = "Confirmed"
)

// Booking reserves one space for one interval. Start and End are naive
// local instants in the service's configured timezone.
type Booking struct {
	ID            string    `gorm:"primaryKey;size:32" json:"id"`
	SpaceID       string    `gorm:"index;size:64;not null" json:"spaceId"`
	DoctorID      string    `gorm:"index;size:64" json:"doctorId,omitempty"`
	Start         time.Time `gorm:"column:start_at;index;not null" json:"start"`
	End           time.Time `gorm:"column:end_at;not null" json:"end"`
	DurationHours float64   `gorm:"not null" json:"durationHours"`
	Activity      string    `gorm:"size:256;not null" json:"activity"`
	Notes         string    `json:"notes"`
	Status        string    `gorm:"size:32;not null" json:"status"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

// ConflictSummary is the trimmed view of a booking attached to an
// unavailable space.
type ConflictSummary struct {
	BookingID     string    `json:"bookingId"`
	Start         time.Time `json:"startTime"`
	End           time.Time `json:"endTime"`
	DurationHours float64   `json:"duration"`
}

// Summary returns the conflict view of b.
func (b Booking) Summary() ConflictSummary {
	return ConflictSummary{
		BookingID:     b.ID,
		Start:         b.Start,
		End:           b.End,
		DurationHours: b.DurationHours,
	}
}
