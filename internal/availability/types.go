package availability

import (
	"time"

	"carespace-backend/internal/model"
)

// Reasons attached to doctor and space statuses.
const (
	ReasonNoSchedule = "No schedule found for this date"
	ReasonAvailable  = "Available during requested time"
	ReasonBusy       = "Busy during requested time"
	ReasonOff        = "Off duty on this date"
	ReasonBooked     = "Booked during requested time"
)

// Request is the input of a joint availability check. Date is YYYY-MM-DD,
// Time a time of day. DurationHours of zero means one hour.
type Request struct {
	Date          string
	Time          string
	DurationHours float64
	Specialty     string
	Activity      string
}

// ScheduleItem is a schedule entry as shown next to a doctor status.
type ScheduleItem struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

type DoctorStatus struct {
	DoctorID   string         `json:"doctorId"`
	DoctorName string         `json:"doctorName"`
	Specialty  string         `json:"specialty"`
	Available  bool           `json:"available"`
	Reason     string         `json:"reason"`
	Schedule   []ScheduleItem `json:"schedule"`
}

type SpaceStatus struct {
	SpaceID             string                  `json:"spaceId"`
	SpaceName           string                  `json:"spaceName"`
	Category            string                  `json:"category"`
	Capacity            int                     `json:"capacity"`
	Area                float64                 `json:"area"`
	Equipment           string                  `json:"equipment"`
	Uses                string                  `json:"uses"`
	Available           bool                    `json:"available"`
	Reason              string                  `json:"reason"`
	ConflictingBookings []model.ConflictSummary `json:"conflictingBookings"`
}

// Match is a suggested doctor/space pairing. Matches do not reserve
// anything; two matches may name the same space.
type Match struct {
	Doctor        DoctorStatus `json:"doctor"`
	Space         SpaceStatus  `json:"space"`
	Compatibility string       `json:"compatibility"`
}

type Summary struct {
	TotalDoctors     int `json:"totalDoctors"`
	TotalSpaces      int `json:"totalSpaces"`
	AvailableDoctors int `json:"availableDoctors"`
	AvailableSpaces  int `json:"availableSpaces"`
	OptimalMatches   int `json:"optimalMatches"`
}

// Result is the answer to a joint availability check.
type Result struct {
	RequestedStart     time.Time      `json:"requestedDateTime"`
	RequestedEnd       time.Time      `json:"requestedEndTime"`
	RequestedDuration  float64        `json:"requestedDuration"`
	RequestedActivity  string         `json:"requestedActivity,omitempty"`
	DoctorAvailability []DoctorStatus `json:"doctorAvailability"`
	SpaceAvailability  []SpaceStatus  `json:"spaceAvailability"`
	AvailableDoctors   int            `json:"availableDoctors"`
	AvailableSpaces    int            `json:"availableSpaces"`
	OptimalMatches     []Match        `json:"optimalMatches"`
	SuggestedSpecialty string         `json:"suggestedSpecialty,omitempty"`
	Summary            Summary        `json:"summary"`
}

// DoctorDay is a single doctor's availability on one date, optionally
// narrowed to a window.
type DoctorDay struct {
	DoctorID    string                `json:"doctorId"`
	DoctorName  string                `json:"doctorName"`
	Date        string                `json:"date"`
	WindowStart *time.Time            `json:"windowStart,omitempty"`
	WindowEnd   *time.Time            `json:"windowEnd,omitempty"`
	Available   bool                  `json:"available"`
	Reason      string                `json:"message"`
	Schedule    []model.ScheduleEntry `json:"data"`
}

// Slot is a free start time offered for a space.
type Slot struct {
	SpaceID       string    `json:"spaceId"`
	SpaceName     string    `json:"spaceName"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration"`
}
