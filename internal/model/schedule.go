package model

import "strings"

// SlotOff marks a schedule entry that blocks the whole day.
const SlotOff = "OFF"

// ScheduleEntry is a pre-existing commitment on a doctor's calendar.
type ScheduleEntry struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"` // YYYY-MM-DD
	Time     string `json:"time"` // "HH:MM-HH:MM" or SlotOff
	Activity string `json:"activity"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// IsOff reports whether the entry takes the doctor off duty for the day.
func (e ScheduleEntry) IsOff() bool {
	return strings.EqualFold(strings.TrimSpace(e.Time), SlotOff)
}
