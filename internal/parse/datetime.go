package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carespace-backend/internal/interval"
	"carespace-backend/internal/model"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05"
)

var (
	clockRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))?\s*(?i:(am|pm))?$`)
	slotRe  = regexp.MustCompile(`^\s*([0-9:apmAPM ]+?)\s*-\s*([0-9:apmAPM ]+?)\s*$`)

	// Accepted timestamp layouts, tried in order. Zone-carrying layouts are
	// converted into the service location; the rest are read as local.
	naiveLayouts = []string{
		TimestampLayout,
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05.000",
	}
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
	}
)

// Slot is a parsed schedule time. Off slots block the entire day and carry
// no interval.
type Slot struct {
	interval.Interval
	Off bool
}

// Date parses a calendar date in YYYY-MM-DD form at midnight in loc.
func Date(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Clock parses a time of day such as "9", "09:30", "14:00:00" or "4pm" and
// returns the offset from midnight.
func Clock(s string) (time.Duration, error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, sec := 0, 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	switch strings.ToLower(m[4]) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	}
	// 24:00 is accepted as end-of-day so slots like "18:00-24:00" parse.
	if hour > 24 || minute > 59 || sec > 59 || (hour == 24 && (minute != 0 || sec != 0)) {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(sec)*time.Second, nil
}

// DateTime combines a date and a time of day into one instant in loc.
func DateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := Date(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(clock) == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}
	off, err := Clock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return at(d, off), nil
}

// ScheduleSlot turns a schedule entry's Time column into a slot on date.
func ScheduleSlot(date, text string, loc *time.Location) (Slot, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, model.SlotOff) {
		return Slot{Off: true}, nil
	}
	d, err := Date(date, loc)
	if err != nil {
		return Slot{}, err
	}
	m := slotRe.FindStringSubmatch(text)
	if m == nil {
		return Slot{}, fmt.Errorf("invalid schedule slot %q: expected HH:MM-HH:MM or OFF", text)
	}
	from, err := Clock(m[1])
	if err != nil {
		return Slot{}, fmt.Errorf("invalid schedule slot %q: %w", text, err)
	}
	to, err := Clock(m[2])
	if err != nil {
		return Slot{}, fmt.Errorf("invalid schedule slot %q: %w", text, err)
	}
	if to <= from {
		return Slot{}, fmt.Errorf("invalid schedule slot %q: end must be after start", text)
	}
	return Slot{Interval: interval.Interval{Start: at(d, from), End: at(d, to)}}, nil
}

// Timestamp parses a booking timestamp. Zone-less values are taken as local
// time in loc; values with an offset are converted into loc.
func Timestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTimestamp renders t as a naive local timestamp in loc.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(TimestampLayout)
}

// Bool reads the yes/no flags used in the data files.
func Bool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// Int reads an integer column, treating blanks and junk as zero.
func Int(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

// Float reads a numeric column, treating blanks and junk as zero.
func Float(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// at adds a clock offset to a midnight, respecting the wall clock across DST
// changes.
func at(midnight time.Time, off time.Duration) time.Time {
	y, mo, d := midnight.Date()
	h := int(off / time.Hour)
	mi := int((off % time.Hour) / time.Minute)
	s := int((off % time.Minute) / time.Second)
	return time.Date(y, mo, d, h, mi, s, 0, midnight.Location())
}
