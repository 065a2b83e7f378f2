// Package availability answers which doctors and spaces are free for a
// requested interval and suggests compatible pairings.
package availability

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"carespace-backend/config"
	"carespace-backend/internal/apperr"
	"carespace-backend/internal/interval"
	"carespace-backend/internal/match"
	"carespace-backend/internal/metrics"
	"carespace-backend/internal/model"
	"carespace-backend/internal/parse"
	"carespace-backend/internal/store"
)

const (
	defaultAlternatives = 3
	firstSlotHour       = 8
	lastSlotHour        = 17

	// MaxDurationHours bounds a requested duration so the window stays
	// representable as a time.Duration.
	MaxDurationHours = 24 * 365
)

// Engine computes availability over the store. It never mutates state, so
// one Engine may serve any number of concurrent requests.
type Engine struct {
	store      store.Store
	classifier *match.Classifier
	rules      *match.SpecialtyRules
	loc        *time.Location
	logger     *zap.Logger
	metrics    *metrics.BookingMetrics
}

// NewEngine creates an engine using the rule tables and timezone of cfg.
func NewEngine(s store.Store, cfg *config.Config, logger *zap.Logger, m *metrics.BookingMetrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:      s,
		classifier: match.NewClassifier(cfg.Matching.ActivityRules),
		rules:      match.NewSpecialtyRules(cfg.Matching.SpecialtyRules),
		loc:        loc,
		logger:     logger,
		metrics:    m,
	}
}

// Location is the timezone the engine reads naive times in.
func (e *Engine) Location() *time.Location { return e.loc }

// Window builds the candidate interval starting at clock on date and lasting
// hours. Zero hours means one hour; negative hours are rejected.
func (e *Engine) Window(date, clock string, hours float64) (interval.Interval, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return interval.Interval{}, apperr.New(apperr.KindInvalidInput, "date and time are required")
	}
	hours, err := durationHours(hours)
	if err != nil {
		return interval.Interval{}, err
	}
	start, err := parse.DateTime(date, clock, e.loc)
	if err != nil {
		return interval.Interval{}, apperr.Wrap(apperr.KindInvalidInput, err, "invalid date or time")
	}
	window := interval.New(start, hoursToDuration(hours))
	if !window.Valid() {
		return interval.Interval{}, apperr.New(apperr.KindInvalidInput, "duration of %g hours is out of range", hours)
	}
	return window, nil
}

// durationHours normalizes a requested duration: zero means one hour, and
// negative, non-finite or oversized values are InvalidInput.
func durationHours(hours float64) (float64, error) {
	switch {
	case math.IsNaN(hours) || math.IsInf(hours, 0):
		return 0, apperr.New(apperr.KindInvalidInput, "duration must be a finite number")
	case hours < 0:
		return 0, apperr.New(apperr.KindInvalidInput, "duration must not be negative")
	case hours > MaxDurationHours:
		return 0, apperr.New(apperr.KindInvalidInput, "duration must not exceed %d hours", MaxDurationHours)
	case hours == 0:
		return 1, nil
	}
	return hours, nil
}

// Check reports doctor and space availability for req together with the
// compatible pairings of the free ones.
func (e *Engine) Check(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	window, err := e.Window(req.Date, req.Time, req.DurationHours)
	if err != nil {
		e.metrics.ObserveAvailabilityCheck("check", "invalid")
		return nil, err
	}
	dates := datesTouched(window, e.loc)
	snap := e.store.Snapshot()

	res := &Result{
		RequestedStart:     window.Start,
		RequestedEnd:       window.End,
		RequestedDuration:  window.Duration().Hours(),
		RequestedActivity:  strings.TrimSpace(req.Activity),
		DoctorAvailability: []DoctorStatus{},
		SpaceAvailability:  []SpaceStatus{},
		OptimalMatches:     []Match{},
		SuggestedSpecialty: e.classifier.SpecialtyFor(req.Activity),
	}

	specialty := strings.ToLower(strings.TrimSpace(req.Specialty))
	for _, d := range snap.Doctors {
		if specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), specialty) {
			continue
		}
		entries := entriesOn(snap.Schedules, d.ID, dates)
		available, reason := e.judgeDoctor(d.ID, entries, &window)
		res.DoctorAvailability = append(res.DoctorAvailability, DoctorStatus{
			DoctorID:   d.ID,
			DoctorName: d.Name,
			Specialty:  d.Specialty,
			Available:  available,
			Reason:     reason,
			Schedule:   scheduleItems(entries),
		})
	}

	for _, sp := range snap.Spaces {
		if !sp.Bookable || !e.classifier.Admits(req.Activity, sp) {
			continue
		}
		conflicts := conflictsFor(snap.Bookings, sp.ID, window)
		status := SpaceStatus{
			SpaceID:             sp.ID,
			SpaceName:           sp.Name,
			Category:            sp.Category,
			Capacity:            sp.Capacity,
			Area:                sp.AreaSqm,
			Equipment:           sp.Equipment,
			Uses:                sp.Uses,
			Available:           len(conflicts) == 0,
			Reason:              ReasonAvailable,
			ConflictingBookings: make([]model.ConflictSummary, 0, len(conflicts)),
		}
		if !status.Available {
			status.Reason = ReasonBooked
		}
		for _, b := range conflicts {
			status.ConflictingBookings = append(status.ConflictingBookings, b.Summary())
		}
		res.SpaceAvailability = append(res.SpaceAvailability, status)
	}

	res.OptimalMatches = e.matches(res.DoctorAvailability, res.SpaceAvailability)
	for _, d := range res.DoctorAvailability {
		if d.Available {
			res.AvailableDoctors++
		}
	}
	for _, s := range res.SpaceAvailability {
		if s.Available {
			res.AvailableSpaces++
		}
	}
	res.Summary = Summary{
		TotalDoctors:     len(res.DoctorAvailability),
		TotalSpaces:      len(res.SpaceAvailability),
		AvailableDoctors: res.AvailableDoctors,
		AvailableSpaces:  res.AvailableSpaces,
		OptimalMatches:   len(res.OptimalMatches),
	}

	e.metrics.ObserveAvailabilityCheck("check", "ok")
	e.logger.Debug("availability checked",
		zap.Time("start", window.Start),
		zap.Float64("hours", res.RequestedDuration),
		zap.Int("available_doctors", res.AvailableDoctors),
		zap.Int("available_spaces", res.AvailableSpaces),
		zap.Int("matches", len(res.OptimalMatches)),
	)
	return res, nil
}

// matches pairs every free doctor with every free, compatible space.
func (e *Engine) matches(doctors []DoctorStatus, spaces []SpaceStatus) []Match {
	out := []Match{}
	for _, d := range doctors {
		if !d.Available {
			continue
		}
		for _, s := range spaces {
			if !s.Available || !e.rules.Compatible(d.Specialty, s.Category) {
				continue
			}
			out = append(out, Match{Doctor: d, Space: s, Compatibility: match.CompatibilityHigh})
		}
	}
	return out
}

// DoctorOnDate reports whether a doctor is working on date. Without a window
// any OFF entry makes the doctor unavailable; with one, overlapping slots do
// too. A doctor with no entries for the date is available.
func (e *Engine) DoctorOnDate(ctx context.Context, doctorID, date string, window *interval.Interval) (*DoctorDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := e.store.Doctor(doctorID)
	if !ok {
		e.metrics.ObserveAvailabilityCheck("doctor", "not_found")
		return nil, apperr.New(apperr.KindNotFound, "doctor %s not found", doctorID)
	}
	day, err := parse.Date(date, e.loc)
	if err != nil {
		e.metrics.ObserveAvailabilityCheck("doctor", "invalid")
		return nil, apperr.Wrap(apperr.KindInvalidInput, err, "invalid date")
	}
	date = day.Format(parse.DateLayout)

	entries := e.store.ScheduleFor(doctorID, date)
	if window != nil {
		// A window running past midnight is also judged against the
		// following days.
		for _, next := range datesTouched(*window, e.loc) {
			if next != date {
				entries = append(entries, e.store.ScheduleFor(doctorID, next)...)
			}
		}
	}
	available, reason := e.judgeDoctor(doctorID, entries, window)
	out := &DoctorDay{
		DoctorID:   d.ID,
		DoctorName: d.Name,
		Date:       date,
		Available:  available,
		Reason:     reason,
		Schedule:   entries,
	}
	if out.Schedule == nil {
		out.Schedule = []model.ScheduleEntry{}
	}
	if window != nil {
		start, end := window.Start, window.End
		out.WindowStart, out.WindowEnd = &start, &end
	}
	e.metrics.ObserveAvailabilityCheck("doctor", "ok")
	return out, nil
}

// judgeDoctor decides a doctor's status from the entries of the days the
// window touches. A slot that cannot be parsed counts as busy.
func (e *Engine) judgeDoctor(doctorID string, entries []model.ScheduleEntry, window *interval.Interval) (bool, string) {
	if len(entries) == 0 {
		return true, ReasonNoSchedule
	}
	busy := false
	for _, entry := range entries {
		if entry.IsOff() {
			return false, ReasonOff
		}
		if window == nil || busy {
			continue
		}
		slot, err := parse.ScheduleSlot(entry.Date, entry.Time, e.loc)
		if err != nil {
			e.logger.Warn("unreadable schedule slot treated as busy",
				zap.String("doctor_id", doctorID),
				zap.String("date", entry.Date),
				zap.String("time", entry.Time),
				zap.Error(err),
			)
			busy = true
			continue
		}
		if slot.Overlaps(*window) {
			busy = true
		}
	}
	if busy {
		return false, ReasonBusy
	}
	return true, ReasonAvailable
}

// Alternatives lists free hourly start times between 08:00 and 17:00 for a
// space, at most limit of them (three when limit is not positive).
func (e *Engine) Alternatives(ctx context.Context, spaceID, date string, hours float64, limit int) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sp, ok := e.store.Space(spaceID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "space %s not found", spaceID)
	}
	if !sp.Bookable {
		return nil, apperr.New(apperr.KindNotBookable, "space %s is not bookable", spaceID)
	}
	hours, err := durationHours(hours)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAlternatives
	}
	day, err := parse.Date(date, e.loc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, err, "invalid date")
	}

	bookings := e.store.Bookings(store.BookingFilter{SpaceID: spaceID})
	slots := []Slot{}
	for hour := firstSlotHour; hour <= lastSlotHour && len(slots) < limit; hour++ {
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, e.loc)
		window := interval.New(start, hoursToDuration(hours))
		if len(conflictsFor(bookings, spaceID, window)) > 0 {
			continue
		}
		slots = append(slots, Slot{
			SpaceID:       sp.ID,
			SpaceName:     sp.Name,
			StartTime:     window.Start.Format("15:04"),
			EndTime:       window.End.Format("15:04"),
			Start:         window.Start,
			End:           window.End,
			DurationHours: hours,
		})
	}
	return slots, nil
}

// FreeSpaces lists bookable spaces whose category contains category, all
// of them when category is empty. When both date and clock are given,
// spaces holding a booking that overlaps the requested window are left out.
func (e *Engine) FreeSpaces(ctx context.Context, category, date, clock string, hours float64) ([]model.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var window *interval.Interval
	if strings.TrimSpace(date) != "" && strings.TrimSpace(clock) != "" {
		w, err := e.Window(date, clock, hours)
		if err != nil {
			e.metrics.ObserveAvailabilityCheck("spaces", "invalid")
			return nil, err
		}
		window = &w
	}

	snap := e.store.Snapshot()
	needle := strings.ToLower(strings.TrimSpace(category))
	out := []model.Space{}
	for _, sp := range snap.Spaces {
		if !sp.Bookable || !strings.Contains(strings.ToLower(sp.Category), needle) {
			continue
		}
		if window != nil && len(conflictsFor(snap.Bookings, sp.ID, *window)) > 0 {
			continue
		}
		out = append(out, sp)
	}
	e.metrics.ObserveAvailabilityCheck("spaces", "ok")
	return out, nil
}

func entriesOn(schedules []model.ScheduleEntry, doctorID string, dates []string) []model.ScheduleEntry {
	var out []model.ScheduleEntry
	for _, s := range schedules {
		if s.DoctorID != doctorID {
			continue
		}
		for _, d := range dates {
			if s.Date == d {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// datesTouched lists the calendar dates in loc that window overlaps, in
// order. The end instant itself is excluded.
func datesTouched(window interval.Interval, loc *time.Location) []string {
	start := window.Start.In(loc)
	last := window.End.Add(-time.Nanosecond).In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	var dates []string
	for !day.After(last) {
		dates = append(dates, day.Format(parse.DateLayout))
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

func scheduleItems(entries []model.ScheduleEntry) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ScheduleItem{Time: e.Time, Activity: e.Activity, Location: e.Location, Notes: e.Notes})
	}
	return items
}

// conflictsFor returns the bookings on spaceID overlapping window.
func conflictsFor(bookings []model.Booking, spaceID string, window interval.Interval) []model.Booking {
	var out []model.Booking
	for _, b := range bookings {
		if b.SpaceID == spaceID && interval.Overlaps(window.Start, window.End, b.Start, b.End) {
			out = append(out, b)
		}
	}
	return out
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
