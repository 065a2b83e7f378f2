// Package booking creates space bookings. All creations are serialized so
// the overlap check, the append and the flush happen as one step.
package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"carespace-backend/internal/apperr"
	"carespace-backend/internal/interval"
	"carespace-backend/internal/metrics"
	"carespace-backend/internal/model"
	"carespace-backend/internal/store"
)

// ErrInvalidInterval is returned when a booking does not end after it starts.
var ErrInvalidInterval = apperr.New(apperr.KindInvalidInput, "end time must be after start time")

// ConflictError lists the bookings that already hold the requested interval.
// It matches apperr.ErrConflict.
type ConflictError struct {
	SpaceID  string
	Bookings []model.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("space %s is already booked for the requested time period (%d conflicting)", e.SpaceID, len(e.Bookings))
}

func (e *ConflictError) Unwrap() error { return apperr.ErrConflict }

// Request describes a booking to create. DoctorID is optional. A
// DurationHours of zero is derived from Start and End; any other value must
// agree with them.
type Request struct {
	SpaceID       string
	DoctorID      string
	Start         time.Time
	End           time.Time
	DurationHours float64
	Activity      string
	Notes         string
}

// Service is the only writer of bookings.
type Service struct {
	mu      sync.Mutex
	store   store.Store
	logger  *zap.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
	lastID  int64
	hooks   []func(model.Booking)
}

// durationTolerance absorbs float rounding of client-computed durations.
const durationTolerance = 1.0 / 3600

// NewService creates a booking service writing to s. Generated IDs continue
// after the highest BK ID already in the store.
func NewService(s store.Store, logger *zap.Logger, m *metrics.BookingMetrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		store:   s,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	for _, b := range s.Bookings(store.BookingFilter{}) {
		if n, ok := parseID(b.ID); ok && n > svc.lastID {
			svc.lastID = n
		}
	}
	return svc
}

// OnCreate registers fn to run after every booking that reached the store,
// persisted or not. Hooks run while creations are serialized and must not
// call Create.
func (s *Service) OnCreate(fn func(model.Booking)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Create validates req and books the space. When the booking was kept in
// memory but could not be flushed, the booking is returned together with a
// StorageFailure error.
func (s *Service) Create(ctx context.Context, req Request) (*model.Booking, error) {
	req.SpaceID = strings.TrimSpace(req.SpaceID)
	req.DoctorID = strings.TrimSpace(req.DoctorID)

	if !req.End.After(req.Start) {
		s.metrics.ObserveBooking("invalid")
		return nil, ErrInvalidInterval
	}
	if req.SpaceID == "" {
		s.metrics.ObserveBooking("invalid")
		return nil, apperr.New(apperr.KindInvalidInput, "space id is required")
	}
	duration := req.End.Sub(req.Start).Hours()
	if req.DurationHours != 0 && !(math.Abs(req.DurationHours-duration) <= durationTolerance) {
		s.metrics.ObserveBooking("invalid")
		return nil, apperr.New(apperr.KindInvalidInput,
			"duration of %g hours does not match the %g hours between start and end", req.DurationHours, duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	space, ok := s.store.Space(req.SpaceID)
	if !ok {
		s.metrics.ObserveBooking("not_found")
		return nil, apperr.New(apperr.KindNotFound, "space %s does not exist", req.SpaceID)
	}
	if req.DoctorID != "" {
		if _, ok := s.store.Doctor(req.DoctorID); !ok {
			s.metrics.ObserveBooking("not_found")
			return nil, apperr.New(apperr.KindNotFound, "doctor %s does not exist", req.DoctorID)
		}
	}
	if !space.Bookable {
		s.metrics.ObserveBooking("not_bookable")
		return nil, apperr.New(apperr.KindNotBookable, "space %s is not available for booking", space.ID)
	}

	var conflicts []model.Booking
	for _, b := range s.store.Bookings(store.BookingFilter{SpaceID: space.ID}) {
		if interval.Overlaps(req.Start, req.End, b.Start, b.End) {
			conflicts = append(conflicts, b)
		}
	}
	if len(conflicts) > 0 {
		s.metrics.ObserveBooking("conflict")
		s.logger.Info("booking rejected, space already booked",
			zap.String("space_id", space.ID),
			zap.Time("start", req.Start),
			zap.Time("end", req.End),
			zap.Int("conflicts", len(conflicts)),
		)
		return nil, &ConflictError{SpaceID: space.ID, Bookings: conflicts}
	}

	activity := strings.TrimSpace(req.Activity)
	if activity == "" {
		activity = model.DefaultActivity
	}
	now := s.now()
	b := model.Booking{
		ID:            s.nextID(now),
		SpaceID:       space.ID,
		DoctorID:      req.DoctorID,
		Start:         req.Start,
		End:           req.End,
		DurationHours: duration,
		Activity:      activity,
		Notes:         strings.TrimSpace(req.Notes),
		Status:        model.StatusConfirmed,
		CreatedAt:     now.UTC(),
	}

	// Flush regardless of caller cancellation; the append is already visible.
	err := s.store.AppendBooking(context.WithoutCancel(ctx), b)
	for _, fn := range s.hooks {
		fn(b)
	}
	if err != nil {
		s.metrics.ObserveBooking("unpersisted")
		if !errors.Is(err, apperr.ErrStorageFailure) {
			err = apperr.Wrap(apperr.KindStorageFailure, err, "booking saved in memory but not persisted")
		}
		return &b, err
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("space_id", b.SpaceID),
		zap.String("doctor_id", b.DoctorID),
		zap.Time("start", b.Start),
		zap.Time("end", b.End),
	)
	return &b, nil
}

// nextID returns "BK" followed by the creation time in unix milliseconds,
// bumped when needed so IDs stay strictly increasing. Callers hold mu.
func (s *Service) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return "BK" + strconv.FormatInt(id, 10)
}

func parseID(id string) (int64, bool) {
	digits, ok := strings.CutPrefix(id, "BK")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	return n, err == nil
}
