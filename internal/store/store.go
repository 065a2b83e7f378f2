package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"carespace-backend/internal/apperr"
	"carespace-backend/internal/interval"
	"carespace-backend/internal/model"
	"carespace-backend/internal/parse"
)

// memStore implements the Store interface over in-memory slices backed by a
// Ledger for bookings.
type memStore struct {
	mu        sync.RWMutex
	doctors   []model.Doctor
	spaces    []model.Space
	schedules []model.ScheduleEntry
	bookings  []model.Booking

	doctorIdx map[string]int
	spaceIdx  map[string]int

	flushMu sync.Mutex
	ledger  Ledger
	loc     *time.Location
	logger  *zap.Logger
}

// New creates a store over ref and the bookings already held by ledger. A
// ledger that fails to load is logged and treated as empty.
func New(ctx context.Context, ref ReferenceData, ledger Ledger, loc *time.Location, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	s := &memStore{
		doctors:   ref.Doctors,
		spaces:    ref.Spaces,
		schedules: ref.Schedules,
		doctorIdx: make(map[string]int, len(ref.Doctors)),
		spaceIdx:  make(map[string]int, len(ref.Spaces)),
		ledger:    ledger,
		loc:       loc,
		logger:    logger,
	}
	for i, d := range s.doctors {
		if _, dup := s.doctorIdx[d.ID]; dup {
			logger.Warn("duplicate doctor id, keeping first", zap.String("doctor_id", d.ID))
			continue
		}
		s.doctorIdx[d.ID] = i
	}
	for i, sp := range s.spaces {
		if _, dup := s.spaceIdx[sp.ID]; dup {
			logger.Warn("duplicate space id, keeping first", zap.String("space_id", sp.ID))
			continue
		}
		s.spaceIdx[sp.ID] = i
	}

	if ledger != nil {
		bookings, err := ledger.Load(ctx)
		if err != nil {
			logger.Error("failed to load bookings, starting with none", zap.Error(err))
		} else {
			s.bookings = bookings
		}
	}

	logger.Info("store loaded",
		zap.Int("doctors", len(s.doctors)),
		zap.Int("spaces", len(s.spaces)),
		zap.Int("schedule_entries", len(s.schedules)),
		zap.Int("bookings", len(s.bookings)),
	)
	return s
}

func (s *memStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Doctors:   append([]model.Doctor(nil), s.doctors...),
		Spaces:    append([]model.Space(nil), s.spaces...),
		Schedules: append([]model.ScheduleEntry(nil), s.schedules...),
		Bookings:  append([]model.Booking(nil), s.bookings...),
	}
}

func (s *memStore) Doctors() []model.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Doctor(nil), s.doctors...)
}

func (s *memStore) Doctor(id string) (model.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.doctorIdx[id]
	if !ok {
		return model.Doctor{}, false
	}
	return s.doctors[i], true
}

func (s *memStore) Spaces() []model.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Space(nil), s.spaces...)
}

func (s *memStore) Space(id string) (model.Space, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.spaceIdx[id]
	if !ok {
		return model.Space{}, false
	}
	return s.spaces[i], true
}

func (s *memStore) Schedules() []model.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ScheduleEntry(nil), s.schedules...)
}

func (s *memStore) ScheduleFor(doctorID, date string) []model.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ScheduleEntry
	for _, e := range s.schedules {
		if e.DoctorID == doctorID && (date == "" || e.Date == date) {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) Bookings(filter BookingFilter) []model.Booking {
	var day *interval.Interval
	if strings.TrimSpace(filter.Date) != "" {
		d, err := parse.Date(filter.Date, s.loc)
		if err != nil {
			return nil
		}
		iv := interval.Interval{Start: d, End: d.AddDate(0, 0, 1)}
		day = &iv
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if filter.SpaceID != "" && b.SpaceID != filter.SpaceID {
			continue
		}
		if filter.DoctorID != "" && b.DoctorID != filter.DoctorID {
			continue
		}
		if day != nil && !interval.Overlaps(b.Start, b.End, day.Start, day.End) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// AppendBooking adds b to the collection and flushes the ledger. The append
// is kept even when the flush fails; the returned StorageFailure tells the
// caller that durability is unconfirmed.
func (s *memStore) AppendBooking(ctx context.Context, b model.Booking) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.bookings = append(s.bookings, b)
	all := append([]model.Booking(nil), s.bookings...)
	s.mu.Unlock()

	if s.ledger == nil {
		return nil
	}
	if err := s.ledger.Save(ctx, all, b); err != nil {
		s.logger.Error("failed to persist bookings",
			zap.String("booking_id", b.ID),
			zap.Int("bookings", len(all)),
			zap.Error(err),
		)
		return apperr.Wrap(apperr.KindStorageFailure, err, "booking saved in memory but not persisted")
	}
	s.logger.Info("bookings persisted", zap.String("booking_id", b.ID), zap.Int("bookings", len(all)))
	return nil
}
