package api

import (
	"time"

	"go.uber.org/zap"

	"carespace-backend/internal/availability"
	"carespace-backend/internal/booking"
	"carespace-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	engine    *availability.Engine
	bookings  *booking.Service
	logger    *zap.Logger
	loc       *time.Location
	env       string
	startedAt time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *availability.Engine, bookings *booking.Service, env string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     s,
		engine:    engine,
		bookings:  bookings,
		logger:    logger,
		loc:       engine.Location(),
		env:       env,
		startedAt: time.Now(),
		now:       time.Now,
	}
}
