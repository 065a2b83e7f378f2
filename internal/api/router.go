package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carespace-backend/config"
	"carespace-backend/internal/availability"
	"carespace-backend/internal/booking"
	"carespace-backend/internal/metrics"
	"carespace-backend/internal/model"
	"carespace-backend/internal/mw"
	"carespace-backend/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Store    store.Store
	Engine   *availability.Engine
	Bookings *booking.Service
	Metrics  *metrics.BookingMetrics
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(logger, d.Metrics), mw.Recovery(logger))

	handler := NewHandler(d.Store, d.Engine, d.Bookings, cfg.Logging.Env, logger)

	rateLimiter := mw.RateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)

	// Cached responses may embed bookings, so every new booking empties the
	// cache.
	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	responses := mw.NewResponseCache(ttl)
	caching := responses.Middleware()
	d.Bookings.OnCreate(func(model.Booking) { responses.Flush() })

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.GetHealth)

		// GET /api/doctors
		api.GET("/doctors", caching, handler.GetDoctors)
		api.GET("/doctors/available", caching, handler.GetDoctorsWithOffice)
		api.GET("/doctors/specialty/:specialty", caching, handler.GetDoctorsBySpecialty)
		api.GET("/doctors/:id", caching, handler.GetDoctor)
		api.GET("/doctors/:id/calendar", caching, handler.GetDoctorCalendar)
		api.GET("/doctors/:id/calendar/range", caching, handler.GetDoctorCalendarRange)
		api.GET("/doctors/:id/availability/:date", caching, handler.GetDoctorAvailability)
		api.GET("/doctor-calendars", caching, handler.GetDoctorCalendars)

		// GET /api/spaces
		api.GET("/spaces", caching, handler.GetSpaces)
		api.GET("/spaces/bookable", caching, handler.GetBookableSpaces)
		api.GET("/spaces/category/:category", caching, handler.GetSpacesByCategory)
		api.GET("/spaces/:id", caching, handler.GetSpace)

		// Bookings and availability change with every booking and are
		// never cached.
		api.GET("/bookings", handler.ListBookings)
		api.GET("/bookings/space/:spaceId", handler.ListBookingsBySpace)
		api.GET("/bookings/date/:date", handler.ListBookingsByDate)
		api.POST("/bookings", handler.CreateBooking)

		api.GET("/availability/check", handler.CheckAvailability)
		api.GET("/availability/alternatives", handler.GetAlternatives)

		api.GET("/chatbot/search-doctors", caching, handler.SearchDoctors)
		api.GET("/chatbot/available-spaces", handler.GetAvailableSpaces)

		api.GET("/stats", caching, handler.GetStats)
		api.GET("/stats/specialties", caching, handler.GetSpecialtyStats)
	}

	r.NoRoute(func(c *gin.Context) {
		respondFail(c, http.StatusNotFound, "Not found", "No route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	return r
}
