package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carespace-backend/internal/apperr"
	"carespace-backend/internal/booking"
	"carespace-backend/internal/parse"
	"carespace-backend/internal/store"
)

type createBookingRequest struct {
	SpaceID   string  `json:"spaceId" binding:"required"`
	DoctorID  string  `json:"doctorId"`
	StartTime string  `json:"startTime" binding:"required"`
	EndTime   string  `json:"endTime" binding:"required"`
	Duration  float64 `json:"duration"`
	Activity  string  `json:"activity"`
	Notes     string  `json:"notes"`
}

type bookingSpace struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ListBookings handles GET /api/bookings with optional spaceId, doctorId
// and date filters.
func (h *Handler) ListBookings(c *gin.Context) {
	filter := store.BookingFilter{
		SpaceID:  c.Query("spaceId"),
		DoctorID: c.Query("doctorId"),
		Date:     c.Query("date"),
	}
	if !h.validDate(c, filter.Date) {
		return
	}
	respondList(c, h.store.Bookings(filter), nil)
}

// ListBookingsBySpace handles GET /api/bookings/space/:spaceId.
func (h *Handler) ListBookingsBySpace(c *gin.Context) {
	spaceID := c.Param("spaceId")
	respondList(c, h.store.Bookings(store.BookingFilter{SpaceID: spaceID}), gin.H{"spaceId": spaceID})
}

// ListBookingsByDate handles GET /api/bookings/date/:date. A booking is
// listed on every calendar day it overlaps.
func (h *Handler) ListBookingsByDate(c *gin.Context) {
	date := c.Param("date")
	if !h.validDate(c, date) {
		return
	}
	respondList(c, h.store.Bookings(store.BookingFilter{Date: date}), gin.H{"date": date})
}

// CreateBooking handles POST /api/bookings. A booking that was accepted but
// could not be written to storage is answered with 202 and persisted=false.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Missing required parameters", "Space ID, start time, and end time are required")
		return
	}

	start, err := parse.Timestamp(req.StartTime, h.loc)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid startTime"))
		return
	}
	end, err := parse.Timestamp(req.EndTime, h.loc)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid endTime"))
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.Request{
		SpaceID:       req.SpaceID,
		DoctorID:      req.DoctorID,
		Start:         start,
		End:           end,
		DurationHours: req.Duration,
		Activity:      req.Activity,
		Notes:         req.Notes,
	})
	if err != nil && (b == nil || !errors.Is(err, apperr.ErrStorageFailure)) {
		respondError(c, err)
		return
	}

	space, _ := h.store.Space(b.SpaceID)
	data := gin.H{
		"booking":   b,
		"space":     bookingSpace{ID: space.ID, Name: space.Name, Category: space.Category},
		"persisted": err == nil,
	}
	if err != nil {
		h.logger.Warn("booking accepted without persistence", zap.String("booking_id", b.ID), zap.Error(err))
		data["message"] = "Booking created but could not be saved to storage"
		c.JSON(http.StatusAccepted, gin.H{"success": true, "data": data})
		return
	}
	data["message"] = "Booking created successfully"
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func (h *Handler) validDate(c *gin.Context, date string) bool {
	if date == "" {
		return true
	}
	if _, err := parse.Date(date, h.loc); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid date"))
		return false
	}
	return true
}
