package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"carespace-backend/internal/availability"
)

// CheckAvailability handles GET /api/availability/check.
func (h *Handler) CheckAvailability(c *gin.Context) {
	hours, err := queryHours(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.engine.Check(c.Request.Context(), availability.Request{
		Date:          c.Query("date"),
		Time:          c.Query("time"),
		DurationHours: hours,
		Specialty:     c.Query("specialty"),
		Activity:      c.Query("activity"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// GetAlternatives handles GET /api/availability/alternatives: free hourly
// start times on a date for one space.
func (h *Handler) GetAlternatives(c *gin.Context) {
	spaceID, date := c.Query("spaceId"), c.Query("date")
	if spaceID == "" || date == "" {
		respondError(c, invalidInput("spaceId and date are required"))
		return
	}
	hours, err := queryHours(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			respondError(c, invalidInput("limit %q is not a number", raw))
			return
		}
	}

	slots, err := h.engine.Alternatives(c.Request.Context(), spaceID, date, hours, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, slots, gin.H{"spaceId": spaceID, "date": date})
}
