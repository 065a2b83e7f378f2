package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetHealth handles GET /api/health.
func (h *Handler) GetHealth(c *gin.Context) {
	snap := h.store.Snapshot()
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   now.UTC().Format(time.RFC3339),
		"uptime":      now.Sub(h.startedAt).Seconds(),
		"environment": h.env,
		"dataStats": gin.H{
			"doctors":         len(snap.Doctors),
			"spaces":          len(snap.Spaces),
			"scheduleEntries": len(snap.Schedules),
			"bookings":        len(snap.Bookings),
		},
	})
}
