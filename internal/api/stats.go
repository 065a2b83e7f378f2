package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type specialtyStats struct {
	Count              int `json:"count"`
	WithDedicatedSpace int `json:"withDedicatedSpace"`
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	snap := h.store.Snapshot()
	now := h.now()

	withOffice := 0
	specialties := make(map[string]bool)
	for _, d := range snap.Doctors {
		if d.HasDedicatedOffice {
			withOffice++
		}
		specialties[d.Specialty] = true
	}

	bookable := 0
	categories := make(map[string]bool)
	for _, s := range snap.Spaces {
		if s.Bookable {
			bookable++
		}
		categories[s.Category] = true
	}

	upcoming := 0
	for _, b := range snap.Bookings {
		if b.Start.After(now) {
			upcoming++
		}
	}

	respondOK(c, gin.H{
		"doctors": gin.H{
			"total":              len(snap.Doctors),
			"withDedicatedSpace": withOffice,
			"specialties":        len(specialties),
		},
		"spaces": gin.H{
			"total":      len(snap.Spaces),
			"bookable":   bookable,
			"categories": len(categories),
		},
		"bookings": gin.H{
			"total":    len(snap.Bookings),
			"upcoming": upcoming,
		},
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// GetSpecialtyStats handles GET /api/stats/specialties.
func (h *Handler) GetSpecialtyStats(c *gin.Context) {
	stats := make(map[string]*specialtyStats)
	for _, d := range h.store.Doctors() {
		s, ok := stats[d.Specialty]
		if !ok {
			s = &specialtyStats{}
			stats[d.Specialty] = s
		}
		s.Count++
		if d.HasDedicatedOffice {
			s.WithDedicatedSpace++
		}
	}
	respondOK(c, stats)
}
