package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carespace-backend/internal/model"
)

// GetSpaces handles GET /api/spaces.
func (h *Handler) GetSpaces(c *gin.Context) {
	respondList(c, h.store.Spaces(), nil)
}

// GetBookableSpaces handles GET /api/spaces/bookable.
func (h *Handler) GetBookableSpaces(c *gin.Context) {
	var out []model.Space
	for _, s := range h.store.Spaces() {
		if s.Bookable {
			out = append(out, s)
		}
	}
	respondList(c, out, nil)
}

// GetSpacesByCategory handles GET /api/spaces/category/:category.
func (h *Handler) GetSpacesByCategory(c *gin.Context) {
	category := c.Param("category")
	needle := strings.ToLower(strings.TrimSpace(category))

	var out []model.Space
	for _, s := range h.store.Spaces() {
		if strings.Contains(strings.ToLower(s.Category), needle) {
			out = append(out, s)
		}
	}
	respondList(c, out, gin.H{"category": category})
}

// GetSpace handles GET /api/spaces/:id.
func (h *Handler) GetSpace(c *gin.Context) {
	s, ok := h.store.Space(c.Param("id"))
	if !ok {
		respondFail(c, http.StatusNotFound, "Space not found", fmt.Sprintf("No space with ID %s", c.Param("id")))
		return
	}
	respondOK(c, s)
}

// GetAvailableSpaces handles GET /api/chatbot/available-spaces: bookable
// spaces, optionally narrowed by category and by a free date and time.
func (h *Handler) GetAvailableSpaces(c *gin.Context) {
	hours, err := queryHours(c)
	if err != nil {
		respondError(c, err)
		return
	}
	date, clock, category := c.Query("date"), c.Query("time"), c.Query("category")
	spaces, err := h.engine.FreeSpaces(c.Request.Context(), category, date, clock, hours)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, spaces, gin.H{
		"date":     nullable(date),
		"time":     nullable(clock),
		"duration": nullable(c.Query("duration")),
		"category": nullable(category),
	})
}
