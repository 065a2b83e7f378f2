package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carespace-backend/internal/apperr"
	"carespace-backend/internal/booking"
)

// respondList writes the success envelope for a collection. extra adds
// echo fields such as the filter that produced it.
func respondList[T any](c *gin.Context, items []T, extra gin.H) {
	if items == nil {
		items = []T{}
	}
	body := gin.H{"success": true, "count": len(items), "data": items}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondFail(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": title, "message": message})
}

// respondError maps err to its status and the error envelope. Conflicts
// carry the bookings that hold the interval.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"success": false, "error": errorTitle(err), "message": err.Error()}

	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		body["conflictingBookings"] = conflict.Bookings
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorTitle(err error) string {
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindInvalidInput:
		return "Invalid request"
	case apperr.KindNotFound:
		return "Not found"
	case apperr.KindNotBookable:
		return "Space not bookable"
	case apperr.KindConflict:
		return "Booking conflict"
	case apperr.KindStorageFailure:
		return "Storage failure"
	default:
		return "Server error"
	}
}

func invalidInput(format string, args ...any) error {
	return apperr.New(apperr.KindInvalidInput, format, args...)
}
