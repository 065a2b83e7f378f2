package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"carespace-backend/internal/interval"
	"carespace-backend/internal/model"
)

// GetDoctors handles GET /api/doctors.
func (h *Handler) GetDoctors(c *gin.Context) {
	respondList(c, h.store.Doctors(), nil)
}

// GetDoctor handles GET /api/doctors/:id.
func (h *Handler) GetDoctor(c *gin.Context) {
	d, ok := h.store.Doctor(c.Param("id"))
	if !ok {
		respondFail(c, http.StatusNotFound, "Doctor not found", fmt.Sprintf("No doctor with ID %s", c.Param("id")))
		return
	}
	respondOK(c, d)
}

// GetDoctorsBySpecialty handles GET /api/doctors/specialty/:specialty with a
// case-insensitive substring match.
func (h *Handler) GetDoctorsBySpecialty(c *gin.Context) {
	specialty := c.Param("specialty")
	needle := strings.ToLower(strings.TrimSpace(specialty))

	var out []model.Doctor
	for _, d := range h.store.Doctors() {
		if strings.Contains(strings.ToLower(d.Specialty), needle) {
			out = append(out, d)
		}
	}
	respondList(c, out, gin.H{"specialty": specialty})
}

// SearchDoctors handles GET /api/chatbot/search-doctors. query matches name,
// specialty or email; specialty narrows by specialty alone.
func (h *Handler) SearchDoctors(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	specialty := strings.TrimSpace(c.Query("specialty"))
	q, sp := strings.ToLower(query), strings.ToLower(specialty)

	var out []model.Doctor
	for _, d := range h.store.Doctors() {
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.Specialty), q) &&
			!strings.Contains(strings.ToLower(d.Email), q) {
			continue
		}
		if sp != "" && !strings.Contains(strings.ToLower(d.Specialty), sp) {
			continue
		}
		out = append(out, d)
	}
	respondList(c, out, gin.H{"query": nullable(query), "specialty": nullable(specialty)})
}

// GetDoctorsWithOffice handles GET /api/doctors/available: doctors holding
// a dedicated office.
func (h *Handler) GetDoctorsWithOffice(c *gin.Context) {
	var out []model.Doctor
	for _, d := range h.store.Doctors() {
		if d.HasDedicatedOffice {
			out = append(out, d)
		}
	}
	respondList(c, out, nil)
}

// GetDoctorCalendar handles GET /api/doctors/:id/calendar.
func (h *Handler) GetDoctorCalendar(c *gin.Context) {
	id := c.Param("id")
	entries := h.store.ScheduleFor(id, "")
	if len(entries) == 0 {
		respondFail(c, http.StatusNotFound, "Doctor calendar not found", fmt.Sprintf("No calendar entries found for doctor ID %s", id))
		return
	}
	respondList(c, entries, gin.H{"doctorId": id})
}

// GetDoctorCalendarRange handles GET /api/doctors/:id/calendar/range with
// optional inclusive startDate and endDate bounds.
func (h *Handler) GetDoctorCalendarRange(c *gin.Context) {
	id := c.Param("id")
	from, to := c.Query("startDate"), c.Query("endDate")

	var out []model.ScheduleEntry
	for _, e := range h.store.ScheduleFor(id, "") {
		// YYYY-MM-DD compares correctly as a string.
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	respondList(c, out, gin.H{
		"doctorId":  id,
		"startDate": orAll(from),
		"endDate":   orAll(to),
	})
}

// GetDoctorCalendars handles GET /api/doctor-calendars.
func (h *Handler) GetDoctorCalendars(c *gin.Context) {
	respondList(c, h.store.Schedules(), nil)
}

// GetDoctorAvailability handles GET /api/doctors/:id/availability/:date.
// With ?time= (and optionally ?duration= in hours) the answer is narrowed
// to that window.
func (h *Handler) GetDoctorAvailability(c *gin.Context) {
	var window *interval.Interval
	if clock := c.Query("time"); clock != "" {
		hours, err := queryHours(c)
		if err != nil {
			respondError(c, err)
			return
		}
		w, err := h.engine.Window(c.Param("date"), clock, hours)
		if err != nil {
			respondError(c, err)
			return
		}
		window = &w
	}

	day, err := h.engine.DoctorOnDate(c.Request.Context(), c.Param("id"), c.Param("date"), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"doctorId":  day.DoctorID,
		"date":      day.Date,
		"available": day.Available,
		"message":   day.Reason,
		"data":      day,
	})
}

// nullable echoes an absent filter as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

// queryHours reads ?duration= as hours. Absent means zero, which callers
// treat as the one hour default.
func queryHours(c *gin.Context) (float64, error) {
	raw := strings.TrimSpace(c.Query("duration"))
	if raw == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, invalidInput("duration %q is not a number", raw)
	}
	return hours, nil
}
