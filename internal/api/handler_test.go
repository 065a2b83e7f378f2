package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carespace-backend/config"
	"carespace-backend/internal/availability"
	"carespace-backend/internal/booking"
	"carespace-backend/internal/metrics"
	"carespace-backend/internal/model"
	"carespace-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingLedger struct{}

func (failingLedger) Load(context.Context) ([]model.Booking, error) { return nil, nil }

func (failingLedger) Save(context.Context, []model.Booking, model.Booking) error {
	return errors.New("read-only file system")
}

type envelope struct {
	Success             bool            `json:"success"`
	Count               int             `json:"count"`
	Data                json.RawMessage `json:"data"`
	Error               string          `json:"error"`
	Message             string          `json:"message"`
	ConflictingBookings []model.Booking `json:"conflictingBookings"`
}

func setupRouter(t *testing.T, ledger store.Ledger) (*gin.Engine, store.Store) {
	t.Helper()
	ref := store.ReferenceData{
		Doctors: []model.Doctor{
			{ID: "D1", Name: "Dr. Adams", Specialty: "Cardiology", HasDedicatedOffice: true},
			{ID: "D2", Name: "Dr. Brown", Specialty: "Pediatrics"},
		},
		Spaces: []model.Space{
			{ID: "R1", Name: "Room 101", Category: "Clinical", Bookable: true, Uses: "Patient Consultation"},
			{ID: "R2", Name: "Lab 2", Category: "Research", Bookable: true, Uses: "Lab Work"},
			{ID: "R3", Name: "Back Office", Category: "Admin", Bookable: false},
		},
		Schedules: []model.ScheduleEntry{
			{DoctorID: "D1", Date: "2025-07-10", Time: "09:00-11:00", Activity: "Clinic"},
			{DoctorID: "D1", Date: "2025-07-12", Time: "OFF"},
		},
	}
	s := store.New(context.Background(), ref, ledger, time.UTC, nil)

	cfg := config.Default()
	cfg.Location = time.UTC
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000

	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	r := NewRouter(cfg, Deps{
		Store:    s,
		Engine:   availability.NewEngine(s, cfg, nil, m),
		Bookings: booking.NewService(s, nil, m),
		Metrics:  m,
		Gatherer: reg,
	})
	return r, s
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestGetDoctors(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := perform(router, http.MethodGet, "/api/doctors", "")
	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Count)

	w = perform(router, http.MethodGet, "/api/doctors/D2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var d model.Doctor
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &d))
	assert.Equal(t, "Dr. Brown", d.Name)

	w = perform(router, http.MethodGet, "/api/doctors/D9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Doctor not found", decode(t, w).Error)

	w = perform(router, http.MethodGet, "/api/doctors/specialty/cardio", "")
	assert.Equal(t, 1, decode(t, w).Count)

	w = perform(router, http.MethodGet, "/api/doctors/available", "")
	assert.Equal(t, 1, decode(t, w).Count)
}

func TestDoctorCalendars(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := perform(router, http.MethodGet, "/api/doctors/D1/calendar", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode(t, w).Count)

	w = perform(router, http.MethodGet, "/api/doctors/D2/calendar", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, http.MethodGet, "/api/doctors/D1/calendar/range?startDate=2025-07-11", "")
	assert.Equal(t, 1, decode(t, w).Count)
	assert.Contains(t, w.Body.String(), `"endDate":"all"`)

	w = perform(router, http.MethodGet, "/api/doctor-calendars", "")
	assert.Equal(t, 2, decode(t, w).Count)
}

func TestGetDoctorAvailability(t *testing.T) {
	router, _ := setupRouter(t, nil)

	tests := []struct {
		name      string
		target    string
		status    int
		available bool
	}{
		{"busy window", "/api/doctors/D1/availability/2025-07-10?time=10:00&duration=0.5", http.StatusOK, false},
		{"free window", "/api/doctors/D1/availability/2025-07-10?time=11:00&duration=1", http.StatusOK, true},
		{"whole day", "/api/doctors/D1/availability/2025-07-10", http.StatusOK, true},
		{"off day", "/api/doctors/D1/availability/2025-07-12", http.StatusOK, false},
		{"no schedule", "/api/doctors/D2/availability/2025-07-10", http.StatusOK, true},
		{"unknown doctor", "/api/doctors/D9/availability/2025-07-10", http.StatusNotFound, false},
		{"bad date", "/api/doctors/D1/availability/10-07-2025", http.StatusBadRequest, false},
		{"bad duration", "/api/doctors/D1/availability/2025-07-10?time=10:00&duration=abc", http.StatusBadRequest, false},
		{"NaN duration", "/api/doctors/D1/availability/2025-07-10?time=10:00&duration=NaN", http.StatusBadRequest, false},
		{"huge duration", "/api/doctors/D1/availability/2025-07-10?time=10:00&duration=1e12", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodGet, tt.target, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				assert.False(t, decode(t, w).Success)
				return
			}
			var body struct {
				Available bool `json:"available"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.available, body.Available)
		})
	}
}

func TestSpaces(t *testing.T) {
	router, _ := setupRouter(t, nil)

	assert.Equal(t, 3, decode(t, perform(router, http.MethodGet, "/api/spaces", "")).Count)
	assert.Equal(t, 2, decode(t, perform(router, http.MethodGet, "/api/spaces/bookable", "")).Count)
	assert.Equal(t, 1, decode(t, perform(router, http.MethodGet, "/api/spaces/category/research", "")).Count)

	w := perform(router, http.MethodGet, "/api/spaces/R9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Space not found", decode(t, w).Error)
}

func TestCreateBooking(t *testing.T) {
	router, s := setupRouter(t, nil)

	w := perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","doctorId":"D1","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00","activity":"Consultation"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Booking   model.Booking `json:"booking"`
		Persisted bool          `json:"persisted"`
		Space     struct {
			Name string `json:"name"`
		} `json:"space"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.True(t, strings.HasPrefix(data.Booking.ID, "BK"))
	assert.Equal(t, 1.0, data.Booking.DurationHours)
	assert.Equal(t, "Consultation", data.Booking.Activity)
	assert.True(t, data.Persisted)
	assert.Equal(t, "Room 101", data.Space.Name)
	assert.Len(t, s.Bookings(store.BookingFilter{}), 1)

	w = perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T14:30:00","endTime":"2025-07-15T15:30:00"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Booking conflict", env.Error)
	require.Len(t, env.ConflictingBookings, 1)
	assert.Equal(t, data.Booking.ID, env.ConflictingBookings[0].ID)
	assert.Len(t, s.Bookings(store.BookingFilter{}), 1)
}

func TestCreateBooking_Errors(t *testing.T) {
	router, s := setupRouter(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing fields", `{"spaceId":"R1"}`, http.StatusBadRequest},
		{"malformed json", `{"spaceId":`, http.StatusBadRequest},
		{"bad timestamp", `{"spaceId":"R1","startTime":"soon","endTime":"2025-07-15T15:00:00"}`, http.StatusBadRequest},
		{"end before start", `{"spaceId":"R1","startTime":"2025-07-15T15:00:00","endTime":"2025-07-15T14:00:00"}`, http.StatusBadRequest},
		{"unknown space", `{"spaceId":"R9","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`, http.StatusNotFound},
		{"unknown doctor", `{"spaceId":"R1","doctorId":"D9","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`, http.StatusNotFound},
		{"not bookable", `{"spaceId":"R3","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodPost, "/api/bookings", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, decode(t, w).Success)
		})
	}
	assert.Empty(t, s.Bookings(store.BookingFilter{}))
}

func TestCreateBooking_UnpersistedIsAccepted(t *testing.T) {
	router, s := setupRouter(t, failingLedger{})

	w := perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"persisted":false`)
	assert.Len(t, s.Bookings(store.BookingFilter{}), 1)
}

func TestListBookings(t *testing.T) {
	router, _ := setupRouter(t, nil)
	for _, body := range []string{
		`{"spaceId":"R1","startTime":"2025-07-15T09:00:00","endTime":"2025-07-15T10:00:00"}`,
		`{"spaceId":"R2","startTime":"2025-07-15T23:00:00","endTime":"2025-07-16T01:00:00"}`,
		`{"spaceId":"R1","startTime":"2025-07-17T09:00:00","endTime":"2025-07-17T10:00:00"}`,
	} {
		require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/bookings", body).Code)
	}

	assert.Equal(t, 3, decode(t, perform(router, http.MethodGet, "/api/bookings", "")).Count)
	assert.Equal(t, 2, decode(t, perform(router, http.MethodGet, "/api/bookings?spaceId=R1", "")).Count)
	assert.Equal(t, 1, decode(t, perform(router, http.MethodGet, "/api/bookings?spaceId=R1&date=2025-07-15", "")).Count)
	assert.Equal(t, 2, decode(t, perform(router, http.MethodGet, "/api/bookings/date/2025-07-15", "")).Count)
	assert.Equal(t, 1, decode(t, perform(router, http.MethodGet, "/api/bookings/date/2025-07-16", "")).Count)
	assert.Equal(t, 1, decode(t, perform(router, http.MethodGet, "/api/bookings/space/R2", "")).Count)

	w := perform(router, http.MethodGet, "/api/bookings?date=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckAvailability(t *testing.T) {
	router, _ := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`).Code)

	w := perform(router, http.MethodGet, "/api/availability/check?date=2025-07-15&time=13:30&duration=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res availability.Result
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, 2, res.Summary.TotalSpaces)
	assert.Equal(t, 1, res.AvailableSpaces)
	for _, s := range res.SpaceAvailability {
		if s.SpaceID == "R1" {
			assert.False(t, s.Available)
			assert.Len(t, s.ConflictingBookings, 1)
		}
	}

	w = perform(router, http.MethodGet, "/api/availability/check?date=2025-07-15&time=15:00", "")
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, 2, res.AvailableSpaces)

	w = perform(router, http.MethodGet, "/api/availability/check?date=2025-07-15", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)

	for _, d := range []string{"NaN", "Inf", "-Inf", "1e12"} {
		w = perform(router, http.MethodGet, "/api/availability/check?date=2025-07-15&time=13:30&duration="+d, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "duration=%s: %s", d, w.Body.String())
	}
}

func TestCreateBooking_DurationMismatch(t *testing.T) {
	router, s := setupRouter(t, nil)

	w := perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T09:00:00","endTime":"2025-07-15T10:00:00","duration":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Empty(t, s.Bookings(store.BookingFilter{}))

	w = perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T09:00:00","endTime":"2025-07-15T10:00:00","duration":1}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestChatbotSearchDoctors(t *testing.T) {
	router, _ := setupRouter(t, nil)

	env := decode(t, perform(router, http.MethodGet, "/api/chatbot/search-doctors?query=brown", ""))
	assert.Equal(t, 1, env.Count)

	env = decode(t, perform(router, http.MethodGet, "/api/chatbot/search-doctors?query=dr&specialty=cardio", ""))
	require.Equal(t, 1, env.Count)
	var doctors []model.Doctor
	require.NoError(t, json.Unmarshal(env.Data, &doctors))
	assert.Equal(t, "D1", doctors[0].ID)

	w := perform(router, http.MethodGet, "/api/chatbot/search-doctors", "")
	assert.Equal(t, 2, decode(t, w).Count)
	assert.Contains(t, w.Body.String(), `"query":null`)
}

func TestChatbotAvailableSpaces(t *testing.T) {
	router, _ := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T14:00:00","endTime":"2025-07-15T15:00:00"}`).Code)

	assert.Equal(t, 2, decode(t, perform(router, http.MethodGet, "/api/chatbot/available-spaces", "")).Count)
	assert.Equal(t, 1, decode(t, perform(router, http.MethodGet, "/api/chatbot/available-spaces?category=clinical", "")).Count)

	w := perform(router, http.MethodGet, "/api/chatbot/available-spaces?date=2025-07-15&time=13:30&duration=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.Equal(t, 1, env.Count)
	var spaces []model.Space
	require.NoError(t, json.Unmarshal(env.Data, &spaces))
	assert.Equal(t, "R2", spaces[0].ID)

	w = perform(router, http.MethodGet, "/api/chatbot/available-spaces?date=2025-07-15&time=13:30&duration=NaN", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAlternatives(t *testing.T) {
	router, _ := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2025-07-15T08:00:00","endTime":"2025-07-15T09:00:00"}`).Code)

	w := perform(router, http.MethodGet, "/api/availability/alternatives?spaceId=R1&date=2025-07-15", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, 3, env.Count)
	var slots []availability.Slot
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	assert.Equal(t, "09:00", slots[0].StartTime)

	w = perform(router, http.MethodGet, "/api/availability/alternatives?spaceId=R1&date=2025-07-15&limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = perform(router, http.MethodGet, "/api/availability/alternatives?spaceId=R3&date=2025-07-15", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = perform(router, http.MethodGet, "/api/availability/alternatives?date=2025-07-15", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndHealth(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := perform(router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Doctors struct {
			Total              int `json:"total"`
			WithDedicatedSpace int `json:"withDedicatedSpace"`
		} `json:"doctors"`
		Spaces struct {
			Bookable int `json:"bookable"`
		} `json:"spaces"`
		Bookings struct {
			Total int `json:"total"`
		} `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Equal(t, 2, stats.Doctors.Total)
	assert.Equal(t, 1, stats.Doctors.WithDedicatedSpace)
	assert.Equal(t, 2, stats.Spaces.Bookable)
	assert.Equal(t, 0, stats.Bookings.Total)

	w = perform(router, http.MethodGet, "/api/stats/specialties", "")
	assert.JSONEq(t, `{"success":true,"data":{"Cardiology":{"count":1,"withDedicatedSpace":1},"Pediatrics":{"count":1,"withDedicatedSpace":0}}}`, w.Body.String())

	w = perform(router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
	assert.Contains(t, w.Body.String(), `"spaces":3`)
}

func TestStatsCacheFlushedByBooking(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := perform(router, http.MethodGet, "/api/stats", "")
	assert.Contains(t, w.Body.String(), `"bookings":{"total":0`)
	w = perform(router, http.MethodGet, "/api/stats", "")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	require.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/bookings",
		`{"spaceId":"R1","startTime":"2099-07-15T08:00:00","endTime":"2099-07-15T09:00:00"}`).Code)

	w = perform(router, http.MethodGet, "/api/stats", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"bookings":{"total":1,"upcoming":1}`)
}

func TestMetricsAndNotFound(t *testing.T) {
	router, _ := setupRouter(t, nil)
	perform(router, http.MethodGet, "/api/spaces", "")

	w := perform(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `carespace_http_request_duration_seconds_count{method="GET",route="/api/spaces",status="200"} 1`)

	w = perform(router, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode(t, w).Success)
}
