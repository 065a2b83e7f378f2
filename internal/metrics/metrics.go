package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking and availability flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	availabilityChecks *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carespace",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		availabilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carespace",
			Subsystem: "availability",
			Name:      "checks_total",
			Help:      "Availability checks by kind and outcome",
		}, []string{"kind", "outcome"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carespace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.availabilityChecks, m.httpLatency)
	return m
}

// ObserveBooking counts one booking attempt. Outcome is "created",
// "unpersisted" or an error kind such as "conflict".
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveAvailabilityCheck(kind, outcome string) {
	if m == nil {
		return
	}
	m.availabilityChecks.WithLabelValues(kind, outcome).Inc()
}

func (m *BookingMetrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
