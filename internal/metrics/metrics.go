package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workoutwings_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_bookings_total",
			Help: "Total number of bookings by resulting status",
		},
		[]string{"status"},
	)

	BookingCancellationsTotal prometheus.Counter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workoutwings_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	ExtensionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_extensions_total",
			Help: "Extension requests and decisions",
		},
		[]string{"decision"},
	)

	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_ratings_total",
			Help: "Ratings recorded, by first rating or re-rating",
		},
		[]string{"kind"},
	)

	SweepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_sweep_transitions_total",
			Help: "Records transitioned by background sweeps",
		},
		[]string{"sweep"},
	)

	SweepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_sweep_failures_total",
			Help: "Records a sweep failed to transition",
		},
		[]string{"sweep"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workoutwings_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"template", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workoutwings_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordExtension(decision string) {
	ExtensionsTotal.WithLabelValues(decision).Inc()
}

func RecordRating(kind string) {
	RatingsTotal.WithLabelValues(kind).Inc()
}

func RecordSweep(sweep string, transitioned, failed int) {
	SweepTransitionsTotal.WithLabelValues(sweep).Add(float64(transitioned))
	SweepFailuresTotal.WithLabelValues(sweep).Add(float64(failed))
}

func RecordEmail(template, status string) {
	EmailsSentTotal.WithLabelValues(template, status).Inc()
}
