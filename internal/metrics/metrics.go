package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitconnect_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_bookings_total",
			Help: "Total number of bookings created",
		},
		[]string{"status", "payment_status"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_booking_rejections_total",
			Help: "Bookings refused by the capacity check or lookup",
		},
		[]string{"reason"},
	)

	BookingCancellationsTotal prometheus.Counter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitconnect_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	FavoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_favorite_toggles_total",
			Help: "Favorite additions and removals",
		},
		[]string{"type", "action"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_auth_events_total",
			Help: "Session change events published",
		},
		[]string{"event"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitconnect_realtime_connections",
			Help: "Open auth event stream connections",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitconnect_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	LocalFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitconnect_client_local_fallbacks_total",
			Help: "Client mutations or reads served from local state after a remote failure",
		},
		[]string{"operation"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, paymentStatus string) {
	BookingsTotal.WithLabelValues(status, paymentStatus).Inc()
}

func RecordBookingRejection(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordFavoriteToggle(kind string, added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	FavoriteTogglesTotal.WithLabelValues(kind, action).Inc()
}

func RecordAuthEvent(event string) {
	AuthEventsTotal.WithLabelValues(event).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordLocalFallback(operation string) {
	LocalFallbacksTotal.WithLabelValues(operation).Inc()
}
