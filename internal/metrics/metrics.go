package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings committed to the ledger.",
		},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "booking_conflict_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		},
	)

	bookingStatusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "booking_status_changed_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "cache_lookups_total",
			Help:      "Count of read-through cache lookups by cache name and outcome.",
		},
		[]string{"cache", "outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "notifications_total",
			Help:      "Count of confirmation dispatch attempts by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingConflict, bookingStatusChanged,
			cacheLookups, notifications, httpRequests,
		)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncBookingStatusChanged(status string) {
	bookingStatusChanged.WithLabelValues(status).Inc()
}

func IncCacheHit(cache string) {
	cacheLookups.WithLabelValues(cache, "hit").Inc()
}

func IncCacheMiss(cache string) {
	cacheLookups.WithLabelValues(cache, "miss").Inc()
}

func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
