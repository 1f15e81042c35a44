// Package metrics holds the Prometheus instrumentation for the
// ingestion and correlation pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// IngestDropped counts payloads rejected before normalization,
	// labeled by channel (sensor, beacon, status) and reason.
	IngestDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zias_ingest_dropped_total",
			Help: "Payloads dropped during validation or dispatch.",
		},
		[]string{"channel", "reason"},
	)

	// PingsIngested counts accepted sensor pings by modality.
	PingsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zias_pings_ingested_total",
			Help: "Validated sensor pings accepted into the engine.",
		},
		[]string{"modality"},
	)

	// EventsEmitted counts attendance events by direction and source.
	EventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zias_attendance_events_total",
			Help: "Attendance events durably emitted.",
		},
		[]string{"direction", "source"},
	)

	// PingsSuppressed counts pings discarded by the anti-tailgating
	// debounce.
	PingsSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zias_pings_suppressed_total",
			Help: "Pings discarded within the anti-tailgating delay.",
		},
	)

	// MatchConflicts counts pairs that resolved to no direction
	// (same role or unregistered devices).
	MatchConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zias_match_conflicts_total",
			Help: "Matched pairs with unresolvable direction.",
		},
	)

	// PendingExpired counts one-sided detections that aged out without
	// a complement.
	PendingExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zias_pending_expired_total",
			Help: "Pending matches expired without a complement.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		IngestDropped,
		PingsIngested,
		EventsEmitted,
		PingsSuppressed,
		MatchConflicts,
		PendingExpired,
	)
}
