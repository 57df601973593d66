// Package observability holds Prometheus collectors and OpenTelemetry
// tracing setup shared across the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts identity events (register, login, refresh, logout) by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// RelationshipTransitions counts friend request and block transitions.
	RelationshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_relationship_transitions_total",
		Help: "Relationship state transitions by kind",
	}, []string{"transition"})

	// NotificationPushes counts realtime notification deliveries by channel and outcome.
	NotificationPushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_notification_pushes_total",
		Help: "Realtime notification pushes by channel and outcome",
	}, []string{"channel", "outcome"})

	// CacheLookups counts read-through cache lookups by outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_cache_lookups_total",
		Help: "Cache lookups by outcome",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialhub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome returns the label used for a success/failure outcome.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
