// Package metrics defines and registers all custom Prometheus metrics for the
// ResolveIt session client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation (promauto); the HTTP request metrics of the BFF live in a
// per-router registry instead, see internal/api.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resolveit"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts published session snapshots.
// Labels:
//   - from: previous state (e.g. "booting")
//   - to:   new state (e.g. "authenticated")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"from", "to"},
)

// SessionStaleResultsTotal counts async results discarded because a newer
// operation (or a logout) started after them.
// Label:
//   - op: "bootstrap", "login"
var SessionStaleResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_stale_results_total",
		Help:      "Total number of superseded session results that were discarded.",
	},
	[]string{"op"},
)

// ActiveSessions tracks the number of client sessions held by the BFF registry.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of client session machines held in memory.",
	},
)

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts upstream auth calls by normalised outcome.
// Labels:
//   - op:      "login", "register", "current_user"
//   - outcome: "success", "rejected", "network_failure"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of upstream authentication calls, by outcome.",
	},
	[]string{"op", "outcome"},
)

// GatewayRequestDuration measures upstream round trips, including body decoding.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of upstream authentication calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Token store metrics ───────────────────────────────────────────────────────

// TokenStoreDegradedTotal counts failed medium operations served from the
// volatile mirror.
// Label:
//   - op: "load", "save", "delete"
var TokenStoreDegradedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_store_degraded_total",
		Help:      "Total number of token medium failures absorbed by the volatile store.",
	},
	[]string{"op"},
)
