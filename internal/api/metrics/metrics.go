// Package metrics defines and registers all custom Prometheus metrics for the
// user service. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the router under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_service"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route: the registered route pattern (e.g. "/api/user/:id")
//   - code: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures handler latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from routing to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "conflict", "invalid_credentials" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by operation and result.",
	},
	[]string{"operation", "result"},
)

// AccessDeniedTotal counts requests rejected by the role gate.
// Label:
//   - reason: "unauthenticated" or "forbidden"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected before reaching a handler.",
	},
	[]string{"reason"},
)

// ── Account deletion metrics ──────────────────────────────────────────────────

// AccountDeletionsTotal counts deletion saga outcomes.
// Labels:
//   - role: the account role ("GUEST", "HOST", ...)
//   - outcome: "deleted", "blocked", "cascade_failed", "remote_unavailable" or "error"
var AccountDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_deletions_total",
		Help:      "Total number of account deletion attempts, by role and outcome.",
	},
	[]string{"role", "outcome"},
)

// RemoteCallDuration measures outbound RPC latency.
// Labels:
//   - service: "reservation" or "accommodation"
//   - method: RPC method name
//   - result: "ok" or "error"
var RemoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of outbound RPC calls made during account deletion.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "method", "result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts account events handed to the broker.
// Labels:
//   - event: event name (e.g. "user.created")
//   - result: "published", "duplicate", "dropped" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of account events processed by the dispatcher, by result.",
	},
	[]string{"event", "result"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
