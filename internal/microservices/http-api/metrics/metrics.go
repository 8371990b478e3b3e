// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// BorrowsTotal counts borrows created.
var BorrowsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrows_total",
		Help:      "Total number of books lent out.",
	},
)

// ReturnsTotal counts returns.
// Label:
//   - late: "true" when the book came back after its due date
var ReturnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Total number of books returned, by lateness.",
	},
	[]string{"late"},
)

// FinesAssessedTotal sums fines charged at return time, in currency units.
var FinesAssessedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fines_assessed_total",
		Help:      "Sum of late fines assessed on return.",
	},
)

// ReservationsTotal counts reservation state changes.
// Label:
//   - action: "created" or "cancelled"
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Total number of reservations created or cancelled.",
	},
	[]string{"action"},
)

// LifecycleRejectionsTotal counts requests refused by a lending rule.
// Label:
//   - reason: business rule code (e.g. "no_copies_available", "book_available")
var LifecycleRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_rejections_total",
		Help:      "Borrow, return and reservation requests rejected by a lending rule.",
	},
	[]string{"reason"},
)

// LedgerContentionTotal counts guarded copy updates that matched no row after
// the locked read said they would.
// Label:
//   - op: "decrement" or "increment"
var LedgerContentionTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_contention_total",
		Help:      "Copy ledger updates lost to a concurrent writer.",
	},
	[]string{"op"},
)

// HTTPRequestDuration measures request latency.
// Labels:
//   - method, route (the gin route pattern), status
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
