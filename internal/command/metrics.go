// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/bwbridge/pkg/errutil"
)

// Status constants for command and query metrics.
const (
	StatusOK             = "ok"
	StatusRejected       = "rejected"
	StatusStaleHandle    = "stale_handle"
	StatusBadShape       = "bad_shape"
	StatusCatalogMiss    = "catalog_miss"
	StatusUnknown        = "unknown"
	StatusMissingArg     = "missing_argument"
	StatusInvalidRequest = "invalid"
)

// CommandsTotal counts dispatched unit commands.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_commands_total",
		Help: "Total number of unit commands, by action and outcome",
	},
	[]string{"action", "status"},
)

// QueriesTotal counts engine predicate queries.
// Use RegisterMetrics to register this with a Prometheus registry.
var QueriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_queries_total",
		Help: "Total number of engine queries, by kind and outcome",
	},
	[]string{"query", "status"},
)

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandsTotal)
	reg.MustRegister(QueriesTotal)
}

// RecordCommand increments the command counter.
func RecordCommand(action, status string) {
	CommandsTotal.WithLabelValues(action, status).Inc()
}

// RecordQuery increments the query counter.
func RecordQuery(query, status string) {
	QueriesTotal.WithLabelValues(query, status).Inc()
}

// statusOf maps a validation error to its metric status.
func statusOf(err error) string {
	switch errutil.Code(err) {
	case CodeStaleHandle:
		return StatusStaleHandle
	case CodeBadShape:
		return StatusBadShape
	case CodeCatalogMiss:
		return StatusCatalogMiss
	case CodeUnknownAction, CodeUnknownQuery:
		return StatusUnknown
	case CodeMissingArg:
		return StatusMissingArg
	default:
		return StatusInvalidRequest
	}
}
