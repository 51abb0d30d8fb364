// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import "github.com/prometheus/client_golang/prometheus"

// Handshake results.
const (
	handshakeAccepted = "accepted"
	handshakeRejected = "rejected"
)

// Detach reasons.
const (
	detachClosed   = "closed"
	detachTimeout  = "timeout"
	detachError    = "error"
	detachShutdown = "shutdown"
)

var handshakesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_agent_handshakes_total",
		Help: "Total number of agent handshakes, by result",
	},
	[]string{"result"},
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_agent_requests_total",
		Help: "Total number of agent requests, by request type and status",
	},
	[]string{"request", "status"},
)

var turnSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "bwbridge_agent_turn_seconds",
	Help:    "Time from a notification to the agent's done",
	Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
})

var detachesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_agent_detaches_total",
		Help: "Total number of agents detached, by reason",
	},
	[]string{"reason"},
)

var attachedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "bwbridge_agent_attached",
	Help: "1 while an agent is attached",
})

// RegisterMetrics registers agent transport metrics with the given
// Prometheus registry. Panics if registration fails (following prometheus
// convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(handshakesTotal, requestsTotal, turnSeconds, detachesTotal, attachedGauge)
}

func recordRequest(request string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	requestsTotal.WithLabelValues(request, status).Inc()
}
