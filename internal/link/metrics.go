// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package link

import "github.com/prometheus/client_golang/prometheus"

// Attempt results.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var attemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_link_attempts_total",
		Help: "Total number of engine connection attempts, by result",
	},
	[]string{"result"},
)

var dropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "bwbridge_link_drops_total",
	Help: "Total number of times a connected engine link was lost",
})

var stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "bwbridge_link_state",
	Help: "Current link state (0 disconnected, 1 connecting, 2 connected)",
})

// RegisterMetrics registers link metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(attemptsTotal, dropsTotal, stateGauge)
}
