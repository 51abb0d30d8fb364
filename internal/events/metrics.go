// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package events

import "github.com/prometheus/client_golang/prometheus"

// unknownKind labels events whose kind the bridge does not define.
const unknownKind = "unknown"

var eventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_events_total",
		Help: "Engine events translated for the agent, by kind",
	},
	[]string{"kind"},
)

// RegisterMetrics registers event metrics with the given registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(eventsTotal)
}
