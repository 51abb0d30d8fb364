// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import "github.com/prometheus/client_golang/prometheus"

var framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "bwbridge_frames_total",
	Help: "Total number of in-match ticks driven by the bridge",
})

var frameSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "bwbridge_frame_seconds",
	Help:    "Wall time of one in-match tick, agent callbacks included",
	Buckets: []float64{.001, .0025, .005, .01, .02, .042, .1, .25, .5, 1},
})

var matchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_matches_total",
		Help: "Total number of matches played, by how they ended",
	},
	[]string{"outcome"},
)

var sessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "bwbridge_sessions_total",
	Help: "Total number of sessions started (catalog loads)",
})

var matchStateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "bwbridge_match_state",
	Help: "Current match state (0 awaiting, 1 in match, 2 ended)",
})

// Match outcome when the engine reports the match is over.
const outcomeFinished = "finished"

// RegisterMetrics registers bridge metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(framesTotal, frameSeconds, matchesTotal, sessionsTotal, matchStateGauge)
}
