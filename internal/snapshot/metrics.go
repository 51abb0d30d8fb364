// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package snapshot

import "github.com/prometheus/client_golang/prometheus"

var encodeSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "bwbridge_snapshot_encode_seconds",
		Help:    "Time spent filling the snapshot buffer, by record kind",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	},
	[]string{"kind"},
)

// RegisterMetrics registers snapshot metrics with the given registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(encodeSeconds)
}
