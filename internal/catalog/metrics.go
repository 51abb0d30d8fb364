// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import "github.com/prometheus/client_golang/prometheus"

var catalogMisses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwbridge_catalog_misses_total",
		Help: "Lookups of ids the catalog does not contain, by category",
	},
	[]string{"category"},
)

var catalogEntries = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bwbridge_catalog_entries",
		Help: "Entries in the loaded catalog, by category",
	},
	[]string{"category"},
)

// RegisterMetrics registers catalog metrics with the given registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(catalogMisses)
	reg.MustRegister(catalogEntries)
}
