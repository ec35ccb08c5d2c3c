// Package metrics defines the Prometheus instrumentation shared by the
// collector and the dashboard. Counters are registered on the default
// registry and exposed at /metrics by the dashboard server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsProcessed counts drive items visited during collection.
	ItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharewatch_items_processed_total",
		Help: "Drive items visited by full and delta scans.",
	})

	// GrantsRecorded counts sharing grants written to the store.
	GrantsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharewatch_grants_recorded_total",
		Help: "Sharing grants upserted into the store.",
	})

	// ItemErrors counts per-item provider failures absorbed during
	// collection.
	ItemErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharewatch_item_errors_total",
		Help: "Per-item provider failures absorbed during collection.",
	})

	// ScanRuns counts finished runs by type and outcome.
	ScanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharewatch_scan_runs_total",
		Help: "Finished scan runs by scan type and outcome.",
	}, []string{"type", "status"})

	// UnshareFiles counts remediated files by outcome.
	UnshareFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharewatch_unshare_files_total",
		Help: "Dashboard unshare requests by per-file outcome.",
	}, []string{"outcome"})
)
