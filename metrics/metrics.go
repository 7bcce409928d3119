// File: metrics/metrics.go
// Package metrics exposes Prometheus collectors for allocator activity,
// following the pack's promauto package-level-collector convention (see
// 23skdu-longbow's internal/metrics/metrics_eviction.go and
// containers-nri-plugins' prometheus-based instrumentation) rather than
// hand-rolled counters.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AllocationsTotal counts successful allocations, labeled by shape
	// ("simple" or "multinode").
	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silo_allocations_total",
			Help: "Total successful allocations, by shape.",
		},
		[]string{"shape"},
	)

	// AllocationFailuresTotal counts failed allocation attempts, labeled by
	// the reason spec.md §7 assigns them.
	AllocationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silo_allocation_failures_total",
			Help: "Total failed allocation attempts, by reason.",
		},
		[]string{"reason"},
	)

	// FreesTotal counts calls to Free that found a registered allocation.
	FreesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "silo_frees_total",
			Help: "Total Free calls that matched a registered allocation.",
		},
	)

	// ForeignFreesTotal counts calls to Free whose pointer was not found in
	// the registry and was therefore ignored.
	ForeignFreesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "silo_foreign_frees_total",
			Help: "Total Free calls for untracked pointers, which were ignored.",
		},
	)

	// LiveBytes tracks bytes currently allocated per OS NUMA node.
	LiveBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "silo_live_bytes",
			Help: "Bytes currently allocated, by OS NUMA node.",
		},
		[]string{"node"},
	)

	// MigrationFailuresTotal counts Family B interior-piece migrations that
	// did not take effect (non-fatal to the allocation call; see spec.md §9
	// Open Question).
	MigrationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "silo_migration_failures_total",
			Help: "Total interior-piece migrations that failed to take effect.",
		},
	)
)

// AddLiveBytes adjusts the live-bytes gauge for an OS NUMA node by delta
// (negative on free).
func AddLiveBytes(osNode int32, delta float64) {
	LiveBytes.WithLabelValues(strconv.Itoa(int(osNode))).Add(delta)
}
