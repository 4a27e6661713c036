package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SnapshotsCreatedTotal counts stored snapshots by how they were made.
	SnapshotsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgraph_snapshots_created_total",
			Help: "Snapshots stored, by dataset type.",
		},
		[]string{"dataset_type"},
	)

	// SnapshotsStored tracks the number of snapshots in the local store.
	SnapshotsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxgraph_snapshots_stored",
			Help: "Snapshots currently in the local store.",
		},
	)

	// AlgorithmRunsTotal counts algorithm runs by outcome.
	AlgorithmRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgraph_algorithm_runs_total",
			Help: "Algorithm runs, by algorithm and outcome.",
		},
		[]string{"algorithm", "outcome"},
	)

	// AlgorithmRunSeconds observes the end-to-end duration of a run.
	AlgorithmRunSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxgraph_algorithm_run_seconds",
			Help:    "Duration of algorithm runs including the service call.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)

	// NegativeCyclesTotal counts Bellman-Ford runs that found an arbitrage loop.
	NegativeCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fxgraph_negative_cycles_found_total",
			Help: "Bellman-Ford runs that reported a negative cycle.",
		},
	)

	// SnapshotsArchivedTotal counts snapshots written to the blob store.
	SnapshotsArchivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fxgraph_snapshots_archived_total",
			Help: "Snapshots written to the archive.",
		},
	)
)

func init() {
	prometheus.MustRegister(SnapshotsCreatedTotal)
	prometheus.MustRegister(SnapshotsStored)
	prometheus.MustRegister(AlgorithmRunsTotal)
	prometheus.MustRegister(AlgorithmRunSeconds)
	prometheus.MustRegister(NegativeCyclesTotal)
	prometheus.MustRegister(SnapshotsArchivedTotal)
}
