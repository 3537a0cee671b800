package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the bulk-sync path. Registered on the default registry and
// exposed via promhttp on /metrics.
var (
	SyncBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendsync_batches_total",
		Help: "Number of bulk-sync batches processed.",
	})

	SyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendsync_records_total",
		Help: "Number of bulk-sync records processed, by outcome.",
	}, []string{"outcome"})

	SyncConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendsync_conflicts_total",
		Help: "Number of accepted records flagged as conflicts.",
	})
)
