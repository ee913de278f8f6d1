package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onesearch_records_written_total",
		Help: "Index records upserted to the search backend.",
	})
	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onesearch_records_dropped_total",
		Help: "Content items dropped because base fields exceeded the record size limit.",
	})
	batchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onesearch_index_batch_failures_total",
		Help: "Batches that failed to write during reindexing.",
	})
)
