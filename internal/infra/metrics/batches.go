package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(batchesTotal, filesDiscoveredTotal) }

var batchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "batches_total",
		Help: "Batches by status event (created/processing/paused/completed/failed/deleted).",
	},
	[]string{"status"},
)

var filesDiscoveredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "files_discovered_total",
		Help: "Total audio files discovered across all batch scans.",
	},
)

func IncBatch(status string) {
	batchesTotal.WithLabelValues(norm(status)).Inc()
}

func AddFilesDiscovered(n int) {
	filesDiscoveredTotal.Add(float64(n))
}
