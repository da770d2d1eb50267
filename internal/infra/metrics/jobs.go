package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(jobsProcessedTotal, jobsCancelledTotal, transcriptionElapsed) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "transcription_jobs_processed_total",
		Help: "Total number of transcription jobs processed, labeled by status and GPU lane.",
	},
	[]string{"status", "lane"}, // 'success', 'failed'
)

var jobsCancelledTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "transcription_jobs_cancelled_total",
		Help: "Total number of queued jobs removed by batch cancellation.",
	},
)

var transcriptionElapsed = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "transcription_elapsed_seconds",
		Help:    "Per-file processing time distribution in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
	},
	[]string{"status"},
)

func IncJob(status string, lane int) {
	jobsProcessedTotal.WithLabelValues(norm(status), strconv.Itoa(lane)).Inc()
}

func AddCancelled(n int) {
	jobsCancelledTotal.Add(float64(n))
}

func ObserveElapsed(status string, seconds float64) {
	transcriptionElapsed.WithLabelValues(norm(status)).Observe(seconds)
}
