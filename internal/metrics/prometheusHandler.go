package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds only the pipeline metrics so a push carries nothing else.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var stageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pdfrag_stage_duration_seconds",
	Help:    "Time spent in each pipeline stage.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
}, []string{"stage"})

var chunksStored = factory.NewCounter(prometheus.CounterOpts{
	Name: "pdfrag_chunks_stored_total",
	Help: "Chunks embedded and written to the vector store.",
})

var runsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "pdfrag_runs_total",
	Help: "Pipeline runs labelled by final status.",
}, []string{"status"})

func CaptureExecutionMetrics(stage string, timeElapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(timeElapsed.Seconds())
}

func AddChunksStored(n int) {
	if n > 0 {
		chunksStored.Add(float64(n))
	}
}

func CaptureRunMetrics(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// Push sends the registry to a Pushgateway once, grouped by run id. A blank
// url disables pushing.
func Push(ctx context.Context, url, job, runId string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).
		Gatherer(Registry).
		Grouping("run_id", runId).
		PushContext(ctx)
}
