// Package metrics exposes import run outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// Collector records import outcomes.
type Collector struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	entities *prometheus.CounterVec
	chunks   prometheus.Counter
	duration prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_import_runs_total",
			Help: "Import runs by result.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_import_failures_total",
			Help: "Failed import runs by the stage that failed.",
		}, []string{"stage"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_import_entities_total",
			Help: "Reconciled entities by kind and outcome.",
		}, []string{"kind", "outcome"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cfp_import_chunks_committed_total",
			Help: "Write chunks committed to the store.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfp_import_duration_seconds",
			Help:    "Import run duration.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	reg.MustRegister(c.runs, c.failures, c.entities, c.chunks, c.duration)
	return c
}

// RecordImport records a successful run.
func (c *Collector) RecordImport(r domain.ImportReport, took time.Duration) {
	c.runs.WithLabelValues("success").Inc()
	c.duration.Observe(took.Seconds())
	c.recordCounts(r)
}

// RecordFailure records a failed run. Chunks committed before the failure
// are still counted.
func (c *Collector) RecordFailure(stage domain.ImportStage, r domain.ImportReport, took time.Duration) {
	c.runs.WithLabelValues("failure").Inc()
	c.failures.WithLabelValues(string(stage)).Inc()
	c.duration.Observe(took.Seconds())
	c.chunks.Add(float64(r.Chunks))
}

func (c *Collector) recordCounts(r domain.ImportReport) {
	add := func(kind, outcome string, n int) {
		if n > 0 {
			c.entities.WithLabelValues(kind, outcome).Add(float64(n))
		}
	}
	add("session", "added", r.SessionAdded)
	add("session", "updated", r.SessionUpdated)
	add("session", "unchanged", r.SessionUnchanged)
	add("speaker", "added", r.SpeakerAdded)
	add("speaker", "updated", r.SpeakerUpdated)
	add("speaker", "unchanged", r.SpeakerUnchanged)
	add("speaker", "skipped", r.SpeakerSkipped)
	add("track", "added", r.TrackAdded)
	add("track", "updated", r.TrackUpdated)
	add("track", "unchanged", r.TrackUnchanged)
	c.chunks.Add(float64(r.Chunks))
}

// Handler returns the HTTP handler serving /metrics for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordImport(domain.ImportReport, time.Duration) {}

func (Nop) RecordFailure(domain.ImportStage, domain.ImportReport, time.Duration) {}
