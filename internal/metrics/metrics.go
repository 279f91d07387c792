// Package metrics records per-run metrics and writes them for the node
// exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of a single run in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	Runs         *prometheus.CounterVec
	PagesSampled prometheus.Gauge
	PagesDropped prometheus.Gauge
	TextLength   prometheus.Gauge
	StepDuration *prometheus.HistogramVec
	LastRunUnix  prometheus.Gauge
	KeywordsLeft prometheus.Gauge
}

// NewRecorder creates a recorder with every metric registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopost_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		PagesSampled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopost_pages_sampled",
			Help: "Pages successfully sampled in the last run",
		}),
		PagesDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopost_pages_dropped",
			Help: "Pages dropped after a failed fetch in the last run",
		}),
		TextLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopost_article_text_length",
			Help: "Visible text length of the last published article",
		}),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autopost_step_duration_seconds",
				Help:    "Duration of pipeline steps in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"step"},
		),
		LastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopost_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		KeywordsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopost_keywords_remaining",
			Help: "Keywords left after the last run",
		}),
	}
	r.registry.MustRegister(r.Runs, r.PagesSampled, r.PagesDropped, r.TextLength,
		r.StepDuration, r.LastRunUnix, r.KeywordsLeft)
	return r
}

// ObserveStep records how long a step took.
func (r *Recorder) ObserveStep(step string, d time.Duration) {
	r.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// Finish counts the run outcome and stamps the finish time.
func (r *Recorder) Finish(outcome string, at time.Time) {
	r.Runs.WithLabelValues(outcome).Inc()
	r.LastRunUnix.Set(float64(at.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
