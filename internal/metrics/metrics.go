// Package metrics holds the Prometheus counters for pipeline runs. A CLI
// invocation is short-lived, so values are written to a node-exporter textfile
// instead of being served.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xgmetrics"

// Metrics is one registry with the pipeline collectors registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	EventsParsed      prometheus.Counter
	ShotsEvaluated    *prometheus.CounterVec // by model version
	SeasonsLoaded     prometheus.Counter
	SeasonsFailed     prometheus.Counter
	SeasonLoadSeconds prometheus.Histogram
}

// New creates a fresh registry. Separate instances never share state.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EventsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parsed_total",
			Help:      "Play-by-play rows read from season tables",
		}),
		ShotsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shots_evaluated_total",
			Help:      "Shot attempts scored, by model version",
		}, []string{"version"}),
		SeasonsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasons_loaded_total",
			Help:      "Seasons loaded and transformed successfully",
		}),
		SeasonsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasons_failed_total",
			Help:      "Seasons skipped after a load or parse failure",
		}),
		SeasonLoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "season_load_seconds",
			Help:      "Time to download, parse and score one season",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
	}
	m.Registry.MustRegister(m.EventsParsed, m.ShotsEvaluated, m.SeasonsLoaded, m.SeasonsFailed, m.SeasonLoadSeconds)
	return m
}

// AddShots records n shots scored by version v.
func (m *Metrics) AddShots(version, n int) {
	m.ShotsEvaluated.WithLabelValues(fmt.Sprint(version)).Add(float64(n))
}

// WriteTextfile writes every metric in the registry to path in the text
// exposition format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
