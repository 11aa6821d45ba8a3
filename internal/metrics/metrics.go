package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache request results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the collectors of a single run. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	scoresComputed prometheus.Counter
	cacheRequests  *prometheus.CounterVec
	filterDropped  *prometheus.CounterVec
	scores         prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scoresComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchscore_scores_computed_total",
			Help: "Total number of compatibility scores computed",
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchscore_cache_requests_total",
			Help: "Total number of score cache lookups by result",
		}, []string{"result"}),
		filterDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchscore_filter_dropped_total",
			Help: "Total number of candidates dropped by filter",
		}, []string{"filter"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchscore_score",
			Help:    "Distribution of compatibility scores",
			Buckets: []float64{59, 69, 79, 89, 100},
		}),
	}

	m.registry.MustRegister(m.scoresComputed, m.cacheRequests, m.filterDropped, m.scores)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ScoreComputed counts a freshly computed score and records its value.
func (m *Metrics) ScoreComputed(score int) {
	if m == nil {
		return
	}
	m.scoresComputed.Inc()
	m.scores.Observe(float64(score))
}

func (m *Metrics) CacheRequest(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) FilterDropped(filter string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.filterDropped.WithLabelValues(filter).Add(float64(n))
}

// WriteTextfile exports the registry for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
