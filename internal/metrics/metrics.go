package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
)

const namespace = "tensile"

// Recorder counts specimen outcomes. Each Recorder registers its collectors
// on its own registerer so tests can use a fresh registry.
type Recorder struct {
	specimens *prometheus.CounterVec
	methods   *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewRecorder registers the analyzer collectors on reg. A nil reg uses the
// default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		// Labels: kind (ok, insufficient_data, missing_config, ...)
		specimens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "specimens_total",
			Help:      "Specimens computed, by result kind",
		}, []string{"kind"}),
		// Labels: method, smoothing
		methods: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "yield",
			Name:      "method_total",
			Help:      "Resolved yield estimates by method and smoothing strategy",
		}, []string{"method", "smoothing"}),
		// Labels: method, outcome (hit, miss, error, skipped)
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "yield",
			Name:      "attempts_total",
			Help:      "Fallback tier attempts by outcome",
		}, []string{"method", "outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Per-specimen computation time in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
}

// Observe records one computed specimen.
func (r *Recorder) Observe(res analysis.SpecimenResult, elapsed time.Duration) {
	if r == nil {
		return
	}
	kind := string(res.ErrorKind)
	if kind == "" {
		kind = "ok"
	}
	r.specimens.WithLabelValues(kind).Inc()
	if res.YieldMethod != "" && res.YieldStrength != nil {
		r.methods.WithLabelValues(string(res.YieldMethod), string(res.Smoothing)).Inc()
	}
	for _, a := range res.Attempts {
		r.attempts.WithLabelValues(string(a.Method), string(a.Outcome)).Inc()
	}
	r.duration.Observe(elapsed.Seconds())
}

// ObserveBatch records results that were computed together in elapsed.
func (r *Recorder) ObserveBatch(results []analysis.SpecimenResult, elapsed time.Duration) {
	if len(results) == 0 {
		return
	}
	each := elapsed / time.Duration(len(results))
	for _, res := range results {
		r.Observe(res, each)
	}
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
