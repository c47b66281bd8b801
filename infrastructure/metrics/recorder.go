// Package metrics exports orchestration outcomes to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cuboulder-se-research/em-assist/application/service"
	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

const namespace = "em_assist"

// Recorder implements service.Recorder with Prometheus collectors.
type Recorder struct {
	inFlight   prometheus.Gauge
	requests   *prometheus.CounterVec
	candidates *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRecorder registers the orchestration collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "in_flight",
			Help:      "Orchestrations started but not yet finished",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "finished_total",
			Help:      "Finished orchestrations by outcome",
		}, []string{"outcome"}),
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "candidates_total",
			Help:      "Resolved candidates by type",
		}, []string{"type"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "duration_seconds",
			Help:      "Orchestration latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
	}
}

// Started marks an orchestration as in flight.
func (r *Recorder) Started() {
	r.inFlight.Inc()
}

// Finished records the outcome of one orchestration.
func (r *Recorder) Finished(outcome string, elapsed time.Duration, candidates []extraction.Candidate) {
	r.inFlight.Dec()
	r.requests.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	for _, c := range candidates {
		r.candidates.WithLabelValues(c.Kind().String()).Inc()
	}
}

var _ service.Recorder = (*Recorder)(nil)
