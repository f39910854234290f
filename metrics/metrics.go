// Package metrics exposes prometheus collectors for batch forecasts. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "geostyle"

// fit and batch outcome labels
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the forecaster collectors registered against a single registerer
type Metrics struct {
	FitsTotal        *prometheus.CounterVec
	SelectionsTotal  *prometheus.CounterVec
	SolverIterations *prometheus.HistogramVec
	SeriesDuration   prometheus.Histogram
	BatchesTotal     *prometheus.CounterVec
}

// New creates and registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fits_total",
				Help:      "Number of curve fits by curve and outcome",
			},
			[]string{"curve", "outcome"},
		),
		SelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selections_total",
				Help:      "Number of series forecast with each curve",
			},
			[]string{"curve"},
		),
		SolverIterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solver_iterations",
				Help:      "Solver iterations of converged fits",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"curve"},
		),
		SeriesDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "series_duration_seconds",
				Help:      "Time to fit and select the forecast of one series",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
			},
		),
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Number of batch forecasts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordFit counts a fit of curve. Iterations are only observed for successful fits.
func (m *Metrics) RecordFit(curve string, iterations int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FitsTotal.WithLabelValues(curve, OutcomeFailed).Inc()
		return
	}
	m.FitsTotal.WithLabelValues(curve, OutcomeOK).Inc()
	m.SolverIterations.WithLabelValues(curve).Observe(float64(iterations))
}

// RecordSelection counts the curve selected for a series and how long the series took
func (m *Metrics) RecordSelection(curve string, d time.Duration) {
	if m == nil {
		return
	}
	m.SelectionsTotal.WithLabelValues(curve).Inc()
	m.SeriesDuration.Observe(d.Seconds())
}

// RecordBatch counts a finished batch by outcome
func (m *Metrics) RecordBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}
