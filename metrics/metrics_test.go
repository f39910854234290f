package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordFit("linear", 4, nil)
	m.RecordFit("linear", 6, nil)
	m.RecordFit("sinusoidal_linear", 0, errors.New("did not converge"))
	m.RecordSelection("linear", 2*time.Millisecond)
	m.RecordBatch(OutcomeOK)
	m.RecordBatch(OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("linear", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("sinusoidal_linear", OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("sinusoidal_linear", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionsTotal.WithLabelValues("linear")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues(OutcomeInvalid)))

	assert.Equal(t, 1, testutil.CollectAndCount(m.SolverIterations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SeriesDuration))

	families, err := reg.Gather()
	require.Nil(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "geostyle_fits_total")
	assert.Contains(t, names, "geostyle_series_duration_seconds")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFit("linear", 1, nil)
		m.RecordSelection("linear", time.Second)
		m.RecordBatch(OutcomeCancelled)
	})
}
