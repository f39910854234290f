package forecast

import (
	"math"
	"testing"

	"github.com/peternara/geostyle/forecast/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinusoidStart(t *testing.T) {
	res := sinusoidStart([]float64{0.2, 0.8, 0.5}, 0.125)
	assert.InDeltaSlice(t, []float64{1, 0.6, 0.125, 0, 0.5, 0, 0}, res, 1e-12)
}

func TestSpectralStart(t *testing.T) {
	bounds := options.DefaultSinusoidBounds()

	testData := map[string]struct {
		trend    []float64
		expected []float64
	}{
		"too short": {
			trend: []float64{1, 2, 3},
		},
		"no bin within bounds": {
			// the lowest non-zero frequency of 4 points is 1/4 which is above 1/6
			trend: []float64{0, 1, 0, 1},
		},
		"period 12": {
			trend:    periodic(48, 12, 0.25, -1.2, 0.4),
			expected: []float64{1, 0.25, 1.0 / 12.0, -1.2, 0.4, 0, 0},
		},
		"period 24": {
			trend:    periodic(72, 24, 0.1, 2.5, 0.6),
			expected: []float64{1, 0.1, 1.0 / 24.0, 2.5, 0.6, 0, 0},
		},
		"amplitude clipped to bounds": {
			trend:    periodic(36, 12, 3, 0, 0.5),
			expected: []float64{1, 1, 1.0 / 12.0, 0, 0.5, 0, 0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := spectralStart(td.trend, bounds)
			if td.expected == nil {
				assert.Nil(t, res)
				return
			}
			require.Len(t, res, options.NumSinusoidParams)
			assert.InDeltaSlice(t, td.expected, res, 1e-9)
			assert.True(t, bounds.Contains(res))
		})
	}
}

func TestSpectralStartIsExactForPureSinusoid(t *testing.T) {
	trend := periodic(60, 12, 0.3, 0.7, 0.5)
	p := spectralStart(trend, options.DefaultSinusoidBounds())
	require.NotNil(t, p)

	for i, y := range trend {
		assert.InDelta(t, y, SinusoidalLinear{}.Eval(float64(i), p), 1e-9)
	}
	assert.False(t, math.IsNaN(p[3]))
}
