package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialPanel(t *testing.T, steps, n int) *Panel {
	p, err := New(steps, n)
	require.Nil(t, err)
	for ti := 0; ti < steps; ti++ {
		for i := 0; i < n; i++ {
			p.Set(ti, i, float64(ti*100+i))
		}
	}
	return p
}

func onesPanel(t *testing.T, steps, n int) *Panel {
	p, err := New(steps, n)
	require.Nil(t, err)
	for i := 0; i < n; i++ {
		require.Nil(t, p.SetSeries(i, GenerateConstY(steps, 1)))
	}
	return p
}

func TestExtractInvalidRequest(t *testing.T) {
	values := sequentialPanel(t, 10, 3)
	confs := onesPanel(t, 10, 3)

	negConfs := onesPanel(t, 10, 3)
	negConfs.Set(4, 2, -0.5)

	nanConfs := onesPanel(t, 10, 3)
	nanConfs.Set(0, 0, math.NaN())

	testData := map[string]struct {
		values   *Panel
		confs    *Panel
		gap      int
		predtill int
	}{
		"nil values":           {nil, confs, 0, 1},
		"nil confidences":      {values, nil, 0, 1},
		"predtill beyond gap":  {values, confs, 0, 2},
		"predtill two gap one": {values, confs, 1, 3},
		"zero predtill":        {values, confs, 0, 0},
		"negative gap":         {values, confs, -1, 1},
		"shape mismatch":       {values, onesPanel(t, 10, 2), 0, 1},
		"predtill exceeds T":   {values, confs, 20, 11},
		"no training points":   {values, confs, 9, 1},
		"negative confidence":  {values, negConfs, 0, 1},
		"nan confidence":       {values, nanConfs, 0, 1},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			e, err := Extract(td.values, td.confs, td.gap, td.predtill)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, e)
		})
	}
}

func TestExtractWindows(t *testing.T) {
	steps, n := 12, 4
	values := sequentialPanel(t, steps, n)
	confs := onesPanel(t, steps, n)

	for gap := 0; gap < steps-2; gap++ {
		for predtill := 1; predtill-1 <= gap; predtill++ {
			e, err := Extract(values, confs, gap, predtill)
			require.Nil(t, err, "gap %d predtill %d", gap, predtill)

			assert.Equal(t, n, e.NumSeries())
			assert.Equal(t, steps-1-gap, e.TrainingLen())

			tSteps, tn := e.Truth.Dims()
			assert.Equal(t, predtill, tSteps)
			assert.Equal(t, n, tn)

			horizon := e.Horizon()
			require.Len(t, horizon, predtill)
			assert.Equal(t, float64(steps-predtill), horizon[0])
			assert.Equal(t, float64(steps-1), horizon[predtill-1])

			for i := 0; i < n; i++ {
				trend, conf := e.Training(i)
				require.Len(t, trend, steps-1-gap)
				require.Len(t, conf, steps-1-gap)

				// the last training point precedes every evaluation point
				lastTrain := int(trend[len(trend)-1]) / 100
				assert.Less(t, lastTrain, steps-predtill)
				for ti, v := range trend {
					assert.Equal(t, float64(ti*100+i), v)
				}
				for ti := 0; ti < predtill; ti++ {
					assert.Equal(t, float64((steps-predtill+ti)*100+i), e.Truth.At(ti, i))
				}
			}
		}
	}
}

func TestExtractTrainingIsCopy(t *testing.T) {
	values := sequentialPanel(t, 6, 1)
	confs := onesPanel(t, 6, 1)

	e, err := Extract(values, confs, 0, 1)
	require.Nil(t, err)

	trend, conf := e.Training(0)
	trend[0] = -1
	conf[0] = -1
	assert.Equal(t, 0.0, values.At(0, 0))
	assert.Equal(t, 1.0, confs.At(0, 0))
}
