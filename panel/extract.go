package panel

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRequest = errors.New("invalid forecast request")

// Extraction holds the per-series training windows and the evaluation panel of a forecast
// request. The training windows are read lazily from the input panels which must not be
// modified while the extraction is in use.
type Extraction struct {
	values      *Panel
	confidences *Panel

	// Gap is the number of trailing points excluded from training before the evaluation window
	Gap int

	// Predtill is the forecast horizon length
	Predtill int

	// Truth is the [1, Predtill, N] evaluation window, values[:, T-Predtill:T, :]
	Truth *Panel
}

// Extract validates a forecast request and slices the evaluation window once for the batch.
// Training windows cover time steps [0, T-1-gap) and are returned per series by Training.
func Extract(values, confidences *Panel, gap, predtill int) (*Extraction, error) {
	if values == nil || confidences == nil {
		return nil, fmt.Errorf("values and confidences are required, %w", ErrInvalidRequest)
	}
	if predtill < 1 {
		return nil, fmt.Errorf("predtill of %d must be at least 1, %w", predtill, ErrInvalidRequest)
	}
	if gap < 0 {
		return nil, fmt.Errorf("gap of %d must not be negative, %w", gap, ErrInvalidRequest)
	}
	if predtill-1 > gap {
		return nil, fmt.Errorf("predtill of %d starts before the gap of %d, %w", predtill, gap, ErrInvalidRequest)
	}

	t, n := values.Dims()
	ct, cn := confidences.Dims()
	if t == 0 || n == 0 {
		return nil, fmt.Errorf("values panel is empty, %w", ErrInvalidRequest)
	}
	if t != ct || n != cn {
		return nil, fmt.Errorf(
			"values have shape [1, %d, %d] and confidences have shape [1, %d, %d], %w",
			t, n, ct, cn, ErrInvalidRequest,
		)
	}
	if predtill > t {
		return nil, fmt.Errorf("predtill of %d exceeds %d time steps, %w", predtill, t, ErrInvalidRequest)
	}
	if t-1-gap < 1 {
		return nil, fmt.Errorf("gap of %d leaves no training points in %d time steps, %w", gap, t, ErrInvalidRequest)
	}
	for ti := 0; ti < t; ti++ {
		for i := 0; i < n; i++ {
			c := confidences.At(ti, i)
			if c < 0 || math.IsNaN(c) {
				return nil, fmt.Errorf("confidence %v at time step %d of series %d, %w", c, ti, i, ErrInvalidRequest)
			}
		}
	}

	truth, err := values.Window(t-predtill, t)
	if err != nil {
		return nil, fmt.Errorf("unable to slice evaluation window, %w", err)
	}

	return &Extraction{
		values:      values,
		confidences: confidences,
		Gap:         gap,
		Predtill:    predtill,
		Truth:       truth,
	}, nil
}

// NumSeries returns the number of series in the request
func (e *Extraction) NumSeries() int {
	_, n := e.values.Dims()
	return n
}

// NumSteps returns the total number of time steps T
func (e *Extraction) NumSteps() int {
	t, _ := e.values.Dims()
	return t
}

// TrainingLen returns the number of points in every training window, T-1-gap
func (e *Extraction) TrainingLen() int {
	return e.NumSteps() - 1 - e.Gap
}

// Training returns copies of the trend and confidence training windows of series i
func (e *Extraction) Training(i int) ([]float64, []float64) {
	end := e.TrainingLen()
	return e.values.SeriesRange(i, 0, end), e.confidences.SeriesRange(i, 0, end)
}

// Horizon returns the time step coordinates of the forecast, T-Predtill through T-1
func (e *Extraction) Horizon() []float64 {
	t := e.NumSteps()
	x := make([]float64, e.Predtill)
	for i := range x {
		x[i] = float64(t - e.Predtill + i)
	}
	return x
}
