// Package panel stores [batch, time, series] numeric panels and slices them into per-series
// training and evaluation windows.
package panel

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	mat_ "github.com/peternara/geostyle/mat"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyPanel        = errors.New("panel has no time steps or series")
	ErrBatchSize         = errors.New("panel batch dimension must be 1")
	ErrSeriesLenMismatch = errors.New("series have different lengths")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// Panel is a [1, T, N] array of T time steps for N series. The batch dimension is always 1 so
// the data is held as a T x N matrix.
type Panel struct {
	data *mat.Dense
}

// New returns a zero valued panel with t time steps and n series
func New(t, n int) (*Panel, error) {
	if t <= 0 || n <= 0 {
		return nil, fmt.Errorf("got %d time steps and %d series, %w", t, n, ErrEmptyPanel)
	}
	return &Panel{data: mat.NewDense(t, n, nil)}, nil
}

// NewFromRows builds a panel from T rows of N values each
func NewFromRows(rows [][]float64) (*Panel, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyPanel
	}
	data, err := mat_.NewDenseFromArray(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to build panel from rows, %w", err)
	}
	return &Panel{data: data}, nil
}

// NewFromSeries builds a panel where series[i] becomes the time series at index i
func NewFromSeries(series ...[]float64) (*Panel, error) {
	if len(series) == 0 || len(series[0]) == 0 {
		return nil, ErrEmptyPanel
	}
	t := len(series[0])
	p := &Panel{data: mat.NewDense(t, len(series), nil)}
	for i, s := range series {
		if len(s) != t {
			return nil, fmt.Errorf("series %d has %d values, expected %d, %w", i, len(s), t, ErrSeriesLenMismatch)
		}
		p.data.SetCol(i, s)
	}
	return p, nil
}

// Dims returns the number of time steps and series
func (p *Panel) Dims() (int, int) {
	if p == nil || p.data == nil {
		return 0, 0
	}
	return p.data.Dims()
}

// At returns the value at time step t of series i
func (p *Panel) At(t, i int) float64 {
	return p.data.At(t, i)
}

// Set stores v at time step t of series i
func (p *Panel) Set(t, i int, v float64) {
	p.data.Set(t, i, v)
}

// Series returns a copy of the full time series at index i
func (p *Panel) Series(i int) []float64 {
	return mat.Col(nil, i, p.data)
}

// SeriesRange returns a copy of time steps [start, end) of series i
func (p *Panel) SeriesRange(i, start, end int) []float64 {
	out := make([]float64, end-start)
	for t := start; t < end; t++ {
		out[t-start] = p.data.At(t, i)
	}
	return out
}

// SetSeries overwrites the time series at index i
func (p *Panel) SetSeries(i int, s []float64) error {
	t, n := p.Dims()
	if i < 0 || i >= n {
		return fmt.Errorf("series %d of %d, %w", i, n, ErrIndexOutOfRange)
	}
	if len(s) != t {
		return fmt.Errorf("got %d values for %d time steps, %w", len(s), t, ErrSeriesLenMismatch)
	}
	p.data.SetCol(i, s)
	return nil
}

// Window returns a copy of time steps [start, end) for every series
func (p *Panel) Window(start, end int) (*Panel, error) {
	t, n := p.Dims()
	if start < 0 || end > t || start >= end {
		return nil, fmt.Errorf("window [%d, %d) of %d time steps, %w", start, end, t, ErrIndexOutOfRange)
	}
	var data mat.Dense
	data.CloneFrom(p.data.Slice(start, end, 0, n))
	return &Panel{data: &data}, nil
}

// Rows returns a copy of the panel as T rows of N values
func (p *Panel) Rows() [][]float64 {
	t, _ := p.Dims()
	rows := make([][]float64, t)
	for i := 0; i < t; i++ {
		rows[i] = mat.Row(nil, i, p.data)
	}
	return rows
}

// MarshalJSON encodes the panel as a [1][T][N] nested array. NaN and infinite values are
// written as null.
func (p *Panel) MarshalJSON() ([]byte, error) {
	rows := p.Rows()
	out := make([][]*float64, len(rows))
	for ti, row := range rows {
		out[ti] = make([]*float64, len(row))
		for i := range row {
			if math.IsNaN(row[i]) || math.IsInf(row[i], 0) {
				continue
			}
			out[ti][i] = &row[i]
		}
	}
	return json.Marshal([][][]*float64{out})
}

// UnmarshalJSON decodes a [1][T][N] nested array. A null value decodes as NaN.
func (p *Panel) UnmarshalJSON(b []byte) error {
	var raw [][][]*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("got batch size %d, %w", len(raw), ErrBatchSize)
	}
	rows := make([][]float64, len(raw[0]))
	for ti, row := range raw[0] {
		rows[ti] = make([]float64, len(row))
		for i, v := range row {
			rows[ti][i] = math.NaN()
			if v != nil {
				rows[ti][i] = *v
			}
		}
	}
	np, err := NewFromRows(rows)
	if err != nil {
		return err
	}
	p.data = np.data
	return nil
}
