package geostyle

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/peternara/geostyle/forecast"
	"github.com/peternara/geostyle/forecast/util"
	"github.com/peternara/geostyle/panel"
)

// Results holds the forecast of every series and the batch scores against the evaluation window
type Results struct {
	// MAE is mean(|prediction - truth|) over every forecast point
	MAE float64 `json:"mae"`

	// MAPE is mean(|prediction - truth| / truth) * 100 over every forecast point. It is not
	// finite if any truth value is 0.
	MAPE float64 `json:"mape"`

	// Predictions is the [1, predtill, N] forecast panel
	Predictions *panel.Panel `json:"predictions"`

	// Truth is the [1, predtill, N] evaluation window the predictions are scored against
	Truth *panel.Panel `json:"truth"`

	Gap      int `json:"gap"`
	Predtill int `json:"predtill"`

	Series []SeriesResult `json:"series"`
}

// SeriesResult is the fit and forecast of a single series
type SeriesResult struct {
	Index    int                 `json:"index"`
	Selected string              `json:"selected"`
	Linear   *forecast.Candidate `json:"linear"`
	Sinusoid *forecast.Candidate `json:"sinusoid,omitempty"`

	// SinusoidError is why the sinusoidal candidate was dropped, if it was
	SinusoidError string `json:"sinusoid_error,omitempty"`

	// Forecast is the selected candidate at time steps T-predtill through T-1
	Forecast []float64 `json:"forecast"`
}

func newResults(ext *panel.Extraction, series []SeriesResult) (*Results, error) {
	predictions, err := panel.New(ext.Predtill, len(series))
	if err != nil {
		return nil, fmt.Errorf("unable to create prediction panel, %w", err)
	}
	for i, s := range series {
		if err := predictions.SetSeries(i, s.Forecast); err != nil {
			return nil, fmt.Errorf("unable to store forecast of series %d, %w", i, err)
		}
	}

	// both panels are flattened in the same row major order
	scores, err := forecast.NewScores(flatten(predictions), flatten(ext.Truth))
	if err != nil {
		return nil, fmt.Errorf("unable to score predictions, %w", err)
	}

	return &Results{
		MAE:         scores.MAE,
		MAPE:        scores.MAPE,
		Predictions: predictions,
		Truth:       ext.Truth,
		Gap:         ext.Gap,
		Predtill:    ext.Predtill,
		Series:      series,
	}, nil
}

func flatten(p *panel.Panel) []float64 {
	t, n := p.Dims()
	out := make([]float64, 0, t*n)
	for _, row := range p.Rows() {
		out = append(out, row...)
	}
	return out
}

// Selections counts the number of series forecast with each curve
func (r *Results) Selections() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Series {
		counts[s.Selected]++
	}
	return counts
}

// MarshalJSON encodes non-finite scores as null
func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MAE         *float64       `json:"mae"`
		MAPE        *float64       `json:"mape"`
		Predictions *panel.Panel   `json:"predictions"`
		Truth       *panel.Panel   `json:"truth"`
		Gap         int            `json:"gap"`
		Predtill    int            `json:"predtill"`
		Series      []SeriesResult `json:"series"`
	}{
		MAE:         finiteOrNil(r.MAE),
		MAPE:        finiteOrNil(r.MAPE),
		Predictions: r.Predictions,
		Truth:       r.Truth,
		Gap:         r.Gap,
		Predtill:    r.Predtill,
		Series:      r.Series,
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// TablePrint writes the batch scores and a row per series with the selected curve, both
// candidate errors and the forecast
func (r *Results) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%sResults:\n", prefix); err != nil {
		return err
	}
	in := util.IndentExpand(indent, 1)
	if _, err := fmt.Fprintf(w, "%s%sMAE: %.4f, MAPE: %.4f\n", prefix, in, r.MAE, r.MAPE); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbl, "%s%sSeries\tSelected\tLinear Error\tSinusoid Error\tForecast\t\n", prefix, in)
	for _, s := range r.Series {
		sinErr := "-"
		if s.Sinusoid != nil {
			sinErr = fmt.Sprintf("%.4f", s.Sinusoid.Error)
		}
		fmt.Fprintf(tbl, "%s%s%d\t%s\t%.4f\t%s\t%.4f\t\n",
			prefix, in, s.Index, s.Selected, s.Linear.Error, sinErr, s.Forecast)
	}
	return tbl.Flush()
}
