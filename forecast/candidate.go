package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/peternara/geostyle/forecast/util"
)

// Candidate is one curve fit to a training window
type Candidate struct {
	Curve  Curve     `json:"-"`
	Params []float64 `json:"params"`

	// Error is sqrt(sum((f(x)-y)^2)) over the training window. Confidences are not applied.
	Error float64 `json:"error"`

	// Cost is the weighted objective the solver minimized
	Cost       float64 `json:"cost"`
	Iterations int     `json:"iterations"`
	Status     string  `json:"status"`
}

// Name returns the name of the fitted curve
func (c *Candidate) Name() string {
	if c == nil || c.Curve == nil {
		return ""
	}
	return c.Curve.Name()
}

// Predict returns the fitted curve at each time step in x
func (c *Candidate) Predict(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = c.Curve.Eval(v, c.Params)
	}
	return out
}

type candidateJSON struct {
	Curve      string    `json:"curve"`
	Params     []float64 `json:"params"`
	Error      float64   `json:"error"`
	Cost       float64   `json:"cost"`
	Iterations int       `json:"iterations"`
	Status     string    `json:"status"`
}

func (c *Candidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(candidateJSON{
		Curve:      c.Name(),
		Params:     c.Params,
		Error:      c.Error,
		Cost:       c.Cost,
		Iterations: c.Iterations,
		Status:     c.Status,
	})
}

func (c *Candidate) UnmarshalJSON(b []byte) error {
	var raw candidateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	curve, err := CurveByName(raw.Curve)
	if err != nil {
		return err
	}
	if len(raw.Params) != curve.NumParams() {
		return fmt.Errorf("%s curve has %d params, but got %d, %w", raw.Curve, curve.NumParams(), len(raw.Params), ErrParamsLenMismatch)
	}
	*c = Candidate{
		Curve:      curve,
		Params:     raw.Params,
		Error:      raw.Error,
		Cost:       raw.Cost,
		Iterations: raw.Iterations,
		Status:     raw.Status,
	}
	return nil
}

// TablePrint writes the curve parameters and fit error
func (c *Candidate) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%s%s:\n", prefix, util.IndentExpand(indent, indentGrowth), c.Name()); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	in := util.IndentExpand(indent, indentGrowth+1)
	fmt.Fprintf(tbl, "%s%sError\tIterations\tStatus\tParams\t\n", prefix, in)
	fmt.Fprintf(tbl, "%s%s%.4f\t%d\t%s\t%.4f\t\n", prefix, in, c.Error, c.Iterations, c.Status, c.Params)
	return tbl.Flush()
}
