// Package options contains all options for fitting and selecting between the linear and
// sinusoidal-linear trend models of a single series
package options

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/peternara/geostyle/forecast/util"
	"github.com/peternara/geostyle/leastsq"
)

const (
	// DefaultExplainFactor is the fraction of the linear error the sinusoidal error must fall
	// below for the sinusoidal model to be selected
	DefaultExplainFactor = 0.8

	// DefaultInitialFrequency is the starting sinusoid frequency in cycles per time step
	DefaultInitialFrequency = 1.0 / 8.0

	MinPeriod = 6.0
	MaxPeriod = 72.0

	NumLinearParams   = 2
	NumSinusoidParams = 7
)

var (
	ErrInvalidExplainFactor = errors.New("explain factor must be in (0, 1]")
	ErrLinearStartLen       = errors.New("linear start point must have 2 values")
	ErrSinusoidStartLen     = errors.New("sinusoid start point must have 7 values")
	ErrInvalidFrequency     = errors.New("initial frequency must be positive")
)

// Options configures how a series is fit and which model is selected
type Options struct {
	// ExplainFactor biases selection towards the linear model. The sinusoidal model is only
	// chosen if its error is below ExplainFactor times the linear error.
	ExplainFactor float64 `json:"explain_factor"`

	// ConfidenceAsWeight treats each confidence as an inverse variance weight so residuals are
	// scaled by its square root and points with higher confidence pull the fit harder. By
	// default a confidence is the standard deviation of its observation and residuals are
	// divided by it.
	ConfidenceAsWeight bool `json:"confidence_as_weight"`

	LinearOptions   LinearOptions   `json:"linear_options"`
	SinusoidOptions SinusoidOptions `json:"sinusoid_options"`

	// Solver controls iteration limits and convergence tolerances for both fits. nil uses
	// solver defaults.
	Solver *leastsq.Settings `json:"solver,omitempty"`
}

// LinearOptions configures the m*x + c fit
type LinearOptions struct {
	// Start is the initial (m, c). nil starts from (0, 0).
	Start []float64 `json:"start,omitempty"`
}

// SinusoidOptions configures the r*(m1*sin(2*pi*f*x + o) + b1) + (1-r)*(m2*x + b2) fit
type SinusoidOptions struct {
	// Disabled skips the sinusoidal fit so every series is forecast linearly
	Disabled bool `json:"disabled"`

	// Bounds on (r, m1, f, o, b1, m2, b2). nil uses DefaultSinusoidBounds.
	Bounds *leastsq.Bounds `json:"bounds,omitempty"`

	// Start overrides the start point derived from the training trend
	Start []float64 `json:"start,omitempty"`

	// InitialFrequency is the frequency of the derived start point in cycles per time step
	InitialFrequency float64 `json:"initial_frequency"`

	// SpectralSeed adds a second start point at the dominant frequency of the trend. The start
	// with the lowest cost is kept.
	SpectralSeed bool `json:"spectral_seed"`
}

// DefaultSinusoidBounds limits the blend weight, amplitude and offsets to [0, 1], the period to
// [6, 72] time steps, the phase to [-pi, pi] and the linear slope to [-0.01, 0.01]
func DefaultSinusoidBounds() *leastsq.Bounds {
	return &leastsq.Bounds{
		Lower: []float64{0, 0, 1.0 / MaxPeriod, -math.Pi, 0, -0.01, 0},
		Upper: []float64{1, 1, 1.0 / MinPeriod, math.Pi, 1, 0.01, 1},
	}
}

// NewDefaultOptions returns the default fit and selection options
func NewDefaultOptions() *Options {
	return &Options{
		ExplainFactor: DefaultExplainFactor,
		SinusoidOptions: SinusoidOptions{
			Bounds:           DefaultSinusoidBounds(),
			InitialFrequency: DefaultInitialFrequency,
			SpectralSeed:     true,
		},
	}
}

// Validate checks the options and returns a copy with defaults filled in
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	out := *o

	if out.ExplainFactor == 0 {
		out.ExplainFactor = DefaultExplainFactor
	}
	if out.ExplainFactor < 0 || out.ExplainFactor > 1 || math.IsNaN(out.ExplainFactor) {
		return nil, fmt.Errorf("got %.4g, %w", out.ExplainFactor, ErrInvalidExplainFactor)
	}

	if out.LinearOptions.Start != nil && len(out.LinearOptions.Start) != NumLinearParams {
		return nil, fmt.Errorf("got %d values, %w", len(out.LinearOptions.Start), ErrLinearStartLen)
	}

	sin := &out.SinusoidOptions
	if sin.Bounds == nil {
		sin.Bounds = DefaultSinusoidBounds()
	}
	if err := sin.Bounds.Validate(NumSinusoidParams); err != nil {
		return nil, fmt.Errorf("unable to validate sinusoid bounds, %w", err)
	}
	if sin.Start != nil && len(sin.Start) != NumSinusoidParams {
		return nil, fmt.Errorf("got %d values, %w", len(sin.Start), ErrSinusoidStartLen)
	}
	if sin.InitialFrequency == 0 {
		sin.InitialFrequency = DefaultInitialFrequency
	}
	if sin.InitialFrequency < 0 {
		return nil, fmt.Errorf("got %.4g, %w", sin.InitialFrequency, ErrInvalidFrequency)
	}

	if out.Solver != nil {
		// bound type does not change tolerance validation
		if _, err := out.Solver.Validate(NumSinusoidParams, true); err != nil {
			return nil, fmt.Errorf("unable to validate solver settings, %w", err)
		}
	}
	return &out, nil
}

// TablePrint writes a human readable summary of the options
func (o Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sOptions:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	in := util.IndentExpand(indent, indentGrowth+1)
	fmt.Fprintf(tbl, "%s%sExplain Factor:\t%.3f\t\n", prefix, in, o.ExplainFactor)
	fmt.Fprintf(tbl, "%s%sConfidence As Weight:\t%t\t\n", prefix, in, o.ConfidenceAsWeight)
	fmt.Fprintf(tbl, "%s%sSinusoid Disabled:\t%t\t\n", prefix, in, o.SinusoidOptions.Disabled)
	fmt.Fprintf(tbl, "%s%sSpectral Seed:\t%t\t\n", prefix, in, o.SinusoidOptions.SpectralSeed)
	if b := o.SinusoidOptions.Bounds; b != nil && len(b.Lower) == NumSinusoidParams {
		fmt.Fprintf(tbl, "%s%sPeriod:\t%.1f-%.1f\t\n", prefix, in, 1.0/b.Upper[2], 1.0/b.Lower[2])
	}
	return tbl.Flush()
}
