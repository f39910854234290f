package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/peternara/geostyle/forecast/options"
	"github.com/peternara/geostyle/forecast/util"
	"github.com/peternara/geostyle/leastsq"
)

// Forecast fits a linear and a sinusoidal-linear model to the training window of a single series
// and selects which one to extrapolate. A Forecast holds no per-series state and can be shared
// across goroutines.
type Forecast struct {
	opt *options.Options

	linear   Curve
	sinusoid Curve
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}
	return &Forecast{
		opt:      opt,
		linear:   Linear{},
		sinusoid: SinusoidalLinear{},
	}, nil
}

// Options returns the validated options of the forecast
func (f *Forecast) Options() *options.Options {
	if f == nil {
		return nil
	}
	return f.opt
}

// Fit holds the candidates fit to one training window
type Fit struct {
	Linear   *Candidate `json:"linear"`
	Sinusoid *Candidate `json:"sinusoid,omitempty"`

	// SinusoidErr is the recoverable failure that dropped the sinusoid candidate
	SinusoidErr error `json:"-"`
}

// Fit fits both models to the trend at time steps 0..len(trend)-1 weighted by conf. A linear
// failure is returned as a *FitError and is fatal for the series. A sinusoidal failure only
// drops that candidate and is kept in Fit.SinusoidErr. Cancellation of ctx is always returned
// and matches ErrCancelled.
func (f *Forecast) Fit(ctx context.Context, trend, conf []float64) (*Fit, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if len(trend) != len(conf) {
		return nil, fmt.Errorf("trend has %d and confidence has %d values, %w", len(trend), len(conf), ErrMismatchedDataLen)
	}

	x := util.Steps(0, len(trend))
	w := f.weights(conf)

	linStart := f.opt.LinearOptions.Start
	if linStart == nil {
		linStart = []float64{0, 0}
	}
	lin, err := f.fitCurve(ctx, f.linear, x, trend, w, nil, linStart)
	if err != nil {
		return nil, classify(f.linear.Name(), err)
	}
	res := &Fit{Linear: lin}

	sinOpt := f.opt.SinusoidOptions
	if sinOpt.Disabled {
		return res, nil
	}

	starts := make([][]float64, 0, 2)
	if sinOpt.Start != nil {
		starts = append(starts, sinOpt.Start)
	} else if len(trend) > 0 {
		starts = append(starts, sinusoidStart(trend, sinOpt.InitialFrequency))
	}
	// the spectral seed refines a feasible start but never rescues an infeasible one, which
	// drops the candidate
	if sinOpt.SpectralSeed && len(starts) > 0 && sinOpt.Bounds.Contains(starts[0]) {
		if seed := spectralStart(trend, sinOpt.Bounds); seed != nil {
			starts = append(starts, seed)
		}
	}
	if len(starts) == 0 {
		res.SinusoidErr = &FitError{Curve: f.sinusoid.Name(), Err: leastsq.ErrInsufficientData}
		return res, nil
	}

	sin, err := f.fitCurve(ctx, f.sinusoid, x, trend, w, sinOpt.Bounds, starts...)
	if err != nil {
		err = classify(f.sinusoid.Name(), err)
		if IsCancellation(err) {
			return nil, err
		}
		res.SinusoidErr = err
		return res, nil
	}
	res.Sinusoid = sin
	return res, nil
}

// Select returns the candidate chosen for the fit using the configured explain factor
func (f *Forecast) Select(fit *Fit) *Candidate {
	if fit == nil {
		return nil
	}
	return Select(fit.Linear, fit.Sinusoid, f.opt.ExplainFactor)
}

// weights converts confidences into residual multipliers. By default a confidence is the
// standard deviation of its point so the residual is divided by it. As an inverse variance the
// residual is scaled by its square root. Points with zero confidence are excluded either way.
func (f *Forecast) weights(conf []float64) []float64 {
	w := make([]float64, len(conf))
	for i, c := range conf {
		switch {
		case f.opt.ConfidenceAsWeight:
			w[i] = math.Sqrt(c)
		case c > 0:
			w[i] = 1.0 / c
		}
	}
	return w
}

// fitCurve solves the weighted problem from every start point and keeps the solution with the
// lowest cost. The first error is returned if no start converges. A cancelled context stops
// immediately.
func (f *Forecast) fitCurve(ctx context.Context, c Curve, x, y, w []float64, bounds *leastsq.Bounds, starts ...[]float64) (*Candidate, error) {
	prob := leastsq.Problem{
		F:       c,
		X:       x,
		Y:       y,
		Weights: w,
		Bounds:  bounds,
	}

	var best *leastsq.Result
	var firstErr error
	for _, p0 := range starts {
		res, err := leastsq.Solve(ctx, prob, p0, f.opt.Solver)
		if err != nil {
			if IsCancellation(err) {
				return nil, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best == nil || res.Cost < best.Cost {
			best = res
		}
	}
	if best == nil {
		return nil, firstErr
	}

	cand := &Candidate{
		Curve:      c,
		Params:     best.Params,
		Cost:       best.Cost,
		Iterations: best.Iterations,
		Status:     best.Status.String(),
	}
	cand.Error, _ = ResidualError(cand.Predict(x), y)
	return cand, nil
}
