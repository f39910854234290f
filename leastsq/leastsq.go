// Package leastsq fits parametric curves to weighted observations using a damped
// Gauss-Newton (Levenberg-Marquardt) iteration. Box bounds on the parameters are
// supported by projecting trial points onto the feasible region and holding
// parameters that sit on a bound fixed while the gradient pushes them outward.
package leastsq

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultFunctionTolerance  = 1e-8
	DefaultParameterTolerance = 1e-8
	DefaultGradientTolerance  = 1e-10
	DefaultInitialDamping     = 1e-3

	// iteration budgets per parameter for the unbounded and bounded solvers
	UnboundedIterationsPerParam = 200
	BoundedIterationsPerParam   = 100
)

var (
	ErrNoFunc             = errors.New("no curve function to fit")
	ErrNoParams           = errors.New("curve has no parameters")
	ErrLenMismatch        = errors.New("x, y and weight lengths do not match")
	ErrStartLenMismatch   = errors.New("start point does not have one value per curve parameter")
	ErrInsufficientData   = errors.New("fewer observations than curve parameters")
	ErrBoundsLenMismatch  = errors.New("bounds do not have one value per curve parameter")
	ErrInvalidBounds      = errors.New("lower bound is greater than upper bound")
	ErrInfeasibleStart    = errors.New("start point is outside the bounds")
	ErrNonFiniteResidual  = errors.New("residuals are not finite")
	ErrMaxIterations      = errors.New("maximum iterations reached before convergence")
	ErrNegativeIterations = errors.New("negative max iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrNegativeDamping    = errors.New("negative initial damping")
)

// Func is a scalar curve y = f(x; p) with a fixed number of parameters
type Func interface {
	NumParams() int
	Eval(x float64, p []float64) float64
}

// Gradient is implemented by curves that can compute their partial derivatives with respect
// to each parameter. Curves without it are differentiated numerically.
type Gradient interface {
	Grad(dst []float64, x float64, p []float64)
}

// Bounds constrains each parameter to [Lower[i], Upper[i]]
type Bounds struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Validate checks that the bounds describe n parameters and are ordered
func (b *Bounds) Validate(n int) error {
	if b == nil {
		return nil
	}
	if len(b.Lower) != n || len(b.Upper) != n {
		return fmt.Errorf("got %d lower and %d upper for %d parameters, %w", len(b.Lower), len(b.Upper), n, ErrBoundsLenMismatch)
	}
	for i := 0; i < n; i++ {
		if b.Lower[i] > b.Upper[i] {
			return fmt.Errorf("parameter %d has lower %.4g and upper %.4g, %w", i, b.Lower[i], b.Upper[i], ErrInvalidBounds)
		}
	}
	return nil
}

// Contains reports whether p lies inside the bounds, inclusive
func (b *Bounds) Contains(p []float64) bool {
	if b == nil {
		return true
	}
	for i, v := range p {
		if v < b.Lower[i] || v > b.Upper[i] || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Clip moves every parameter of p onto the nearest bound if it lies outside
func (b *Bounds) Clip(p []float64) []float64 {
	if b == nil {
		return p
	}
	for i := range p {
		p[i] = math.Min(math.Max(p[i], b.Lower[i]), b.Upper[i])
	}
	return p
}

// Settings controls the iteration and convergence criteria of the solver
type Settings struct {
	// MaxIterations is the maximum number of accepted or rejected steps. 0 derives a budget
	// from the number of parameters.
	MaxIterations int `json:"max_iterations"`

	// FunctionTolerance stops the fit when a step reduces the cost by less than this
	// fraction of the current cost.
	FunctionTolerance float64 `json:"function_tolerance"`

	// ParameterTolerance stops the fit when the step length is below this fraction of the
	// parameter vector norm.
	ParameterTolerance float64 `json:"parameter_tolerance"`

	// GradientTolerance stops the fit when the largest free gradient component is below it.
	GradientTolerance float64 `json:"gradient_tolerance"`

	// InitialDamping scales the largest diagonal element of the normal matrix to produce the
	// starting damping factor.
	InitialDamping float64 `json:"initial_damping"`
}

// NewDefaultSettings returns the default convergence settings
func NewDefaultSettings() *Settings {
	return &Settings{
		FunctionTolerance:  DefaultFunctionTolerance,
		ParameterTolerance: DefaultParameterTolerance,
		GradientTolerance:  DefaultGradientTolerance,
		InitialDamping:     DefaultInitialDamping,
	}
}

// Validate returns a copy of the settings with defaults filled in for a fit of n parameters
func (s *Settings) Validate(n int, bounded bool) (*Settings, error) {
	if s == nil {
		s = NewDefaultSettings()
	}
	if s.MaxIterations < 0 {
		return nil, ErrNegativeIterations
	}
	if s.FunctionTolerance < 0 || s.ParameterTolerance < 0 || s.GradientTolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if s.InitialDamping < 0 {
		return nil, ErrNegativeDamping
	}

	out := *s
	if out.MaxIterations == 0 {
		if bounded {
			out.MaxIterations = BoundedIterationsPerParam * n
		} else {
			out.MaxIterations = UnboundedIterationsPerParam * (n + 1)
		}
	}
	if out.InitialDamping == 0 {
		out.InitialDamping = DefaultInitialDamping
	}
	return &out, nil
}

// Problem is a weighted least squares problem minimizing 0.5*sum((w_i*(f(x_i;p)-y_i))^2)
type Problem struct {
	F Func
	X []float64
	Y []float64

	// Weights multiply each residual before squaring. nil means every weight is 1.
	Weights []float64

	// Bounds constrains the parameters. nil fits unconstrained.
	Bounds *Bounds
}

func (p Problem) validate(start []float64) error {
	if p.F == nil {
		return ErrNoFunc
	}
	n := p.F.NumParams()
	if n <= 0 {
		return ErrNoParams
	}
	if len(start) != n {
		return fmt.Errorf("got %d start values for %d parameters, %w", len(start), n, ErrStartLenMismatch)
	}
	if len(p.X) != len(p.Y) || (p.Weights != nil && len(p.Weights) != len(p.Y)) {
		return fmt.Errorf("x has %d, y has %d and weights have %d values, %w", len(p.X), len(p.Y), len(p.Weights), ErrLenMismatch)
	}
	// a bounded fit may have fewer observations than parameters
	if len(p.Y) == 0 || (p.Bounds == nil && len(p.Y) < n) {
		return fmt.Errorf("got %d observations for %d parameters, %w", len(p.Y), n, ErrInsufficientData)
	}
	if err := p.Bounds.Validate(n); err != nil {
		return err
	}
	if !p.Bounds.Contains(start) {
		return fmt.Errorf("start %v, %w", start, ErrInfeasibleStart)
	}
	return nil
}

// Status describes which criterion ended a successful fit
type Status int

const (
	StatusExact Status = iota
	StatusGradient
	StatusFunction
	StatusParameter
)

func (s Status) String() string {
	switch s {
	case StatusExact:
		return "exact"
	case StatusGradient:
		return "gradient"
	case StatusFunction:
		return "function"
	case StatusParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Result holds the fitted parameters of a converged solve
type Result struct {
	Params     []float64 `json:"params"`
	Cost       float64   `json:"cost"`
	Iterations int       `json:"iterations"`
	Status     Status    `json:"status"`
}
