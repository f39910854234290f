package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/peternara/geostyle/leastsq"
)

const (
	CurveLinear           = "linear"
	CurveSinusoidalLinear = "sinusoidal_linear"
)

var ErrUnknownCurve = errors.New("unknown curve")

// Curve is a named parametric function of the time step that can be fit by leastsq
type Curve interface {
	leastsq.Func
	Name() string
}

// CurveByName returns the curve registered under name
func CurveByName(name string) (Curve, error) {
	switch name {
	case CurveLinear:
		return Linear{}, nil
	case CurveSinusoidalLinear:
		return SinusoidalLinear{}, nil
	default:
		return nil, fmt.Errorf("%s, %w", name, ErrUnknownCurve)
	}
}

// Linear is f(x) = m*x + c with parameters (m, c)
type Linear struct{}

func (Linear) Name() string { return CurveLinear }

func (Linear) NumParams() int { return 2 }

func (Linear) Eval(x float64, p []float64) float64 {
	return p[0]*x + p[1]
}

func (Linear) Grad(dst []float64, x float64, p []float64) {
	dst[0] = x
	dst[1] = 1.0
}

// SinusoidalLinear is a convex blend of a sinusoid and a line,
//
//	f(x) = r*(m1*sin(2*pi*f*x + o) + b1) + (1-r)*(m2*x + b2)
//
// with parameters (r, m1, f, o, b1, m2, b2). The frequency f is in cycles per time step.
type SinusoidalLinear struct{}

func (SinusoidalLinear) Name() string { return CurveSinusoidalLinear }

func (SinusoidalLinear) NumParams() int { return 7 }

func (SinusoidalLinear) Eval(x float64, p []float64) float64 {
	r, m1, f, o, b1, m2, b2 := p[0], p[1], p[2], p[3], p[4], p[5], p[6]
	return r*(m1*math.Sin(2.0*math.Pi*f*x+o)+b1) + (1.0-r)*(m2*x+b2)
}

func (SinusoidalLinear) Grad(dst []float64, x float64, p []float64) {
	r, m1, f, o, b1, m2, b2 := p[0], p[1], p[2], p[3], p[4], p[5], p[6]
	theta := 2.0*math.Pi*f*x + o
	sin, cos := math.Sincos(theta)

	dst[0] = m1*sin + b1 - (m2*x + b2)
	dst[1] = r * sin
	dst[2] = r * m1 * cos * 2.0 * math.Pi * x
	dst[3] = r * m1 * cos
	dst[4] = r
	dst[5] = (1.0 - r) * x
	dst[6] = 1.0 - r
}
