package leastsq

import (
	"context"
	"fmt"
	"math"

	mat_ "github.com/peternara/geostyle/mat"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minimum diagonal scale relative to the largest diagonal element of the normal matrix. Keeps
// the damped system positive definite when a parameter has no influence on the residuals.
const minDiagScale = 1e-6

type solver struct {
	prob Problem
	grad Gradient
	n, m int

	gradBuf []float64
}

func newSolver(prob Problem) *solver {
	n := prob.F.NumParams()
	s := &solver{
		prob:    prob,
		n:       n,
		m:       len(prob.Y),
		gradBuf: make([]float64, n),
	}
	if g, ok := prob.F.(Gradient); ok {
		s.grad = g
	}
	return s
}

// residuals fills dst with the weighted residuals at p and returns half the squared norm
func (s *solver) residuals(dst, p []float64) float64 {
	var cost float64
	for i, x := range s.prob.X {
		v := s.prob.F.Eval(x, p) - s.prob.Y[i]
		if s.prob.Weights != nil {
			v *= s.prob.Weights[i]
		}
		dst[i] = v
		cost += v * v
	}
	return 0.5 * cost
}

// jacobian fills the m x n matrix of weighted residual derivatives at p
func (s *solver) jacobian(dst *mat.Dense, p []float64) {
	if s.grad == nil {
		fd.Jacobian(dst, func(y, x []float64) {
			s.residuals(y, x)
		}, p, &fd.JacobianSettings{
			Formula: fd.Central,
		})
		return
	}
	for i, x := range s.prob.X {
		s.grad.Grad(s.gradBuf, x, p)
		dst.SetRow(i, s.gradBuf)
	}
	if s.prob.Weights != nil {
		// weights are validated against the observations
		_ = mat_.ScaleRows(dst, s.prob.Weights)
	}
}

// Solve minimizes the problem starting from p0. The context is checked once per iteration
// and its error is returned wrapped if it is done.
func Solve(ctx context.Context, prob Problem, p0 []float64, settings *Settings) (*Result, error) {
	if err := prob.validate(p0); err != nil {
		return nil, err
	}
	settings, err := settings.Validate(len(p0), prob.Bounds != nil)
	if err != nil {
		return nil, err
	}

	s := newSolver(prob)
	n, m := s.n, s.m

	p := make([]float64, n)
	copy(p, p0)
	pNew := make([]float64, n)
	step := make([]float64, n)

	r := make([]float64, m)
	rNew := make([]float64, m)

	cost := s.residuals(r, p)
	if !isFinite(cost) {
		return nil, fmt.Errorf("at start %v, %w", p0, ErrNonFiniteResidual)
	}
	if cost == 0 {
		return &Result{Params: p, Cost: cost, Status: StatusExact}, nil
	}

	jac := mat.NewDense(m, n, nil)
	var hess mat.Dense
	grad := make([]float64, n)
	gradVec := mat.NewVecDense(n, grad)

	free := make([]int, 0, n)
	lambda := -1.0
	nu := 2.0
	recompute := true

	for iter := 0; iter < settings.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("solver interrupted after %d iterations, %w", iter, err)
		}

		if recompute {
			s.jacobian(jac, p)
			gradVec.MulVec(jac.T(), mat.NewVecDense(m, r))
			hess.Mul(jac.T(), jac)
			recompute = false
		}

		maxDiag := 0.0
		for i := 0; i < n; i++ {
			maxDiag = math.Max(maxDiag, hess.At(i, i))
		}
		if lambda < 0 {
			lambda = settings.InitialDamping * maxDiag
			if lambda == 0 {
				lambda = settings.InitialDamping
			}
		}

		// parameters pinned on a bound by the gradient stay fixed for this step
		free = free[:0]
		gradNorm := 0.0
		for i := 0; i < n; i++ {
			if b := prob.Bounds; b != nil {
				if p[i] <= b.Lower[i] && grad[i] > 0 {
					continue
				}
				if p[i] >= b.Upper[i] && grad[i] < 0 {
					continue
				}
			}
			free = append(free, i)
			gradNorm = math.Max(gradNorm, math.Abs(grad[i]))
		}
		if len(free) == 0 || gradNorm <= settings.GradientTolerance {
			return &Result{Params: p, Cost: cost, Iterations: iter, Status: StatusGradient}, nil
		}

		dx, ok := dampedStep(&hess, grad, free, lambda, minDiagScale*maxDiag)
		if !ok {
			lambda *= nu
			nu *= 2
			continue
		}

		copy(pNew, p)
		for k, i := range free {
			pNew[i] += dx[k]
		}
		prob.Bounds.Clip(pNew)
		floats.SubTo(step, pNew, p)

		stepNorm := floats.Norm(step, 2)
		small := stepNorm <= settings.ParameterTolerance*(floats.Norm(p, 2)+settings.ParameterTolerance)

		costNew := s.residuals(rNew, pNew)
		if !isFinite(costNew) || costNew >= cost {
			if small {
				return &Result{Params: p, Cost: cost, Iterations: iter + 1, Status: StatusParameter}, nil
			}
			lambda *= nu
			nu *= 2
			continue
		}

		actual := cost - costNew
		predicted := -(floats.Dot(grad, step) + 0.5*quadForm(&hess, step))
		rho := 0.5
		if predicted > 0 {
			rho = actual / predicted
		}
		lambda *= math.Max(1.0/3.0, 1.0-math.Pow(2.0*rho-1.0, 3))
		nu = 2

		p, pNew = pNew, p
		r, rNew = rNew, r
		prevCost := cost
		cost = costNew
		recompute = true

		switch {
		case cost == 0:
			return &Result{Params: p, Cost: cost, Iterations: iter + 1, Status: StatusExact}, nil
		case actual <= settings.FunctionTolerance*prevCost:
			return &Result{Params: p, Cost: cost, Iterations: iter + 1, Status: StatusFunction}, nil
		case small:
			return &Result{Params: p, Cost: cost, Iterations: iter + 1, Status: StatusParameter}, nil
		}
	}
	return nil, fmt.Errorf("after %d iterations with cost %.6g, %w", settings.MaxIterations, cost, ErrMaxIterations)
}

// dampedStep solves (H_ff + lambda*diag(H_ff)) dx = -g_f over the free parameters using a
// Cholesky factorization. ok is false if the damped system is not positive definite.
func dampedStep(hess mat.Matrix, grad []float64, free []int, lambda, minDiag float64) ([]float64, bool) {
	k := len(free)
	a := mat_.SubMatrix(hess, free)
	rhs := make([]float64, k)
	for ii, i := range free {
		d := math.Max(hess.At(i, i), minDiag)
		a.SetSym(ii, ii, a.At(ii, ii)+lambda*d)
		rhs[ii] = -grad[i]
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var dx mat.VecDense
	if err := chol.SolveVecTo(&dx, mat.NewVecDense(k, rhs)); err != nil {
		return nil, false
	}
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = dx.AtVec(i)
		if !isFinite(out[i]) {
			return nil, false
		}
	}
	return out, true
}

func quadForm(a mat.Matrix, x []float64) float64 {
	v := mat.NewVecDense(len(x), x)
	return mat.Inner(v, a, v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
