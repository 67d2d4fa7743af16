// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subproblem builds and solves the local model at the current
// iterate: QP, LP and primal-dual interior-point variants, each
// parameterised by a pluggable Hessian model (spec.md §4.1).
package subproblem

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
)

// HessianModel supplies the dense n×n Hessian-of-Lagrangian approximation a
// subproblem assembles into its QP, and is told about accepted steps so
// quasi-Newton variants can update their curvature estimate (spec.md §4.1:
// "parameterised by a Hessian model (exact, BFGS, SR1, damped-BFGS,
// Gauss-Newton, zero)").
type HessianModel interface {
	// Evaluate returns the dense (row-major) n×n Hessian-of-Lagrangian
	// model at it, scaled by the objective multiplier sigma.
	Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64
	// Update incorporates the step s = x_new - x_old and the corresponding
	// gradient-of-Lagrangian change y observed after an accepted step.
	// No-op for models that recompute from scratch (Exact, Zero,
	// GaussNewton).
	Update(s, y []float64)
	Reset(n int)
	Name() string
}

// ExactHessian evaluates the true Hessian of the Lagrangian at every call.
type ExactHessian struct{}

func (ExactHessian) Name() string { return "exact" }

func (ExactHessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	h := it.LagrangianHessian(sigma)
	return h.ToCSC().ToDense()
}

func (ExactHessian) Update(s, y []float64) {}
func (ExactHessian) Reset(n int)           {}

// ZeroHessian drops the quadratic term entirely, turning the QP subproblem
// into an LP-like linear model (spec.md §4.1's "zero" Hessian model, used
// e.g. for initial steering iterations).
type ZeroHessian struct{}

func (ZeroHessian) Name() string { return "zero" }

func (ZeroHessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	n := p.NumVariables
	return make([]float64, n*n)
}

func (ZeroHessian) Update(s, y []float64) {}
func (ZeroHessian) Reset(n int)           {}

// GaussNewtonHessian approximates the Hessian of the Lagrangian by the
// Gauss-Newton term JᵀJ of the constraint Jacobian alone (dropping
// curvature from f and from the constraint Hessians), the classical
// approximation for least-squares-flavoured objectives.
type GaussNewtonHessian struct{}

func (GaussNewtonHessian) Name() string { return "gauss-newton" }

func (GaussNewtonHessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	n := p.NumVariables
	dense := make([]float64, n*n)
	rows := it.ConstraintJacobian()
	for _, row := range rows {
		d := row.ToDense(n)
		for i := 0; i < n; i++ {
			if d[i] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				dense[i*n+j] += d[i] * d[j]
			}
		}
	}
	return dense
}

func (GaussNewtonHessian) Update(s, y []float64) {}
func (GaussNewtonHessian) Reset(n int)           {}

// dampedBFGSUpdate applies Powell's damped BFGS update to the dense matrix
// b in place: if sᵀy is too small relative to sᵀBs, y is replaced by a
// convex combination with Bs to keep the update positive definite. This is
// the same Powell damping (0.2 threshold) slsqp's updateBFGS applies to its
// factored update (lbfgsb/update.go instead skips the update when its
// dr ≤ ε·y² curvature test fails), generalized here to a dense update.
func dampedBFGSUpdate(b []float64, n int, s, y []float64) {
	bs := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		row := b[i*n : i*n+n]
		for j, bij := range row {
			sum += bij * s[j]
		}
		bs[i] = sum
	}
	sBs := dot(s, bs)
	sy := dot(s, y)

	theta := 1.0
	if sy < 0.2*sBs {
		theta = 0.8 * sBs / (sBs - sy)
	}
	yHat := make([]float64, n)
	for i := range yHat {
		yHat[i] = theta*y[i] + (1-theta)*bs[i]
	}
	sYHat := dot(s, yHat)
	if sYHat <= 1e-12 {
		return // skip update entirely, curvature condition unrecoverable
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b[i*n+j] += yHat[i]*yHat[j]/sYHat - bs[i]*bs[j]/sBs
		}
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// BFGSHessian maintains a dense damped-BFGS approximation of the Hessian of
// the Lagrangian, persisting across outer iterations.
type BFGSHessian struct {
	n int
	b []float64
}

func (h *BFGSHessian) Name() string { return "BFGS" }

func (h *BFGSHessian) Reset(n int) {
	h.n = n
	h.b = identity(n)
}

func (h *BFGSHessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	if h.b == nil {
		h.Reset(p.NumVariables)
	}
	return h.b
}

func (h *BFGSHessian) Update(s, y []float64) {
	if h.b == nil {
		h.Reset(len(s))
	}
	dampedBFGSUpdate(h.b, h.n, s, y)
}

func identity(n int) []float64 {
	m := make([]float64, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = 1
	}
	return m
}

// SR1Hessian maintains a dense symmetric-rank-1 Hessian approximation,
// skipping updates whose denominator is numerically too small to trust
// (the classical SR1 safeguard).
type SR1Hessian struct {
	n int
	b []float64
}

func (h *SR1Hessian) Name() string { return "SR1" }

func (h *SR1Hessian) Reset(n int) {
	h.n = n
	h.b = identity(n)
}

func (h *SR1Hessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	if h.b == nil {
		h.Reset(p.NumVariables)
	}
	return h.b
}

func (h *SR1Hessian) Update(s, y []float64) {
	if h.b == nil {
		h.Reset(len(s))
	}
	n := h.n
	bs := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		row := h.b[i*n : i*n+n]
		for j, bij := range row {
			sum += bij * s[j]
		}
		bs[i] = sum
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = y[i] - bs[i]
	}
	denom := dot(diff, s)
	if math.Abs(denom) < 1e-8*norm(diff)*norm(s) {
		return // SR1 skip: denominator too small to trust
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h.b[i*n+j] += diff[i] * diff[j] / denom
		}
	}
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

// LBFGSHessian bounds memory to the m most recent (s, y) correction pairs
// and rebuilds the dense approximation by replaying damped BFGS updates
// from a scaled identity, the same curvature-pair bookkeeping
// lbfgsb/update.go's compact representation performs (ws/wy storage with a
// curvature-skip test), adapted here to a dense replay instead of the
// teacher's compact matrix-free representation since the QP subproblem
// needs a materialized Hessian.
type LBFGSHessian struct {
	n       int
	m       int
	history []correctionPair
}

type correctionPair struct {
	s, y []float64
}

// NewLBFGSHessian allocates an LBFGSHessian retaining the m most recent
// correction pairs.
func NewLBFGSHessian(m int) *LBFGSHessian {
	return &LBFGSHessian{m: m}
}

func (h *LBFGSHessian) Name() string { return "L-BFGS" }

func (h *LBFGSHessian) Reset(n int) {
	h.n = n
	h.history = nil
}

func (h *LBFGSHessian) Evaluate(p *problem.Problem, it *iterate.Iterate, sigma float64) []float64 {
	if h.n == 0 {
		h.Reset(p.NumVariables)
	}
	theta := 1.0
	if last := h.history; len(last) > 0 {
		lp := last[len(last)-1]
		sy := dot(lp.s, lp.y)
		yy := dot(lp.y, lp.y)
		if sy > 0 {
			theta = yy / sy // Uno/Ipopt-style initial scaling of B0 = θI
		}
	}
	b := make([]float64, h.n*h.n)
	for i := 0; i < h.n; i++ {
		b[i*h.n+i] = theta
	}
	for _, pair := range h.history {
		dampedBFGSUpdate(b, h.n, pair.s, pair.y)
	}
	return b
}

func (h *LBFGSHessian) Update(s, y []float64) {
	if h.n == 0 {
		h.Reset(len(s))
	}
	sy := dot(s, y)
	yy := dot(y, y)
	if sy <= 1e-10*yy {
		return // curvature condition sᵀy > ε‖y‖² fails: skip (spec.md §9 ambient note on skip-update telemetry)
	}
	h.history = append(h.history, correctionPair{
		s: append([]float64(nil), s...),
		y: append([]float64(nil), y...),
	})
	if len(h.history) > h.m {
		h.history = h.history[1:]
	}
}
