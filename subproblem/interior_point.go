// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/linalg"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

// InteriorPointOptions tunes the Fiacco-McCormick barrier Newton step.
type InteriorPointOptions struct {
	// Mu is the barrier parameter μ. It keeps the value set here: nothing in
	// the module decreases it between outer iterations.
	Mu float64
	// FractionToBoundary is τ in the classical 1-τ fraction-to-boundary
	// step-length rule (Ipopt uses τ = max(0.99, 1-μ)).
	FractionToBoundary float64
	// NewtonIterations bounds the barrier Newton iterations run per solve.
	NewtonIterations int
	// RegularizationFloor/Ceiling bound the geometric inertia-correction
	// search on the KKT matrix's (1,1) block.
	RegularizationFloor, RegularizationCeiling float64
}

// DefaultInteriorPointOptions mirrors Ipopt's published defaults closely
// enough for a reference implementation.
func DefaultInteriorPointOptions() InteriorPointOptions {
	return InteriorPointOptions{
		Mu:                      0.1,
		FractionToBoundary:      0.99,
		NewtonIterations:        8,
		RegularizationFloor:     1e-8,
		RegularizationCeiling:   1e10,
	}
}

// InteriorPointSubproblem solves the barrier-augmented local model
// Φ_μ(d,s) = ½dᵀHd+gᵀd − μΣlog(d_i−lo_i) − μΣlog(up_i−d_i)
//          − μΣlog(s_j−cLo_j) − μΣlog(cUp_j−s_j),  subject to Ad = s,
// via a primal-dual Newton step on the bordered KKT system, the in-spec
// interior-point counterpart to QPSubproblem (spec.md §4.1 "interior-point
// subproblem"). Inertia-driven regularization uses the same
// SymmetricIndefiniteSolver the QP subproblem's packed-LDLT path avoids by
// construction, since here the KKT matrix is genuinely indefinite.
type InteriorPointSubproblem struct {
	Hessian HessianModel
	Options InteriorPointOptions
}

// NewInteriorPointSubproblem defaults to ExactHessian when hessian is nil.
func NewInteriorPointSubproblem(hessian HessianModel) *InteriorPointSubproblem {
	if hessian == nil {
		hessian = ExactHessian{}
	}
	return &InteriorPointSubproblem{Hessian: hessian, Options: DefaultInteriorPointOptions()}
}

func (s *InteriorPointSubproblem) Initialize(p *problem.Problem, first *iterate.Iterate) {
	s.Hessian.Reset(p.NumVariables)
}

func (s *InteriorPointSubproblem) Reset(n int) { s.Hessian.Reset(n) }

func (s *InteriorPointSubproblem) CreateCurrentSubproblem(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *Model {
	lower, upper := buildVariableBounds(p, it.X, trustRegionRadius)
	grad := it.ObjectiveGradient().ToDense(p.NumVariables)
	model := &Model{
		N:                   p.NumVariables,
		M:                   p.NumConstraints,
		Gradient:            grad,
		Constraints:         buildConstraintBounds(p, it),
		Lower:               lower,
		Upper:               upper,
		ObjectiveMultiplier: 1,
	}
	model.Hessian = s.Hessian.Evaluate(p, it, model.ObjectiveMultiplier)
	return model
}

// Solve runs up to Options.NewtonIterations barrier Newton steps from an
// interior starting point and returns the final displacement as a
// qp.Direction. Status is Optimal once the Newton loop ends (budget
// exhausted or a step shorter than 1e-12), Error if the KKT matrix could not
// be regularized to the required inertia or the linear solve fails. The
// fraction-to-boundary rule keeps d and s strictly interior, so no separate
// feasibility check is made.
func (s *InteriorPointSubproblem) Solve(model *Model) *qp.Direction {
	n, m := model.N, model.M
	opt := s.Options

	d := interiorPush(make([]float64, n), model.Lower, model.Upper)
	cs := make([]float64, m)
	for j := range cs {
		cs[j] = model.Constraints[j].Lower
	}
	sVar := interiorPush(cs, lowerOf(model.Constraints), upperOf(model.Constraints))
	y := make([]float64, m)

	dim := n + 2*m
	solver := linalg.NewSymmetricIndefiniteSolver(dim)

	for iter := 0; iter < opt.NewtonIterations; iter++ {
		kkt, rhs := assembleBarrierKKT(model, d, sVar, y, opt.Mu)

		delta := 0.0
		regularized := false
		for attempt := 0; attempt < 40; attempt++ {
			trial := append([]float64(nil), kkt...)
			if delta > 0 {
				for i := 0; i < n+m; i++ {
					trial[i*dim+i] += delta
				}
			}
			if err := solver.Factorize(trial); err == nil && solver.Inertia().Correct(n+m, m) {
				regularized = true
				break
			}
			if delta == 0 {
				delta = opt.RegularizationFloor
			} else {
				delta *= 10
			}
			if delta > opt.RegularizationCeiling {
				break
			}
		}
		if !regularized {
			return &qp.Direction{Status: qp.Error}
		}

		step, err := solver.Solve(rhs)
		if err != nil {
			return &qp.Direction{Status: qp.Error}
		}
		dD, dS, dY := step[:n], step[n:n+m], step[n+m:]

		alpha := fractionToBoundaryStep(d, dD, model.Lower, model.Upper, opt.FractionToBoundary)
		alpha = math.Min(alpha, fractionToBoundaryStep(sVar, dS, lowerOf(model.Constraints), upperOf(model.Constraints), opt.FractionToBoundary))

		for i := range d {
			d[i] += alpha * dD[i]
		}
		for j := range sVar {
			sVar[j] += alpha * dS[j]
		}
		for j := range y {
			y[j] += alpha * dY[j]
		}

		if alpha < 1e-12 {
			break
		}
	}

	dir := &qp.Direction{D: d, Active: qp.NewActiveSet(n, m), Status: qp.Optimal}
	dir.Norm = norm2(d)
	mult := iterate.NewMultipliers(n, m)
	copy(mult.Constraints, y)
	dir.Multipliers = mult
	return dir
}

func (s *InteriorPointSubproblem) ComputeSecondOrderCorrection(p *problem.Problem, model *Model, trial *iterate.Iterate) *qp.Direction {
	adjusted := *model
	adjusted.Constraints = make([]qp.LinearConstraint, len(model.Constraints))
	c := trial.Constraints()
	for j, row := range model.Constraints {
		b := p.ConstraintBounds[j]
		adjusted.Constraints[j] = qp.LinearConstraint{Row: row.Row, Lower: b.Lower - c[j], Upper: b.Upper - c[j]}
	}
	return s.Solve(&adjusted)
}

func (s *InteriorPointSubproblem) GeneratePredictedReductionModel(model *Model, dir *qp.Direction) *PredictedReductionModel {
	return predictedReductionFromDirection(model, dir)
}

// ComputeProgressMeasures substitutes the barrier objective for the plain
// objective, the interior-point variant's redefinition of the progress
// measures (spec.md §4.1: "interior-point subproblems redefine the progress
// measures in terms of the barrier objective").
func (s *InteriorPointSubproblem) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	barrier := it.Objective()
	for i, b := range p.VariablesBounds {
		if !math.IsInf(b.Lower, -1) {
			barrier -= s.Options.Mu * math.Log(it.X[i]-b.Lower)
		}
		if !math.IsInf(b.Upper, 1) {
			barrier -= s.Options.Mu * math.Log(b.Upper-it.X[i])
		}
	}
	return it.Progress.Infeasibility, barrier
}

func lowerOf(cs []qp.LinearConstraint) []float64 {
	v := make([]float64, len(cs))
	for j, c := range cs {
		v[j] = c.Lower
	}
	return v
}

func upperOf(cs []qp.LinearConstraint) []float64 {
	v := make([]float64, len(cs))
	for j, c := range cs {
		v[j] = c.Upper
	}
	return v
}

// interiorPush nudges x strictly inside [lower, upper] by at least a small
// relative margin, the same "push_variables" idea Ipopt applies to its
// starting point before the first barrier iteration.
func interiorPush(x, lower, upper []float64) []float64 {
	const kappa1, kappa2 = 1e-2, 1e-2
	out := append([]float64(nil), x...)
	for i := range out {
		lo, up := lower[i], upper[i]
		if math.IsInf(lo, -1) && math.IsInf(up, 1) {
			continue
		}
		width := up - lo
		margin := math.Min(kappa1*math.Max(1, math.Abs(lo)), kappa2*width)
		if margin <= 0 || math.IsNaN(margin) {
			margin = 1e-8
		}
		if out[i] < lo+margin {
			out[i] = lo + margin
		}
		if out[i] > up-margin {
			out[i] = up - margin
		}
	}
	return out
}

// fractionToBoundaryStep returns the largest alpha ∈ (0, 1] such that
// x + alpha*dx stays within tau of [lower, upper] on every component.
func fractionToBoundaryStep(x, dx, lower, upper []float64, tau float64) float64 {
	alpha := 1.0
	for i := range x {
		if dx[i] < 0 && !math.IsInf(lower[i], -1) {
			limit := -tau * (x[i] - lower[i]) / dx[i]
			alpha = math.Min(alpha, limit)
		}
		if dx[i] > 0 && !math.IsInf(upper[i], 1) {
			limit := tau * (upper[i] - x[i]) / dx[i]
			alpha = math.Min(alpha, limit)
		}
	}
	if alpha < 0 {
		alpha = 0
	}
	return alpha
}

// assembleBarrierKKT builds the dense (n+2m)×(n+2m) bordered Newton system
// for the primal-dual barrier step at (d, s, y):
//
//	[ H+Σd    0     Aᵀ ] [Δd]   [-(Hd+g+∇barrier_d+Aᵀy)]
//	[ 0       Σs   -I  ] [Δs] = [-(∇barrier_s-y)       ]
//	[ A      -I     0  ] [Δy]   [-(Ad-s)               ]
func assembleBarrierKKT(model *Model, d, sVar, y []float64, mu float64) ([]float64, []float64) {
	n, m := model.N, model.M
	dim := n + 2*m
	kkt := make([]float64, dim*dim)
	rhs := make([]float64, dim)

	for i := 0; i < n; i++ {
		copy(kkt[i*dim:i*dim+n], model.Hessian[i*n:i*n+n])
	}

	hd := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += model.Hessian[i*n+j] * d[j]
		}
		hd[i] = sum
	}

	for i := 0; i < n; i++ {
		lo, up := model.Lower[i], model.Upper[i]
		distLo, distUp := d[i]-lo, up-d[i]
		gradBarrier := 0.0
		if !math.IsInf(lo, -1) {
			kkt[i*dim+i] += mu / (distLo * distLo)
			gradBarrier -= mu / distLo
		}
		if !math.IsInf(up, 1) {
			kkt[i*dim+i] += mu / (distUp * distUp)
			gradBarrier += mu / distUp
		}
		aty := 0.0
		for j := 0; j < m; j++ {
			aty += model.Constraints[j].Row[i] * y[j]
		}
		rhs[i] = -(hd[i] + model.Gradient[i] + gradBarrier + aty)
	}

	for j := 0; j < m; j++ {
		row := n + m + j
		for i := 0; i < n; i++ {
			kkt[row*dim+i] = model.Constraints[j].Row[i]
			kkt[i*dim+row] = model.Constraints[j].Row[i]
		}
		sRow := n + j
		kkt[sRow*dim+row] = -1
		kkt[row*dim+sRow] = -1

		lo, up := model.Constraints[j].Lower, model.Constraints[j].Upper
		distLo, distUp := sVar[j]-lo, up-sVar[j]
		gradBarrier := 0.0
		hessBarrier := 0.0
		if !math.IsInf(lo, -1) {
			hessBarrier += mu / (distLo * distLo)
			gradBarrier -= mu / distLo
		}
		if !math.IsInf(up, 1) {
			hessBarrier += mu / (distUp * distUp)
			gradBarrier += mu / distUp
		}
		kkt[sRow*dim+sRow] = hessBarrier

		ad := 0.0
		for i := 0; i < n; i++ {
			ad += model.Constraints[j].Row[i] * d[i]
		}
		rhs[row] = -(ad - sVar[j])
		rhs[sRow] = -(gradBarrier - y[j])
	}

	return kkt, rhs
}
