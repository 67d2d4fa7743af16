// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/lbfgsb"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

// LBFGSBOptions tunes the Optimizer each CreateCurrentSubproblem's box
// minimization is built with.
type LBFGSBOptions struct {
	Corrections       int // m, the L-BFGS-B correction-pair count
	MaxIterations     int
	ProjGradTolerance float64
	ActiveTolerance   float64 // distance from a bound counted as active, for multiplier recovery
}

// DefaultLBFGSBOptions mirrors the teacher's own dcsrch/driver defaults.
func DefaultLBFGSBOptions() LBFGSBOptions {
	return LBFGSBOptions{
		Corrections:       10,
		MaxIterations:     200,
		ProjGradTolerance: 1e-8,
		ActiveTolerance:   1e-10,
	}
}

// LBFGSBSubproblem solves the trust-region quadratic model with the
// teacher's lbfgsb.Optimizer instead of qp.SolveQP's active-set LSEI/LSI
// machinery, for problems with no general linear constraints — spec.md
// §4.1 leaves the local-model solve pluggable, and a bound-constrained
// L-BFGS-B minimization is the natural alternative backend when the
// trust-region box is the only constraint. Falls back to QPSubproblem's
// backend whenever the problem does carry linear constraints, since
// lbfgsb has no notion of anything beyond box bounds.
type LBFGSBSubproblem struct {
	Hessian HessianModel
	Options LBFGSBOptions
	qp      *QPSubproblem
}

// NewLBFGSBSubproblem defaults to ExactHessian when hessian is nil.
func NewLBFGSBSubproblem(hessian HessianModel) *LBFGSBSubproblem {
	if hessian == nil {
		hessian = ExactHessian{}
	}
	return &LBFGSBSubproblem{
		Hessian: hessian,
		Options: DefaultLBFGSBOptions(),
		qp:      &QPSubproblem{Hessian: hessian, Options: qp.DefaultOptions()},
	}
}

func (s *LBFGSBSubproblem) Initialize(p *problem.Problem, first *iterate.Iterate) {
	s.Hessian.Reset(p.NumVariables)
}

func (s *LBFGSBSubproblem) Reset(n int) { s.Hessian.Reset(n) }

func (s *LBFGSBSubproblem) CreateCurrentSubproblem(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *Model {
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

// Solve dispatches to the box-constrained L-BFGS-B minimizer when model
// carries no general linear constraints, otherwise falls back to the
// active-set QP backend (lbfgsb itself only ever projects onto box
// bounds).
func (s *LBFGSBSubproblem) Solve(model *Model) *qp.Direction {
	if model.M > 0 {
		return s.qp.Solve(model)
	}
	return s.solveBox(model)
}

func (s *LBFGSBSubproblem) solveBox(model *Model) *qp.Direction {
	n := model.N
	bounds := make([]lbfgsb.Bound, n)
	for i := 0; i < n; i++ {
		bounds[i] = lbfgsb.Bound{Lower: model.Lower[i], Upper: model.Upper[i]}
	}

	eval := func(x, g []float64) float64 {
		return quadraticEval(model.Hessian, model.Gradient, x, n, g)
	}

	prob := lbfgsb.Problem{
		N: n,
		M: min(s.Options.Corrections, max(n, 1)),
		Eval: eval,
		Stop: lbfgsb.Termination{
			MaxIterations:     s.Options.MaxIterations,
			ProjGradTolerance: s.Options.ProjGradTolerance,
		},
		Bounds: bounds,
	}
	optimizer, err := prob.New(nil)
	if err != nil {
		return &qp.Direction{Status: qp.Error}
	}

	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = math.Max(model.Lower[i], math.Min(0, model.Upper[i]))
	}
	res := optimizer.Fit(x0, optimizer.Init())

	dir := &qp.Direction{
		D:                   res.X,
		Multipliers:         iterate.NewMultipliers(n, model.M),
		Active:              qp.NewActiveSet(n, model.M),
		ObjectiveMultiplier: model.ObjectiveMultiplier,
		PredictedObjective:  quadraticValue(model.Hessian, model.Gradient, res.X, n),
	}
	if res.OK {
		dir.Status = qp.Optimal
	} else {
		dir.Status = qp.SubOptimal
	}

	for i := 0; i < n; i++ {
		switch {
		case res.X[i]-model.Lower[i] <= s.Options.ActiveTolerance:
			dir.Active.VariablesLower[i] = true
			dir.Multipliers.LowerBounds[i] = math.Max(0, res.G[i])
		case model.Upper[i]-res.X[i] <= s.Options.ActiveTolerance:
			dir.Active.VariablesUpper[i] = true
			dir.Multipliers.UpperBounds[i] = math.Max(0, -res.G[i])
		}
	}
	return dir
}

// ComputeSecondOrderCorrection defers to the QP backend: lbfgsb has no
// general linear constraints to recentre, so the SOC step (which only
// matters once constraints are involved) is meaningless for the box-only
// path.
func (s *LBFGSBSubproblem) ComputeSecondOrderCorrection(p *problem.Problem, model *Model, trial *iterate.Iterate) *qp.Direction {
	return s.qp.ComputeSecondOrderCorrection(p, model, trial)
}

func (s *LBFGSBSubproblem) GeneratePredictedReductionModel(model *Model, dir *qp.Direction) *PredictedReductionModel {
	return predictedReductionFromDirection(model, dir)
}

func (s *LBFGSBSubproblem) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	return it.Progress.Infeasibility, it.Objective()
}

// quadraticEval fills g with the gradient of ½xᵀHx + gᵀx at x and returns
// the function value, the Evaluation signature lbfgsb.Problem.Eval needs.
func quadraticEval(hessian, gradient, x []float64, n int, g []float64) float64 {
	for i := 0; i < n; i++ {
		hx := 0.0
		for j := 0; j < n; j++ {
			hx += hessian[i*n+j] * x[j]
		}
		g[i] = gradient[i] + hx
	}
	return quadraticValue(hessian, gradient, x, n)
}

// quadraticValue evaluates gᵀx + ½xᵀHx, the same local model
// predictedReductionFromDirection reads back from a solved Direction.
func quadraticValue(hessian, gradient, x []float64, n int) float64 {
	val := 0.0
	for i := 0; i < n; i++ {
		val += gradient[i] * x[i]
	}
	quad := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			quad += x[i] * hessian[i*n+j] * x[j]
		}
	}
	return val + 0.5*quad
}
