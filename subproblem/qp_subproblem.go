// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

// QPSubproblem builds the full quadratic local model, solved by qp.SolveQP,
// with its curvature term supplied by a pluggable HessianModel (spec.md
// §4.1 "QP subproblem").
type QPSubproblem struct {
	Hessian HessianModel
	Options qp.Options
}

// NewQPSubproblem defaults to ExactHessian when hessian is nil.
func NewQPSubproblem(hessian HessianModel) *QPSubproblem {
	if hessian == nil {
		hessian = ExactHessian{}
	}
	return &QPSubproblem{Hessian: hessian, Options: qp.DefaultOptions()}
}

func (s *QPSubproblem) Initialize(p *problem.Problem, first *iterate.Iterate) {
	s.Hessian.Reset(p.NumVariables)
}

func (s *QPSubproblem) Reset(n int) { s.Hessian.Reset(n) }

func (s *QPSubproblem) CreateCurrentSubproblem(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *Model {
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

func (s *QPSubproblem) Solve(model *Model) *qp.Direction {
	return qp.SolveQP(model.N, model.Hessian, model.Gradient, model.Constraints, model.Lower, model.Upper, s.Options)
}

// ComputeSecondOrderCorrection re-solves the same quadratic model but with
// the constraint bounds recentred on the trial iterate's actual constraint
// values while keeping the Jacobian linearization from the original point
// (Fletcher's second-order correction).
func (s *QPSubproblem) ComputeSecondOrderCorrection(p *problem.Problem, model *Model, trial *iterate.Iterate) *qp.Direction {
	socConstraints := make([]qp.LinearConstraint, len(model.Constraints))
	c := trial.Constraints()
	for j, row := range model.Constraints {
		b := p.ConstraintBounds[j]
		socConstraints[j] = qp.LinearConstraint{
			Row:   row.Row,
			Lower: b.Lower - c[j],
			Upper: b.Upper - c[j],
		}
	}
	return qp.SolveQP(model.N, model.Hessian, model.Gradient, socConstraints, model.Lower, model.Upper, s.Options)
}

func (s *QPSubproblem) GeneratePredictedReductionModel(model *Model, dir *qp.Direction) *PredictedReductionModel {
	return predictedReductionFromDirection(model, dir)
}

func (s *QPSubproblem) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	return it.Progress.Infeasibility, it.Objective()
}

// UpdateHessian feeds the accepted step (s, y = gradient-of-Lagrangian
// change) to the underlying quasi-Newton model; a no-op for ExactHessian,
// ZeroHessian and GaussNewtonHessian.
func (s *QPSubproblem) UpdateHessian(step, gradLagDiff []float64) {
	s.Hessian.Update(step, gradLagDiff)
}
