// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

// LPSubproblem drops the quadratic term entirely and solves the linearized
// model with qp.SolveLP (spec.md §4.1 "LP subproblem"), used by
// steering/phase-1 iterations that only need a feasibility direction.
type LPSubproblem struct {
	Options qp.Options
}

// NewLPSubproblem returns an LPSubproblem with default solver options.
func NewLPSubproblem() *LPSubproblem {
	return &LPSubproblem{Options: qp.DefaultOptions()}
}

func (s *LPSubproblem) Initialize(p *problem.Problem, first *iterate.Iterate) {}
func (s *LPSubproblem) Reset(n int)                                          {}

func (s *LPSubproblem) CreateCurrentSubproblem(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *Model {
	lower, upper := buildVariableBounds(p, it.X, trustRegionRadius)
	return &Model{
		N:                   p.NumVariables,
		M:                   p.NumConstraints,
		Gradient:            it.ObjectiveGradient().ToDense(p.NumVariables),
		Constraints:         buildConstraintBounds(p, it),
		Lower:               lower,
		Upper:               upper,
		ObjectiveMultiplier: 1,
	}
}

func (s *LPSubproblem) Solve(model *Model) *qp.Direction {
	return qp.SolveLP(model.N, model.Gradient, model.Constraints, model.Lower, model.Upper, s.Options)
}

func (s *LPSubproblem) ComputeSecondOrderCorrection(p *problem.Problem, model *Model, trial *iterate.Iterate) *qp.Direction {
	socConstraints := make([]qp.LinearConstraint, len(model.Constraints))
	c := trial.Constraints()
	for j, row := range model.Constraints {
		b := p.ConstraintBounds[j]
		socConstraints[j] = qp.LinearConstraint{Row: row.Row, Lower: b.Lower - c[j], Upper: b.Upper - c[j]}
	}
	return qp.SolveLP(model.N, model.Gradient, socConstraints, model.Lower, model.Upper, s.Options)
}

func (s *LPSubproblem) GeneratePredictedReductionModel(model *Model, dir *qp.Direction) *PredictedReductionModel {
	return predictedReductionFromDirection(model, dir)
}

func (s *LPSubproblem) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	return it.Progress.Infeasibility, it.Objective()
}
