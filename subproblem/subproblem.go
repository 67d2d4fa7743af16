// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

// Model is the local model assembled at the current iterate: a linearized,
// trust-region-bounded QP/LP ready to hand to the qp package (spec.md §4.1
// create_current_subproblem/build_objective_model).
type Model struct {
	N, M int

	Hessian  []float64 // dense n×n, nil for the LP subproblem
	Gradient []float64

	Constraints []qp.LinearConstraint
	Lower       []float64 // displacement bounds on d, trust-region intersected with variable bounds
	Upper       []float64

	ObjectiveMultiplier float64 // σ
}

// Subproblem is the pluggable local model + solve strategy spec.md §4.1
// names: create_current_subproblem, build_objective_model, solve,
// compute_second_order_correction, generate_predicted_reduction_model,
// compute_progress_measures.
type Subproblem interface {
	// Initialize prepares any persistent state (e.g. a Hessian model) given
	// the problem and the first iterate.
	Initialize(p *problem.Problem, first *iterate.Iterate)

	// CreateCurrentSubproblem builds the trust-region-bounded linear model
	// at it, including the objective model (Hessian/gradient).
	CreateCurrentSubproblem(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *Model

	// Solve dispatches the assembled model to the appropriate backend
	// (qp.SolveQP or qp.SolveLP).
	Solve(model *Model) *qp.Direction

	// ComputeSecondOrderCorrection re-solves the same linear model with the
	// constraint right-hand sides shifted to the trial iterate's actual
	// constraint values, the classical Fletcher SOC step used to recover
	// from the Maratos effect.
	ComputeSecondOrderCorrection(p *problem.Problem, model *Model, trial *iterate.Iterate) *qp.Direction

	// GeneratePredictedReductionModel builds the scalar model a
	// globalization mechanism uses to test a candidate step length.
	GeneratePredictedReductionModel(model *Model, dir *qp.Direction) *PredictedReductionModel

	// ComputeProgressMeasures returns the (infeasibility, objective) pair
	// used by the globalization strategy's acceptance test. Identical to
	// (it.Progress.Infeasibility, it.Objective()) for every subproblem
	// except the interior-point variant, which substitutes the barrier
	// objective.
	ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (infeasibility, objective float64)

	// Reset clears any persistent Hessian-model state. The constraint-
	// relaxation strategies do not call it when they switch phase.
	Reset(n int)
}

// buildVariableBounds computes variables_bounds[i] = [max(-Δ, xL_i−x_i),
// min(Δ, xU_i−x_i)] (spec.md §4.1).
func buildVariableBounds(p *problem.Problem, x []float64, delta float64) (lower, upper []float64) {
	n := p.NumVariables
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := 0; i < n; i++ {
		b := p.VariablesBounds[i]
		lower[i] = math.Max(-delta, b.Lower-x[i])
		upper[i] = math.Min(delta, b.Upper-x[i])
	}
	return lower, upper
}

// buildConstraintBounds linearizes the constraints at it: row j is ∇c_j(x)
// with bounds [cL_j−c(x)_j, cU_j−c(x)_j] (spec.md §4.1).
func buildConstraintBounds(p *problem.Problem, it *iterate.Iterate) []qp.LinearConstraint {
	m := p.NumConstraints
	if m == 0 {
		return nil
	}
	n := p.NumVariables
	jac := it.ConstraintJacobian()
	c := it.Constraints()
	rows := make([]qp.LinearConstraint, m)
	for j := 0; j < m; j++ {
		b := p.ConstraintBounds[j]
		rows[j] = qp.LinearConstraint{
			Row:   jac[j].ToDense(n),
			Lower: b.Lower - c[j],
			Upper: b.Upper - c[j],
		}
	}
	return rows
}

// predictedReductionFromDirection derives the (gᵀd, dᵀHd) pair a solved
// Direction already implies from the model it was solved against, so
// GeneratePredictedReductionModel need not re-run the quadratic evaluator.
func predictedReductionFromDirection(model *Model, dir *qp.Direction) *PredictedReductionModel {
	n := model.N
	gd := 0.0
	for i := 0; i < n; i++ {
		gd += model.Gradient[i] * dir.D[i]
	}
	curvature := 0.0
	if model.Hessian != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				curvature += dir.D[i] * model.Hessian[i*n+j] * dir.D[j]
			}
		}
	}
	return NewPredictedReductionModel(gd, curvature)
}
