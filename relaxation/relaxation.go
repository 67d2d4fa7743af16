// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package relaxation implements the two constraint-relaxation strategies
// spec.md §4.2 names for recovering from a subproblem that reports
// infeasibility: feasibility restoration (a phase switch to a dedicated
// feasibility objective) and l1 relaxation (elastic variables plus a
// penalty-steering rule).
package relaxation

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/subproblem"
)

// Phase distinguishes the two states a ConstraintRelaxation can be in
// (spec.md §4.2.1's OPTIMALITY / FEASIBILITY_RESTORATION state machine).
type Phase int

const (
	Optimality Phase = iota
	FeasibilityRestorationPhase
)

// ConstraintRelaxation wraps a Subproblem with a recovery strategy for the
// case its linear model turns out to be locally infeasible (spec.md §4.2).
type ConstraintRelaxation interface {
	Initialize(p *problem.Problem, it *iterate.Iterate)
	Phase() Phase
	// Solve builds and solves the current subproblem, applying whatever
	// relaxation the strategy needs; trustRegionRadius is forwarded
	// unchanged to the wrapped Subproblem.
	Solve(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *qp.Direction
	// Notify informs the relaxation strategy whether the trial it last
	// produced a direction for was accepted, so phase transitions and
	// penalty updates can react to the outcome.
	Notify(p *problem.Problem, trial *iterate.Iterate, accepted bool)
	Reset()

	// LastPredictedReductionModel returns the scalar model for the
	// direction the last Solve call returned, so a globalization mechanism
	// can evaluate a candidate step length's predicted reduction without
	// re-solving the subproblem (spec.md §4.1/§4.2.2).
	LastPredictedReductionModel() subproblem.PredictedReduction

	// ConsumeStrategyReset reports whether this relaxation strategy has
	// asked the globalization strategy to reset since the last call, and
	// clears the flag — spec.md §4.2.1's restoration/optimality phase
	// transitions and §4.2.2's "if μ strictly decreased overall, signal the
	// globalization strategy to reset" both set it.
	ConsumeStrategyReset() bool

	// ComputeProgressMeasures returns the (infeasibility, objective) pair a
	// globalization strategy's acceptance test compares current against
	// trial with. Delegates to the wrapped Subproblem's own
	// ComputeProgressMeasures outside restoration; FeasibilityRestoration
	// substitutes spec.md §4.2.1's restoration-phase measures (total
	// violation, violation of infeasible constraints only) while active.
	ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (infeasibility, objective float64)

	// SecondOrderCorrection re-solves the model behind the last direction
	// Solve returned, recentred on trial's actual constraint values
	// (spec.md §4.1 compute_second_order_correction, the classical
	// Fletcher correction for the Maratos effect). Returns nil if Solve has
	// not been called yet.
	SecondOrderCorrection(p *problem.Problem, trial *iterate.Iterate) *qp.Direction
}

// constraintViolationObjective builds an LP-style linear objective gᵀd whose
// minimization decreases the sum of infeasible-constraint violations: each
// infeasible-lower row contributes -row to g (minimizing pushes row·d up)
// and each infeasible-upper row contributes +row (pushing row·d down).
func constraintViolationObjective(n int, rows []qp.LinearConstraint, partition *iterate.ConstraintPartition) []float64 {
	g := make([]float64, n)
	if partition == nil {
		return g
	}
	for _, j := range partition.Infeasible {
		sign := 1.0
		if partition.Sides[j] == iterate.InfeasibleUpper {
			sign = -1.0
		}
		for i, v := range rows[j].Row {
			g[i] -= sign * v // minimize -sign·row·d i.e. push the violated row toward feasibility
		}
	}
	return g
}
