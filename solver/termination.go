// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import "github.com/curioloop/nlpsolve/iterate"

// TerminationStatus classifies a driver's final iterate (spec.md §4.5).
type TerminationStatus int

const (
	NotOptimal TerminationStatus = iota
	FeasibleKKTPoint
	FJPoint
	InfeasibleKKTPoint
	FeasibleSmallStep
	InfeasibleSmallStep
)

func (s TerminationStatus) String() string {
	switch s {
	case FeasibleKKTPoint:
		return "FEASIBLE_KKT_POINT"
	case FJPoint:
		return "FJ_POINT"
	case InfeasibleKKTPoint:
		return "INFEASIBLE_KKT_POINT"
	case FeasibleSmallStep:
		return "FEASIBLE_SMALL_STEP"
	case InfeasibleSmallStep:
		return "INFEASIBLE_SMALL_STEP"
	default:
		return "NOT_OPTIMAL"
	}
}

// CheckTermination classifies it per spec.md §4.5's rules, given the
// tolerance, the step norm that produced it (small_step_factor scales the
// tolerance for the small-step tests below), and the objective multiplier σ
// the last subproblem solve reported (qp.Direction.ObjectiveMultiplier) —
// σ > 0 distinguishes a genuine KKT point from a Fritz-John point where the
// objective has dropped out of the stationarity condition.
func CheckTermination(it *iterate.Iterate, stepNorm, tolerance, smallStepFactor, objectiveMultiplier float64) TerminationStatus {
	r := it.Residuals
	feasible := it.Progress.Infeasibility <= tolerance

	optimalityOK := r.OptimalityComplementarity/r.ComplementarityScaling <= tolerance &&
		r.OptimalityStationarity/r.StationarityScaling <= tolerance
	objectiveMultiplierPositive := objectiveMultiplier > 0

	if feasible && optimalityOK && objectiveMultiplierPositive {
		return FeasibleKKTPoint
	}

	feasibilityOK := r.FeasibilityComplementarity/r.ComplementarityScaling <= tolerance &&
		r.FeasibilityStationarity/r.StationarityScaling <= tolerance
	multipliersNonzero := it.Multipliers.InfNorm() > 0

	if feasible && feasibilityOK && multipliersNonzero {
		return FJPoint
	}
	if feasibilityOK && !feasible {
		return InfeasibleKKTPoint
	}

	if stepNorm <= tolerance/smallStepFactor {
		if feasible {
			return FeasibleSmallStep
		}
		return InfeasibleSmallStep
	}

	return NotOptimal
}
