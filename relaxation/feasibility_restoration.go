// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/subproblem"
)

// FeasibilityRestoration wraps a Subproblem with the OPTIMALITY /
// FEASIBILITY_RESTORATION state machine spec.md §4.2.1 describes: on an
// infeasible subproblem solve, it switches to minimizing the constraint
// violation (by partition) until an un-relaxed direction is accepted again.
type FeasibilityRestoration struct {
	Sub subproblem.Subproblem

	phase         Phase
	lastPartition *iterate.ConstraintPartition
	lastRelaxed   bool
	resetPending  bool
	lastPR        subproblem.PredictedReduction
	lastModel     *subproblem.Model
}

// NewFeasibilityRestoration wraps sub.
func NewFeasibilityRestoration(sub subproblem.Subproblem) *FeasibilityRestoration {
	return &FeasibilityRestoration{Sub: sub}
}

func (r *FeasibilityRestoration) Initialize(p *problem.Problem, it *iterate.Iterate) {
	r.Sub.Initialize(p, it)
	r.phase = Optimality
	r.lastPartition = nil
	r.lastRelaxed = false
	r.resetPending = false
}

func (r *FeasibilityRestoration) Phase() Phase { return r.phase }

func (r *FeasibilityRestoration) Reset() {
	r.phase = Optimality
	r.lastPartition = nil
	r.lastRelaxed = false
}

// Solve always attempts the un-relaxed subproblem first, regardless of the
// current phase: this is what lets an un-relaxed direction "return" while
// still in RESTORATION, the event spec.md §4.2.1 step 3 gates the
// RESTORATION→OPTIMALITY transition on (finalized in Notify once the
// strategy's acceptance decision for that direction is known). Only when
// the un-relaxed solve itself reports infeasible does this switch to the
// restoration objective (an OPTIMALITY→RESTORATION transition, spec.md
// §4.2.1 step 3's other direction).
func (r *FeasibilityRestoration) Solve(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *qp.Direction {
	model := r.Sub.CreateCurrentSubproblem(p, it, trustRegionRadius)
	dir := r.Sub.Solve(model)

	if dir.Status == qp.Infeasible && dir.Partition != nil && len(dir.Partition.Infeasible) > 0 {
		if r.phase == Optimality {
			r.resetPending = true // OPTIMALITY → RESTORATION
		}
		r.phase = FeasibilityRestorationPhase
		r.lastPartition = dir.Partition

		restored := restorationModel(model, dir.Partition)
		restoredDir := r.Sub.Solve(restored)
		restoredDir.IsRelaxed = true
		restoredDir.Partition = dir.Partition

		r.lastRelaxed = true
		r.lastPR = r.Sub.GeneratePredictedReductionModel(restored, restoredDir)
		r.lastModel = restored
		return restoredDir
	}

	r.lastRelaxed = false
	r.lastPR = r.Sub.GeneratePredictedReductionModel(model, dir)
	r.lastModel = model
	return dir
}

func (r *FeasibilityRestoration) SecondOrderCorrection(p *problem.Problem, trial *iterate.Iterate) *qp.Direction {
	if r.lastModel == nil {
		return nil
	}
	return r.Sub.ComputeSecondOrderCorrection(p, r.lastModel, trial)
}

// Notify finalizes the RESTORATION→OPTIMALITY transition once an
// un-relaxed direction's trial has been accepted (spec.md §4.2.1 step 3),
// signalling a strategy reset on that transition, and on acceptance of any
// relaxed trial rewrites its constraint multipliers to ±1 per partition
// (spec.md §4.2.1 step 5, the exact restoration multiplier).
func (r *FeasibilityRestoration) Notify(p *problem.Problem, trial *iterate.Iterate, accepted bool) {
	if !accepted {
		return
	}
	if r.lastRelaxed {
		rewriteRestorationMultipliers(trial, r.lastPartition)
		return
	}
	if r.phase == FeasibilityRestorationPhase {
		r.phase = Optimality
		r.resetPending = true
	}
}

func (r *FeasibilityRestoration) LastPredictedReductionModel() subproblem.PredictedReduction {
	return r.lastPR
}

func (r *FeasibilityRestoration) ConsumeStrategyReset() bool {
	pending := r.resetPending
	r.resetPending = false
	return pending
}

// ComputeProgressMeasures substitutes spec.md §4.2.1 step 4's
// restoration-phase measures (feasibility measure = total constraint
// violation, optimality measure = violation of infeasible constraints
// only) while a restoration is in progress, so the filter compares like
// with like inside the phase; outside restoration it defers to the
// wrapped Subproblem's own measures.
func (r *FeasibilityRestoration) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	if r.phase == FeasibilityRestorationPhase && r.lastPartition != nil {
		c := it.Constraints()
		total := p.ConstraintViolation(c, problem.L1)
		infeasibleOnly := p.ConstraintViolationSubset(c, r.lastPartition.Infeasible, problem.L1)
		return total, infeasibleOnly
	}
	return r.Sub.ComputeProgressMeasures(p, it)
}

// restorationModel builds the σ=0 feasibility objective spec.md §4.2.1
// step 2 describes: the quadratic term is dropped entirely (not merely
// left untouched), the gradient points toward reducing the partition's
// violation, and each infeasible constraint's non-violated bound is
// relaxed to ±∞ so only the violated side remains binding.
func restorationModel(model *subproblem.Model, partition *iterate.ConstraintPartition) *subproblem.Model {
	n := model.N
	restored := &subproblem.Model{
		N:                   n,
		M:                   model.M,
		Gradient:            constraintViolationObjective(n, model.Constraints, partition),
		Constraints:         relaxNonViolatedBounds(model.Constraints, partition),
		Lower:               model.Lower,
		Upper:               model.Upper,
		ObjectiveMultiplier: 0,
	}
	if model.Hessian != nil {
		restored.Hessian = make([]float64, len(model.Hessian))
	}
	return restored
}

// relaxNonViolatedBounds returns a copy of rows with, for each infeasible
// constraint, the bound on the side that is not violated relaxed to ±∞ —
// only the violated side stays binding during restoration.
func relaxNonViolatedBounds(rows []qp.LinearConstraint, partition *iterate.ConstraintPartition) []qp.LinearConstraint {
	out := make([]qp.LinearConstraint, len(rows))
	copy(out, rows)
	if partition == nil {
		return out
	}
	for _, j := range partition.Infeasible {
		row := out[j]
		switch partition.Sides[j] {
		case iterate.InfeasibleLower:
			row.Upper = math.Inf(1)
		case iterate.InfeasibleUpper:
			row.Lower = math.Inf(-1)
		}
		out[j] = row
	}
	return out
}

// rewriteRestorationMultipliers sets the constraint multiplier of every
// infeasible-partition constraint to ±1 (the sign matching which side was
// violated) on acceptance of a relaxed trial, then re-enforces the sign
// convention and recomputes residuals against the rewritten multipliers.
func rewriteRestorationMultipliers(trial *iterate.Iterate, partition *iterate.ConstraintPartition) {
	if partition == nil {
		return
	}
	m := trial.Multipliers.Clone()
	for _, j := range partition.Infeasible {
		if partition.Sides[j] == iterate.InfeasibleUpper {
			m.Constraints[j] = -1
		} else {
			m.Constraints[j] = 1
		}
	}
	trial.SetMultipliers(m)
}
