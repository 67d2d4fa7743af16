// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/relaxation"
	"github.com/curioloop/nlpsolve/strategy"
)

// BacktrackingLineSearchOptions tunes the contraction loop.
type BacktrackingLineSearchOptions struct {
	InitialStep      float64
	ContractionRatio float64
	MinStep          float64
}

// DefaultBacktrackingLineSearchOptions mirrors the classical Armijo
// backtracking schedule.
func DefaultBacktrackingLineSearchOptions() BacktrackingLineSearchOptions {
	return BacktrackingLineSearchOptions{
		InitialStep:      1.0,
		ContractionRatio: 0.5,
		MinStep:          1e-16,
	}
}

// BacktrackingLineSearch solves the subproblem once (with an effectively
// unconstrained trust region) and then backtracks the step length along
// the resulting direction until the strategy accepts a trial, reporting
// FatalCollapse if the step length underflows MinStep without a descent
// direction being validated (spec.md §4.2). If the full step is rejected,
// it tries one second-order-corrected trial before continuing to
// backtrack (spec.md §4.1's Maratos-effect correction).
type BacktrackingLineSearch struct {
	Options                 BacktrackingLineSearchOptions
	unboundedTR             float64
	stepLength              float64
	lastObjectiveMultiplier float64
}

// NewBacktrackingLineSearch builds a BacktrackingLineSearch; unboundedTR is
// the trust-region radius handed to the subproblem so the direction is not
// itself clipped (spec.md §4.2 treats the line-search mechanism's
// subproblem as unconstrained in step length).
func NewBacktrackingLineSearch(opt BacktrackingLineSearchOptions, unboundedTR float64) *BacktrackingLineSearch {
	return &BacktrackingLineSearch{Options: opt, unboundedTR: unboundedTR, stepLength: opt.InitialStep}
}

func (l *BacktrackingLineSearch) Initialize(initialControl float64) {
	if initialControl > 0 {
		l.stepLength = initialControl
	} else {
		l.stepLength = l.Options.InitialStep
	}
}

func (l *BacktrackingLineSearch) Control() float64 { return l.stepLength }

func (l *BacktrackingLineSearch) LastObjectiveMultiplier() float64 { return l.lastObjectiveMultiplier }

func (l *BacktrackingLineSearch) ComputeAcceptableIterate(
	p *problem.Problem,
	current *iterate.Iterate,
	relax relaxation.ConstraintRelaxation,
	strat strategy.GlobalizationStrategy,
	counters *iterate.Counters,
) (*iterate.Iterate, Outcome) {
	dir := relax.Solve(p, current, l.unboundedTR)
	if dir.Status != qp.Optimal {
		return nil, FatalCollapse
	}
	if !isDescentDirection(dir) {
		return nil, FatalCollapse
	}

	currentInfeasibility, currentObjective := relax.ComputeProgressMeasures(p, current)
	model := relax.LastPredictedReductionModel()

	n := len(current.X)
	alpha := l.Options.InitialStep
	for alpha >= l.Options.MinStep {
		trial := current.Clone()
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			x[i] = current.X[i] + alpha*dir.D[i]
		}
		trial.SetX(x)

		trialInfeasibility, trialObjective := relax.ComputeProgressMeasures(p, trial)
		in := strategy.AcceptanceInput{
			CurrentInfeasibility: currentInfeasibility,
			CurrentObjective:     currentObjective,
			TrialInfeasibility:   trialInfeasibility,
			TrialObjective:       trialObjective,
			PredictedReduction:   model.Predict(alpha),
		}
		if strat.CheckAcceptance(in) {
			l.stepLength = alpha
			l.lastObjectiveMultiplier = dir.ObjectiveMultiplier
			relax.Notify(p, trial, true)
			return trial, Accepted
		}
		relax.Notify(p, trial, false)

		if alpha == l.Options.InitialStep {
			if soc, ok := l.trySecondOrderCorrection(p, current, relax, strat, trial, currentInfeasibility, currentObjective); ok {
				l.stepLength = alpha
				l.lastObjectiveMultiplier = dir.ObjectiveMultiplier
				relax.Notify(p, soc, true)
				return soc, Accepted
			}
		}

		alpha *= l.Options.ContractionRatio
	}
	return nil, FatalCollapse
}

// trySecondOrderCorrection attempts the classical Fletcher correction for
// the Maratos effect (spec.md §4.1) once, right after a rejected full step:
// it re-solves the last subproblem's model recentred on the rejected
// trial's actual constraint values and, if the corrected trial passes the
// strategy's acceptance test, returns it in place of continuing to
// backtrack the plain direction.
func (l *BacktrackingLineSearch) trySecondOrderCorrection(
	p *problem.Problem,
	current *iterate.Iterate,
	relax relaxation.ConstraintRelaxation,
	strat strategy.GlobalizationStrategy,
	rejected *iterate.Iterate,
	currentInfeasibility, currentObjective float64,
) (*iterate.Iterate, bool) {
	soc := relax.SecondOrderCorrection(p, rejected)
	if soc == nil || soc.Status != qp.Optimal {
		return nil, false
	}

	n := len(current.X)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = current.X[i] + soc.D[i]
	}
	trial := current.Clone()
	trial.SetX(x)

	trialInfeasibility, trialObjective := relax.ComputeProgressMeasures(p, trial)
	in := strategy.AcceptanceInput{
		CurrentInfeasibility: currentInfeasibility,
		CurrentObjective:     currentObjective,
		TrialInfeasibility:   trialInfeasibility,
		TrialObjective:       trialObjective,
		PredictedReduction:   -soc.PredictedObjective,
	}
	if !strat.CheckAcceptance(in) {
		return nil, false
	}
	return trial, true
}

// isDescentDirection reports whether the subproblem's own predicted
// objective change is negative, the cheap proxy spec.md §4.2 uses before
// entering the contraction loop (a non-descent direction means the
// linearized model itself is unhelpful and backtracking cannot save it).
func isDescentDirection(dir *qp.Direction) bool {
	return dir.PredictedObjective < 0
}
