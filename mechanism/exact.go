// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/lbfgsb"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/relaxation"
	"github.com/curioloop/nlpsolve/strategy"
)

// ExactLineSearchOptions tunes the More-Thuente search driven through
// lbfgsb.ScalarSearch.
type ExactLineSearchOptions struct {
	Penalty          float64 // μ in the l1 merit μf(x)+θ(x) the search minimizes
	InitialStep      float64
	FiniteDiffStep   float64
	Tol              lbfgsb.SearchTol
}

// DefaultExactLineSearchOptions mirrors lbfgsb's own searchAlpha/searchBeta
// Wolfe tolerances.
func DefaultExactLineSearchOptions() ExactLineSearchOptions {
	return ExactLineSearchOptions{
		Penalty:        1.0,
		InitialStep:    1.0,
		FiniteDiffStep: 1e-6,
		Tol: lbfgsb.SearchTol{
			Alpha: 1e-3,
			Beta:  0.9,
			Eps:   1e-10,
			Lower: 1e-16,
			Upper: 1e10,
		},
	}
}

// ExactLineSearch is the More-Thuente-accurate alternative to
// BacktrackingLineSearch: instead of geometric backtracking, it drives the
// teacher's lbfgsb.ScalarSearch (the dcsrch/dcstep Wolfe-condition search)
// along the subproblem direction using the l1 merit function, with the
// merit function's directional derivative estimated by forward difference
// since μf+θ is not everywhere differentiable (spec.md §4.2's "exact" line
// search, adapted here rather than copied since ScalarSearch is already a
// reusable exported entry point in the teacher package).
type ExactLineSearch struct {
	Options                 ExactLineSearchOptions
	unboundedTR             float64
	control                 float64
	lastObjectiveMultiplier float64
}

// NewExactLineSearch builds an ExactLineSearch; unboundedTR bounds the
// subproblem's trust region so the direction is not itself clipped.
func NewExactLineSearch(opt ExactLineSearchOptions, unboundedTR float64) *ExactLineSearch {
	return &ExactLineSearch{Options: opt, unboundedTR: unboundedTR, control: opt.InitialStep}
}

func (e *ExactLineSearch) Initialize(initialControl float64) {
	if initialControl > 0 {
		e.control = initialControl
	} else {
		e.control = e.Options.InitialStep
	}
}

func (e *ExactLineSearch) Control() float64 { return e.control }

func (e *ExactLineSearch) LastObjectiveMultiplier() float64 { return e.lastObjectiveMultiplier }

func (e *ExactLineSearch) ComputeAcceptableIterate(
	p *problem.Problem,
	current *iterate.Iterate,
	relax relaxation.ConstraintRelaxation,
	strat strategy.GlobalizationStrategy,
	counters *iterate.Counters,
) (*iterate.Iterate, Outcome) {
	dir := relax.Solve(p, current, e.unboundedTR)
	if dir.Status != qp.Optimal || dir.PredictedObjective >= 0 {
		return nil, FatalCollapse
	}

	n := len(current.X)
	merit := func(stp float64) (float64, *iterate.Iterate) {
		trial := current.Clone()
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			x[i] = current.X[i] + stp*dir.D[i]
		}
		trial.SetX(x)
		infeasibility, objective := relax.ComputeProgressMeasures(p, trial)
		return e.Options.Penalty*objective + infeasibility, trial
	}
	derivative := func(stp, value float64) float64 {
		h := e.Options.FiniteDiffStep
		fwd, _ := merit(stp + h)
		return (fwd - value) / h
	}

	f0, _ := merit(0)
	g0 := derivative(0, f0)
	if g0 >= 0 {
		return nil, FatalCollapse
	}

	stp := e.control
	task := lbfgsb.SearchStart
	ctx := &lbfgsb.SearchCtx{}
	var last *iterate.Iterate
	f, g := f0, g0

	for iter := 0; iter < 40; iter++ {
		newStp, newTask := lbfgsb.ScalarSearch(f, g, stp, task, &e.Options.Tol, ctx)
		stp, task = newStp, newTask

		if task&lbfgsb.SearchError != 0 {
			return nil, FatalCollapse
		}
		if task&(lbfgsb.SearchConv|lbfgsb.SearchWarn) != 0 {
			break
		}

		var value float64
		value, last = merit(stp)
		f = value
		g = derivative(stp, value)
	}

	if last == nil {
		last = current.Clone()
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			x[i] = current.X[i] + stp*dir.D[i]
		}
		last.SetX(x)
	}

	currentInfeasibility, currentObjective := relax.ComputeProgressMeasures(p, current)
	trialInfeasibility, trialObjective := relax.ComputeProgressMeasures(p, last)
	in := strategy.AcceptanceInput{
		CurrentInfeasibility: currentInfeasibility,
		CurrentObjective:     currentObjective,
		TrialInfeasibility:   trialInfeasibility,
		TrialObjective:       trialObjective,
		PredictedReduction:   relax.LastPredictedReductionModel().Predict(stp),
	}
	if strat.CheckAcceptance(in) {
		e.control = stp
		e.lastObjectiveMultiplier = dir.ObjectiveMultiplier
		relax.Notify(p, last, true)
		return last, Accepted
	}
	relax.Notify(p, last, false)
	return nil, FatalCollapse
}
