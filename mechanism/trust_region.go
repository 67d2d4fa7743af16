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

// TrustRegionOptions tunes the radius update rule.
type TrustRegionOptions struct {
	InitialRadius               float64
	IncreaseFactor, DecreaseFactor float64
	MinRadius                   float64
	MaxRadius                   float64
}

// DefaultTrustRegionOptions mirrors the classical doubling/halving rule.
func DefaultTrustRegionOptions() TrustRegionOptions {
	return TrustRegionOptions{
		InitialRadius:  1.0,
		IncreaseFactor: 2.0,
		DecreaseFactor: 0.5,
		MinRadius:      1e-16,
		MaxRadius:      1e10,
	}
}

// TrustRegion implements the rebuild-and-resolve trust-region loop
// (spec.md §4.2): each rejected trial halves the radius and re-solves the
// subproblem against the smaller region; acceptance doubles the radius
// (capped) for the next outer iteration. The radius collapsing below
// MinRadius is reported as FatalCollapse.
type TrustRegion struct {
	Options TrustRegionOptions
	radius  float64
	lastObjectiveMultiplier float64
}

// NewTrustRegion builds a TrustRegion with the given options.
func NewTrustRegion(opt TrustRegionOptions) *TrustRegion {
	return &TrustRegion{Options: opt, radius: opt.InitialRadius}
}

func (t *TrustRegion) Initialize(initialControl float64) {
	if initialControl > 0 {
		t.radius = initialControl
	} else {
		t.radius = t.Options.InitialRadius
	}
}

func (t *TrustRegion) Control() float64 { return t.radius }

func (t *TrustRegion) LastObjectiveMultiplier() float64 { return t.lastObjectiveMultiplier }

func (t *TrustRegion) ComputeAcceptableIterate(
	p *problem.Problem,
	current *iterate.Iterate,
	relax relaxation.ConstraintRelaxation,
	strat strategy.GlobalizationStrategy,
	counters *iterate.Counters,
) (*iterate.Iterate, Outcome) {
	for {
		dir := relax.Solve(p, current, t.radius)
		if dir.Status != qp.Optimal {
			if !t.shrink() {
				return nil, FatalCollapse
			}
			continue
		}

		trial := current.Clone()
		x := make([]float64, len(current.X))
		for i := range x {
			x[i] = current.X[i] + dir.D[i]
		}
		trial.SetX(x)

		currentInfeasibility, currentObjective := relax.ComputeProgressMeasures(p, current)
		trialInfeasibility, trialObjective := relax.ComputeProgressMeasures(p, trial)
		predicted := relax.LastPredictedReductionModel().Predict(1)
		in := strategy.AcceptanceInput{
			CurrentInfeasibility: currentInfeasibility,
			CurrentObjective:     currentObjective,
			TrialInfeasibility:   trialInfeasibility,
			TrialObjective:       trialObjective,
			PredictedReduction:   predicted,
		}
		if strat.CheckAcceptance(in) {
			t.radius = minFloat(t.radius*t.Options.IncreaseFactor, t.Options.MaxRadius)
			t.lastObjectiveMultiplier = dir.ObjectiveMultiplier
			relax.Notify(p, trial, true)
			return trial, Accepted
		}

		relax.Notify(p, trial, false)
		if !t.shrink() {
			return nil, FatalCollapse
		}
	}
}

func (t *TrustRegion) shrink() bool {
	t.radius *= t.Options.DecreaseFactor
	return t.radius >= t.Options.MinRadius
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
