// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import (
	"math"

	"github.com/curioloop/nlpsolve/filter"
)

// FilterStrategyOptions tunes the switching condition and Armijo test
// (spec.md §4.2's δ, s_θ, s_φ, η, γ, β constants).
type FilterStrategyOptions struct {
	Delta, SThetaExponent, SPhiExponent float64
	ArmijoEta                          float64
	FilterBeta, FilterGamma            float64
	UpperBoundFactor                   float64 // fact in upper_bound = max(ubd, fact·θ_initial)
}

// DefaultFilterStrategyOptions mirrors the constants Uno/filterSQP publish.
func DefaultFilterStrategyOptions() FilterStrategyOptions {
	return FilterStrategyOptions{
		Delta:             1.0,
		SThetaExponent:    1.1,
		SPhiExponent:      2.3,
		ArmijoEta:         1e-4,
		FilterBeta:        0.9999,
		FilterGamma:       1e-5,
		UpperBoundFactor:  1e4,
	}
}

// FilterStrategy accepts a trial iterate either via the switching condition
// plus an Armijo sufficient-decrease test on the objective, or by filter
// membership, recording the trial in the filter whenever the switching
// condition does not hold (spec.md §4.2 FilterStrategy).
type FilterStrategy struct {
	Filter  *filter.Filter
	Options FilterStrategyOptions
}

// NewFilterStrategy builds a FilterStrategy with its own internal filter,
// seeded from the initial infeasibility θ_initial.
func NewFilterStrategy(thetaInitial float64, opt FilterStrategyOptions) *FilterStrategy {
	ubd := math.Max(1.0, opt.UpperBoundFactor*thetaInitial)
	f := filter.New(ubd, opt.FilterBeta, opt.FilterGamma)
	f.Reset()
	return &FilterStrategy{Filter: f, Options: opt}
}

func (s *FilterStrategy) Reset() { s.Filter.Reset() }

// CheckAcceptance implements spec.md §4.2's if/else test: when the switching
// condition Δm ≥ δ·θ_k^{s_θ} holds (using the current iterate's
// infeasibility), acceptance is decided solely by the Armijo sufficient-
// decrease test on the objective — a switching trial that fails Armijo is
// rejected outright, it does not fall through to filter membership.
// Otherwise the trial must satisfy filter membership, and is then added to
// the filter with margin.
func (s *FilterStrategy) CheckAcceptance(in AcceptanceInput) bool {
	opt := s.Options
	switching := opt.Delta*math.Pow(in.CurrentInfeasibility, opt.SThetaExponent) <= in.PredictedReduction &&
		in.PredictedReduction > 0

	if switching {
		armijo := in.CurrentObjective-in.TrialObjective >= opt.ArmijoEta*in.PredictedReduction
		return armijo
	}

	if !s.Filter.AcceptsUnconditionally(in.TrialInfeasibility, in.TrialObjective) {
		return false
	}
	s.Filter.Notify(in.TrialInfeasibility, in.TrialObjective)
	return true
}
