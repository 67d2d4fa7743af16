// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strategy implements the acceptance test a globalization mechanism
// consults before committing to a trial step (spec.md §4.2): the
// filter-based strategy and the l1-merit strategy.
package strategy

// AcceptanceInput bundles the quantities a GlobalizationStrategy needs to
// judge a trial step, all already computed by the caller (mechanism +
// subproblem) so the strategy itself stays free of evaluation counters.
type AcceptanceInput struct {
	CurrentInfeasibility, CurrentObjective float64
	TrialInfeasibility, TrialObjective     float64
	// PredictedReduction is Δm, the subproblem's local model's predicted
	// objective decrease at the trial step length (spec.md §4.2's switching
	// condition Δm ≥ δ·θ^{s_θ}).
	PredictedReduction float64
}

// GlobalizationStrategy decides whether a trial iterate is good enough to
// replace the current one (spec.md §4.2 check_acceptance).
type GlobalizationStrategy interface {
	CheckAcceptance(in AcceptanceInput) bool
	Reset()
}
