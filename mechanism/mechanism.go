// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mechanism implements the globalization mechanisms spec.md §4.2
// names for turning a subproblem direction into an accepted step:
// trust-region radius management and backtracking line search, plus a third,
// standalone mechanism: a More-Thuente exact line search adapted from the
// teacher's L-BFGS-B minpack port.
package mechanism

import (
	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/relaxation"
	"github.com/curioloop/nlpsolve/strategy"
)

// Outcome reports the result of one ComputeAcceptableIterate call.
type Outcome int

const (
	// Accepted: a trial iterate was found and accepted by the strategy.
	Accepted Outcome = iota
	// FatalCollapse: the mechanism's control parameter (radius or step
	// length) shrank below its floor without finding an acceptable trial;
	// the driver then stops and reports NotOptimal.
	FatalCollapse
)

// GlobalizationMechanism drives the direction-to-accepted-step loop
// (spec.md §4.2): build the subproblem (possibly more than once, as the
// control parameter shrinks), test each trial with the strategy, and report
// whether a step was found or the mechanism collapsed.
type GlobalizationMechanism interface {
	Initialize(initialControl float64)
	ComputeAcceptableIterate(
		p *problem.Problem,
		current *iterate.Iterate,
		relax relaxation.ConstraintRelaxation,
		strat strategy.GlobalizationStrategy,
		counters *iterate.Counters,
	) (trial *iterate.Iterate, outcome Outcome)
	// Control returns the mechanism's current control parameter (trust
	// region radius or initial line-search step length), reported in the
	// statistics table.
	Control() float64
	// LastObjectiveMultiplier returns σ from the Direction the last
	// accepted trial was built from (spec.md §4.5 distinguishes a genuine
	// KKT point from a Fritz-John point by σ > 0).
	LastObjectiveMultiplier() float64
}
