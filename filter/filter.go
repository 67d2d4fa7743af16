// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filter implements the (infeasibility, objective) pareto filter a
// FilterStrategy uses to accept or reject a trial iterate (spec.md §4.2).
package filter

import "math"

// Entry is one (θ, φ) pair recorded in the filter. The acceptance margins
// applied when testing a new candidate against it live on Filter (Beta,
// Gamma), not on the entry.
type Entry struct {
	Infeasibility float64
	Objective     float64
}

// Filter is an ordered set of entries no one of which dominates another
// (θ' ≤ θ and φ' ≤ φ never holds for two distinct entries once margins are
// applied), plus an upper bound on tolerated infeasibility.
type Filter struct {
	entries []Entry
	// UpperBound caps the infeasibility any accepted iterate may have.
	UpperBound float64
	// Beta and Gamma are the filter's slope margins (spec.md §4.2's
	// acceptance test θ' ≤ β·θ_k OR φ' ≤ φ_k − γ·θ_k).
	Beta, Gamma float64
}

// New builds an empty filter with the given upper bound and margins.
func New(upperBound, beta, gamma float64) *Filter {
	return &Filter{UpperBound: upperBound, Beta: beta, Gamma: gamma}
}

// Reset empties the filter back to {(upperBound, +∞)}, the single sentinel
// entry that only bounds infeasibility (spec.md §4.2 reset()): its objective
// is +∞ so the φ' ≤ φ_k − γ·θ_k disjunct holds against it for every finite
// candidate objective, and the sentinel restricts candidates solely through
// the infeasibility bound.
func (f *Filter) Reset() {
	f.entries = []Entry{{Infeasibility: f.UpperBound, Objective: math.Inf(1)}}
}

// AcceptsUnconditionally reports whether a candidate is accepted against
// every current filter entry, without regard to whether it also passes a
// switching/Armijo test upstream (spec.md §4.2's filter membership test:
// θ' ≤ β·θ_k OR φ' ≤ φ_k − γ·θ_k for every k).
func (f *Filter) AcceptsUnconditionally(infeasibility, objective float64) bool {
	if infeasibility > f.UpperBound {
		return false
	}
	for _, e := range f.entries {
		if !(infeasibility <= f.Beta*e.Infeasibility || objective <= e.Objective-f.Gamma*e.Infeasibility) {
			return false
		}
	}
	return true
}

// Notify unconditionally records a new entry and removes any entry the new
// one dominates (spec.md §4.2 notify(iterate): entries with both
// infeasibility and objective no better than the new entry become
// redundant).
func (f *Filter) Notify(infeasibility, objective float64) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Infeasibility >= infeasibility && e.Objective >= objective {
			continue // dominated by the new entry, drop it
		}
		kept = append(kept, e)
	}
	f.entries = append(kept, Entry{Infeasibility: infeasibility, Objective: objective})
}

// Entries exposes a read-only copy of the current filter, used by
// statistics reporting.
func (f *Filter) Entries() []Entry {
	return append([]Entry(nil), f.entries...)
}
