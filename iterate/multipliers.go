// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iterate holds the candidate-point data model: Multipliers, the
// lazily-cached Iterate, its residuals and progress measures, and the
// ConstraintPartition classification used during feasibility restoration
// (spec.md §3).
package iterate

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Multipliers is the triple (λ_c, z_L, z_U) of constraint and bound duals.
// Sign convention (spec.md I4): z_L[i] ≥ 0 when the lower bound is active,
// z_U[i] ≤ 0 when the upper bound is active.
type Multipliers struct {
	Constraints []float64 // λ_c ∈ ℝᵐ
	LowerBounds []float64 // z_L ∈ ℝⁿ
	UpperBounds []float64 // z_U ∈ ℝⁿ
}

// NewMultipliers allocates a zeroed Multipliers triple for n variables and
// m constraints.
func NewMultipliers(n, m int) Multipliers {
	return Multipliers{
		Constraints: make([]float64, m),
		LowerBounds: make([]float64, n),
		UpperBounds: make([]float64, n),
	}
}

// EnforceSignConvention clamps z_L to [0, +∞) and z_U to (-∞, 0], the
// invariant (I4) the spec requires on every write.
func (m *Multipliers) EnforceSignConvention() {
	for i, z := range m.LowerBounds {
		if z < 0 {
			m.LowerBounds[i] = 0
		}
	}
	for i, z := range m.UpperBounds {
		if z > 0 {
			m.UpperBounds[i] = 0
		}
	}
}

// Clone returns a deep copy.
func (m Multipliers) Clone() Multipliers {
	return Multipliers{
		Constraints: append([]float64(nil), m.Constraints...),
		LowerBounds: append([]float64(nil), m.LowerBounds...),
		UpperBounds: append([]float64(nil), m.UpperBounds...),
	}
}

// InfNorm returns ‖·‖∞ across all three multiplier vectors, used by the
// least-squares multiplier-estimation acceptance test (spec.md §4.1):
// the candidate λ is kept iff this norm does not exceed multipliers_max_norm.
func (m Multipliers) InfNorm() float64 {
	inf := math.Inf(1)
	maxAbs := 0.0
	if len(m.Constraints) > 0 {
		maxAbs = math.Max(maxAbs, floats.Norm(m.Constraints, inf))
	}
	if len(m.LowerBounds) > 0 {
		maxAbs = math.Max(maxAbs, floats.Norm(m.LowerBounds, inf))
	}
	if len(m.UpperBounds) > 0 {
		maxAbs = math.Max(maxAbs, floats.Norm(m.UpperBounds, inf))
	}
	return maxAbs
}

// L1Norm is the sum of absolute values across constraint multipliers only,
// used in the l1-relaxation steering rule's error_0 computation (spec.md
// §4.2.2).
func (m Multipliers) L1Norm() float64 {
	if len(m.Constraints) == 0 {
		return 0
	}
	return floats.Norm(m.Constraints, 1)
}
