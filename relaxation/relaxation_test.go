// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/subproblem"
)

// TestStripElasticNeverLeaksElasticColumns is property P5: the Direction
// returned by stripElastic always has exactly n components, regardless of
// how many elastic variables were appended for the solve.
func TestStripElasticNeverLeaksElasticColumns(t *testing.T) {
	n, k := 2, 3
	augDir := &qp.Direction{D: []float64{0.1, 0.2, 1.0, 0.0, 0.5}}
	partition := &iterate.ConstraintPartition{}
	out := stripElastic(augDir, n, k, partition)
	require.Len(t, out.D, n)
	require.Equal(t, []float64{0.1, 0.2}, out.D)
}

// TestL1RelaxationResetRestoresInitialPenalty covers the "penalty reset"
// invariant spec.md scenario 6 names: after steering has backed μ off below
// its starting value, Reset must bring it back to InitialPenalty rather than
// resuming from wherever steering left it.
func TestL1RelaxationResetRestoresInitialPenalty(t *testing.T) {
	r := NewL1Relaxation(nil)
	r.Options.InitialPenalty = 1.0
	r.Options.DecreaseFactor = 0.1
	r.Options.MinPenalty = 1e-6
	r.mu = r.Options.InitialPenalty

	r.mu *= r.Options.DecreaseFactor
	r.mu *= r.Options.DecreaseFactor
	require.InDelta(t, 0.01, r.mu, 1e-9)
	require.Less(t, r.mu, r.Options.InitialPenalty)

	r.Reset()
	require.Equal(t, r.Options.InitialPenalty, r.mu)
}

// TestBuildElasticModelExtendsDimensionsByPartitionSize checks the
// augmented objective reads μf + Σ(n_j+p_j) (spec.md §4.2.2): elastic
// columns always carry a unit weight regardless of μ, while the x-part
// gradient/Hessian scale by μ.
func TestBuildElasticModelExtendsDimensionsByPartitionSize(t *testing.T) {
	model := &subproblem.Model{
		N:        2,
		Hessian:  []float64{1, 0, 0, 1},
		Gradient: []float64{2, -3},
		Constraints: []qp.LinearConstraint{
			{Row: []float64{1, 0}, Lower: 1, Upper: 1},
		},
		Lower: []float64{-1, -1},
		Upper: []float64{1, 1},
	}
	partition := iterate.NewConstraintPartition(1, func(j int) int { return -1 })
	aug := buildElasticModel(model, &partition, 10)
	require.Equal(t, 3, aug.N)
	require.Len(t, aug.Gradient, 3)
	require.Equal(t, 1.0, aug.Gradient[2])
	require.Equal(t, 20.0, aug.Gradient[0])
	require.Equal(t, -30.0, aug.Gradient[1])
	require.Len(t, aug.Constraints[0].Row, 3)
	require.Equal(t, 0.0, aug.Lower[2])

	zero := buildElasticModel(model, &partition, 0)
	require.Equal(t, 0.0, zero.Gradient[0])
	require.Equal(t, 1.0, zero.Gradient[2])
}
