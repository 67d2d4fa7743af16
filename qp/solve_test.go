// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSolveQPSimpleEquality mirrors spec.md §8 scenario 5: minimize
// ½(x1²+x2²) s.t. x1+x2=1 from x0=(0,0) should return direction (0.5,0.5).
func TestSolveQPSimpleEquality(t *testing.T) {
	n := 2
	hessian := []float64{1, 0, 0, 1}
	gradient := []float64{0, 0}
	constraints := []LinearConstraint{{Row: []float64{1, 1}, Lower: 1, Upper: 1}}
	lower := []float64{-1e30, -1e30}
	upper := []float64{1e30, 1e30}

	dir := SolveQP(n, hessian, gradient, constraints, lower, upper, DefaultOptions())
	require.Equal(t, Optimal, dir.Status)
	require.InDelta(t, 0.5, dir.D[0], 1e-6)
	require.InDelta(t, 0.5, dir.D[1], 1e-6)
}

func TestSolveQPBoxBounds(t *testing.T) {
	n := 1
	hessian := []float64{2}
	gradient := []float64{-4} // minimize d^2 - 4d -> unconstrained optimum d=2
	lower := []float64{-1}
	upper := []float64{1}

	dir := SolveQP(n, hessian, gradient, nil, lower, upper, DefaultOptions())
	require.Equal(t, Optimal, dir.Status)
	require.InDelta(t, 1.0, dir.D[0], 1e-6)
}

func TestSolveLPUnbounded(t *testing.T) {
	n := 1
	gradient := []float64{-1} // minimize -d, unbounded above
	lower := []float64{-1e30}
	upper := []float64{1e30}

	dir := SolveLP(n, gradient, nil, lower, upper, DefaultOptions())
	require.Equal(t, UnboundedProblem, dir.Status)
}

func TestPackedLDLTRegularizesIndefinite(t *testing.T) {
	// indefinite 2x2 Hessian: eigenvalues +1, -1
	h := []float64{0, 1, 1, 0}
	packed, ok := packedLDLT(h, 2)
	require.True(t, ok)
	require.False(t, math.IsNaN(packed[0]))
}
