// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/nlpsolve/linalg"
)

// linearEqualityProblem is x + y = 1, classified Linear, with x0 = (0, 0)
// violating the equality.
func linearEqualityProblem() *Problem {
	return New(Problem{
		NumVariables:    2,
		NumConstraints:  1,
		VariablesBounds: []Bound{{Lower: -10, Upper: 10}, {Lower: -10, Upper: 10}},
		ConstraintBounds: []Bound{{Lower: 1, Upper: 1}},
		Objective:        func(x []float64) float64 { return x[0]*x[0] + x[1]*x[1] },
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, 2*x[0])
			g.Set(1, 2*x[1])
		},
		Constraints: func(x []float64, out []float64) { out[0] = x[0] + x[1] },
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			rows[0].Set(0, 1)
			rows[0].Set(1, 1)
		},
		Classify: Linear,
	})
}

func TestEnforceLinearConstraintsProjectsOntoEqualityManifold(t *testing.T) {
	p := linearEqualityProblem()
	x0 := []float64{0, 0}
	xNew := EnforceLinearConstraints(p, x0)

	c := make([]float64, 1)
	p.EvaluateConstraints(xNew, c)
	require.InDelta(t, 1.0, c[0], 1e-9)
}

func TestEnforceLinearConstraintsNoOpWhenNotLinearOrQuadratic(t *testing.T) {
	p := linearEqualityProblem()
	p.Classify = Nonlinear
	x0 := []float64{0, 0}
	xNew := EnforceLinearConstraints(p, x0)
	require.Equal(t, x0, xNew)
}

func TestEnforceLinearConstraintsLeavesInequalitiesAlone(t *testing.T) {
	p := New(Problem{
		NumVariables:     1,
		NumConstraints:   1,
		VariablesBounds:  []Bound{{Lower: -10, Upper: 10}},
		ConstraintBounds: []Bound{{Lower: 0, Upper: 5}},
		Objective:        func(x []float64) float64 { return x[0] * x[0] },
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, 2*x[0])
		},
		Constraints:   func(x []float64, out []float64) { out[0] = x[0] },
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) { rows[0].Set(0, 1) },
		Classify:      Linear,
	})
	x0 := []float64{-1}
	xNew := EnforceLinearConstraints(p, x0)
	require.Equal(t, x0, xNew) // no equality rows to project onto
}
