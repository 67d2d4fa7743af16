// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/linalg"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
)

func equalityConstrainedQuadratic() *problem.Problem {
	return problem.New(problem.Problem{
		NumVariables:   2,
		NumConstraints: 1,
		VariablesBounds: []problem.Bound{
			{Lower: -1e30, Upper: 1e30},
			{Lower: -1e30, Upper: 1e30},
		},
		ConstraintBounds: []problem.Bound{{Lower: 1, Upper: 1}},
		Objective: func(x []float64) float64 {
			return 0.5 * (x[0]*x[0] + x[1]*x[1])
		},
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, x[0])
			g.Set(1, x[1])
		},
		Constraints: func(x []float64, out []float64) {
			out[0] = x[0] + x[1]
		},
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			rows[0].Set(0, 1)
			rows[0].Set(1, 1)
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
			h.Add(0, 0, sigma)
			h.Add(1, 1, sigma)
		},
	})
}

func TestQPSubproblemSolvesSimpleEqualityQP(t *testing.T) {
	p := equalityConstrainedQuadratic()
	counters := &iterate.Counters{}
	it := iterate.New(p, []float64{0, 0}, counters)

	sub := NewQPSubproblem(nil)
	sub.Initialize(p, it)
	model := sub.CreateCurrentSubproblem(p, it, 10)
	dir := sub.Solve(model)

	require.Equal(t, qp.Optimal, dir.Status)
	require.InDelta(t, 0.5, dir.D[0], 1e-6)
	require.InDelta(t, 0.5, dir.D[1], 1e-6)
}

func TestZeroHessianTurnsQPIntoLinearModel(t *testing.T) {
	p := equalityConstrainedQuadratic()
	counters := &iterate.Counters{}
	it := iterate.New(p, []float64{0, 0}, counters)

	sub := NewQPSubproblem(ZeroHessian{})
	sub.Initialize(p, it)
	model := sub.CreateCurrentSubproblem(p, it, 10)
	for _, v := range model.Hessian {
		require.Zero(t, v)
	}
}

func TestLBFGSHessianReplaysBoundedHistory(t *testing.T) {
	h := NewLBFGSHessian(2)
	h.Reset(2)
	h.Update([]float64{1, 0}, []float64{2, 0})
	h.Update([]float64{0, 1}, []float64{0, 2})
	h.Update([]float64{1, 1}, []float64{2, 2}) // third pair evicts the oldest

	require.Len(t, h.history, 2)
}

func TestGaussNewtonHessianIsJacobianGramMatrix(t *testing.T) {
	p := equalityConstrainedQuadratic()
	counters := &iterate.Counters{}
	it := iterate.New(p, []float64{0, 0}, counters)

	gn := GaussNewtonHessian{}
	dense := gn.Evaluate(p, it, 1)
	// J = [1, 1], so JᵀJ = [[1,1],[1,1]]
	require.InDelta(t, 1.0, dense[0], 1e-9)
	require.InDelta(t, 1.0, dense[1], 1e-9)
	require.InDelta(t, 1.0, dense[2], 1e-9)
	require.InDelta(t, 1.0, dense[3], 1e-9)
}
