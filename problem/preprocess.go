// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/nlpsolve/linalg"
)

// EnforceLinearConstraints projects x0 onto the linear-equality manifold of
// the problem's equality constraints, before the first outer iteration. No
// per-constraint linearity test is made: when the problem as a whole is
// classified Linear or Quadratic, every equality row is taken to be linear
// (c(x0 + d) == c(x0) + J·d for any d). This mirrors Uno's
// Preprocessing::enforce_linear_constraints (original_source/uno/
// optimization/Preprocessing.hpp): linear constraints are solved exactly up
// front rather than left for the SQP iteration to discover, since a linear
// constraint's Jacobian does not change and violating it at x0 wastes an
// outer iteration. Only constraints whose bounds are equal (cL == cU,
// i.e. equalities) are enforced; inequalities are left to the solver.
//
// It is a no-op unless p.Classify is Linear or Quadratic, matching
// spec.md §5's "projecting x0 onto the linear constraint manifold when the
// model is classified Linear or Quadratic".
func EnforceLinearConstraints(p *Problem, x0 []float64) []float64 {
	if p.Classify != Linear && p.Classify != Quadratic {
		return x0
	}

	n, m := p.NumVariables, p.NumConstraints
	if m == 0 {
		return x0
	}

	var eqRows []int
	for j := 0; j < m; j++ {
		b := p.ConstraintBounds[j]
		if b.Lower == b.Upper {
			eqRows = append(eqRows, j)
		}
	}
	if len(eqRows) == 0 {
		return x0
	}

	rows := make([]*linalg.SparseVector, m)
	for j := range rows {
		rows[j] = linalg.NewSparseVector(n)
	}
	p.EvaluateConstraintJacobian(x0, rows)

	c := make([]float64, m)
	p.EvaluateConstraints(x0, c)

	k := len(eqRows)
	A := mat.NewDense(k, n, nil)
	r := mat.NewVecDense(k, nil)
	for i, j := range eqRows {
		dense := rows[j].ToDense(n)
		A.SetRow(i, dense)
		r.SetVec(i, p.ConstraintBounds[j].Lower-c[j])
	}

	// Minimum-norm displacement solving A·d = r via the normal equations of
	// the pseudo-inverse d = Aᵀ(AAᵀ)⁻¹r, adequate here because k ≤ n linear
	// equalities are expected to be few relative to the variable count.
	var AAt mat.Dense
	AAt.Mul(A, A.T())

	var AAtInv mat.Dense
	if err := AAtInv.Inverse(&AAt); err != nil {
		return x0 // singular equality system: leave x0 untouched, let the solver discover infeasibility
	}

	var y mat.VecDense
	y.MulVec(&AAtInv, r)

	var d mat.VecDense
	d.MulVec(A.T(), &y)

	xNew := make([]float64, n)
	for i := range xNew {
		v := x0[i] + d.AtVec(i)
		bnd := p.VariablesBounds[i]
		if v < bnd.Lower {
			v = bnd.Lower
		}
		if v > bnd.Upper {
			v = bnd.Upper
		}
		xNew[i] = v
	}
	return xNew
}
