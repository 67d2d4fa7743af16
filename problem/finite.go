// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"github.com/curioloop/nlpsolve/linalg"
	"github.com/curioloop/nlpsolve/numdiff"
)

// ScalarFuncs is the bare-function surface a caller supplies when it has no
// analytic derivatives: f and c alone. Gradients and the Jacobian are
// estimated by central differences (numdiff.Central), and the Hessian of
// the Lagrangian is approximated by forward-differencing the already
//-differenced gradient/Jacobian combination. This is a supplement over
// spec.md (§5 of SPEC_FULL.md): the distilled spec assumes analytic
// evaluators are always available.
type ScalarFuncs struct {
	N, M             int
	Objective        func(x []float64) float64
	Constraints      func(x []float64, out []float64)
	VariablesBounds  []Bound
	ConstraintBounds []Bound
	ObjectiveSign    float64
	Classify         Classification
	Name             string
}

// FromScalarFuncs builds a Problem whose gradient, Jacobian and Hessian
// evaluators are all finite-difference approximations driven by
// numdiff.ApproxSpec, reusing the teacher's numdiff package unchanged for
// the actual differencing arithmetic.
func FromScalarFuncs(s ScalarFuncs) *Problem {
	n, m := s.N, s.M

	bounds := make([]numdiff.Bound, n)
	for i, b := range s.VariablesBounds {
		bounds[i] = numdiff.Bound{b.Lower, b.Upper}
	}

	objEval := func(x []float64) float64 { return s.Objective(x) }

	gradEval := func(x []float64, g *linalg.SparseVector) {
		diff := make([]float64, n)
		spec := numdiff.ApproxSpec{
			N: n, M: 1, Method: numdiff.Central, Bounds: bounds,
			Object: func(xx, y []float64) { y[0] = s.Objective(xx) },
		}
		_ = spec.Diff(x, diff)
		for i, d := range diff {
			if d != 0 {
				g.Set(i, d)
			}
		}
	}

	var consEval ConstraintsEval
	var jacEval JacobianEval
	if m > 0 {
		consEval = func(x []float64, out []float64) { s.Constraints(x, out) }
		jacEval = func(x []float64, rows []*linalg.SparseVector) {
			diff := make([]float64, n*m)
			spec := numdiff.ApproxSpec{
				N: n, M: m, Method: numdiff.Central, Bounds: bounds,
				Object:   s.Constraints,
			}
			_ = spec.Diff(x, diff)
			for j := 0; j < m; j++ {
				row := diff[j*n : (j+1)*n]
				for i, d := range row {
					if d != 0 {
						rows[j].Set(i, d)
					}
				}
			}
		}
	}

	// The Lagrangian Hessian is approximated by forward-differencing the
	// gradient of σf(x) + λᵀc(x) along each coordinate; it is dense (every
	// coordinate pair may show curvature) so it is reported as a full lower
	// triangle.
	hessEval := func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
		lagrangianGrad := func(xx, g []float64) {
			gv := NewSparseVectorAlias(n)
			gradEval(xx, gv)
			copy(g, gv.ToDense(n))
			for i := range g {
				g[i] *= sigma
			}
			if m > 0 {
				rows := make([]*linalg.SparseVector, m)
				for j := range rows {
					rows[j] = linalg.NewSparseVector(n)
				}
				jacEval(xx, rows)
				for j, row := range rows {
					row.ScatterTo(g, lambda[j])
				}
			}
		}
		diff := make([]float64, n*n)
		spec := numdiff.ApproxSpec{
			N: n, M: n, Method: numdiff.Forward, Bounds: bounds,
			Object: lagrangianGrad,
		}
		_ = spec.Diff(x, diff)
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				v := 0.5 * (diff[i+j*n] + diff[j+i*n])
				if v != 0 {
					h.Add(i, j, v)
				}
			}
		}
	}

	return New(Problem{
		NumVariables:     n,
		NumConstraints:   m,
		VariablesBounds:  s.VariablesBounds,
		ConstraintBounds: s.ConstraintBounds,
		Objective:        objEval,
		Constraints:      consEval,
		ObjectiveGrad:    gradEval,
		ConstraintJac:    jacEval,
		LagrangianHess:   hessEval,
		ObjectiveSign:    orOne(s.ObjectiveSign),
		Classify:         s.Classify,
		Name:             s.Name,
	})
}

func orOne(sign float64) float64 {
	if sign == 0 {
		return 1
	}
	return sign
}

// NewSparseVectorAlias is a small helper so finite.go need not import
// linalg twice under two names; it is just linalg.NewSparseVector.
func NewSparseVectorAlias(capacity int) *linalg.SparseVector {
	return linalg.NewSparseVector(capacity)
}
