// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/slsqp"
)

// LinearConstraint is one row of the subproblem's linearized constraint
// set: Row·d must lie in [Lower, Upper], where Lower/Upper are already the
// displacement bounds spec.md §4.1's create_current_subproblem computes
// (constraints_bounds[j] = [cL_j − c(x)_j, cU_j − c(x)_j]).
type LinearConstraint struct {
	Row          []float64
	Lower, Upper float64
}

// Options bundles the tunables the slsqp backend needs that are not part
// of the mathematical problem statement.
type Options struct {
	MaxIterations int
	InfBound      float64 // BIG, spec.md §9 Open Question: BQPD's fixed 1e30 infinity substitute
}

// DefaultOptions mirrors the teacher's own NNLS/line-search iteration caps.
func DefaultOptions() Options {
	return Options{MaxIterations: 200, InfBound: 1e30}
}

// solverRow is one row handed to slsqp.LSQ, tagged with which original
// constraint it came from and the sign applied (+1 for the lower-bound
// inequality/equality row, -1 for the upper-bound row a ranged constraint
// was split into), so the returned multiplier vector can be folded back.
type solverRow struct {
	row    []float64
	rhs    float64
	equal  bool
	origin int
	sign   float64
}

// SolveQP solves minimize ½dᵀHd + gᵀd subject to the linearized constraints
// and box bounds [lower, upper] on d, adapting slsqp.LSQ (spec.md §4.1 "QP
// subproblem"). hessian is a dense row-major n×n matrix; the exact Hessian
// model builds it from linalg.CSCSymmetric.ToDense.
func SolveQP(n int, hessian []float64, gradient []float64, constraints []LinearConstraint, lower, upper []float64, opt Options) *Direction {
	if len(hessian) != n*n || len(gradient) != n || len(lower) != n || len(upper) != n {
		panic("qp: dimension mismatch in SolveQP")
	}
	if hasInvalid(gradient) || hasInvalid(hessian) {
		return &Direction{Status: Error}
	}

	packed, ok := packedLDLT(hessian, n)
	if !ok {
		return &Direction{Status: Error}
	}

	var eqRows, ineqRows []solverRow
	for j, c := range constraints {
		switch {
		case c.Lower == c.Upper:
			eqRows = append(eqRows, solverRow{c.Row, c.Lower, true, j, 1})
		default:
			if c.Lower > -opt.InfBound {
				ineqRows = append(ineqRows, solverRow{c.Row, c.Lower, false, j, 1})
			}
			if c.Upper < opt.InfBound {
				negRow := make([]float64, n)
				for i, v := range c.Row {
					negRow[i] = -v
				}
				ineqRows = append(ineqRows, solverRow{negRow, -c.Upper, false, j, -1})
			}
		}
	}
	meq, mineq := len(eqRows), len(ineqRows)
	rows := append(eqRows, ineqRows...)

	m := meq + mineq
	la := max(m, 1)
	a := make([]float64, la*n)
	b := make([]float64, la)
	for i, r := range rows {
		for j, v := range r.row {
			a[i+j*la] = v
		}
		b[i] = r.rhs
	}

	x := make([]float64, n)
	y := make([]float64, m+n+n)

	n1 := n + 1
	mineqTot := mineq + 2*n1
	w0 := n1*(n1+1) + meq*(n1+1) + mineqTot*(n1+1) +
		(n1+1)*(mineqTot+2) + 2*mineqTot +
		(n1+mineqTot)*(n1-meq) + 2*meq + n1 +
		n1*n/2 + 2*m + 3*n + 3*n1 + 1
	w := make([]float64, w0)
	jw := make([]int, max(mineqTot, n1-mineqTot, 1))

	nl := n*(n+1)/2 + 1
	l := make([]float64, nl)
	copy(l, packed[:n*(n+1)/2])

	xl := append([]float64(nil), lower...)
	xu := append([]float64(nil), upper...)
	g := append([]float64(nil), gradient...)

	_, mode := slsqp.LSQ(m, meq, n, nl, l, g, a, b, xl, xu, x, y, w, jw, opt.MaxIterations, opt.InfBound)

	dir := &Direction{D: x, Active: NewActiveSet(n, len(constraints))}
	switch mode {
	case slsqp.HasSolution:
		dir.Status = Optimal
	case slsqp.ConsIncompatible, slsqp.LSISingularE, slsqp.LSEISingularC, slsqp.HFTIRankDefect:
		dir.Status = Infeasible
		part := classifyInfeasibility(constraints)
		dir.Partition = &part
	case slsqp.NNLSExceedMaxIter, slsqp.SQPExceedMaxIter:
		dir.Status = SubOptimal
	default:
		dir.Status = Error
	}

	if dir.Status == Optimal || dir.Status == SubOptimal {
		mult := iterate.NewMultipliers(n, len(constraints))
		for i, r := range rows {
			mult.Constraints[r.origin] += r.sign * y[i]
		}
		if m+n <= len(y) {
			copy(mult.LowerBounds, y[m:m+n])
		}
		if m+2*n <= len(y) {
			copy(mult.UpperBounds, y[m+n:m+2*n])
		}
		dir.Multipliers = mult
		dir.Norm = norm2(x)
		dir.PredictedObjective = quadraticValue(hessian, gradient, x, n)
	}
	return dir
}

func norm2(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func quadraticValue(hessian, gradient, x []float64, n int) float64 {
	val := 0.0
	for i := 0; i < n; i++ {
		val += gradient[i] * x[i]
	}
	quad := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			quad += x[i] * hessian[i*n+j] * x[j]
		}
	}
	return val + 0.5*quad
}

// classifyInfeasibility approximates the ConstraintPartition when the
// linear model itself is infeasible: a constraint whose displacement
// bounds exclude zero (cL > 0 or cU < 0, i.e. even the
// zero step violates it) is classified by which side it violates at d=0.
// This is a pragmatic reading of spec.md §3's "classification under the
// linearised model at a relaxed solution" when the backend reports
// incompatibility rather than returning an explicit certificate.
func classifyInfeasibility(constraints []LinearConstraint) iterate.ConstraintPartition {
	return iterate.NewConstraintPartition(len(constraints), func(j int) int {
		c := constraints[j]
		switch {
		case c.Lower > 0:
			return -1
		case c.Upper < 0:
			return 1
		default:
			return 0
		}
	})
}
