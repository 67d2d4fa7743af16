// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/curioloop/nlpsolve/iterate"
)

// SolveLP solves minimize gᵀd subject to the same linearized constraints
// and box bounds as SolveQP (spec.md §4.1 "LP subproblem" — drops the
// quadratic term, used for initial steering in LP-EQP hybrids). It is
// grounded on jjhbw-GoMILP's subProblem.solve, which converts inequalities
// to slack-augmented equalities before calling lp.Simplex.
func SolveLP(n int, gradient []float64, constraints []LinearConstraint, lower, upper []float64, opt Options) *Direction {
	if hasInvalid(gradient) {
		return &Direction{Status: Error}
	}

	// Variables are split d = d⁺ - d⁻ (d⁺, d⁻ ≥ 0) since gonum's Simplex
	// requires nonnegative variables; box bounds become extra inequality
	// rows on (d⁺ - d⁻).
	nv := 2 * n
	c := make([]float64, nv)
	for i, g := range gradient {
		c[i], c[i+n] = g, -g
	}

	var rows [][]float64
	var rhs []float64
	addRow := func(row []float64, b float64) {
		full := make([]float64, nv)
		for i, v := range row {
			full[i], full[i+n] = v, -v
		}
		rows = append(rows, full)
		rhs = append(rhs, b)
	}

	for _, cstr := range constraints {
		if cstr.Lower > -opt.InfBound {
			neg := make([]float64, n)
			for i, v := range cstr.Row {
				neg[i] = -v
			}
			addRow(neg, -cstr.Lower) // -row·d ≤ -lower  ⇔  row·d ≥ lower
		}
		if cstr.Upper < opt.InfBound {
			addRow(cstr.Row, cstr.Upper)
		}
	}
	for i := 0; i < n; i++ {
		if lower[i] > -opt.InfBound {
			e := make([]float64, n)
			e[i] = -1
			addRow(e, -lower[i])
		}
		if upper[i] < opt.InfBound {
			e := make([]float64, n)
			e[i] = 1
			addRow(e, upper[i])
		}
	}

	nIneq := len(rows)
	if nIneq == 0 {
		// No rows at all: d is free, so any nonzero gradient is unbounded.
		dir := &Direction{D: make([]float64, n), Active: NewActiveSet(n, len(constraints))}
		dir.Status = Optimal
		for _, g := range gradient {
			if g != 0 {
				dir.Status = UnboundedProblem
				return dir
			}
		}
		dir.Multipliers = iterate.NewMultipliers(n, len(constraints))
		return dir
	}
	nSlack := nIneq
	cFull := make([]float64, nv+nSlack)
	copy(cFull, c)

	A := mat.NewDense(nIneq, nv+nSlack, nil)
	bVec := make([]float64, nIneq)
	for i, row := range rows {
		for j, v := range row {
			A.Set(i, j, v)
		}
		A.Set(i, nv+i, 1) // slack
		bVec[i] = rhs[i]
	}

	z, xFull, err := lp.Simplex(cFull, A, bVec, 0, nil)
	dir := &Direction{D: make([]float64, n), Active: NewActiveSet(n, len(constraints))}
	if err != nil {
		if errors.Is(err, lp.ErrUnbounded) {
			dir.Status = UnboundedProblem
		} else if errors.Is(err, lp.ErrInfeasible) {
			dir.Status = Infeasible
			part := classifyInfeasibility(constraints)
			dir.Partition = &part
		} else {
			dir.Status = Error
		}
		return dir
	}

	for i := 0; i < n; i++ {
		dir.D[i] = xFull[i] - xFull[i+n]
	}
	dir.Status = Optimal
	dir.Norm = norm2(dir.D)
	dir.PredictedObjective = z
	dir.Multipliers = iterate.NewMultipliers(n, len(constraints))
	return dir
}
