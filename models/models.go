// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package models registers the CUTEst-style reference problems spec.md §8
// uses as end-to-end scenarios, so the CLI driver and its tests can refer to
// them by name instead of embedding a general model file format (out of
// scope per spec.md's Non-goals).
package models

import (
	"fmt"
	"math"

	"github.com/curioloop/nlpsolve/linalg"
	"github.com/curioloop/nlpsolve/problem"
)

// Model pairs a Problem with the starting point spec.md's scenarios specify.
type Model struct {
	Problem *problem.Problem
	X0      []float64
}

// Registry maps scenario names to builders, evaluated lazily so a model is
// built only when Lookup requests it; an unknown name makes Lookup return an
// error.
var registry = map[string]func() Model{
	"hs071":      hs071,
	"hs035":      hs035,
	"hs013":      hs013,
	"infeasible": infeasible,
	"unbounded":  unbounded,
	"simpleqp":   simpleQP,
}

// Lookup returns the named model, or an error if no such scenario is
// registered.
func Lookup(name string) (Model, error) {
	build, ok := registry[name]
	if !ok {
		return Model{}, fmt.Errorf("models: unknown model %q", name)
	}
	return build(), nil
}

// Names lists every registered scenario, for CLI usage text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	return names
}

// hs071 is Hock-Schittkowski problem 71: minimize x1x4(x1+x2+x3)+x3 subject
// to x1x2x3x4 ≥ 25 and x1²+x2²+x3²+x4² = 40, 1 ≤ xi ≤ 5.
func hs071() Model {
	p := problem.New(problem.Problem{
		NumVariables:   4,
		NumConstraints: 2,
		VariablesBounds: []problem.Bound{
			{Lower: 1, Upper: 5}, {Lower: 1, Upper: 5}, {Lower: 1, Upper: 5}, {Lower: 1, Upper: 5},
		},
		ConstraintBounds: []problem.Bound{
			{Lower: 25, Upper: math.Inf(1)},
			{Lower: 40, Upper: 40},
		},
		Name: "HS071",
		Objective: func(x []float64) float64 {
			return x[0]*x[3]*(x[0]+x[1]+x[2]) + x[2]
		},
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, x[3]*(2*x[0]+x[1]+x[2]))
			g.Set(1, x[0]*x[3])
			g.Set(2, x[0]*x[3]+1)
			g.Set(3, x[0]*(x[0]+x[1]+x[2]))
		},
		Constraints: func(x []float64, out []float64) {
			out[0] = x[0] * x[1] * x[2] * x[3]
			out[1] = x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3]
		},
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			rows[0].Set(0, x[1]*x[2]*x[3])
			rows[0].Set(1, x[0]*x[2]*x[3])
			rows[0].Set(2, x[0]*x[1]*x[3])
			rows[0].Set(3, x[0]*x[1]*x[2])
			rows[1].Set(0, 2*x[0])
			rows[1].Set(1, 2*x[1])
			rows[1].Set(2, 2*x[2])
			rows[1].Set(3, 2*x[3])
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
			h.Add(0, 0, sigma*2*x[3]+lambda[1]*2)
			h.Add(1, 0, sigma*x[3]+lambda[0]*x[2]*x[3])
			h.Add(2, 0, sigma*x[3]+lambda[0]*x[1]*x[3])
			h.Add(3, 0, sigma*(2*x[0]+x[1]+x[2])+lambda[0]*x[1]*x[2])
			h.Add(2, 1, lambda[0]*x[0]*x[3])
			h.Add(3, 1, sigma*x[0]+lambda[0]*x[0]*x[2])
			h.Add(3, 2, sigma*x[0]+lambda[0]*x[0]*x[1])
			h.Add(1, 1, lambda[1]*2)
			h.Add(2, 2, lambda[1]*2)
			h.Add(3, 3, lambda[1]*2)
		},
	})
	return Model{Problem: p, X0: []float64{1, 5, 5, 1}}
}

// hs035 is Hock-Schittkowski problem 35: minimize 9 - 8x1 - 6x2 - 4x3 +
// 2x1² + 2x2² + x3² + 2x1x2 + 2x1x3 subject to x1+x2+2x3 ≤ 3, xi ≥ 0.
func hs035() Model {
	p := problem.New(problem.Problem{
		NumVariables:   3,
		NumConstraints: 1,
		VariablesBounds: []problem.Bound{
			{Lower: 0, Upper: math.Inf(1)},
			{Lower: 0, Upper: math.Inf(1)},
			{Lower: 0, Upper: math.Inf(1)},
		},
		ConstraintBounds: []problem.Bound{{Lower: math.Inf(-1), Upper: 3}},
		Name:             "HS035",
		Objective: func(x []float64) float64 {
			return 9 - 8*x[0] - 6*x[1] - 4*x[2] +
				2*x[0]*x[0] + 2*x[1]*x[1] + x[2]*x[2] +
				2*x[0]*x[1] + 2*x[0]*x[2]
		},
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, -8+4*x[0]+2*x[1]+2*x[2])
			g.Set(1, -6+4*x[1]+2*x[0])
			g.Set(2, -4+2*x[2]+2*x[0])
		},
		Constraints: func(x []float64, out []float64) {
			out[0] = x[0] + x[1] + 2*x[2]
		},
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			rows[0].Set(0, 1)
			rows[0].Set(1, 1)
			rows[0].Set(2, 2)
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
			h.Add(0, 0, sigma*4)
			h.Add(1, 0, sigma*2)
			h.Add(2, 0, sigma*2)
			h.Add(1, 1, sigma*4)
			h.Add(2, 2, sigma*2)
		},
	})
	return Model{Problem: p, X0: []float64{0.5, 0.5, 0.5}}
}

// hs013 is Hock-Schittkowski problem 13: minimize (x1-2)²+x2² subject to
// (1-x1)³-x2 ≥ 0, x1,x2 ≥ 0, starting from the classically ill-behaved point
// (-2,-2). spec.md scenario 6 names this problem under the byrd preset as
// one known to require the ℓ1-relaxation penalty parameter to decrease
// before the iterates make progress.
func hs013() Model {
	p := problem.New(problem.Problem{
		NumVariables:   2,
		NumConstraints: 1,
		VariablesBounds: []problem.Bound{
			{Lower: 0, Upper: math.Inf(1)},
			{Lower: 0, Upper: math.Inf(1)},
		},
		ConstraintBounds: []problem.Bound{{Lower: 0, Upper: math.Inf(1)}},
		Name:             "HS013",
		Objective: func(x []float64) float64 {
			return (x[0]-2)*(x[0]-2) + x[1]*x[1]
		},
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, 2*(x[0]-2))
			g.Set(1, 2*x[1])
		},
		Constraints: func(x []float64, out []float64) {
			d := 1 - x[0]
			out[0] = d*d*d - x[1]
		},
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			d := 1 - x[0]
			rows[0].Set(0, -3*d*d)
			rows[0].Set(1, -1)
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
			h.Add(0, 0, sigma*2+lambda[0]*6*(1-x[0]))
			h.Add(1, 1, sigma*2)
		},
	})
	return Model{Problem: p, X0: []float64{-2, -2}}
}

// infeasible is spec.md scenario 3: minimize x subject to x ≤ -1 and x ≥ 1,
// encoded as two singleton constraints over a single free variable so the
// contradiction lives in the constraint bounds rather than the variable
// bounds (variables_bounds would let the solver reject it before ever
// calling the subproblem).
func infeasible() Model {
	p := problem.New(problem.Problem{
		NumVariables:   1,
		NumConstraints: 2,
		VariablesBounds: []problem.Bound{{Lower: math.Inf(-1), Upper: math.Inf(1)}},
		ConstraintBounds: []problem.Bound{
			{Lower: math.Inf(-1), Upper: -1},
			{Lower: 1, Upper: math.Inf(1)},
		},
		Name:      "infeasible",
		Objective: func(x []float64) float64 { return x[0] },
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, 1)
		},
		Constraints: func(x []float64, out []float64) {
			out[0] = x[0]
			out[1] = x[0]
		},
		ConstraintJac: func(x []float64, rows []*linalg.SparseVector) {
			rows[0].Set(0, 1)
			rows[1].Set(0, 1)
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {},
	})
	return Model{Problem: p, X0: []float64{0}}
}

// unbounded is spec.md scenario 4: minimize -x, x ∈ ℝ, no constraints.
func unbounded() Model {
	p := problem.New(problem.Problem{
		NumVariables:    1,
		VariablesBounds: []problem.Bound{{Lower: math.Inf(-1), Upper: math.Inf(1)}},
		Name:            "unbounded",
		Objective:       func(x []float64) float64 { return -x[0] },
		ObjectiveGrad: func(x []float64, g *linalg.SparseVector) {
			g.Set(0, -1)
		},
		LagrangianHess: func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {},
	})
	return Model{Problem: p, X0: []float64{0}}
}

// simpleQP is spec.md scenario 5: minimize ½(x1²+x2²) subject to x1+x2 = 1.
func simpleQP() Model {
	p := problem.New(problem.Problem{
		NumVariables:   2,
		NumConstraints: 1,
		VariablesBounds: []problem.Bound{
			{Lower: math.Inf(-1), Upper: math.Inf(1)},
			{Lower: math.Inf(-1), Upper: math.Inf(1)},
		},
		ConstraintBounds: []problem.Bound{{Lower: 1, Upper: 1}},
		Name:             "simpleqp",
		Classify:         problem.Quadratic,
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
	return Model{Problem: p, X0: []float64{0, 0}}
}
