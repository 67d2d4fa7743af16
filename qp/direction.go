// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qp adapts the teacher's slsqp least-squares machinery (LSQ/LSEI/
// LSI/HFTI/NNLS) into the active-set QP/LP backend spec.md §4.1/§6 calls
// for — the in-spec replacement for the out-of-scope Fortran BQPD solver.
package qp

import "github.com/curioloop/nlpsolve/iterate"

// Status is the outcome of a QP/LP solve, mapped from the backend's
// integer/enum code (spec.md §6).
type Status int

const (
	Optimal Status = iota
	Infeasible
	UnboundedProblem
	SubOptimal
	Error
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case UnboundedProblem:
		return "UnboundedProblem"
	case SubOptimal:
		return "SubOptimal"
	default:
		return "Error"
	}
}

// ActiveSet records which variable and constraint bounds are active at
// lower/upper in a Direction (spec.md §3).
type ActiveSet struct {
	VariablesLower   []bool
	VariablesUpper   []bool
	ConstraintsLower []bool
	ConstraintsUpper []bool
}

// NewActiveSet allocates an all-inactive set for n variables, m constraints.
func NewActiveSet(n, m int) ActiveSet {
	return ActiveSet{
		VariablesLower:   make([]bool, n),
		VariablesUpper:   make([]bool, n),
		ConstraintsLower: make([]bool, m),
		ConstraintsUpper: make([]bool, m),
	}
}

// Direction is the output of solving a subproblem at the current iterate
// (spec.md §3).
type Direction struct {
	D           []float64 // x-displacement
	Multipliers iterate.Multipliers
	Active      ActiveSet
	Status      Status

	// ObjectiveMultiplier is σ in σf + penalty·φ.
	ObjectiveMultiplier float64
	PredictedObjective  float64
	Norm                float64

	Partition *iterate.ConstraintPartition
	IsRelaxed bool
}
