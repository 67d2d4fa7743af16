// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import (
	"github.com/curioloop/nlpsolve/linalg"
	"github.com/curioloop/nlpsolve/problem"
)

// cacheSlot is the tiny {Uninit, Computed} state machine spec.md §9
// describes for each lazily-evaluated quantity: a cached value is valid iff
// its stamped version equals the Iterate's current version counter.
type cacheSlot struct {
	version int
	valid   bool
}

func (s *cacheSlot) hit(current int) bool { return s.valid && s.version == current }
func (s *cacheSlot) stamp(current int)    { s.valid, s.version = true, current }

// Iterate is a candidate point carrying lazily-cached evaluations,
// residuals and progress measures (spec.md §3). A single version counter
// is bumped on every write to X or Multipliers (invariant I1); each cached
// quantity's slot is compared against it instead of tracking its own dirty
// flag, per spec.md §9's "prefer a single version counter" design note.
type Iterate struct {
	X           []float64
	Multipliers Multipliers

	problem  *problem.Problem
	counters *Counters
	version  int

	objectiveVal   float64
	objectiveSlot  cacheSlot
	constraintsVal []float64
	constraintsSlot cacheSlot

	gradVal  *linalg.SparseVector
	gradSlot cacheSlot

	jacVal  []*linalg.SparseVector
	jacSlot cacheSlot

	hessVal   *linalg.COOSymmetric
	hessSigma float64
	hessSlot  cacheSlot

	Residuals Residuals
	Progress  Progress
}

// New creates an Iterate at x0 with zero multipliers, sharing the given
// Counters (process-wide, spec.md §3) across every Iterate derived from the
// same Problem.
func New(p *problem.Problem, x0 []float64, counters *Counters) *Iterate {
	n, m := p.NumVariables, p.NumConstraints
	if len(x0) != n {
		panic("iterate: x0 dimension mismatch")
	}
	it := &Iterate{
		X:           append([]float64(nil), x0...),
		Multipliers: NewMultipliers(n, m),
		problem:     p,
		counters:    counters,
		constraintsVal: make([]float64, m),
		gradVal:     linalg.NewSparseVector(n),
		jacVal:      make([]*linalg.SparseVector, m),
		hessVal:     linalg.NewCOOSymmetric(n),
	}
	for j := range it.jacVal {
		it.jacVal[j] = linalg.NewSparseVector(n)
	}
	it.recomputeResiduals()
	return it
}

// SetX overwrites the point, invalidating every cached evaluation
// (invariant I1) and recomputing residuals/progress (I3).
func (it *Iterate) SetX(x []float64) {
	if len(x) != len(it.X) {
		panic("iterate: SetX dimension mismatch")
	}
	copy(it.X, x)
	it.version++
	it.recomputeResiduals()
}

// SetMultipliers overwrites the dual triple, enforcing the sign convention
// (I4) and recomputing residuals (I3).
func (it *Iterate) SetMultipliers(m Multipliers) {
	it.Multipliers = m
	it.Multipliers.EnforceSignConvention()
	it.version++
	it.recomputeResiduals()
}

// Problem returns the Problem this Iterate was built against.
func (it *Iterate) Problem() *problem.Problem { return it.problem }

// Objective returns the (lazily cached) objective value at X.
func (it *Iterate) Objective() float64 {
	if !it.objectiveSlot.hit(it.version) {
		it.objectiveVal = it.problem.EvaluateObjective(it.X)
		it.objectiveSlot.stamp(it.version)
		it.counters.IncObjective()
	}
	return it.objectiveVal
}

// Constraints returns the (lazily cached) constraint vector at X.
func (it *Iterate) Constraints() []float64 {
	if !it.constraintsSlot.hit(it.version) {
		it.problem.EvaluateConstraints(it.X, it.constraintsVal)
		it.constraintsSlot.stamp(it.version)
		it.counters.IncConstraints()
	}
	return it.constraintsVal
}

// ObjectiveGradient returns the (lazily cached) sparse objective gradient.
func (it *Iterate) ObjectiveGradient() *linalg.SparseVector {
	if !it.gradSlot.hit(it.version) {
		it.problem.EvaluateObjectiveGrad(it.X, it.gradVal)
		it.gradSlot.stamp(it.version)
		it.counters.IncObjectiveGrad()
	}
	return it.gradVal
}

// ConstraintJacobian returns the (lazily cached) constraint Jacobian rows.
func (it *Iterate) ConstraintJacobian() []*linalg.SparseVector {
	if !it.jacSlot.hit(it.version) {
		for _, row := range it.jacVal {
			row.Reset()
		}
		it.problem.EvaluateConstraintJacobian(it.X, it.jacVal)
		it.jacSlot.stamp(it.version)
		it.counters.IncConstraintJac()
	}
	return it.jacVal
}

// LagrangianHessian returns the (lazily cached) Hessian of the Lagrangian
// at the given objective multiplier σ. A change in σ alone (without X or
// multipliers changing) still forces recomputation, since σ is not part of
// the version counter; callers that only rescale σ should prefer
// Subproblem.BuildObjectiveModel instead of calling this directly.
func (it *Iterate) LagrangianHessian(sigma float64) *linalg.COOSymmetric {
	if !it.hessSlot.hit(it.version) || it.hessSigma != sigma {
		it.problem.EvaluateLagrangianHessian(it.X, sigma, it.Multipliers.Constraints, it.hessVal)
		it.hessSigma = sigma
		it.hessSlot.stamp(it.version)
		it.counters.IncLagrangianHess()
	}
	return it.hessVal
}

// Clone deep-copies the Iterate, used when the driver moves an accepted
// trial iterate into the "current" slot (spec.md §3 Lifecycle describes
// this as a move-assignment; Go has no move semantics so Clone plays that
// role when the trial must still be inspected afterward).
func (it *Iterate) Clone() *Iterate {
	c := &Iterate{
		X:               append([]float64(nil), it.X...),
		Multipliers:     it.Multipliers.Clone(),
		problem:         it.problem,
		counters:        it.counters,
		version:         it.version,
		objectiveVal:    it.objectiveVal,
		objectiveSlot:   it.objectiveSlot,
		constraintsVal:  append([]float64(nil), it.constraintsVal...),
		constraintsSlot: it.constraintsSlot,
		Residuals:       it.Residuals,
		Progress:        it.Progress,
	}
	c.gradVal = linalg.NewSparseVector(len(it.gradVal.Index))
	c.gradVal.Index = append(c.gradVal.Index, it.gradVal.Index...)
	c.gradVal.Value = append(c.gradVal.Value, it.gradVal.Value...)
	c.gradSlot = it.gradSlot
	c.jacVal = make([]*linalg.SparseVector, len(it.jacVal))
	for j, row := range it.jacVal {
		nv := linalg.NewSparseVector(row.Len())
		nv.Index = append(nv.Index, row.Index...)
		nv.Value = append(nv.Value, row.Value...)
		c.jacVal[j] = nv
	}
	c.jacSlot = it.jacSlot
	c.hessVal = linalg.NewCOOSymmetric(it.hessVal.N)
	c.hessVal.Entries = append(c.hessVal.Entries, it.hessVal.Entries...)
	c.hessSigma = it.hessSigma
	c.hessSlot = it.hessSlot
	return c
}
