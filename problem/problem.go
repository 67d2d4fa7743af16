// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package problem describes the read-only NLP the solver consumes: variable
// and constraint counts, bounds, and evaluators for the objective,
// constraints, gradient, Jacobian and Lagrangian Hessian (spec.md §3, §6).
package problem

import (
	"math"

	"github.com/curioloop/nlpsolve/linalg"
)

// Bound is an interval [Lower, Upper] with ±Inf permitted on either side.
type Bound struct {
	Lower, Upper float64
}

// IsBounded reports whether either side of the bound is finite.
func (b Bound) IsBounded() bool {
	return !math.IsInf(b.Lower, -1) || !math.IsInf(b.Upper, 1)
}

// Norm selects the norm used by ConstraintViolation.
type Norm int

const (
	// L1 sums absolute per-constraint violations.
	L1 Norm = iota
	// L2 is the Euclidean norm of per-constraint violations.
	L2
	// LInf is the maximum per-constraint violation.
	LInf
)

// Classification describes the structural shape of the problem, used to
// decide whether preprocessing may project x0 onto the linear manifold
// (spec.md §5, EnforceLinearConstraints).
type Classification int

const (
	Nonlinear Classification = iota
	Quadratic
	Linear
)

// ObjectiveEval evaluates f(x).
type ObjectiveEval func(x []float64) float64

// ConstraintsEval evaluates c(x) into out, which has length m.
type ConstraintsEval func(x []float64, out []float64)

// GradientEval evaluates the sparse objective gradient ∇f(x) into g.
type GradientEval func(x []float64, g *linalg.SparseVector)

// JacobianEval evaluates the constraint Jacobian; rows[j] receives ∇c_j(x).
// rows is pre-sized to m entries by the caller.
type JacobianEval func(x []float64, rows []*linalg.SparseVector)

// HessianEval evaluates the Hessian of the Lagrangian σ∇²f(x) + Σ λⱼ∇²cⱼ(x)
// into h, populating only the lower triangle (spec.md §6).
type HessianEval func(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric)

// Problem is the immutable NLP description consumed by every strategy
// layer. It is constructed once (spec.md §3 "Lifecycle") and never mutated
// after New returns.
type Problem struct {
	NumVariables   int
	NumConstraints int

	VariablesBounds  []Bound
	ConstraintBounds []Bound

	Objective        ObjectiveEval
	Constraints      ConstraintsEval
	ObjectiveGrad    GradientEval
	ConstraintJac    JacobianEval
	LagrangianHess   HessianEval

	// ObjectiveSign is +1 for minimization, -1 to support maximization
	// without rewriting callers (spec.md §6).
	ObjectiveSign float64

	Classify Classification

	// Name labels the problem in statistics output and error messages.
	Name string
}

// New validates and returns a Problem. Validation panics on programmer
// errors (mismatched dimensions, missing evaluators) per the teacher's
// convention of panicking on dimension mismatch rather than returning error
// values for invariants the caller fully controls (see slsqp.Problem.New,
// lbfgsb.Problem.New for the analogous pattern, here strengthened because a
// malformed Problem can silently corrupt every downstream strategy).
func New(p Problem) *Problem {
	if p.NumVariables <= 0 {
		panic("problem: number of variables must be positive")
	}
	if len(p.VariablesBounds) != p.NumVariables {
		panic("problem: variable bounds dimension mismatch")
	}
	if len(p.ConstraintBounds) != p.NumConstraints {
		panic("problem: constraint bounds dimension mismatch")
	}
	if p.Objective == nil || p.ObjectiveGrad == nil {
		panic("problem: objective and gradient evaluators are required")
	}
	if p.NumConstraints > 0 && (p.Constraints == nil || p.ConstraintJac == nil) {
		panic("problem: constraint and jacobian evaluators are required when m > 0")
	}
	if p.ObjectiveSign == 0 {
		p.ObjectiveSign = 1
	}
	q := p
	q.VariablesBounds = append([]Bound(nil), p.VariablesBounds...)
	q.ConstraintBounds = append([]Bound(nil), p.ConstraintBounds...)
	return &q
}

// EvaluateObjective applies the objective sign to the raw evaluator so every
// downstream consumer sees a minimization problem (spec.md §6).
func (p *Problem) EvaluateObjective(x []float64) float64 {
	return p.ObjectiveSign * p.Objective(x)
}

// EvaluateObjectiveGrad evaluates the sign-adjusted objective gradient.
func (p *Problem) EvaluateObjectiveGrad(x []float64, g *linalg.SparseVector) {
	g.Reset()
	p.ObjectiveGrad(x, g)
	if p.ObjectiveSign != 1 {
		for k := range g.Value {
			g.Value[k] *= p.ObjectiveSign
		}
	}
}

// EvaluateConstraints evaluates c(x) in place.
func (p *Problem) EvaluateConstraints(x []float64, out []float64) {
	if p.NumConstraints == 0 {
		return
	}
	p.Constraints(x, out)
}

// EvaluateConstraintJacobian evaluates the constraint Jacobian rows.
func (p *Problem) EvaluateConstraintJacobian(x []float64, rows []*linalg.SparseVector) {
	if p.NumConstraints == 0 {
		return
	}
	p.ConstraintJac(x, rows)
}

// EvaluateLagrangianHessian evaluates the Hessian of the Lagrangian, scaling
// the objective block by the sign-adjusted σ.
func (p *Problem) EvaluateLagrangianHessian(x []float64, sigma float64, lambda []float64, h *linalg.COOSymmetric) {
	h.Reset()
	p.LagrangianHess(x, p.ObjectiveSign*sigma, lambda, h)
}

// ConstraintViolation computes the residual of c under the given norm
// against [cL, cU]: zero where c is within bounds, otherwise the
// nonnegative distance to the violated bound, reduced by norm.
func (p *Problem) ConstraintViolation(c []float64, norm Norm) float64 {
	switch norm {
	case L2:
		sum := 0.0
		for j, cj := range c {
			v := p.constraintResidual(j, cj)
			sum += v * v
		}
		return math.Sqrt(sum)
	case LInf:
		maxV := 0.0
		for j, cj := range c {
			if v := p.constraintResidual(j, cj); v > maxV {
				maxV = v
			}
		}
		return maxV
	default: // L1
		sum := 0.0
		for j, cj := range c {
			sum += p.constraintResidual(j, cj)
		}
		return sum
	}
}

// ConstraintViolationSubset is ConstraintViolation restricted to the given
// constraint indices, used by feasibility restoration to compute the
// "violation of infeasible constraints only" optimality measure spec.md
// §4.2.1 defines for the restoration phase.
func (p *Problem) ConstraintViolationSubset(c []float64, indices []int, norm Norm) float64 {
	switch norm {
	case L2:
		sum := 0.0
		for _, j := range indices {
			v := p.constraintResidual(j, c[j])
			sum += v * v
		}
		return math.Sqrt(sum)
	case LInf:
		maxV := 0.0
		for _, j := range indices {
			if v := p.constraintResidual(j, c[j]); v > maxV {
				maxV = v
			}
		}
		return maxV
	default: // L1
		sum := 0.0
		for _, j := range indices {
			sum += p.constraintResidual(j, c[j])
		}
		return sum
	}
}

func (p *Problem) constraintResidual(j int, cj float64) float64 {
	b := p.ConstraintBounds[j]
	switch {
	case cj < b.Lower:
		return b.Lower - cj
	case cj > b.Upper:
		return cj - b.Upper
	default:
		return 0
	}
}

// ConstraintSide classifies which side (if any) constraint j violates: -1
// lower, +1 upper, 0 feasible. Used to build the feasibility-restoration
// objective (spec.md §4.2.1).
func (p *Problem) ConstraintSide(j int, cj float64) int {
	b := p.ConstraintBounds[j]
	switch {
	case cj < b.Lower:
		return -1
	case cj > b.Upper:
		return 1
	default:
		return 0
	}
}
