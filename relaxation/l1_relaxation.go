// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/qp"
	"github.com/curioloop/nlpsolve/subproblem"
)

// L1RelaxationOptions tunes the penalty-steering loop.
type L1RelaxationOptions struct {
	InitialPenalty   float64 // μ; augmented objective is μf + Σ(n_j+p_j)
	MinPenalty       float64 // below this, μ clamps to 0
	DecreaseFactor   float64 // μ *= DecreaseFactor on a steering decrease
	MaxSteeringTries int

	// Epsilon1, Epsilon2 are the C1/C2 steering-loop tolerances (spec.md
	// §4.2.2 step 7): C1 requires r0−r(d) ≥ Epsilon1·(r0−r(d0)), C2
	// requires r0−d.objective ≥ Epsilon2·(r0−d0.objective).
	Epsilon1 float64
	Epsilon2 float64
}

// DefaultL1RelaxationOptions mirrors the penalty schedule classical l1-SQP
// solvers (filterSQP, SLIQUE) use.
func DefaultL1RelaxationOptions() L1RelaxationOptions {
	return L1RelaxationOptions{
		InitialPenalty:   1.0,
		MinPenalty:       1e-10,
		DecreaseFactor:   0.1,
		MaxSteeringTries: 6,
		Epsilon1:         0.1,
		Epsilon2:         0.1,
	}
}

// L1Relaxation attaches one elastic variable to each constraint an
// unrelaxed subproblem solve reports infeasible for, penalizing the
// augmented objective μf + Σ(n_j+p_j), and steers μ by the Byrd-Omojokun/
// Waltz rule (spec.md §4.2.2): a μ=0 probe establishes how much
// infeasibility is structurally unreachable, μ is shrunk toward the
// complementarity error of that probe, and an inner C1/C2 loop keeps
// shrinking it until the elastic solve makes adequate progress in both
// feasibility and merit.
type L1Relaxation struct {
	Sub     subproblem.Subproblem
	Options L1RelaxationOptions

	mu           float64
	resetPending bool
	lastPR       subproblem.PredictedReduction
	lastModel    *subproblem.Model
}

// NewL1Relaxation wraps sub with the default penalty schedule.
func NewL1Relaxation(sub subproblem.Subproblem) *L1Relaxation {
	opt := DefaultL1RelaxationOptions()
	return &L1Relaxation{Sub: sub, Options: opt, mu: opt.InitialPenalty}
}

func (r *L1Relaxation) Initialize(p *problem.Problem, it *iterate.Iterate) {
	r.Sub.Initialize(p, it)
	r.mu = r.Options.InitialPenalty
	r.resetPending = false
}

func (r *L1Relaxation) Phase() Phase { return Optimality } // l1 relaxation never leaves the augmented-objective formulation

func (r *L1Relaxation) Reset() { r.mu = r.Options.InitialPenalty }

func (r *L1Relaxation) Notify(p *problem.Problem, trial *iterate.Iterate, accepted bool) {}

func (r *L1Relaxation) LastPredictedReductionModel() subproblem.PredictedReduction { return r.lastPR }

func (r *L1Relaxation) ConsumeStrategyReset() bool {
	pending := r.resetPending
	r.resetPending = false
	return pending
}

func (r *L1Relaxation) ComputeProgressMeasures(p *problem.Problem, it *iterate.Iterate) (float64, float64) {
	return r.Sub.ComputeProgressMeasures(p, it)
}

// Solve implements spec.md §4.2.2's steering rule. The outer shape always
// attempts the plain subproblem first; only on a reported infeasibility
// does it inject elastic variables and run the steering loop.
func (r *L1Relaxation) Solve(p *problem.Problem, it *iterate.Iterate, trustRegionRadius float64) *qp.Direction {
	model := r.Sub.CreateCurrentSubproblem(p, it, trustRegionRadius)
	dir := r.Sub.Solve(model)
	if dir.Status != qp.Infeasible || dir.Partition == nil || len(dir.Partition.Infeasible) == 0 {
		r.lastPR = r.Sub.GeneratePredictedReductionModel(model, dir)
		r.lastModel = model
		return dir
	}

	partition := dir.Partition
	r0 := linearizedViolation(model, partition)
	muBefore := r.mu
	mu := r.mu

	// step 1-2: solve the augmented subproblem at the current μ.
	augDir := r.Sub.Solve(buildElasticModel(model, partition, mu))
	rd := elasticTotal(augDir, model.N)

	var d0 *qp.Direction
	var rd0 float64
	if rd > 0 {
		// step 3: μ = 0 probe.
		d0 = r.Sub.Solve(buildElasticModel(model, partition, 0))
		rd0 = elasticTotal(d0, model.N)

		if !(r0 > 0 && math.Abs(rd0-r0) <= 1e-10*(1+r0)) {
			// step 5
			errorZero := d0.Multipliers.L1Norm() + subproblemComplementarity(model, d0)
			if errorZero == 0 {
				mu = 0
				augDir = d0
				rd = rd0
			} else {
				// step 6
				candidate := math.Min(mu, math.Pow(errorZero/math.Max(1, r0), 2))
				if candidate < mu {
					mu = candidate
					augDir = r.Sub.Solve(buildElasticModel(model, partition, mu))
					rd = elasticTotal(augDir, model.N)
				}
			}
		}
		// else step 4: r(d0) already equals the current infeasibility —
		// nothing to steer toward, fall straight through to step 7.
	}

	// step 7: inner loop driven by C2 (merit progress, spec.md §4.2.2's
	// literal "while not C2"); C1 (feasibility progress) is not evaluated,
	// so Options.Epsilon1 has no effect on the loop.
	if d0 != nil {
		d0Reduction := predictedObjectiveReduction(model, d0.D[:model.N])
		for tries := 0; tries < r.Options.MaxSteeringTries; tries++ {
			dReduction := predictedObjectiveReduction(model, augDir.D[:model.N])
			c2 := r0-dReduction >= r.Options.Epsilon2*(r0-d0Reduction)
			if c2 {
				break
			}
			mu *= r.Options.DecreaseFactor
			if mu < r.Options.MinPenalty {
				mu = 0
			}
			augDir = r.Sub.Solve(buildElasticModel(model, partition, mu))
			rd = elasticTotal(augDir, model.N)
			if mu == 0 {
				break
			}
		}
	}

	if mu < muBefore {
		r.resetPending = true // step 8
	}
	r.mu = mu

	relaxed := stripElastic(augDir, model.N, len(partition.Infeasible), partition)
	subPR := r.Sub.GeneratePredictedReductionModel(model, relaxed)
	r.lastPR = &l1PredictedReduction{r0: r0, model: model, partition: partition, dx: relaxed.D, sub: subPR}
	r.lastModel = model
	return relaxed
}

func (r *L1Relaxation) SecondOrderCorrection(p *problem.Problem, trial *iterate.Iterate) *qp.Direction {
	if r.lastModel == nil {
		return nil
	}
	return r.Sub.ComputeSecondOrderCorrection(p, r.lastModel, trial)
}

// l1PredictedReduction implements spec.md §4.2.2's predicted-reduction
// formula under l1-relaxation, which augments the subproblem's own model
// with the linearized infeasibility r0 at α=1 and its partial reduction
// at α<1.
type l1PredictedReduction struct {
	r0        float64
	model     *subproblem.Model
	partition *iterate.ConstraintPartition
	dx        []float64
	sub       subproblem.PredictedReduction
}

func (l *l1PredictedReduction) Predict(alpha float64) float64 {
	if alpha >= 1 {
		return l.r0 + l.sub.Predict(1)
	}
	return l.r0 - violatedNorm(l.model, l.partition, l.dx, alpha) + l.sub.Predict(alpha)
}

// violatedNorm computes ‖(c(x) + α∇c(x)d)_violated‖₁ using the already
// linearized constraint rows (whose [Lower, Upper] already have c(x)
// subtracted), restricted to the infeasible partition.
func violatedNorm(model *subproblem.Model, partition *iterate.ConstraintPartition, dx []float64, alpha float64) float64 {
	sum := 0.0
	for _, j := range partition.Infeasible {
		row := model.Constraints[j]
		val := alpha * floats.Dot(row.Row, dx)
		switch {
		case val < row.Lower:
			sum += row.Lower - val
		case val > row.Upper:
			sum += val - row.Upper
		}
	}
	return sum
}

// linearizedViolation is r0, the current total linearized infeasibility
// across the infeasible partition (the residual of d=0 against the
// already-linearized constraint bounds).
func linearizedViolation(model *subproblem.Model, partition *iterate.ConstraintPartition) float64 {
	sum := 0.0
	for _, j := range partition.Infeasible {
		row := model.Constraints[j]
		if row.Lower > 0 {
			sum += row.Lower
		} else if row.Upper < 0 {
			sum += -row.Upper
		}
	}
	return sum
}

// predictedObjectiveReduction is the plain (un-penalized) quadratic
// model's predicted reduction at the full step along dx, used to compare
// the merit progress of the current-μ and μ=0 probe directions (spec.md
// §4.2.2 step 7's C2 test).
func predictedObjectiveReduction(model *subproblem.Model, dx []float64) float64 {
	gd := floats.Dot(model.Gradient, dx)
	curvature := 0.0
	if model.Hessian != nil {
		n := model.N
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				curvature += dx[i] * model.Hessian[i*n+j] * dx[j]
			}
		}
	}
	return subproblem.NewPredictedReductionModel(gd, curvature).Predict(1)
}

// subproblemComplementarity is the complementarity error of the μ=0
// probe's bound multipliers against its own displacement bounds, used in
// spec.md §4.2.2 step 5's error_0.
func subproblemComplementarity(model *subproblem.Model, dir *qp.Direction) float64 {
	n := model.N
	if len(dir.Multipliers.LowerBounds) < n || len(dir.Multipliers.UpperBounds) < n {
		return 0
	}
	compl := 0.0
	for i := 0; i < n; i++ {
		if !math.IsInf(model.Lower[i], -1) {
			compl = math.Max(compl, math.Abs(dir.Multipliers.LowerBounds[i]*(dir.D[i]-model.Lower[i])))
		}
		if !math.IsInf(model.Upper[i], 1) {
			compl = math.Max(compl, math.Abs(dir.Multipliers.UpperBounds[i]*(dir.D[i]-model.Upper[i])))
		}
	}
	return compl
}

func elasticTotal(dir *qp.Direction, n int) float64 {
	sum := 0.0
	for _, e := range dir.D[n:] {
		sum += e
	}
	return sum
}

// buildElasticModel extends model with one nonnegative elastic variable
// per partition.Infeasible constraint, relaxing only the violated side,
// and scales the x-part objective by μ so the augmented objective reads
// μf + Σ(n_j+p_j) (spec.md §4.2.2); at μ=0 the elastic penalty alone
// drives the solve, exactly the probe step 3 needs.
func buildElasticModel(model *subproblem.Model, partition *iterate.ConstraintPartition, mu float64) *subproblem.Model {
	n := model.N
	k := len(partition.Infeasible)
	nAug := n + k

	var hessian []float64
	if model.Hessian != nil {
		hessian = make([]float64, nAug*nAug)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				hessian[i*nAug+j] = mu * model.Hessian[i*n+j]
			}
		}
	}

	gradient := make([]float64, nAug)
	for i, g := range model.Gradient {
		gradient[i] = mu * g
	}
	for i := n; i < nAug; i++ {
		gradient[i] = 1
	}

	constraints := make([]qp.LinearConstraint, len(model.Constraints))
	elasticIndex := make(map[int]int, k)
	for idx, j := range partition.Infeasible {
		elasticIndex[j] = idx
	}
	for j, c := range model.Constraints {
		row := make([]float64, nAug)
		copy(row, c.Row)
		lower, upper := c.Lower, c.Upper
		if idx, relaxed := elasticIndex[j]; relaxed {
			col := n + idx
			if partition.Sides[j] == iterate.InfeasibleLower {
				row[col] = 1 // n_j raises c_j(x)+d toward its lower bound
			} else {
				row[col] = -1 // p_j lowers c_j(x)+d toward its upper bound
			}
		}
		constraints[j] = qp.LinearConstraint{Row: row, Lower: lower, Upper: upper}
	}

	lower := make([]float64, nAug)
	upper := make([]float64, nAug)
	copy(lower, model.Lower)
	copy(upper, model.Upper)
	for i := n; i < nAug; i++ {
		lower[i] = 0
		upper[i] = 1e30
	}

	return &subproblem.Model{
		N:                   nAug,
		M:                   model.M,
		Hessian:             hessian,
		Gradient:            gradient,
		Constraints:         constraints,
		Lower:               lower,
		Upper:               upper,
		ObjectiveMultiplier: model.ObjectiveMultiplier,
	}
}

// stripElastic projects an augmented Direction back onto the original n
// variables, so elastic variables never leak past the relaxation boundary
// (property P5).
func stripElastic(dir *qp.Direction, n, k int, partition *iterate.ConstraintPartition) *qp.Direction {
	out := &qp.Direction{
		D:                   append([]float64(nil), dir.D[:n]...),
		Multipliers:         dir.Multipliers,
		Status:              qp.Optimal,
		ObjectiveMultiplier: dir.ObjectiveMultiplier,
		PredictedObjective:  dir.PredictedObjective,
		Norm:                dir.Norm,
		Partition:           partition,
		IsRelaxed:           true,
	}
	if len(dir.Multipliers.Constraints) > 0 {
		out.Active = qp.NewActiveSet(n, len(dir.Multipliers.Constraints))
	}
	return out
}
