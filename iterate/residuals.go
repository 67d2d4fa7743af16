// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/nlpsolve/problem"
)

// Residuals holds the termination-test quantities spec.md §3 names:
// infeasibility, the two flavors of stationarity/complementarity error (the
// "optimality" measure uses all constraints, the "feasibility" measure
// ignores the objective), and the Ipopt-style scaling factors.
type Residuals struct {
	Infeasibility            float64
	OptimalityStationarity   float64
	FeasibilityStationarity  float64
	OptimalityComplementarity float64
	FeasibilityComplementarity float64
	StationarityScaling      float64
	ComplementarityScaling   float64
}

// Progress holds the two coordinates the filter compares: infeasibility and
// objective value.
type Progress struct {
	Infeasibility float64
	Objective     float64
}

// sMax is the Ipopt scaling constant s_max in
// max(s_max, ‖λ‖₁/(n+m)) / s_max (spec.md §4.5).
const sMax = 100.0

// recomputeResiduals implements invariant I3 (residuals recomputed whenever
// x or multipliers change) and I2 (progress.infeasibility equals the L1
// constraint violation).
func (it *Iterate) recomputeResiduals() {
	p := it.problem
	n, m := p.NumVariables, p.NumConstraints

	c := it.Constraints()
	infeas := p.ConstraintViolation(c, problem.L1)
	it.Progress.Infeasibility = infeas
	it.Progress.Objective = it.Objective()

	grad := it.ObjectiveGradient()
	jac := it.ConstraintJacobian()
	lambda := it.Multipliers.Constraints
	zL, zU := it.Multipliers.LowerBounds, it.Multipliers.UpperBounds

	// stationarity: ∇f + Jᵀλ - z_L - z_U, split into "optimality" (objective
	// included) and "feasibility" (objective dropped, used only while in
	// feasibility restoration per spec.md §4.2.1).
	statOpt := make([]float64, n)
	statFeas := make([]float64, n)
	grad.ScatterTo(statOpt, 1)
	for j, row := range jac {
		row.ScatterTo(statOpt, lambda[j])
		row.ScatterTo(statFeas, lambda[j])
	}
	for i := 0; i < n; i++ {
		statOpt[i] -= zL[i] + zU[i]
		statFeas[i] -= zL[i] + zU[i]
	}
	it.Residuals.OptimalityStationarity = floats.Norm(statOpt, math.Inf(1))
	it.Residuals.FeasibilityStationarity = floats.Norm(statFeas, math.Inf(1))

	// complementarity: variable-bound and constraint-bound complementarity
	// products, each measured against the distance to the active bound.
	compl := 0.0
	for i := 0; i < n; i++ {
		b := p.VariablesBounds[i]
		if !math.IsInf(b.Lower, -1) {
			compl = math.Max(compl, math.Abs(zL[i]*(it.X[i]-b.Lower)))
		}
		if !math.IsInf(b.Upper, 1) {
			compl = math.Max(compl, math.Abs(zU[i]*(it.X[i]-b.Upper)))
		}
	}
	for j := 0; j < m; j++ {
		b := p.ConstraintBounds[j]
		if !math.IsInf(b.Lower, -1) {
			compl = math.Max(compl, math.Abs(lambda[j]*(c[j]-b.Lower)))
		}
		if !math.IsInf(b.Upper, 1) {
			compl = math.Max(compl, math.Abs(lambda[j]*(c[j]-b.Upper)))
		}
	}
	it.Residuals.OptimalityComplementarity = compl
	it.Residuals.FeasibilityComplementarity = compl

	lambdaNorm := it.Multipliers.L1Norm()
	for _, v := range zL {
		lambdaNorm += math.Abs(v)
	}
	for _, v := range zU {
		lambdaNorm += math.Abs(v)
	}
	scale := math.Max(sMax, lambdaNorm/float64(n+m)) / sMax
	it.Residuals.StationarityScaling = scale
	it.Residuals.ComplementarityScaling = scale
}
