// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subproblem

// PredictedReduction is the scalar model a globalization mechanism
// evaluates at a candidate step length without re-solving the subproblem
// (spec.md §4.1 generate_predicted_reduction_model). *PredictedReductionModel
// is the plain quadratic instance every Subproblem produces; constraint-
// relaxation strategies that compose it with their own correction (l1
// relaxation's r0-based formula, spec.md §4.2.2) implement it directly.
type PredictedReduction interface {
	Predict(alpha float64) float64
}

// PredictedReductionModel captures the subproblem's local model of the
// objective decrease along the computed direction, so a globalization
// mechanism can evaluate it at a fraction of the full step without
// re-solving the subproblem (spec.md §4.1, generate_predicted_reduction_model).
type PredictedReductionModel struct {
	gradientDotDirection float64
	curvatureTerm        float64
}

// NewPredictedReductionModel builds the quadratic model
// m(α) = -α·(gᵀd) - ½α²(dᵀHd) from the linear and quadratic terms already
// computed while solving the subproblem (gradientDotDirection = gᵀd,
// curvatureTerm = dᵀHd); Predict(1) then equals the negated predicted
// objective change gᵀd + ½dᵀHd of the subproblem.
func NewPredictedReductionModel(gradientDotDirection, curvatureTerm float64) *PredictedReductionModel {
	return &PredictedReductionModel{
		gradientDotDirection: gradientDotDirection,
		curvatureTerm:        curvatureTerm,
	}
}

// Predict returns the predicted objective reduction for a step of length
// alpha along the direction (alpha ∈ (0, 1]), always ≥ 0 for a descent
// direction.
func (m *PredictedReductionModel) Predict(alpha float64) float64 {
	return -alpha*m.gradientDotDirection - 0.5*alpha*alpha*m.curvatureTerm
}
