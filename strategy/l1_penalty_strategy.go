// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

// L1PenaltyStrategy accepts a trial iterate by an Armijo sufficient-decrease
// test on the l1 merit function φ(x) = μf(x) + θ(x) (spec.md §4.2
// L1PenaltyStrategy), the simpler classical alternative to filter
// acceptance.
type L1PenaltyStrategy struct {
	Penalty float64 // μ
	Eta     float64
}

// NewL1PenaltyStrategy builds an L1PenaltyStrategy with the given initial
// penalty parameter.
func NewL1PenaltyStrategy(penalty float64) *L1PenaltyStrategy {
	return &L1PenaltyStrategy{Penalty: penalty, Eta: 1e-4}
}

func (s *L1PenaltyStrategy) Reset() {}

// SetPenalty updates μ. Nothing in this module calls it.
func (s *L1PenaltyStrategy) SetPenalty(mu float64) { s.Penalty = mu }

func (s *L1PenaltyStrategy) CheckAcceptance(in AcceptanceInput) bool {
	currentMerit := s.Penalty*in.CurrentObjective + in.CurrentInfeasibility
	trialMerit := s.Penalty*in.TrialObjective + in.TrialInfeasibility
	predictedMeritReduction := s.Penalty*in.PredictedReduction + (in.CurrentInfeasibility - in.TrialInfeasibility)
	if predictedMeritReduction <= 0 {
		return trialMerit <= currentMerit
	}
	return currentMerit-trialMerit >= s.Eta*predictedMeritReduction
}
