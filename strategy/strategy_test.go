// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterStrategyAcceptsSufficientDecreaseUnderSwitchingCondition(t *testing.T) {
	s := NewFilterStrategy(1.0, DefaultFilterStrategyOptions())

	in := AcceptanceInput{
		CurrentInfeasibility: 0.1,
		CurrentObjective:     10,
		TrialInfeasibility:   0.05,
		TrialObjective:       9,
		PredictedReduction:   1.0,
	}
	require.True(t, s.CheckAcceptance(in))
}

// TestFilterStrategyRejectsSwitchingTrialThatFailsArmijo is a regression
// test for spec.md §4.2's if/else: when the switching condition holds but
// the Armijo test fails, the trial must be rejected outright, never
// falling through to a filter-membership check that could spuriously
// accept it.
func TestFilterStrategyRejectsSwitchingTrialThatFailsArmijo(t *testing.T) {
	s := NewFilterStrategy(1.0, DefaultFilterStrategyOptions())

	in := AcceptanceInput{
		CurrentInfeasibility: 0.1,
		CurrentObjective:     10,
		TrialInfeasibility:   0.0, // trivially passes filter membership
		TrialObjective:       9.9999999, // decrease far below ArmijoEta·PredictedReduction
		PredictedReduction:   1.0,
	}
	require.False(t, s.CheckAcceptance(in))
}

func TestFilterStrategyRejectsWhenFilterDominated(t *testing.T) {
	s := NewFilterStrategy(1.0, DefaultFilterStrategyOptions())
	s.Filter.Notify(0.01, 5.0)

	in := AcceptanceInput{
		CurrentInfeasibility: 0.1,
		CurrentObjective:     10,
		TrialInfeasibility:   0.02,
		TrialObjective:       6.0,
		PredictedReduction:   0, // switching condition fails, falls through to filter membership
	}
	require.False(t, s.CheckAcceptance(in))
}

func TestL1PenaltyStrategyAcceptsMeritDecrease(t *testing.T) {
	s := NewL1PenaltyStrategy(1.0)
	in := AcceptanceInput{
		CurrentInfeasibility: 0.1,
		CurrentObjective:     10,
		TrialInfeasibility:   0.0,
		TrialObjective:       9,
		PredictedReduction:   1.1,
	}
	require.True(t, s.CheckAcceptance(in))
}

func TestL1PenaltyStrategyRejectsMeritIncrease(t *testing.T) {
	s := NewL1PenaltyStrategy(1.0)
	in := AcceptanceInput{
		CurrentInfeasibility: 0.0,
		CurrentObjective:     10,
		TrialInfeasibility:   0.5,
		TrialObjective:       10.5,
		PredictedReduction:   -0.5,
	}
	require.False(t, s.CheckAcceptance(in))
}
