// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/mechanism"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/relaxation"
	"github.com/curioloop/nlpsolve/strategy"
)

// Driver runs the outer loop spec.md §4.5 pseudocodes: repeatedly ask the
// mechanism for an acceptable iterate, test termination, and stop at
// max_iterations with NOT_OPTIMAL.
type Driver struct {
	Mechanism  mechanism.GlobalizationMechanism
	Relaxation relaxation.ConstraintRelaxation
	Strategy   strategy.GlobalizationStrategy

	Options    Options
	Stats      *Statistics
}

// NewDriver wires the three strategy layers together with the given
// options; Stats may be nil to disable per-iteration reporting.
func NewDriver(mech mechanism.GlobalizationMechanism, relax relaxation.ConstraintRelaxation, strat strategy.GlobalizationStrategy, opt Options, stats *Statistics) *Driver {
	return &Driver{Mechanism: mech, Relaxation: relax, Strategy: strat, Options: opt, Stats: stats}
}

// Solve runs the driver loop from the already-built starting iterate (the
// caller constructs it via iterate.New so thetaInitial can be read off it
// before Build seeds the filter strategy, without evaluating the problem
// twice) to a terminal status.
func (d *Driver) Solve(p *problem.Problem, current *iterate.Iterate, counters *iterate.Counters) Result {
	start := time.Now()

	tolerance := d.Options.GetDouble("tolerance", 1e-8)
	maxIterations := d.Options.GetInt("max_iterations", 1000)
	smallStepFactor := d.Options.GetDouble("small_step_factor", 1e2)
	initialControl := d.Options.GetDouble("TR_radius", 0)

	d.Relaxation.Initialize(p, current)
	d.Mechanism.Initialize(initialControl)
	d.Strategy.Reset()

	status := NotOptimal
	k := 0
	for status == NotOptimal && k < maxIterations {
		trial, outcome := d.Mechanism.ComputeAcceptableIterate(p, current, d.Relaxation, d.Strategy, counters)
		if outcome == mechanism.FatalCollapse {
			status = NotOptimal
			break
		}

		if d.Relaxation.ConsumeStrategyReset() {
			d.Strategy.Reset()
		}

		stepNorm := stepLength(current.X, trial.X)
		status = CheckTermination(trial, stepNorm, tolerance, smallStepFactor, d.Mechanism.LastObjectiveMultiplier())

		if d.Stats != nil {
			d.Stats.Add(Row{
				MajorIteration:  k,
				StepNorm:        stepNorm,
				Objective:       trial.Progress.Objective,
				Infeasibility:   trial.Progress.Infeasibility,
				Complementarity: trial.Residuals.OptimalityComplementarity,
				Stationarity:    trial.Residuals.OptimalityStationarity,
				ExtraLabel:      "control",
				ExtraValue:      fmt.Sprintf("%.3e", d.Mechanism.Control()),
			})
		}

		current = trial
		k++
	}
	if d.Stats != nil {
		d.Stats.Flush()
	}

	return Result{
		Status:     status,
		Iterate:    current,
		Counters:   counters.Snapshot(),
		Iterations: k,
		WallTime:   time.Since(start),
	}
}

func stepLength(from, to []float64) float64 {
	sum := 0.0
	for i := range from {
		d := to[i] - from[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
