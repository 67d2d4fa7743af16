// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterate

import "sync/atomic"

// Counters tracks process-wide evaluation counts for observability (spec.md
// §3, §5). The solver is single-threaded by design, so contention is never
// expected; the counters are atomic only because the type is process-wide
// shared state and a future caller might embed it in a concurrent harness
// (e.g. running several independent solves in separate goroutines that
// happen to share one Problem's telemetry).
type Counters struct {
	objective int64
	constraints int64
	objectiveGrad int64
	constraintJac int64
	lagrangianHess int64
}

func (c *Counters) IncObjective()      { atomic.AddInt64(&c.objective, 1) }
func (c *Counters) IncConstraints()    { atomic.AddInt64(&c.constraints, 1) }
func (c *Counters) IncObjectiveGrad()  { atomic.AddInt64(&c.objectiveGrad, 1) }
func (c *Counters) IncConstraintJac()  { atomic.AddInt64(&c.constraintJac, 1) }
func (c *Counters) IncLagrangianHess() { atomic.AddInt64(&c.lagrangianHess, 1) }

// Snapshot is a point-in-time read of the counters.
type Snapshot struct {
	Objective      int64
	Constraints    int64
	ObjectiveGrad  int64
	ConstraintJac  int64
	LagrangianHess int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Objective:      atomic.LoadInt64(&c.objective),
		Constraints:    atomic.LoadInt64(&c.constraints),
		ObjectiveGrad:  atomic.LoadInt64(&c.objectiveGrad),
		ConstraintJac:  atomic.LoadInt64(&c.constraintJac),
		LagrangianHess: atomic.LoadInt64(&c.lagrangianHess),
	}
}
