// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"time"

	"github.com/curioloop/nlpsolve/iterate"
)

// Result is the driver's return value (spec.md §4.5).
type Result struct {
	Status    TerminationStatus
	Iterate   *iterate.Iterate
	Counters  iterate.Snapshot
	Iterations int
	WallTime  time.Duration
}
