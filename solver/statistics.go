// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Statistics is the per-iteration column table spec.md §9's design notes
// describe (Uno.cpp::create_statistics/add_statistics): one row per major
// iteration, printed to Out when Enabled is set. No
// third-party table-formatting library appears anywhere in the retrieval
// pack, so this stays on text/tabwriter (stdlib) — see DESIGN.md.
type Statistics struct {
	Out     io.Writer
	Enabled bool

	w        *tabwriter.Writer
	headered bool
}

// NewStatistics builds a Statistics table writing to out; Enabled controls
// whether Add actually prints anything, so callers can leave it wired at
// zero verbosity without branching at every call site.
func NewStatistics(out io.Writer, enabled bool) *Statistics {
	return &Statistics{
		Out:     out,
		Enabled: enabled,
		w:       tabwriter.NewWriter(out, 2, 4, 2, ' ', 0),
	}
}

// Row is one iteration's worth of columns. Extra carries a strategy-specific
// label (e.g. "penalty param." for l1-relaxation, "phase" for feasibility
// restoration).
type Row struct {
	MajorIteration, MinorIteration int
	StepNorm, Objective            float64
	Infeasibility, Complementarity float64
	Stationarity                   float64
	ExtraLabel                     string
	ExtraValue                     string
}

// Add writes one row, printing the header on the first call.
func (s *Statistics) Add(r Row) {
	if !s.Enabled {
		return
	}
	if !s.headered {
		fmt.Fprintf(s.w, "iter\tsub-iter\t‖step‖\tobjective\tinfeasibility\tcomplementarity\tstationarity\t%s\t\n",
			headerOr(r.ExtraLabel, "note"))
		s.headered = true
	}
	fmt.Fprintf(s.w, "%d\t%d\t%.3e\t%.6e\t%.3e\t%.3e\t%.3e\t%s\t\n",
		r.MajorIteration, r.MinorIteration, r.StepNorm, r.Objective,
		r.Infeasibility, r.Complementarity, r.Stationarity, r.ExtraValue)
}

// Flush commits buffered rows to Out, aligning columns.
func (s *Statistics) Flush() error {
	return s.w.Flush()
}

func headerOr(label, def string) string {
	if label == "" {
		return def
	}
	return label
}
