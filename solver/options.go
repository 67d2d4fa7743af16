// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver assembles the mechanism/relaxation/strategy/subproblem
// layers into the outer driver loop (spec.md §4.5), plus the ambient
// configuration and statistics-reporting pieces (spec.md §3 AMBIENT STACK).
package solver

import (
	"strconv"
)

// Options is the string-keyed configuration map spec.md §6 specifies,
// mirroring Uno's Options class (original_source/uno/tools/Options.cpp):
// every tunable is a (key, string-value) pair, parsed lazily by the typed
// accessors below.
type Options map[string]string

// NewOptions returns an empty Options map.
func NewOptions() Options {
	return Options{}
}

// GetString returns the raw string value, or def if key is unset.
func (o Options) GetString(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// GetDouble parses the value as float64, or returns def if unset/unparsable.
func (o Options) GetDouble(key string, def float64) float64 {
	v, ok := o[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// GetInt parses the value as int, or returns def if unset/unparsable.
func (o Options) GetInt(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// GetBool parses "true"/"false" (case-insensitive), or returns def.
func (o Options) GetBool(key string, def bool) bool {
	v, ok := o[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ApplyPreset fills in the named combination of mechanism/relaxation/
// strategy/subproblem options, the same shortcuts
// original_source/uno/tools/Options.cpp::find_preset registers. Unknown
// preset names are a no-op, matching the original's silent fallthrough.
func (o Options) ApplyPreset(preset string) {
	switch preset {
	case "ipopt":
		o["mechanism"] = "LS"
		o["constraint-relaxation"] = "feasibility-restoration"
		o["strategy"] = "filter"
		o["subproblem"] = "IPM"
		o["filter_beta"] = "0.99999"
		o["filter_gamma"] = "1e-5"
		o["armijo_decrease_fraction"] = "1e-4"
		o["LS_backtracking_ratio"] = "0.5"
	case "filtersqp":
		o["mechanism"] = "TR"
		o["constraint-relaxation"] = "feasibility-restoration"
		o["strategy"] = "filter"
		o["subproblem"] = "SQP"
	case "byrd":
		o["mechanism"] = "LS"
		o["constraint-relaxation"] = "l1-relaxation"
		o["strategy"] = "l1-penalty"
		o["subproblem"] = "SQP"
		o["l1_relaxation_initial_parameter"] = "1"
		o["LS_backtracking_ratio"] = "0.5"
		o["armijo_decrease_fraction"] = "1e-8"
		o["l1_relaxation_epsilon1"] = "0.1"
		o["l1_relaxation_epsilon2"] = "0.1"
		o["tolerance"] = "1e-6"
	}
}
