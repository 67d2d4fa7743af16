// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command solver is the thin CLI spec.md §6 describes:
// solver <model> -preset <name> [-<option> <value>]*
// Exit code 0 on any terminal status from spec.md §4.5; nonzero only on an
// unrecoverable internal failure (unknown model name, malformed flags).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/curioloop/nlpsolve/iterate"
	"github.com/curioloop/nlpsolve/models"
	"github.com/curioloop/nlpsolve/problem"
	"github.com/curioloop/nlpsolve/solver"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "solver:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: solver <model> [-preset name] [-option value]...\nmodels: %s",
			strings.Join(models.Names(), ", "))
	}
	modelName := args[0]

	fs := flag.NewFlagSet("solver", flag.ContinueOnError)
	preset := fs.String("preset", "", "option preset: ipopt, filtersqp, byrd")
	verbose := fs.Bool("v", false, "print the per-iteration statistics table")
	extra := make(map[string]*string)
	for _, key := range []string{
		"mechanism", "constraint-relaxation", "strategy", "subproblem", "hessian_model",
		"tolerance", "max_iterations", "TR_radius", "LS_backtracking_ratio",
		"filter_beta", "filter_gamma",
		"l1_relaxation_initial_parameter", "l1_relaxation_epsilon1", "l1_relaxation_epsilon2", "l1_relaxation_decrease_factor",
		"armijo_decrease_fraction", "small_step_factor",
	} {
		extra[key] = fs.String(key, "", "")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	model, err := models.Lookup(modelName)
	if err != nil {
		return err
	}

	opt := solver.NewOptions()
	if *preset != "" {
		opt.ApplyPreset(*preset)
	}
	for key, v := range extra {
		if *v != "" {
			opt[key] = *v
		}
	}

	counters := &iterate.Counters{}
	x0 := problem.EnforceLinearConstraints(model.Problem, model.X0)
	current := iterate.New(model.Problem, x0, counters)

	var stats *solver.Statistics
	if *verbose {
		stats = solver.NewStatistics(os.Stdout, true)
	}

	driver, err := solver.Build(opt, current.Progress.Infeasibility, stats)
	if err != nil {
		return err
	}

	result := driver.Solve(model.Problem, current, counters)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("x*: %v\n", result.Iterate.X)
	fmt.Printf("f*: %.6f\n", result.Iterate.Progress.Objective)
	fmt.Printf("iterations: %d (wall %s)\n", result.Iterations, result.WallTime)
	fmt.Printf("evaluations: objective=%d constraints=%d gradient=%d jacobian=%d hessian=%d\n",
		result.Counters.Objective, result.Counters.Constraints, result.Counters.ObjectiveGrad,
		result.Counters.ConstraintJac, result.Counters.LagrangianHess)

	return nil
}
