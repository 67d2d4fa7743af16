// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"fmt"

	"github.com/curioloop/nlpsolve/mechanism"
	"github.com/curioloop/nlpsolve/relaxation"
	"github.com/curioloop/nlpsolve/strategy"
	"github.com/curioloop/nlpsolve/subproblem"
)

// Build assembles a Driver from Options (spec.md §6's recognised keys:
// mechanism, constraint-relaxation, strategy, subproblem, hessian_model),
// applying a preset first if one is named. thetaInitial is the initial
// iterate's infeasibility, needed to seed a FilterStrategy's upper bound.
func Build(opt Options, thetaInitial float64, stats *Statistics) (*Driver, error) {
	hess, err := buildHessian(opt.GetString("hessian_model", "exact"))
	if err != nil {
		return nil, err
	}

	sub, err := buildSubproblem(opt.GetString("subproblem", "QP"), hess)
	if err != nil {
		return nil, err
	}

	relax, err := buildRelaxation(opt.GetString("constraint-relaxation", "feasibility-restoration"), sub)
	if err != nil {
		return nil, err
	}

	relax, err = applyL1RelaxationOptions(relax, opt)
	if err != nil {
		return nil, err
	}

	strat, err := buildStrategy(opt.GetString("strategy", "filter"), opt, thetaInitial)
	if err != nil {
		return nil, err
	}

	mech, err := buildMechanism(opt.GetString("mechanism", "TR"), opt)
	if err != nil {
		return nil, err
	}

	return NewDriver(mech, relax, strat, opt, stats), nil
}

func buildHessian(name string) (subproblem.HessianModel, error) {
	switch name {
	case "exact":
		return subproblem.ExactHessian{}, nil
	case "zero":
		return subproblem.ZeroHessian{}, nil
	case "BFGS":
		return &subproblem.BFGSHessian{}, nil
	case "SR1":
		return &subproblem.SR1Hessian{}, nil
	case "LBFGS":
		return subproblem.NewLBFGSHessian(10), nil
	case "gauss-newton":
		return subproblem.GaussNewtonHessian{}, nil
	default:
		return nil, fmt.Errorf("solver: unknown hessian_model %q", name)
	}
}

func buildSubproblem(name string, hess subproblem.HessianModel) (subproblem.Subproblem, error) {
	switch name {
	case "QP", "SQP":
		return subproblem.NewQPSubproblem(hess), nil
	case "LP":
		return subproblem.NewLPSubproblem(), nil
	case "primal_dual_interior_point", "IPM":
		return subproblem.NewInteriorPointSubproblem(hess), nil
	case "LBFGSB":
		return subproblem.NewLBFGSBSubproblem(hess), nil
	default:
		return nil, fmt.Errorf("solver: unknown subproblem %q", name)
	}
}

func buildRelaxation(name string, sub subproblem.Subproblem) (relaxation.ConstraintRelaxation, error) {
	switch name {
	case "feasibility-restoration":
		return relaxation.NewFeasibilityRestoration(sub), nil
	case "l1-relaxation":
		return relaxation.NewL1Relaxation(sub), nil
	default:
		return nil, fmt.Errorf("solver: unknown constraint-relaxation %q", name)
	}
}

// applyL1RelaxationOptions reads the l1_relaxation_* option keys onto an
// L1Relaxation's penalty-steering schedule (spec.md §4.2.2); a no-op for
// every other ConstraintRelaxation.
func applyL1RelaxationOptions(relax relaxation.ConstraintRelaxation, opt Options) (relaxation.ConstraintRelaxation, error) {
	l1, ok := relax.(*relaxation.L1Relaxation)
	if !ok {
		return relax, nil
	}
	l1.Options.InitialPenalty = opt.GetDouble("l1_relaxation_initial_parameter", l1.Options.InitialPenalty)
	l1.Options.Epsilon1 = opt.GetDouble("l1_relaxation_epsilon1", l1.Options.Epsilon1)
	l1.Options.Epsilon2 = opt.GetDouble("l1_relaxation_epsilon2", l1.Options.Epsilon2)
	l1.Options.DecreaseFactor = opt.GetDouble("l1_relaxation_decrease_factor", l1.Options.DecreaseFactor)
	return l1, nil
}

func buildStrategy(name string, opt Options, thetaInitial float64) (strategy.GlobalizationStrategy, error) {
	switch name {
	case "filter":
		fopt := strategy.DefaultFilterStrategyOptions()
		fopt.FilterBeta = opt.GetDouble("filter_beta", fopt.FilterBeta)
		fopt.FilterGamma = opt.GetDouble("filter_gamma", fopt.FilterGamma)
		fopt.ArmijoEta = opt.GetDouble("armijo_decrease_fraction", fopt.ArmijoEta)
		return strategy.NewFilterStrategy(thetaInitial, fopt), nil
	case "l1-penalty":
		mu := opt.GetDouble("l1_relaxation_initial_parameter", 1.0)
		return strategy.NewL1PenaltyStrategy(mu), nil
	default:
		return nil, fmt.Errorf("solver: unknown strategy %q", name)
	}
}

func buildMechanism(name string, opt Options) (mechanism.GlobalizationMechanism, error) {
	switch name {
	case "TR":
		topt := mechanism.DefaultTrustRegionOptions()
		topt.InitialRadius = opt.GetDouble("TR_radius", topt.InitialRadius)
		return mechanism.NewTrustRegion(topt), nil
	case "LS":
		lopt := mechanism.DefaultBacktrackingLineSearchOptions()
		lopt.ContractionRatio = opt.GetDouble("LS_backtracking_ratio", lopt.ContractionRatio)
		return mechanism.NewBacktrackingLineSearch(lopt, 1e10), nil
	case "LS-exact":
		eopt := mechanism.DefaultExactLineSearchOptions()
		return mechanism.NewExactLineSearch(eopt, 1e10), nil
	default:
		return nil, fmt.Errorf("solver: unknown mechanism %q", name)
	}
}
