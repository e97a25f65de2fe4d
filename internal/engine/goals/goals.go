// Package goals resolves named top-level goals into prerequisite sets.
package goals

import (
	"fmt"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/prereq"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// ToolchainStage is the stage a toolchain goal builds.
const ToolchainStage domain.Stage = 2

// Aggregator maps goal names to prerequisite sets.
type Aggregator struct {
	engine *prereq.Engine
	res    *resolver.Resolver
	cfg    *domain.Configuration
}

// New creates an Aggregator.
func New(engine *prereq.Engine, res *resolver.Resolver, cfg *domain.Configuration) *Aggregator {
	return &Aggregator{engine: engine, res: res, cfg: cfg}
}

// StageGoal is the union over every target of the complete stage-N toolchain for H.
func (a *Aggregator) StageGoal(stage domain.Stage, host domain.Triple) (domain.PrerequisiteSet, error) {
	if stage <= domain.MinStage {
		return domain.PrerequisiteSet{}, zerr.With(
			zerr.Wrap(domain.ErrOutOfDomain, "stage goals start at stage 1"), "stage", int(stage))
	}
	if err := a.res.Matrix().CheckHost(host); err != nil {
		return domain.PrerequisiteSet{}, err
	}

	var set domain.PrerequisiteSet
	for _, target := range a.res.Matrix().Targets() {
		complete, err := a.engine.TargetCompleteRequirements(stage, target, host)
		if err != nil {
			return domain.PrerequisiteSet{}, err
		}
		set = set.Union(complete)
	}
	return set, nil
}

// ToolchainGoal is StageGoal(2, H).
func (a *Aggregator) ToolchainGoal(host domain.Triple) (domain.PrerequisiteSet, error) {
	return a.StageGoal(ToolchainStage, host)
}

// VerifyGoal builds stage 3 and requests a comparison of the stage 2 and stage 3 host
// artifacts.
func (a *Aggregator) VerifyGoal(host domain.Triple) (domain.GoalPlan, error) {
	set, err := a.StageGoal(domain.MaxStage, host)
	if err != nil {
		return domain.GoalPlan{}, err
	}
	return domain.GoalPlan{
		Name:    domain.VerifyGoalName(host),
		Prereqs: set,
		Verify:  true,
		Host:    host,
	}, nil
}

// DefaultGoal builds the primary host's toolchain, its auxiliary tools and the
// generated outputs. In-transition configurations stop after the stage-1 toolchain.
func (a *Aggregator) DefaultGoal() (domain.GoalPlan, error) {
	primary := a.cfg.PrimaryHost
	plan := domain.GoalPlan{Name: domain.DefaultGoalName, Host: primary}

	if a.cfg.InTransition {
		set, err := a.engine.TargetCompleteRequirements(1, primary, primary)
		if err != nil {
			return domain.GoalPlan{}, err
		}
		plan.Prereqs = set
		plan.Notices = append(plan.Notices, fmt.Sprintf(
			"in-transition configuration: default goal stops at the stage 1 toolchain for %s", primary))
	} else {
		set, err := a.ToolchainGoal(primary)
		if err != nil {
			return domain.GoalPlan{}, err
		}
		aux, err := a.engine.AuxPromotions(primary)
		if err != nil {
			return domain.GoalPlan{}, err
		}
		for _, edge := range aux {
			set.AddArtifacts(edge.To)
		}
		plan.Prereqs = set
	}

	for _, g := range a.cfg.Generated {
		plan.Prereqs.Add(domain.SourcePrereq(g.Output))
	}
	return plan, nil
}

// Resolve parses a goal name and returns its plan. Names that are not canonical yield
// ErrUnknownGoal.
func (a *Aggregator) Resolve(name string) (domain.GoalPlan, error) {
	req, ok := domain.ParseGoal(name)
	if !ok {
		return domain.GoalPlan{}, zerr.With(zerr.Wrap(domain.ErrUnknownGoal, "goal not recognised"), "goal", name)
	}

	switch req.Kind {
	case domain.GoalDefault:
		return a.DefaultGoal()
	case domain.GoalVerify:
		return a.VerifyGoal(req.Host)
	default:
		set, err := a.StageGoal(req.Stage, req.Host)
		if err != nil {
			return domain.GoalPlan{}, zerr.With(err, "goal", name)
		}
		return domain.GoalPlan{Name: name, Prereqs: set, Host: req.Host}, nil
	}
}

// Names lists every canonical goal of the configuration.
func (a *Aggregator) Names() []string {
	names := []string{domain.DefaultGoalName}
	for _, h := range a.res.Matrix().Hosts() {
		for s := domain.MinStage + 1; s <= domain.MaxStage; s++ {
			names = append(names, domain.StageGoalName(s, h))
		}
		names = append(names, domain.ToolchainGoalName(h), domain.VerifyGoalName(h))
	}
	return names
}
