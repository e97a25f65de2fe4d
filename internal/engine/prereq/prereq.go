// Package prereq computes layered prerequisite sets, promotion edges between stages
// and compiler invocations.
package prereq

import (
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// hostKinds are the host artifacts every compiler run at a stage needs.
var hostKinds = []domain.ArtifactKind{
	domain.KindDriver,
	domain.KindRuntime,
	domain.KindBackendInterop,
	domain.KindCoreLib,
	domain.KindStdLib,
	domain.KindCompilerLib,
}

var crossKinds = []domain.ArtifactKind{
	domain.KindRuntime,
	domain.KindLinkSupport,
}

var completeKinds = []domain.ArtifactKind{
	domain.KindCoreLib,
	domain.KindStdLib,
	domain.KindCompilerLib,
	domain.KindBackendInterop,
	domain.KindDriver,
}

var auxKinds = []domain.ArtifactKind{
	domain.KindPackageTool,
	domain.KindDocTool,
}

// AuxStage is the stage whose target-side build of the auxiliary tools gets promoted.
const AuxStage domain.Stage = 1

// Engine derives prerequisite sets from a Resolver.
type Engine struct {
	res   *resolver.Resolver
	stamp string
	opts  domain.Options
	instr domain.Instrumentation
}

// New creates an Engine.
func New(res *resolver.Resolver, cfg *domain.Configuration, opts domain.Options) *Engine {
	return &Engine{
		res:   res,
		stamp: domain.ConfigStampName,
		opts:  opts,
		instr: cfg.Instrumentation,
	}
}

// Stamp returns the path of the configuration stamp every set starts with.
func (e *Engine) Stamp() string {
	return e.stamp
}

// HostKinds returns the artifact kinds of a stage's host requirements.
func HostKinds() []domain.ArtifactKind {
	return append([]domain.ArtifactKind(nil), hostKinds...)
}

// HostRequirements returns what must exist to run the stage-N compiler on host H.
func (e *Engine) HostRequirements(stage domain.Stage, host domain.Triple) (domain.PrerequisiteSet, error) {
	set := domain.NewPrerequisiteSet(domain.StampPrereq(e.stamp))
	for _, k := range hostKinds {
		p, err := e.res.Host(stage, host, k)
		if err != nil {
			return domain.PrerequisiteSet{}, err
		}
		set.AddArtifacts(p)
	}
	return set, nil
}

// TargetCrossRequirements adds the target runtime and link support needed to link
// programs for T.
func (e *Engine) TargetCrossRequirements(
	stage domain.Stage, target, host domain.Triple,
) (domain.PrerequisiteSet, error) {
	set, err := e.HostRequirements(stage, host)
	if err != nil {
		return domain.PrerequisiteSet{}, err
	}
	if err := e.addTarget(&set, stage, target, host, crossKinds); err != nil {
		return domain.PrerequisiteSet{}, err
	}
	return set, nil
}

// TargetCompleteRequirements adds the target libraries and driver, producing a full
// toolchain for T.
func (e *Engine) TargetCompleteRequirements(
	stage domain.Stage, target, host domain.Triple,
) (domain.PrerequisiteSet, error) {
	set, err := e.TargetCrossRequirements(stage, target, host)
	if err != nil {
		return domain.PrerequisiteSet{}, err
	}
	if err := e.addTarget(&set, stage, target, host, completeKinds); err != nil {
		return domain.PrerequisiteSet{}, err
	}
	return set, nil
}

func (e *Engine) addTarget(
	set *domain.PrerequisiteSet, stage domain.Stage, target, host domain.Triple, kinds []domain.ArtifactKind,
) error {
	for _, k := range kinds {
		p, err := e.res.Target(stage, target, host, k)
		if err != nil {
			return err
		}
		set.AddArtifacts(p)
	}
	return nil
}

// Promotions returns the copy edges turning stage N target artifacts for the host
// itself into stage N+1 host artifacts.
func (e *Engine) Promotions(stage domain.Stage, host domain.Triple) ([]domain.PromotionEdge, error) {
	if stage >= domain.MaxStage {
		return nil, zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "no stage to promote into"), "stage", int(stage))
	}
	return e.promote(stage, host, hostKinds)
}

// AuxPromotions returns the edges promoting the auxiliary tools built by the stage-1
// compiler into the stage-2 host tree.
func (e *Engine) AuxPromotions(host domain.Triple) ([]domain.PromotionEdge, error) {
	return e.promote(AuxStage, host, auxKinds)
}

func (e *Engine) promote(
	stage domain.Stage, host domain.Triple, kinds []domain.ArtifactKind,
) ([]domain.PromotionEdge, error) {
	edges := make([]domain.PromotionEdge, 0, len(kinds))
	for _, k := range kinds {
		to, ok := k.PromotesTo()
		if !ok {
			continue
		}
		from, err := e.res.Target(stage, host, host, k)
		if err != nil {
			return nil, err
		}
		dst, err := e.res.Host(stage.Next(), host, to)
		if err != nil {
			return nil, err
		}
		edges = append(edges, domain.PromotionEdge{From: from, To: dst})
	}
	return edges, nil
}
