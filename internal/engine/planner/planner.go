// Package planner constructs the action graph of an invocation from the stage and
// triple matrix.
package planner

import (
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/prereq"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Planner turns a configuration into the complete action graph. Graph construction is
// eager: every tuple of the matrix gets its actions, execution later picks the closure
// of the requested goals.
type Planner struct {
	root   string
	cfg    *domain.Configuration
	opts   domain.Options
	res    *resolver.Resolver
	engine *prereq.Engine
	walker ports.Walker

	sources map[string][]string
	plan    *domain.PlanContext
}

// New creates a Planner for the build root.
func New(
	root string,
	cfg *domain.Configuration,
	opts domain.Options,
	res *resolver.Resolver,
	engine *prereq.Engine,
	walker ports.Walker,
) *Planner {
	return &Planner{
		root:    root,
		cfg:     cfg,
		opts:    opts,
		res:     res,
		engine:  engine,
		walker:  walker,
		sources: make(map[string][]string),
	}
}

// Plan builds the graph and the accumulated plan context.
func (p *Planner) Plan() (*domain.Graph, *domain.PlanContext, error) {
	g := domain.NewGraph()
	g.SetRoot(p.root)
	p.plan = &domain.PlanContext{}

	m := p.res.Matrix()
	for _, h := range m.Hosts() {
		if err := p.addFetch(g, h); err != nil {
			return nil, nil, err
		}
	}
	for _, t := range m.Targets() {
		if err := p.addRecipes(g, t); err != nil {
			return nil, nil, err
		}
	}
	for tp := range m.Tuples() {
		if err := p.addTuple(g, tp); err != nil {
			return nil, nil, err
		}
	}
	for _, h := range m.Hosts() {
		if err := p.addPromotions(g, h); err != nil {
			return nil, nil, err
		}
	}
	for _, gen := range p.cfg.Generated {
		if err := p.addGenerated(g, gen); err != nil {
			return nil, nil, err
		}
	}
	return g, p.plan, nil
}

func (p *Planner) add(g *domain.Graph, a *domain.Action) error {
	if err := g.AddAction(a); err != nil {
		return err
	}
	p.plan.Outputs = append(p.plan.Outputs, a.Outputs...)
	return nil
}

// addFetch obtains every stage-0 host artifact from the snapshot.
func (p *Planner) addFetch(g *domain.Graph, host domain.Triple) error {
	set, err := p.engine.HostRequirements(domain.MinStage, host)
	if err != nil {
		return err
	}
	var outs []string
	for pr := range set.Artifacts() {
		outs = append(outs, pr.Path)
	}
	ref := domain.HostRef(domain.MinStage, host, domain.KindDriver)
	return p.add(g, &domain.Action{
		ID:      domain.NewInternedString(outs[0]),
		Kind:    domain.ActionFetch,
		Outputs: outs,
		Inputs:  []string{p.cfg.SourcePath(p.cfg.Snapshot.Manifest)},
		Environment: map[string]string{
			domain.EnvHost:     host.String(),
			domain.EnvStageDir: domain.StageDir(host, domain.MinStage),
			domain.EnvLibDir:   p.res.LibDir(),
		},
		Ref: &ref,
	})
}

// RuntimeBuildPath is where the runtime recipe for a target writes its library.
func (p *Planner) RuntimeBuildPath(target domain.Triple) string {
	return filepath.Join(domain.RuntimeBuildDirName, target.String(),
		p.res.FileName(domain.KindRuntime, target))
}

// LinkSupportBuildPath is where the link-support recipe for a target writes its archive.
func (p *Planner) LinkSupportBuildPath(target domain.Triple) string {
	return filepath.Join(domain.RuntimeBuildDirName, target.String(),
		p.res.FileName(domain.KindLinkSupport, target))
}

// BackendBuildPath is where the backend-interop recipe for a target writes its library.
func (p *Planner) BackendBuildPath(target domain.Triple) string {
	return filepath.Join(domain.BackendBuildDirName, target.String(),
		p.res.FileName(domain.KindBackendInterop, target))
}

func (p *Planner) addRecipes(g *domain.Graph, target domain.Triple) error {
	recipes := []struct {
		comp domain.Component
		out  string
	}{
		{p.cfg.Components.Runtime, p.RuntimeBuildPath(target)},
		{p.cfg.Components.LinkSupport, p.LinkSupportBuildPath(target)},
		{p.cfg.Components.Backend, p.BackendBuildPath(target)},
	}
	for _, r := range recipes {
		inputs := append([]string{p.engine.Stamp()}, p.componentSources(r.comp.Dir, nil)...)
		err := p.add(g, &domain.Action{
			ID:      domain.NewInternedString(r.out),
			Kind:    domain.ActionRecipe,
			Outputs: []string{r.out},
			Inputs:  inputs,
			Command: slices.Clone(r.comp.Recipe),
			Environment: map[string]string{
				domain.EnvOut:    r.out,
				domain.EnvTarget: target.String(),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// crateStep is one compile of a tuple and the target artifacts it links against.
type crateStep struct {
	kind domain.ArtifactKind
	deps []domain.ArtifactKind
}

// addTuple plans the target side of (stage, target, host): copies of the external
// components followed by the crate compiles.
func (p *Planner) addTuple(g *domain.Graph, tp domain.Tuple) error {
	copies := []struct {
		kind domain.ArtifactKind
		src  string
	}{
		{domain.KindRuntime, p.RuntimeBuildPath(tp.Target)},
		{domain.KindLinkSupport, p.LinkSupportBuildPath(tp.Target)},
		{domain.KindBackendInterop, p.BackendBuildPath(tp.Target)},
	}
	for _, c := range copies {
		dst, err := p.res.Target(tp.Stage, tp.Target, tp.Host, c.kind)
		if err != nil {
			return err
		}
		if err := p.add(g, copyAction(domain.ActionCopy, c.src, dst)); err != nil {
			return err
		}
	}

	crates := []crateStep{
		{domain.KindCoreLib, []domain.ArtifactKind{domain.KindRuntime, domain.KindLinkSupport}},
		{domain.KindStdLib, []domain.ArtifactKind{domain.KindCoreLib}},
		{domain.KindCompilerLib, []domain.ArtifactKind{domain.KindCoreLib, domain.KindStdLib, domain.KindBackendInterop}},
		{domain.KindDriver, []domain.ArtifactKind{domain.KindCoreLib, domain.KindStdLib, domain.KindCompilerLib}},
	}
	if tp.Stage == prereq.AuxStage && tp.Target == tp.Host {
		full := []domain.ArtifactKind{domain.KindCoreLib, domain.KindStdLib, domain.KindCompilerLib}
		crates = append(crates, crateStep{domain.KindPackageTool, full}, crateStep{domain.KindDocTool, full})
	}
	for _, c := range crates {
		if err := p.addCompile(g, tp, c.kind, c.deps); err != nil {
			return err
		}
	}
	return nil
}

func copyAction(kind domain.ActionKind, src string, dst domain.ArtifactPath) *domain.Action {
	ref := dst.Ref
	mode := uint32(domain.FilePerm)
	if ref.Kind.IsExecutable() {
		mode = domain.ExecPerm
	}
	return &domain.Action{
		ID:      domain.NewInternedString(dst.Path),
		Kind:    kind,
		Sources: []string{src},
		Outputs: []string{dst.Path},
		Ref:     &ref,
		Mode:    mode,
	}
}

func (p *Planner) addCompile(
	g *domain.Graph, tp domain.Tuple, kind domain.ArtifactKind, deps []domain.ArtifactKind,
) error {
	out, err := p.res.Target(tp.Stage, tp.Target, tp.Host, kind)
	if err != nil {
		return err
	}
	libDir, err := p.res.Target(tp.Stage, tp.Target, tp.Host, domain.KindTargetLibDir)
	if err != nil {
		return err
	}
	inv, err := p.engine.Invocation(tp.Stage, tp.Target, tp.Host)
	if err != nil {
		return err
	}
	host, err := p.engine.HostRequirements(tp.Stage, tp.Host)
	if err != nil {
		return err
	}

	comp, _ := p.cfg.Components.ByKind(kind)
	crateRoot := p.cfg.SourcePath(comp.Root)
	depFile := domain.DepFileFor(out.Path)

	inputs := host.Paths()
	for _, k := range deps {
		dep, err := p.res.Target(tp.Stage, tp.Target, tp.Host, k)
		if err != nil {
			return err
		}
		inputs = append(inputs, dep.Path)
	}
	inputs = append(inputs, crateRoot)
	for _, src := range p.componentSources(comp.Dir, p.cfg.SourceSuffixes) {
		if !slices.Contains(inputs, src) {
			inputs = append(inputs, src)
		}
	}

	argv := slices.Clone(inv.Argv)
	if kind.IsCrate() {
		argv = append(argv, "--lib")
	}
	argv = append(argv, "-L", libDir.Path, "--dep-info", depFile, "-o", out.Path, crateRoot)

	ref := out.Ref
	if err := p.add(g, &domain.Action{
		ID:          domain.NewInternedString(out.Path),
		Kind:        domain.ActionCompile,
		Outputs:     []string{out.Path},
		Inputs:      inputs,
		Command:     argv,
		Environment: maps.Clone(inv.Env),
		DepFile:     depFile,
		Ref:         &ref,
	}); err != nil {
		return err
	}
	p.plan.Objects = append(p.plan.Objects, out.Path)
	p.plan.DepFiles = append(p.plan.DepFiles, depFile)
	return nil
}

func (p *Planner) addPromotions(g *domain.Graph, host domain.Triple) error {
	for s := domain.MinStage; s < domain.MaxStage; s++ {
		edges, err := p.engine.Promotions(s, host)
		if err != nil {
			return err
		}
		if err := p.addEdges(g, edges); err != nil {
			return err
		}
	}
	edges, err := p.engine.AuxPromotions(host)
	if err != nil {
		return err
	}
	return p.addEdges(g, edges)
}

func (p *Planner) addEdges(g *domain.Graph, edges []domain.PromotionEdge) error {
	for _, e := range edges {
		if err := p.add(g, copyAction(domain.ActionPromote, e.From.Path, e.To)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) addGenerated(g *domain.Graph, gen domain.GeneratedOutput) error {
	if err := p.add(g, &domain.Action{
		ID:      domain.NewInternedString(gen.Output),
		Kind:    domain.ActionCommand,
		Outputs: []string{gen.Output},
		Inputs:  append([]string{p.engine.Stamp()}, gen.Inputs...),
		Command: slices.Clone(gen.Command),
	}); err != nil {
		return err
	}
	p.plan.Generated = append(p.plan.Generated, gen.Output)
	return nil
}

// componentSources walks a component directory once per plan.
func (p *Planner) componentSources(dir string, suffixes []string) []string {
	if dir == "" || p.walker == nil {
		return nil
	}
	key := dir + "\x00" + filepath.Join(suffixes...)
	if cached, ok := p.sources[key]; ok {
		return cached
	}

	abs := filepath.Join(p.root, p.cfg.SourcePath(dir))
	var out []string
	for f := range p.walker.WalkFiles(abs, suffixes) {
		rel, err := filepath.Rel(p.root, f)
		if err != nil {
			continue
		}
		out = append(out, rel)
		if !slices.Contains(p.plan.Sources, rel) {
			p.plan.Sources = append(p.plan.Sources, rel)
		}
	}
	p.sources[key] = out
	return out
}

// Roots maps a prerequisite set onto the actions producing its members. The config
// stamp and plain source files have no producer and are skipped.
func Roots(g *domain.Graph, set domain.PrerequisiteSet) ([]domain.InternedString, error) {
	var roots []domain.InternedString
	for _, pr := range set.Items() {
		if pr.Kind == domain.PrereqConfigStamp {
			continue
		}
		id, ok := g.ProducerOf(pr.Path)
		if !ok {
			if pr.Kind == domain.PrereqSource {
				continue
			}
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingCollaboratorOutput, "no action produces artifact"),
				"path", pr.Path)
		}
		if !slices.Contains(roots, id) {
			roots = append(roots, id)
		}
	}
	return roots, nil
}

// VerifyID names the verification action of a host.
func VerifyID(host domain.Triple) domain.InternedString {
	return domain.NewInternedString("verify(" + host.String() + ")")
}

// AddVerify adds the action comparing stage 2 and stage 3 host artifacts of a host.
func (p *Planner) AddVerify(g *domain.Graph, host domain.Triple) (domain.InternedString, error) {
	id := VerifyID(host)
	if _, ok := g.GetAction(id); ok {
		return id, nil
	}

	var left, right []string
	for _, k := range prereq.HostKinds() {
		a, err := p.res.Host(domain.MaxStage-1, host, k)
		if err != nil {
			return id, err
		}
		b, err := p.res.Host(domain.MaxStage, host, k)
		if err != nil {
			return id, err
		}
		left = append(left, a.Path)
		right = append(right, b.Path)
	}

	ref := domain.HostRef(domain.MaxStage, host, domain.KindDriver)
	return id, g.AddAction(&domain.Action{
		ID:        id,
		Kind:      domain.ActionVerify,
		Sources:   left,
		Against:   right,
		AlwaysRun: true,
		Ref:       &ref,
	})
}
