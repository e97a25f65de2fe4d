package depfile

import (
	"bytes"
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

// Stats summarises a merge.
type Stats struct {
	// Read counts records found and parsed.
	Read int
	// Missing counts declared records that do not exist yet.
	Missing int
	// Edges counts dependency edges added.
	Edges int
	// Inputs counts inputs added.
	Inputs int
}

type loaded struct {
	action  *domain.Action
	records []Record
	ok      bool
}

// Merge reads every existing dependency record declared by an action of the graph and
// folds it in. Each listed path becomes an input of the action, and an edge when
// another action produces it. Absent or unreadable records are skipped: their actions
// are scheduled anyway because a declared but absent record makes them stale.
func Merge(ctx context.Context, fsys fs.FS, g *domain.Graph) (Stats, error) {
	var actions []*domain.Action
	for a := range g.Actions() {
		if a.DepFile != "" {
			actions = append(actions, a)
		}
	}

	results := make([]loaded, len(actions))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, a := range actions {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = load(fsys, a)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, r := range results {
		if !r.ok {
			st.Missing++
			continue
		}
		st.Read++
		inputs, edges := fold(g, r.action, r.records)
		st.Inputs += inputs
		st.Edges += edges
	}
	return st, nil
}

func load(fsys fs.FS, a *domain.Action) loaded {
	data, err := fs.ReadFile(fsys, filepath.ToSlash(a.DepFile))
	if err != nil {
		return loaded{action: a}
	}
	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return loaded{action: a}
	}
	return loaded{action: a, records: records, ok: true}
}

func fold(g *domain.Graph, a *domain.Action, records []Record) (inputs, edges int) {
	root := g.Root()
	for _, rec := range records {
		for _, p := range rec.Prereqs {
			p = normalize(root, p)
			if slices.Contains(a.Outputs, p) {
				continue
			}
			if !slices.Contains(a.Inputs, p) {
				g.AddInput(a.ID, p)
				inputs++
			}
			producer, ok := g.ProducerOf(p)
			if !ok || producer == a.ID || slices.Contains(a.Dependencies, producer) {
				continue
			}
			if err := g.AddDependency(a.ID, producer); err == nil {
				edges++
			}
		}
	}
	return inputs, edges
}

// normalize makes paths under the build root relative to it.
func normalize(root, p string) string {
	p = filepath.Clean(p)
	if !filepath.IsAbs(p) || root == "" {
		return p
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return p
	}
	return rel
}
