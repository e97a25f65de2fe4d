package resolver

import (
	"fmt"
	"io"
	"text/tabwriter"

	"go.trai.ch/stagehand/internal/core/domain"
)

var hostKinds = []domain.ArtifactKind{
	domain.KindHostBinDir,
	domain.KindHostLibDir,
	domain.KindDriver,
	domain.KindRuntime,
	domain.KindBackendInterop,
	domain.KindCoreLib,
	domain.KindStdLib,
	domain.KindCompilerLib,
	domain.KindPackageTool,
	domain.KindDocTool,
}

var targetKinds = []domain.ArtifactKind{
	domain.KindTargetBinDir,
	domain.KindTargetLibDir,
	domain.KindDriver,
	domain.KindRuntime,
	domain.KindBackendInterop,
	domain.KindLinkSupport,
	domain.KindCoreLib,
	domain.KindStdLib,
	domain.KindCompilerLib,
	domain.KindPackageTool,
	domain.KindDocTool,
}

// Filter narrows a Table. Zero fields match everything.
type Filter struct {
	Stage  *domain.Stage
	Host   domain.Triple
	Target domain.Triple
}

func (f Filter) match(stage domain.Stage, host, target domain.Triple) bool {
	if f.Stage != nil && *f.Stage != stage {
		return false
	}
	if f.Host != "" && f.Host != host {
		return false
	}
	return f.Target == "" || f.Target == target
}

// Table resolves every artifact of the matrix matching the filter. Host-scoped rows
// of a (stage, host) pair precede its target-scoped rows.
func (r *Resolver) Table(f Filter) []domain.ArtifactPath {
	var rows []domain.ArtifactPath
	for _, s := range r.matrix.Stages() {
		for _, h := range r.matrix.Hosts() {
			if f.match(s, h, "") && f.Target == "" {
				for _, k := range hostKinds {
					p, _ := r.Host(s, h, k)
					rows = append(rows, p)
				}
			}
			for _, t := range r.matrix.Targets() {
				if !f.match(s, h, t) {
					continue
				}
				for _, k := range targetKinds {
					p, _ := r.Target(s, t, h, k)
					rows = append(rows, p)
				}
			}
		}
	}
	return rows
}

// WriteTable renders rows as aligned columns.
func WriteTable(w io.Writer, rows []domain.ArtifactPath) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		target := row.Ref.Target.String()
		if target == "" {
			target = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Ref.Stage, row.Ref.Host, target, row.Ref.Kind, row.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}
