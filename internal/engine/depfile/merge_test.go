package depfile_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/depfile"
)

func compile(out string, inputs ...string) *domain.Action {
	return &domain.Action{
		ID:      domain.NewInternedString(out),
		Kind:    domain.ActionCompile,
		Outputs: []string{out},
		Inputs:  inputs,
		DepFile: domain.DepFileFor(out),
	}
}

func TestMerge(t *testing.T) {
	g := domain.NewGraph()
	g.SetRoot("/build")

	gen := &domain.Action{
		ID:      domain.NewInternedString("src/libstd/generated.rs"),
		Kind:    domain.ActionCommand,
		Outputs: []string{"src/libstd/generated.rs"},
	}
	std := compile("out/libstd.so", "src/libstd/std.rc")
	core := compile("out/libcore.so", "src/libcore/core.rc")
	require.NoError(t, g.AddAction(gen))
	require.NoError(t, g.AddAction(std))
	require.NoError(t, g.AddAction(core))

	fsys := fstest.MapFS{
		std.DepFile: &fstest.MapFile{Data: []byte(
			"out/libstd.so: /build/src/libstd/std.rc \\\n" +
				" /build/src/libstd/generated.rs \\\n" +
				" src/libstd/io.rs /usr/include/stdio.h out/libstd.so\n",
		)},
	}

	st, err := depfile.Merge(t.Context(), fsys, g)
	require.NoError(t, err)

	assert.Equal(t, depfile.Stats{Read: 1, Missing: 1, Edges: 1, Inputs: 3}, st)
	assert.Equal(t, []string{
		"src/libstd/std.rc", "src/libstd/generated.rs", "src/libstd/io.rs", "/usr/include/stdio.h",
	}, std.Inputs)
	assert.Equal(t, []domain.InternedString{gen.ID}, std.Dependencies)
	assert.Empty(t, core.Dependencies)
	require.NoError(t, g.Validate())
}

func TestMerge_Idempotent(t *testing.T) {
	g := domain.NewGraph()
	g.SetRoot("/build")
	a := compile("out/a", "src/a.rs")
	require.NoError(t, g.AddAction(a))

	fsys := fstest.MapFS{
		a.DepFile: &fstest.MapFile{Data: []byte("out/a: src/a.rs src/b.rs\n")},
	}

	_, err := depfile.Merge(t.Context(), fsys, g)
	require.NoError(t, err)
	st, err := depfile.Merge(t.Context(), fsys, g)
	require.NoError(t, err)

	assert.Equal(t, 0, st.Inputs)
	assert.Equal(t, []string{"src/a.rs", "src/b.rs"}, a.Inputs)
}
