package resolver_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
)

const (
	linux64 = domain.Triple("x86_64-unknown-linux-gnu")
	linux32 = domain.Triple("i686-unknown-linux-gnu")
	mingw   = domain.Triple("i686-pc-mingw32")
)

func newResolver(t *testing.T, mutate func(*domain.Configuration)) *resolver.Resolver {
	t.Helper()
	cfg := &domain.Configuration{
		Hosts:   []domain.Triple{linux64},
		Targets: []domain.Triple{mingw},
	}
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	r, err := resolver.New(cfg)
	require.NoError(t, err)
	return r
}

func TestResolver_Table(t *testing.T) {
	r := newResolver(t, nil)
	stage := domain.Stage(1)

	var buf bytes.Buffer
	require.NoError(t, resolver.WriteTable(&buf, r.Table(resolver.Filter{Stage: &stage})))

	g := goldie.New(t)
	g.Assert(t, "stage1_table", buf.Bytes())
}

func TestResolver_Resolve(t *testing.T) {
	r := newResolver(t, nil)

	p, err := r.Host(2, linux64, domain.KindStdLib)
	require.NoError(t, err)
	assert.Equal(t, "x86_64-unknown-linux-gnu/stage2/lib/libstd.so", p.Path)
	assert.Equal(t, domain.HostRef(2, linux64, domain.KindStdLib), p.Ref)

	p, err = r.Target(0, mingw, linux64, domain.KindDriver)
	require.NoError(t, err)
	assert.Equal(t, "x86_64-unknown-linux-gnu/stage0/lib/toolchain/i686-pc-mingw32/bin/rustc.exe", p.Path)
}

func TestResolver_OutOfDomain(t *testing.T) {
	r := newResolver(t, nil)

	tests := []struct {
		name string
		ref  domain.ArtifactRef
		want error
	}{
		{"stage 4", domain.HostRef(4, linux64, domain.KindDriver), domain.ErrOutOfDomain},
		{"unknown host", domain.HostRef(1, linux32, domain.KindDriver), domain.ErrOutOfDomain},
		{"target used as host", domain.TargetRef(1, linux64, mingw, domain.KindDriver), domain.ErrOutOfDomain},
		{"unknown target", domain.TargetRef(1, linux32, linux64, domain.KindStdLib), domain.ErrOutOfDomain},
		{"host link support", domain.HostRef(1, linux64, domain.KindLinkSupport), domain.ErrInvalidArtifactKind},
		{"host-scoped dir for target", domain.TargetRef(1, mingw, linux64, domain.KindHostLibDir), domain.ErrInvalidArtifactKind},
		{"target-scoped dir for host", domain.HostRef(1, linux64, domain.KindTargetBinDir), domain.ErrInvalidArtifactKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.ref)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolver_Injective(t *testing.T) {
	r := newResolver(t, func(c *domain.Configuration) {
		c.Hosts = []domain.Triple{linux64, linux32}
		c.Targets = []domain.Triple{mingw}
	})

	rows := r.Table(resolver.Filter{})
	seen := make(map[string]domain.ArtifactRef, len(rows))
	for _, row := range rows {
		prev, dup := seen[row.Path]
		require.False(t, dup, "%s resolved for both %s and %s", row.Path, prev, row.Ref)
		seen[row.Path] = row.Ref
	}
	// 4 stages x 2 hosts x (10 host kinds + 3 targets x 11 target kinds)
	assert.Len(t, rows, 4*2*(10+3*11))
}

func TestResolver_CrateFileName(t *testing.T) {
	fixed := newResolver(t, nil)
	assert.Equal(t, "libstd.so", fixed.CrateFileName("std", linux64))
	assert.Equal(t, "std.dll", fixed.CrateFileName("std", mingw))

	versioned := newResolver(t, func(c *domain.Configuration) {
		c.Naming = domain.NamingVersioned
		c.Version = "0.6"
	})
	name := versioned.CrateFileName("std", linux64)
	assert.Regexp(t, regexp.MustCompile(`^libstd-[0-9a-f]{8}-0\.6\.so$`), name)
	assert.Equal(t, name, versioned.CrateFileName("std", linux64))

	p, err := versioned.Host(1, linux64, domain.KindStdLib)
	require.NoError(t, err)
	assert.Equal(t, "x86_64-unknown-linux-gnu/stage1/lib/"+name, p.Path)

	bumped := newResolver(t, func(c *domain.Configuration) {
		c.Naming = domain.NamingVersioned
		c.Version = "0.7"
	})
	assert.NotEqual(t, name, bumped.CrateFileName("std", linux64))
}

func TestResolver_LibDir(t *testing.T) {
	r := newResolver(t, func(c *domain.Configuration) { c.LibDir = "lib64" })

	p, err := r.Target(2, linux64, linux64, domain.KindLinkSupport)
	require.NoError(t, err)
	assert.Equal(t, "x86_64-unknown-linux-gnu/stage2/lib64/toolchain/x86_64-unknown-linux-gnu/lib64/libmorestack.a", p.Path)
}
