package testsuite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/modules/moduletest"
	"go.trai.ch/stagehand/internal/modules/testsuite"
	"go.uber.org/mock/gomock"
)

func TestParseGoal(t *testing.T) {
	tests := []struct {
		name string
		want testsuite.Request
		ok   bool
	}{
		{"check", testsuite.Request{Stage: 2}, true},
		{"test", testsuite.Request{Stage: 2}, true},
		{"check-stage1", testsuite.Request{Stage: 1}, true},
		{"check-stage3-run-pass", testsuite.Request{Stage: 3, Suite: "run-pass"}, true},
		{"check-run-fail", testsuite.Request{Stage: 2, Suite: "run-fail"}, true},
		{"bench", testsuite.Request{Stage: 2, Bench: true}, true},
		{"check-stage0", testsuite.Request{Stage: 2, Suite: "stage0"}, true},
		{"precheck", testsuite.Request{}, false},
		{"tidy", testsuite.Request{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := testsuite.ParseGoal(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func files() moduletest.Walker {
	return moduletest.Walker{
		"src/test":          {"src/test/run-pass/hello.rs", "src/test/run-pass/iter.rs", "src/test/compile-fail/bad.rs"},
		"src/test/run-pass": {"src/test/run-pass/hello.rs", "src/test/run-pass/iter.rs"},
		"src/libstd":        {"src/libstd/std.rc", "src/libstd/io.rs"},
	}
}

func TestModule_CheckStage(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{Files: files()})
	require.NoError(t, testsuite.New().Setup(context.Background(), b, []string{"check-stage1-run-pass"}))

	ids := moduletest.Bound(t, b, "check-stage1-run-pass")
	bin := "test/stage1/" + moduletest.Linux64.String() + "/run-pass/hello"
	assert.Equal(t, []string{"run(" + bin + ")", "run(test/stage1/" + moduletest.Linux64.String() + "/run-pass/iter)"}, ids)

	compile := moduletest.Action(t, b, bin)
	assert.Equal(t, domain.ActionCompile, compile.Kind)
	driver, err := b.Resolver.Host(1, moduletest.Linux64, domain.KindDriver)
	require.NoError(t, err)
	assert.Equal(t, driver.Path, compile.Command[0])
	assert.Contains(t, compile.Command, "--test")
	assert.Equal(t, "src/test/run-pass/hello.rs", compile.Command[len(compile.Command)-1])

	std, err := b.Resolver.Target(1, moduletest.Linux64, moduletest.Linux64, domain.KindStdLib)
	require.NoError(t, err)
	assert.Contains(t, compile.Inputs, std.Path)

	run := moduletest.Action(t, b, ids[0])
	assert.Equal(t, []string{bin}, run.Command)
	assert.True(t, run.AlwaysRun)

	b.Graph.LinkProducers()
	require.NoError(t, b.Graph.Validate())
}

func TestModule_SharedActions(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{Files: files()})
	before := b.Graph.ActionCount()
	require.NoError(t, testsuite.New().Setup(context.Background(), b, []string{"check", "test", "bench"}))

	// Three files: one compile each, one run each, one bench each.
	assert.Equal(t, before+9, b.Graph.ActionCount())
	assert.Equal(t, moduletest.Bound(t, b, "check"), moduletest.Bound(t, b, "test"))

	bench := moduletest.Bound(t, b, "bench")
	require.Len(t, bench, 3)
	assert.Contains(t, moduletest.Action(t, b, bench[0]).Command, "--bench")
}

func TestModule_EmptySuiteWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn("check-stage2-bench: no test sources found")

	b := moduletest.NewBuild(t, moduletest.Fixture{Files: files()})
	b.Logger = logger
	require.NoError(t, testsuite.New().Setup(context.Background(), b, []string{"check-stage2-bench"}))

	ids, ok := b.Bound("check-stage2-bench")
	assert.True(t, ok)
	assert.Empty(t, ids)
}

func TestModule_Tidy(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{Files: files()})
	require.NoError(t, testsuite.New().Setup(context.Background(), b, []string{"tidy"}))

	a := moduletest.Action(t, b, "tidy")
	assert.Equal(t, []string{"python3", "src/etc/tidy.py", "src/libstd/io.rs", "src/libstd/std.rc"}, a.Command)
}
