package reformat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/modules/moduletest"
	"go.trai.ch/stagehand/internal/modules/reformat"
)

func TestModule_Reformat(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{Files: moduletest.Walker{
		"src/librustc": {"src/librustc/rustc.rc", "src/librustc/driver.rs", "src/librustc/README"},
	}})
	require.NoError(t, reformat.New().Setup(context.Background(), b, []string{"reformat"}))

	ids := moduletest.Bound(t, b, "reformat")
	assert.Equal(t, []string{"reformat/src/librustc/driver.rs", "reformat/src/librustc/rustc.rc"}, ids)

	a := moduletest.Action(t, b, ids[0])
	driver, err := b.Resolver.Host(1, moduletest.Linux64, domain.KindDriver)
	require.NoError(t, err)
	assert.Equal(t, []string{driver.Path, "--pretty", "normal", "-o", ids[0], "src/librustc/driver.rs"}, a.Command)
	assert.Contains(t, a.Inputs, driver.Path)
	assert.NotEmpty(t, a.Environment)

	b.Graph.LinkProducers()
	require.NoError(t, b.Graph.Validate())
}
