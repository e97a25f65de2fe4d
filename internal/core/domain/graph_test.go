package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

func newAction(id string, outputs []string, deps ...string) *domain.Action {
	return &domain.Action{
		ID:           domain.NewInternedString(id),
		Kind:         domain.ActionCommand,
		Outputs:      outputs,
		Dependencies: domain.NewInternedStrings(deps),
	}
}

func TestGraph_AddAction(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("a", []string{"out/a"})))

	err := g.AddAction(newAction("a", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrActionAlreadyExists))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a", zErr.Metadata()["action"])
}

func TestGraph_SingleWriterPerOutput(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("a", []string{"out/shared"})))

	err := g.AddAction(newAction("b", []string{"out/shared"}))
	require.ErrorIs(t, err, domain.ErrDuplicateOutput)

	// The rejected action must not have been partially registered.
	_, ok := g.GetAction(domain.NewInternedString("b"))
	assert.False(t, ok)
	owner, ok := g.ProducerOf("out/shared")
	require.True(t, ok)
	assert.Equal(t, "a", owner.String())
}

func TestGraph_Validate_Cycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("A", nil, "B")))
	require.NoError(t, g.AddAction(newAction("B", nil, "A")))

	err := g.Validate()
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	cycle, ok := zErr.Metadata()["cycle"].(string)
	require.True(t, ok)
	assert.Contains(t, cycle, "->")
}

func TestGraph_Validate_MissingDependency(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("A", nil, "ghost")))

	require.ErrorIs(t, g.Validate(), domain.ErrMissingDependency)
}

func TestGraph_WalkAndDependents(t *testing.T) {
	g := domain.NewGraph()
	// A -> B -> C
	require.NoError(t, g.AddAction(newAction("A", nil, "B")))
	require.NoError(t, g.AddAction(newAction("B", nil, "C")))
	require.NoError(t, g.AddAction(newAction("C", nil)))
	require.NoError(t, g.Validate())

	var order []string
	for a := range g.Walk() {
		order = append(order, a.Name())
	}
	assert.Equal(t, []string{"C", "B", "A"}, order)

	assert.Equal(t, []domain.InternedString{domain.NewInternedString("B")}, g.Dependents(domain.NewInternedString("C")))
	assert.Empty(t, g.Dependents(domain.NewInternedString("A")))
}

func TestGraph_AddDependency(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("A", nil)))
	require.NoError(t, g.AddAction(newAction("B", nil)))

	a := domain.NewInternedString("A")
	b := domain.NewInternedString("B")
	require.NoError(t, g.AddDependency(a, b))
	require.NoError(t, g.AddDependency(a, b))
	require.NoError(t, g.AddDependency(a, a))

	act, _ := g.GetAction(a)
	assert.Equal(t, []domain.InternedString{b}, act.Dependencies)

	require.ErrorIs(t, g.AddDependency(a, domain.NewInternedString("C")), domain.ErrMissingDependency)
	require.ErrorIs(t, g.AddDependency(domain.NewInternedString("C"), a), domain.ErrActionNotFound)
}

func TestGraph_Closure(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddAction(newAction("A", nil, "B")))
	require.NoError(t, g.AddAction(newAction("B", nil, "C")))
	require.NoError(t, g.AddAction(newAction("C", nil)))
	require.NoError(t, g.AddAction(newAction("D", nil)))

	closure, err := g.Closure([]domain.InternedString{domain.NewInternedString("B")})
	require.NoError(t, err)
	assert.Len(t, closure, 2)
	assert.True(t, closure[domain.NewInternedString("C")])
	assert.False(t, closure[domain.NewInternedString("A")])

	_, err = g.Closure([]domain.InternedString{domain.NewInternedString("nope")})
	require.ErrorIs(t, err, domain.ErrActionNotFound)
}

func TestGraph_LinkProducers(t *testing.T) {
	g := domain.NewGraph()
	compile := newAction("out/libstd.so", []string{"out/libstd.so"})
	compile.Inputs = []string{"src/std.rs"}
	promote := newAction("next/libstd.so", []string{"next/libstd.so"})
	promote.Sources = []string{"out/libstd.so"}
	verify := newAction("verify", nil)
	verify.Sources = []string{"next/libstd.so"}
	verify.Against = []string{"out/libstd.so"}

	require.NoError(t, g.AddAction(compile))
	require.NoError(t, g.AddAction(promote))
	require.NoError(t, g.AddAction(verify))

	g.LinkProducers()
	require.NoError(t, g.Validate())

	assert.Empty(t, compile.Dependencies)
	assert.Equal(t, domain.NewInternedStrings([]string{"out/libstd.so"}), promote.Dependencies)
	assert.ElementsMatch(t, domain.NewInternedStrings([]string{"next/libstd.so", "out/libstd.so"}), verify.Dependencies)
}
