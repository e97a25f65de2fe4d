// Package domain contains the core domain models for the staged bootstrap build.
package domain

import (
	"iter"
	"slices"
	"sort"

	"go.trai.ch/zerr"
)

// Graph is the action DAG of one invocation.
type Graph struct {
	root           string
	actions        map[InternedString]*Action
	producers      map[string]InternedString
	dependents     map[InternedString][]InternedString
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		actions:    make(map[InternedString]*Action),
		producers:  make(map[string]InternedString),
		dependents: make(map[InternedString][]InternedString),
	}
}

// SetRoot sets the build root all relative paths are resolved against.
func (g *Graph) SetRoot(root string) {
	g.root = root
}

// Root returns the build root.
func (g *Graph) Root() string {
	return g.root
}

// AddAction adds an action to the graph.
// It returns an error if the id exists or an output already has a producer.
func (g *Graph) AddAction(a *Action) error {
	if _, exists := g.actions[a.ID]; exists {
		return zerr.With(zerr.Wrap(ErrActionAlreadyExists, "add action"), "action", a.ID.String())
	}
	for _, out := range a.Outputs {
		if owner, taken := g.producers[out]; taken {
			return zerr.With(zerr.With(zerr.Wrap(ErrDuplicateOutput, "add action"), "path", out), "owner", owner.String())
		}
	}
	for _, out := range a.Outputs {
		g.producers[out] = a.ID
	}
	g.actions[a.ID] = a
	g.executionOrder = nil
	return nil
}

// GetAction returns the action with the given id.
func (g *Graph) GetAction(id InternedString) (*Action, bool) {
	a, ok := g.actions[id]
	return a, ok
}

// ProducerOf returns the id of the action that writes path.
func (g *Graph) ProducerOf(path string) (InternedString, bool) {
	id, ok := g.producers[path]
	return id, ok
}

// AddDependency records that id must run after dep. Duplicate edges are ignored.
func (g *Graph) AddDependency(id, dep InternedString) error {
	a, ok := g.actions[id]
	if !ok {
		return zerr.With(zerr.Wrap(ErrActionNotFound, "lookup action"), "action", id.String())
	}
	if _, ok := g.actions[dep]; !ok {
		return zerr.With(zerr.Wrap(ErrMissingDependency, "add dependency"), "dependency", dep.String())
	}
	if id == dep || slices.Contains(a.Dependencies, dep) {
		return nil
	}
	a.Dependencies = append(a.Dependencies, dep)
	g.executionOrder = nil
	return nil
}

// AddInput records an extra file input of an action.
func (g *Graph) AddInput(id InternedString, path string) {
	a, ok := g.actions[id]
	if !ok || slices.Contains(a.Inputs, path) {
		return
	}
	a.Inputs = append(a.Inputs, path)
}

// LinkProducers adds a dependency edge from every action to the producer of each
// path it reads.
func (g *Graph) LinkProducers() {
	for _, id := range g.sortedIDs() {
		a := g.actions[id]
		for _, group := range [][]string{a.Inputs, a.Sources, a.Against} {
			for _, p := range group {
				if producer, ok := g.producers[p]; ok {
					_ = g.AddDependency(id, producer)
				}
			}
		}
	}
}

func (g *Graph) sortedIDs() []InternedString {
	ids := make([]InternedString, 0, len(g.actions))
	for id := range g.actions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Actions yields every action ordered by id. Unlike Walk it does not require Validate.
func (g *Graph) Actions() iter.Seq[*Action] {
	return func(yield func(*Action) bool) {
		for _, id := range g.sortedIDs() {
			if !yield(g.actions[id]) {
				return
			}
		}
	}
}

// ActionCount returns the number of actions.
func (g *Graph) ActionCount() int {
	return len(g.actions)
}

// Validate checks for cycles in the graph using a topological sort.
// It populates the execution order and the reverse edges if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.actions))
	g.dependents = make(map[InternedString][]InternedString, len(g.actions))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		a, exists := g.actions[u]
		if !exists {
			return zerr.With(zerr.Wrap(ErrMissingDependency, "validate graph"), "dependency", u.String())
		}

		for _, dep := range a.Dependencies {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
			g.dependents[dep] = append(g.dependents[dep], u)
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	// Sorted ids keep the walk order stable between runs.
	for _, id := range g.sortedIDs() {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				g.executionOrder = nil
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(zerr.Wrap(ErrCycleDetected, "validate graph"), "cycle", cyclePath)
}

// Walk returns an iterator that yields actions in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[*Action] {
	return func(yield func(*Action) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.actions[id]) {
				return
			}
		}
	}
}

// Dependents returns the actions that depend directly on id.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Dependents(id InternedString) []InternedString {
	return g.dependents[id]
}

// Closure returns ids together with everything they transitively depend on.
func (g *Graph) Closure(ids []InternedString) (map[InternedString]bool, error) {
	seen := make(map[InternedString]bool, len(ids))
	queue := make([]InternedString, 0, len(ids))
	for _, id := range ids {
		if _, ok := g.actions[id]; !ok {
			return nil, zerr.With(zerr.Wrap(ErrActionNotFound, "lookup action"), "action", id.String())
		}
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		a, ok := g.actions[cur]
		if !ok {
			continue
		}
		for _, dep := range a.Dependencies {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return seen, nil
}
