// Package dag provides the task dependency graph used by the scheduler.
// Tasks live in an arena indexed by position; edges are typed precedence
// links stored as index lists. The package supports topological ordering,
// cycle detection, reachability queries and component partitioning.
package dag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycle is matched by every *CycleError via errors.Is.
var ErrCycle = errors.New("circular dependency")

// ErrUnknownTask is returned when a dependency or query references a task
// that is not in the graph.
var ErrUnknownTask = errors.New("unknown task")

// ErrDuplicateTask is returned when two tasks share an ID.
var ErrDuplicateTask = errors.New("duplicate task")

// ErrSelfDependency is returned when a dependency links a task to itself.
var ErrSelfDependency = errors.New("self dependency")

// ErrNonPositiveDuration is returned for tasks whose duration is zero or
// negative.
var ErrNonPositiveDuration = errors.New("non-positive duration")

// ErrEmptyTaskID is returned for tasks without an ID.
var ErrEmptyTaskID = errors.New("empty task id")

// ErrInvalidDependencyType is returned for unrecognized dependency types.
var ErrInvalidDependencyType = errors.New("invalid dependency type")

// CycleError reports a dependency cycle. Cycle lists the task IDs along the
// cycle in edge order, with the first ID repeated at the end.
type CycleError struct {
	Cycle []string
}

// Error renders the cycle path after the ErrCycle message.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, joinArrow(e.Cycle))
}

// Is lets errors.Is(err, ErrCycle) match a *CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// Graph is an immutable dependency graph. It is safe for concurrent reads
// and may be reused across scheduling runs.
type Graph struct {
	tasks []Task
	index map[string]int
	edges []Edge
	// out maps task index → indices into edges where the task is From.
	out [][]int
	// in maps task index → indices into edges where the task is To.
	in [][]int
}

// Build validates tasks and dependencies and constructs a Graph. Tasks are
// stored in ascending ID order. Any structural problem aborts construction;
// no partial graph is returned. Build does not check for cycles; call
// DetectCycle or TopologicalOrder for that.
func Build(tasks []Task, deps []Dependency) (*Graph, error) {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	g := &Graph{
		tasks: sorted,
		index: make(map[string]int, len(sorted)),
		out:   make([][]int, len(sorted)),
		in:    make([][]int, len(sorted)),
	}
	for i, t := range sorted {
		if t.ID == "" {
			return nil, ErrEmptyTaskID
		}
		if _, exists := g.index[t.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		if t.Duration <= 0 {
			return nil, fmt.Errorf("%w: task %s has duration %d", ErrNonPositiveDuration, t.ID, t.Duration)
		}
		g.index[t.ID] = i
	}

	seen := make(map[Edge]bool, len(deps))
	for _, d := range deps {
		if d.From == d.To {
			return nil, fmt.Errorf("%w: %s", ErrSelfDependency, d.From)
		}
		from, ok := g.index[d.From]
		if !ok {
			return nil, fmt.Errorf("%w: %s (dependency %s → %s)", ErrUnknownTask, d.From, d.From, d.To)
		}
		to, ok := g.index[d.To]
		if !ok {
			return nil, fmt.Errorf("%w: %s (dependency %s → %s)", ErrUnknownTask, d.To, d.From, d.To)
		}
		if !d.Type.Valid() {
			return nil, fmt.Errorf("%w: %s on %s → %s", ErrInvalidDependencyType, d.Type, d.From, d.To)
		}
		e := Edge{From: from, To: to, Type: d.Type, Lag: d.Lag}
		// Exact duplicates add nothing.
		if seen[e] {
			continue
		}
		seen[e] = true
		g.edges = append(g.edges, e)
	}

	// Sort edges so adjacency lists come out in a deterministic order.
	sort.Slice(g.edges, func(i, j int) bool {
		a, b := g.edges[i], g.edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Lag < b.Lag
	})
	for i, e := range g.edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
	return g, nil
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// Index returns the arena index of the task with the given ID.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// TaskAt returns the task stored at arena index i.
func (g *Graph) TaskAt(i int) Task {
	return g.tasks[i]
}

// Task returns the task with the given ID.
func (g *Graph) Task(id string) (Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return Task{}, false
	}
	return g.tasks[i], true
}

// Tasks returns a copy of all tasks in ascending ID order.
func (g *Graph) Tasks() []Task {
	out := make([]Task, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Edges returns a copy of all edges.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Outgoing returns the edges whose predecessor is task index i.
func (g *Graph) Outgoing(i int) []Edge {
	return g.collect(g.out[i])
}

// Incoming returns the edges whose successor is task index i.
func (g *Graph) Incoming(i int) []Edge {
	return g.collect(g.in[i])
}

// Dependency converts an edge back into its ID-based form.
func (g *Graph) Dependency(e Edge) Dependency {
	return Dependency{
		From: g.tasks[e.From].ID,
		To:   g.tasks[e.To].ID,
		Type: e.Type,
		Lag:  e.Lag,
	}
}

// Successors returns the distinct IDs that directly depend on id, sorted.
func (g *Graph) Successors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.distinctIDs(g.out[i], func(e Edge) int { return e.To })
}

// Predecessors returns the distinct IDs that id directly depends on, sorted.
func (g *Graph) Predecessors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.distinctIDs(g.in[i], func(e Edge) int { return e.From })
}

// Sources returns the IDs of tasks without predecessors, sorted.
func (g *Graph) Sources() []string {
	var ids []string
	for i, t := range g.tasks {
		if len(g.in[i]) == 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Sinks returns the IDs of tasks without successors, sorted.
func (g *Graph) Sinks() []string {
	var ids []string
	for i, t := range g.tasks {
		if len(g.out[i]) == 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// IsSink reports whether task index i has no successors.
func (g *Graph) IsSink(i int) bool {
	return len(g.out[i]) == 0
}

func (g *Graph) collect(edgeIdx []int) []Edge {
	out := make([]Edge, len(edgeIdx))
	for k, ei := range edgeIdx {
		out[k] = g.edges[ei]
	}
	return out
}

func (g *Graph) distinctIDs(edgeIdx []int, end func(Edge) int) []string {
	seen := make(map[int]bool, len(edgeIdx))
	var ids []string
	for _, ei := range edgeIdx {
		j := end(g.edges[ei])
		if seen[j] {
			continue
		}
		seen[j] = true
		ids = append(ids, g.tasks[j].ID)
	}
	sort.Strings(ids)
	return ids
}

func (g *Graph) ids(indices []int) []string {
	out := make([]string, len(indices))
	for k, i := range indices {
		out[k] = g.tasks[i].ID
	}
	return out
}

func joinArrow(ids []string) string {
	return strings.Join(ids, " → ")
}
