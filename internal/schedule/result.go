package schedule

import (
	"sort"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/calendar"
	"github.com/papapumpkin/critpath/internal/dag"
)

// Schedule is the immutable output of one Run. Accessors return copies.
type Schedule struct {
	graph     *dag.Graph
	cal       *calendar.Calendar
	order     []int
	results   []Result // by graph arena index
	edgeFloat map[dag.Edge]int
	start     civil.Date
	finish    civil.Date
}

// Graph returns the graph the schedule was computed from.
func (s *Schedule) Graph() *dag.Graph {
	return s.graph
}

// Calendar returns the calendar the schedule was computed with.
func (s *Schedule) Calendar() *calendar.Calendar {
	return s.cal
}

// Len returns the number of scheduled tasks.
func (s *Schedule) Len() int {
	return len(s.results)
}

// ProjectStart is the earliest ES of any task.
func (s *Schedule) ProjectStart() civil.Date {
	return s.start
}

// ProjectFinish is the latest EF among sink tasks.
func (s *Schedule) ProjectFinish() civil.Date {
	return s.finish
}

// DurationDays is the number of working days from project start to project
// finish, inclusive. It is zero for an empty schedule.
func (s *Schedule) DurationDays() int {
	if len(s.results) == 0 {
		return 0
	}
	return s.cal.WorkingDaysBetween(s.start, s.finish) + 1
}

// Results returns every task's result in topological order.
func (s *Schedule) Results() []Result {
	out := make([]Result, len(s.order))
	for k, i := range s.order {
		out[k] = s.results[i]
	}
	return out
}

// Result returns the result for one task.
func (s *Schedule) Result(id string) (Result, bool) {
	i, ok := s.graph.Index(id)
	if !ok {
		return Result{}, false
	}
	return s.results[i], true
}

// ResultAt returns the result for the task at graph arena index i.
func (s *Schedule) ResultAt(i int) Result {
	return s.results[i]
}

// Order returns task IDs in the topological order used by the forward pass.
func (s *Schedule) Order() []string {
	out := make([]string, len(s.order))
	for k, i := range s.order {
		out[k] = s.results[i].TaskID
	}
	return out
}

// OrderIndices is Order expressed as graph arena indices.
func (s *Schedule) OrderIndices() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// EdgeFreeFloat returns the slack on one edge of the schedule's graph.
func (s *Schedule) EdgeFreeFloat(e dag.Edge) (int, bool) {
	ff, ok := s.edgeFloat[e]
	return ff, ok
}

// Links returns every dependency with its slack, ordered by predecessor
// then successor ID.
func (s *Schedule) Links() []Link {
	edges := s.graph.Edges()
	links := make([]Link, 0, len(edges))
	for _, e := range edges {
		ff := s.edgeFloat[e]
		links = append(links, Link{
			Dependency: s.graph.Dependency(e),
			FreeFloat:  ff,
			Binding:    s.binding(e),
		})
	}
	return links
}

// CriticalTasks returns the IDs of zero-float tasks in topological order.
func (s *Schedule) CriticalTasks() []string {
	var ids []string
	for _, i := range s.order {
		if s.results[i].Critical {
			ids = append(ids, s.results[i].TaskID)
		}
	}
	return ids
}

// CriticalPaths enumerates every chain of critical tasks joined by binding
// links, from a chain head (no binding predecessor) to a chain tail (no
// binding successor). Ties yield several paths. Paths are ordered by their
// task IDs. At most limit paths are returned; limit <= 0 means no limit.
func (s *Schedule) CriticalPaths(limit int) [][]string {
	bindingOut := make([][]int, len(s.results))
	hasBindingIn := make([]bool, len(s.results))
	for _, e := range s.graph.Edges() {
		if s.binding(e) {
			bindingOut[e.From] = append(bindingOut[e.From], e.To)
			hasBindingIn[e.To] = true
		}
	}
	for i := range bindingOut {
		bindingOut[i] = dedupeSorted(bindingOut[i])
	}

	var paths [][]string
	var walk func(i int, prefix []int) bool
	walk = func(i int, prefix []int) bool {
		prefix = append(prefix, i)
		if len(bindingOut[i]) == 0 {
			path := make([]string, len(prefix))
			for k, j := range prefix {
				path[k] = s.results[j].TaskID
			}
			paths = append(paths, path)
			return limit <= 0 || len(paths) < limit
		}
		for _, next := range bindingOut[i] {
			if !walk(next, prefix) {
				return false
			}
		}
		return true
	}

	// Arena order is ID order, so heads are tried in ascending ID.
	for i, res := range s.results {
		if !res.Critical || hasBindingIn[i] {
			continue
		}
		if !walk(i, nil) {
			break
		}
	}
	return paths
}

func (s *Schedule) binding(e dag.Edge) bool {
	ff, ok := s.edgeFloat[e]
	return ok && ff == 0 && s.results[e.From].Critical && s.results[e.To].Critical
}

func dedupeSorted(xs []int) []int {
	if len(xs) < 2 {
		return xs
	}
	sort.Ints(xs)
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
