package dag

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// edgeSpec is a compact FS dependency used by buildGraph.
type edgeSpec struct {
	from, to string
}

// buildGraph creates unit-duration tasks for ids and FS edges between them.
func buildGraph(t *testing.T, ids []string, edges []edgeSpec) *Graph {
	t.Helper()
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{ID: id, Duration: 1}
	}
	deps := make([]Dependency, len(edges))
	for i, e := range edges {
		deps[i] = Dependency{From: e.from, To: e.to}
	}
	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// validTopologicalOrder checks that every predecessor precedes its
// successors in order.
func validTopologicalOrder(g *Graph, order []string) bool {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		d := g.Dependency(e)
		if pos[d.From] >= pos[d.To] {
			return false
		}
	}
	return true
}

func TestParseDependencyType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code    string
		want    DependencyType
		wantErr bool
	}{
		{"FS", FinishToStart, false},
		{"ss", StartToStart, false},
		{" FF ", FinishToFinish, false},
		{"SF", StartToFinish, false},
		{"", FinishToStart, false},
		{"XX", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDependencyType(tt.code)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDependencyType) {
					t.Errorf("got %v, want ErrInvalidDependencyType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDependencyType(%q): %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("ParseDependencyType(%q) = %v, want %v", tt.code, got, tt.want)
			}
			if got.String() != strings.ToUpper(strings.TrimSpace(tt.code)) && tt.code != "" {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestDependencyTypeEndpoints(t *testing.T) {
	t.Parallel()

	if FinishToStart.FromStart() || FinishToStart.ToFinish() {
		t.Error("FS should be finish → start")
	}
	if !StartToStart.FromStart() || StartToStart.ToFinish() {
		t.Error("SS should be start → start")
	}
	if FinishToFinish.FromStart() || !FinishToFinish.ToFinish() {
		t.Error("FF should be finish → finish")
	}
	if !StartToFinish.FromStart() || !StartToFinish.ToFinish() {
		t.Error("SF should be start → finish")
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	unit := func(id string) Task { return Task{ID: id, Duration: 1} }

	tests := []struct {
		name  string
		tasks []Task
		deps  []Dependency
		want  error
	}{
		{
			name:  "unknown successor",
			tasks: []Task{unit("a")},
			deps:  []Dependency{{From: "a", To: "b"}},
			want:  ErrUnknownTask,
		},
		{
			name:  "unknown predecessor",
			tasks: []Task{unit("b")},
			deps:  []Dependency{{From: "a", To: "b"}},
			want:  ErrUnknownTask,
		},
		{
			name:  "self dependency",
			tasks: []Task{unit("a")},
			deps:  []Dependency{{From: "a", To: "a"}},
			want:  ErrSelfDependency,
		},
		{
			name:  "duplicate task",
			tasks: []Task{unit("a"), unit("a")},
			want:  ErrDuplicateTask,
		},
		{
			name:  "zero duration",
			tasks: []Task{{ID: "a"}},
			want:  ErrNonPositiveDuration,
		},
		{
			name:  "negative duration",
			tasks: []Task{{ID: "a", Duration: -2}},
			want:  ErrNonPositiveDuration,
		},
		{
			name:  "empty id",
			tasks: []Task{{Duration: 1}},
			want:  ErrEmptyTaskID,
		},
		{
			name:  "invalid type",
			tasks: []Task{unit("a"), unit("b")},
			deps:  []Dependency{{From: "a", To: "b", Type: DependencyType(9)}},
			want:  ErrInvalidDependencyType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := Build(tt.tasks, tt.deps)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if g != nil {
				t.Error("Build returned a partial graph on error")
			}
		})
	}

	t.Run("duplicate edges collapse", func(t *testing.T) {
		t.Parallel()
		g, err := Build(
			[]Task{unit("a"), unit("b")},
			[]Dependency{{From: "a", To: "b"}, {From: "a", To: "b"}, {From: "a", To: "b", Type: StartToStart}},
		)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if n := len(g.Edges()); n != 2 {
			t.Errorf("len(Edges) = %d, want 2", n)
		}
		if got := g.Successors("a"); !reflect.DeepEqual(got, []string{"b"}) {
			t.Errorf("Successors(a) = %v", got)
		}
	})

	t.Run("does not alias input", func(t *testing.T) {
		t.Parallel()
		tasks := []Task{unit("b"), unit("a")}
		g, err := Build(tasks, nil)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		tasks[0].Duration = 99
		if tk, _ := g.Task("b"); tk.Duration != 1 {
			t.Errorf("graph task mutated through input slice: %+v", tk)
		}
		if g.TaskAt(0).ID != "a" {
			t.Errorf("arena not sorted by id: first = %s", g.TaskAt(0).ID)
		}
	})
}
