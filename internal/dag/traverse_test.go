package dag

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestTopologicalOrder(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		g := buildGraph(t, nil, nil)
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("TopologicalOrder: %v", err)
		}
		if len(order) != 0 {
			t.Errorf("order = %v, want empty", order)
		}
	})

	t.Run("ties break by ascending id", func(t *testing.T) {
		t.Parallel()
		g := buildGraph(t, []string{"c", "b", "a", "d"}, []edgeSpec{{"c", "d"}})
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("TopologicalOrder: %v", err)
		}
		want := []string{"a", "b", "c", "d"}
		if !reflect.DeepEqual(order, want) {
			t.Errorf("order = %v, want %v", order, want)
		}
	})

	t.Run("smallest ready id first", func(t *testing.T) {
		t.Parallel()
		// z → a: a becomes ready only after z, but must precede y once ready.
		g := buildGraph(t, []string{"a", "y", "z"}, []edgeSpec{{"z", "a"}})
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("TopologicalOrder: %v", err)
		}
		want := []string{"y", "z", "a"}
		if !reflect.DeepEqual(order, want) {
			t.Errorf("order = %v, want %v", order, want)
		}
	})

	t.Run("diamond", func(t *testing.T) {
		t.Parallel()
		g := buildGraph(t, []string{"a", "b", "c", "d"},
			[]edgeSpec{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}})
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("TopologicalOrder: %v", err)
		}
		if !validTopologicalOrder(g, order) {
			t.Errorf("invalid order %v", order)
		}
		rev, err := g.ReverseTopologicalOrder()
		if err != nil {
			t.Fatalf("ReverseTopologicalOrder: %v", err)
		}
		want := []string{"d", "c", "b", "a"}
		if !reflect.DeepEqual(rev, want) {
			t.Errorf("reverse = %v, want %v", rev, want)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		g := buildGraph(t, []string{"a", "b", "c"}, []edgeSpec{{"a", "b"}, {"b", "c"}, {"c", "b"}})
		_, err := g.TopologicalOrder()
		var cyc *CycleError
		if !errors.As(err, &cyc) {
			t.Fatalf("got %v, want *CycleError", err)
		}
		if !errors.Is(err, ErrCycle) {
			t.Error("CycleError does not match ErrCycle")
		}
	})
}

func TestDetectCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ids   []string
		edges []edgeSpec
		want  []string
	}{
		{
			name:  "acyclic",
			ids:   []string{"a", "b", "c"},
			edges: []edgeSpec{{"a", "b"}, {"b", "c"}, {"a", "c"}},
			want:  nil,
		},
		{
			name:  "two cycle",
			ids:   []string{"a", "b"},
			edges: []edgeSpec{{"a", "b"}, {"b", "a"}},
			want:  []string{"a", "b", "a"},
		},
		{
			name:  "cycle behind a tail",
			ids:   []string{"a", "b", "c", "d"},
			edges: []edgeSpec{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "b"}},
			want:  []string{"b", "c", "d", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := buildGraph(t, tt.ids, tt.edges)
			cyc := g.DetectCycle()
			if tt.want == nil {
				if cyc != nil {
					t.Errorf("DetectCycle = %v, want nil", cyc.Cycle)
				}
				return
			}
			if cyc == nil {
				t.Fatal("DetectCycle = nil, want cycle")
			}
			if !reflect.DeepEqual(cyc.Cycle, tt.want) {
				t.Errorf("cycle = %v, want %v", cyc.Cycle, tt.want)
			}
			if !strings.Contains(cyc.Error(), "→") {
				t.Errorf("Error() = %q, want arrow-joined path", cyc.Error())
			}
		})
	}
}

func TestDetectCycle_OnlyCycleMembers(t *testing.T) {
	t.Parallel()

	// x and y feed into the cycle p → q → r → p but are not on it.
	g := buildGraph(t, []string{"p", "q", "r", "x", "y"},
		[]edgeSpec{{"x", "p"}, {"y", "q"}, {"p", "q"}, {"q", "r"}, {"r", "p"}})
	cyc := g.DetectCycle()
	if cyc == nil {
		t.Fatal("DetectCycle = nil")
	}
	onCycle := map[string]bool{"p": true, "q": true, "r": true}
	for _, id := range cyc.Cycle {
		if !onCycle[id] {
			t.Errorf("cycle %v contains %s, which is not on the cycle", cyc.Cycle, id)
		}
	}
	if cyc.Cycle[0] != cyc.Cycle[len(cyc.Cycle)-1] {
		t.Errorf("cycle %v is not closed", cyc.Cycle)
	}
}

func TestReachability(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, []string{"a", "b", "c", "d", "e"},
		[]edgeSpec{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}})

	desc, err := g.Descendants("a")
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	if want := []string{"b", "c", "d"}; !reflect.DeepEqual(desc, want) {
		t.Errorf("Descendants(a) = %v, want %v", desc, want)
	}
	if _, err := g.Descendants("nope"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Descendants(nope) err = %v", err)
	}

	if got, want := g.Sources(), []string{"a", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}
	if got, want := g.Sinks(), []string{"d", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sinks = %v, want %v", got, want)
	}
	if got, want := g.Predecessors("d"), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Predecessors(d) = %v, want %v", got, want)
	}
}

func TestComponents(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, []string{"a", "b", "c", "x", "y", "solo"},
		[]edgeSpec{{"a", "b"}, {"b", "c"}, {"x", "y"}})
	comps, err := g.Components()
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	want := [][]string{{"a", "b", "c"}, {"x", "y"}, {"solo"}}
	if len(comps) != len(want) {
		t.Fatalf("got %d components, want %d: %+v", len(comps), len(want), comps)
	}
	for i, c := range comps {
		if c.ID != i {
			t.Errorf("component %d has ID %d", i, c.ID)
		}
		if !reflect.DeepEqual(c.TaskIDs, want[i]) {
			t.Errorf("component %d = %v, want %v", i, c.TaskIDs, want[i])
		}
	}
}
