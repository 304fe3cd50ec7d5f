package dag

import "sort"

// Component is a weakly connected group of tasks. Tasks in different
// components share no dependencies, so each component is an independent
// work stream that can be scheduled and staffed on its own.
type Component struct {
	// ID is assigned after sorting, starting at 0.
	ID int

	// TaskIDs lists the member tasks in topological order.
	TaskIDs []string
}

// Components partitions the graph into independent work streams using
// union-find over the dependency edges. Components are ordered by size
// (largest first), then by their first task ID. Returns a *CycleError when
// the graph is cyclic, since members are listed in topological order.
func (g *Graph) Components() ([]Component, error) {
	if len(g.tasks) == 0 {
		return nil, nil
	}
	order, err := g.TopologicalIndices()
	if err != nil {
		return nil, err
	}

	uf := newUnionFind(len(g.tasks))
	for _, e := range g.edges {
		uf.union(e.From, e.To)
	}

	// Walking the topological order keeps members ordered within a group.
	groups := make(map[int][]string)
	var roots []int
	for _, i := range order {
		root := uf.find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], g.tasks[i].ID)
	}

	comps := make([]Component, 0, len(roots))
	for _, root := range roots {
		comps = append(comps, Component{TaskIDs: groups[root]})
	}
	sort.SliceStable(comps, func(i, j int) bool {
		if len(comps[i].TaskIDs) != len(comps[j].TaskIDs) {
			return len(comps[i].TaskIDs) > len(comps[j].TaskIDs)
		}
		return minID(comps[i].TaskIDs) < minID(comps[j].TaskIDs)
	})
	for i := range comps {
		comps[i].ID = i
	}
	return comps, nil
}

func minID(ids []string) string {
	m := ids[0]
	for _, id := range ids[1:] {
		if id < m {
			m = id
		}
	}
	return m
}
