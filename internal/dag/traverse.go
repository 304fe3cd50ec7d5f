package dag

import (
	"container/heap"
	"fmt"
	"sort"
)

// Descendants returns every task reachable from id along forward edges,
// sorted. The start task is not included.
func (g *Graph) Descendants(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	reached := g.Reachable(i)
	ids := make([]string, 0, len(reached))
	for _, j := range reached {
		ids = append(ids, g.tasks[j].ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Reachable performs a breadth-first search from task index start and
// returns the indices of every task reachable from it, in BFS order. The
// start index is not included. Each task is visited at most once, so shared
// descendants are not re-expanded.
func (g *Graph) Reachable(start int) []int {
	visited := make([]bool, len(g.tasks))
	visited[start] = true
	var order []int
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ei := range g.out[cur] {
			next := g.edges[ei].To
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}

// DetectCycle searches for a dependency cycle using an iterative
// depth-first search with white/gray/black coloring. Roots are tried in
// ascending ID order. It returns nil when the graph is acyclic.
func (g *Graph) DetectCycle() *CycleError {
	const (
		white = iota
		gray
		black
	)

	type frame struct {
		node int
		next int // position in g.out[node] to explore next
	}

	color := make([]int, len(g.tasks))
	for root := range g.tasks {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(g.out[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			succ := g.edges[g.out[top.node][top.next]].To
			top.next++
			switch color[succ] {
			case white:
				color[succ] = gray
				stack = append(stack, frame{node: succ})
			case gray:
				// succ is on the stack; the cycle runs from it to the top.
				start := len(stack) - 1
				for stack[start].node != succ {
					start--
				}
				cycle := make([]string, 0, len(stack)-start+1)
				for _, f := range stack[start:] {
					cycle = append(cycle, g.tasks[f.node].ID)
				}
				cycle = append(cycle, g.tasks[succ].ID)
				return &CycleError{Cycle: cycle}
			}
		}
	}
	return nil
}

// TopologicalOrder returns task IDs such that every predecessor appears
// before its successors (Kahn's algorithm). Among tasks that are ready at
// the same time, the smallest ID comes first. A cyclic graph yields a
// *CycleError.
func (g *Graph) TopologicalOrder() ([]string, error) {
	order, err := g.TopologicalIndices()
	if err != nil {
		return nil, err
	}
	return g.ids(order), nil
}

// ReverseTopologicalOrder returns TopologicalOrder reversed, the processing
// order of the backward pass.
func (g *Graph) ReverseTopologicalOrder() ([]string, error) {
	order, err := g.TopologicalIndices()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return g.ids(order), nil
}

// TopologicalIndices is TopologicalOrder expressed as arena indices.
func (g *Graph) TopologicalIndices() ([]int, error) {
	inDegree := make([]int, len(g.tasks))
	for _, e := range g.edges {
		inDegree[e.To]++
	}

	// Arena order is ID order, so a min-heap of indices breaks ties by ID.
	ready := &indexHeap{}
	for i, deg := range inDegree {
		if deg == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(g.tasks))
	for ready.Len() > 0 {
		cur := heap.Pop(ready).(int)
		order = append(order, cur)
		for _, ei := range g.out[cur] {
			succ := g.edges[ei].To
			inDegree[succ]--
			if inDegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}

	if len(order) != len(g.tasks) {
		if cyc := g.DetectCycle(); cyc != nil {
			return nil, cyc
		}
		return nil, fmt.Errorf("%w: only %d of %d tasks could be ordered", ErrCycle, len(order), len(g.tasks))
	}
	return order, nil
}

// indexHeap is a min-heap of task indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
