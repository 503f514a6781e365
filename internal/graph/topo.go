package graph

import "container/heap"

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopoOrder returns step positions in dependency order using Kahn's
// algorithm. The ready queue is a min-heap by input position, so ties go to
// the step listed first and the order is deterministic. A cyclic graph (only
// possible through Index) yields a CyclicGraphError.
func (g *Graph) TopoOrder() ([]int, error) {
	n := g.Len()
	inDegree := make([]int, n)
	ready := &intMinHeap{}
	for i := 0; i < n; i++ {
		inDegree[i] = len(g.ParentPositions(i))
		if inDegree[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		node := heap.Pop(ready).(int)
		order = append(order, node)
		for _, succ := range g.ChildPositions(node) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}

	if len(order) != n {
		return nil, &CyclicGraphError{Cycle: g.DetectCycle()}
	}
	return order, nil
}
