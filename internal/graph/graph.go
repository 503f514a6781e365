package graph

import (
	"fmt"
)

// Build indexes steps and validates the structural invariants, in order:
// unique ids, resolvable parent ids, no dependency cycle. The first violation
// is returned; nothing is repaired.
func Build(steps []Step) (*Graph, error) {
	g, err := Index(steps)
	if err != nil {
		return nil, err
	}
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CyclicGraphError{Cycle: cycle}
	}
	return g, nil
}

// Index builds the id, parent and child indices without checking for cycles.
// Most callers want Build; Index exists for code that reports cycles itself.
func Index(steps []Step) (*Graph, error) {
	g := &Graph{
		steps:    make([]Step, len(steps)),
		index:    make(map[StepID]int, len(steps)),
		parents:  make([][]int, len(steps)),
		children: make([][]int, len(steps)),
	}
	for i, s := range steps {
		s.ParentIDs = append([]StepID{}, s.ParentIDs...)
		g.steps[i] = s
	}

	for i, s := range g.steps {
		if _, dup := g.index[s.ID]; dup {
			return nil, &StructuralError{
				Kind: ErrDuplicateID,
				IDs:  []StepID{s.ID},
				Msg:  fmt.Sprintf("step %q appears more than once", s.ID),
			}
		}
		g.index[s.ID] = i
	}

	for i, s := range g.steps {
		seen := make(map[int]bool, len(s.ParentIDs))
		for _, pid := range s.ParentIDs {
			p, ok := g.index[pid]
			if !ok {
				return nil, &StructuralError{
					Kind: ErrDanglingParent,
					IDs:  []StepID{s.ID, pid},
					Msg:  fmt.Sprintf("step %q depends on %q, which does not exist", s.ID, pid),
				}
			}
			// A parent listed twice is still one dependency.
			if seen[p] {
				continue
			}
			seen[p] = true
			g.parents[i] = append(g.parents[i], p)
		}
	}

	// Children are appended while walking steps in input order, so each
	// child list is already in input order.
	for i := range g.steps {
		for _, p := range g.parents[i] {
			g.children[p] = append(g.children[p], i)
		}
	}

	for i, s := range g.steps {
		if len(g.parents[i]) == 0 {
			g.roots = append(g.roots, s.ID)
		}
		if len(g.children[i]) == 0 {
			g.leaves = append(g.leaves, s.ID)
		}
	}

	return g, nil
}

// DetectCycle returns a closed cycle path if one exists, or nil if the graph
// is acyclic. Uses DFS with coloring: white (unvisited), gray (in progress),
// black (done). Steps are visited in input order so the result is stable.
func (g *Graph) DetectCycle() []StepID {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.steps))
	parent := make([]int, len(g.steps))

	var dfs func(node int) []StepID
	dfs = func(node int) []StepID {
		color[node] = gray
		for _, next := range g.children[node] {
			if color[next] == gray {
				cycle := []StepID{g.steps[next].ID, g.steps[node].ID}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, g.steps[cur].ID)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for i := range g.steps {
		if color[i] == white {
			if cycle := dfs(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int {
	return len(g.steps)
}

// Steps returns a copy of the steps in input order.
func (g *Graph) Steps() []Step {
	out := make([]Step, len(g.steps))
	copy(out, g.steps)
	return out
}

// Step looks up a step by id.
func (g *Graph) Step(id StepID) (Step, bool) {
	i, ok := g.index[id]
	if !ok {
		return Step{}, false
	}
	return g.steps[i], true
}

// Has reports whether id names a step in the graph.
func (g *Graph) Has(id StepID) bool {
	_, ok := g.index[id]
	return ok
}

// ParentsOf returns the direct dependencies of id, in ParentIDs order.
func (g *Graph) ParentsOf(id StepID) []Step {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.parents[i])
}

// ChildrenOf returns the steps that directly depend on id, in input order.
func (g *Graph) ChildrenOf(id StepID) []Step {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.children[i])
}

// Roots returns the ids of steps with no parents, in input order.
func (g *Graph) Roots() []StepID {
	return append([]StepID(nil), g.roots...)
}

// Leaves returns the ids of steps nothing depends on, in input order.
func (g *Graph) Leaves() []StepID {
	return append([]StepID(nil), g.leaves...)
}

// Position returns the input position of id, used as the stable tie-breaker
// by ordering code.
func (g *Graph) Position(id StepID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ParentPositions returns the input positions of the parents of the step at
// position i. The returned slice must not be modified.
func (g *Graph) ParentPositions(i int) []int {
	return g.parents[i]
}

// ChildPositions returns the input positions of the children of the step at
// position i. The returned slice must not be modified.
func (g *Graph) ChildPositions(i int) []int {
	return g.children[i]
}

// WithStatus returns a copy of g with the status of id replaced. The
// receiver is not modified.
func (g *Graph) WithStatus(id StepID, status Status) (*Graph, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("step %q not found", id)
	}
	next := *g
	next.steps = make([]Step, len(g.steps))
	copy(next.steps, g.steps)
	next.steps[i].Status = status
	return &next, nil
}

// Filter returns a new Graph containing only steps matching the predicate.
// Parent references to filtered-out steps are dropped.
func (g *Graph) Filter(pred func(Step) bool) (*Graph, error) {
	keep := make(map[StepID]bool)
	for _, s := range g.steps {
		if pred(s) {
			keep[s.ID] = true
		}
	}

	var filtered []Step
	for _, s := range g.steps {
		if !keep[s.ID] {
			continue
		}
		var parents []StepID
		for _, pid := range s.ParentIDs {
			if keep[pid] {
				parents = append(parents, pid)
			}
		}
		s.ParentIDs = parents
		filtered = append(filtered, s)
	}
	return Build(filtered)
}

func (g *Graph) collect(positions []int) []Step {
	out := make([]Step, 0, len(positions))
	for _, p := range positions {
		out = append(out, g.steps[p])
	}
	return out
}
