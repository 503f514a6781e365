// Package transition enforces the dependency rule on status changes: a step
// may change status only once every step it directly depends on is finished.
package transition

import (
	"fmt"

	"github.com/5ALAM/workkflow/internal/graph"
)

// CanTransition reports whether the status of id may be changed to status.
//
// Only direct parents are consulted, and the answer does not depend on the
// requested status: reverting to notStarted is gated the same way as
// finishing. Roots can always transition. An unknown id cannot.
func CanTransition(g *graph.Graph, id graph.StepID, status graph.Status) bool {
	if !g.Has(id) {
		return false
	}
	return len(Blocking(g, id)) == 0
}

// Blocking returns the direct parents of id that are not finished, in
// parent order.
func Blocking(g *graph.Graph, id graph.StepID) []graph.StepID {
	var blocking []graph.StepID
	for _, p := range g.ParentsOf(id) {
		if p.Status != graph.StatusFinished {
			blocking = append(blocking, p.ID)
		}
	}
	return blocking
}

// Check validates a requested transition without applying it. It returns the
// parsed status on success.
func Check(g *graph.Graph, id graph.StepID, requested string) (graph.Status, error) {
	status, err := graph.ParseStatus(requested)
	if err != nil {
		return "", err
	}
	if !g.Has(id) {
		return "", fmt.Errorf("step %s: %w", id, ErrUnknownStep)
	}
	if blocking := Blocking(g, id); len(blocking) > 0 {
		return "", &DependencyNotSatisfiedError{StepID: id, Blocking: blocking}
	}
	return status, nil
}

// Apply validates the transition and returns a new graph with the status of
// id replaced. On failure the original graph is returned with the error, so
// callers can keep using the result either way.
func Apply(g *graph.Graph, id graph.StepID, requested string) (*graph.Graph, error) {
	status, err := Check(g, id, requested)
	if err != nil {
		return g, err
	}
	next, err := g.WithStatus(id, status)
	if err != nil {
		return g, err
	}
	return next, nil
}

// Eligible returns the ids of steps whose direct parents are all finished,
// in input order. This includes steps that are already finished.
func Eligible(g *graph.Graph) []graph.StepID {
	var ids []graph.StepID
	for _, s := range g.Steps() {
		if len(Blocking(g, s.ID)) == 0 {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
