package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateID    = errors.New("duplicate step id")
	ErrDanglingParent = errors.New("unknown parent step")
	ErrCycle          = errors.New("dependency cycle detected")
	ErrUnknownStatus  = errors.New("unrecognized status")
)

// StructuralError reports a graph that cannot be loaded: a duplicated id or a
// parent reference that does not resolve.
type StructuralError struct {
	Kind error
	IDs  []StepID
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind, joinIDs(e.IDs, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *StructuralError) Unwrap() error { return e.Kind }

// CyclicGraphError reports a dependency cycle. Cycle is a closed path: the
// first and last ids are the same step.
type CyclicGraphError struct {
	Cycle []StepID
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, joinIDs(e.Cycle, " -> "))
}

func (e *CyclicGraphError) Unwrap() error { return ErrCycle }

// Members returns the distinct steps on the cycle.
func (e *CyclicGraphError) Members() []StepID {
	if len(e.Cycle) > 1 && e.Cycle[0] == e.Cycle[len(e.Cycle)-1] {
		return e.Cycle[:len(e.Cycle)-1]
	}
	return e.Cycle
}

// UnrecognizedStatusError rejects a requested status outside the known set.
type UnrecognizedStatusError struct {
	Value string
}

func (e *UnrecognizedStatusError) Error() string {
	return fmt.Sprintf("%s %q (want one of %s, %s, %s)",
		ErrUnknownStatus, e.Value, StatusFinished, StatusInProgress, StatusNotStarted)
}

func (e *UnrecognizedStatusError) Unwrap() error { return ErrUnknownStatus }

func joinIDs(ids []StepID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, sep)
}
