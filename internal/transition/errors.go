package transition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/5ALAM/workkflow/internal/graph"
)

var (
	// ErrUnknownStep is returned when the requested step id is not in the graph.
	ErrUnknownStep = errors.New("unknown step")
	// ErrDependencyNotSatisfied matches every DependencyNotSatisfiedError.
	ErrDependencyNotSatisfied = errors.New("dependency not satisfied")
)

// DependencyNotSatisfiedError reports a transition rejected because one or
// more direct parents are not finished.
type DependencyNotSatisfiedError struct {
	StepID   graph.StepID
	Blocking []graph.StepID
}

func (e *DependencyNotSatisfiedError) Error() string {
	ids := make([]string, len(e.Blocking))
	for i, id := range e.Blocking {
		ids[i] = string(id)
	}
	return fmt.Sprintf("step %s is blocked by unfinished dependencies: %s", e.StepID, strings.Join(ids, ", "))
}

func (e *DependencyNotSatisfiedError) Unwrap() error {
	return ErrDependencyNotSatisfied
}
