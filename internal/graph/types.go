package graph

// StepID identifies a step. Ids may arrive as JSON numbers or strings; both
// compare by their string form.
type StepID string

// DefaultType is the variant tag used when a step does not carry one.
const DefaultType = "default"

// Step represents a single workflow step.
type Step struct {
	ID        StepID   `json:"id"`
	Event     string   `json:"event"`
	Status    Status   `json:"status"`
	Owner     string   `json:"stepOwner,omitempty"`
	Date      string   `json:"date,omitempty"`
	DueDate   string   `json:"dueDate,omitempty"`
	Type      string   `json:"type,omitempty"`
	ParentIDs []StepID `json:"parent_id"`
}

// Kind returns the step's variant tag, falling back to DefaultType.
func (s Step) Kind() string {
	if s.Type == "" {
		return DefaultType
	}
	return s.Type
}

// Graph is an indexed set of steps and the dependency relation implied by
// their parent ids. The structure is immutable once built; status changes
// produce a new Graph that shares the indices.
type Graph struct {
	steps    []Step         // input order
	index    map[StepID]int // id -> position in steps
	parents  [][]int        // position -> parent positions, in ParentIDs order
	children [][]int        // position -> child positions, in input order
	roots    []StepID
	leaves   []StepID
}
