package graph

// Status is the progress state of a step.
//
// The recognised values are NotStarted, InProgress and Finished. Any other
// value decoded from storage is kept verbatim and treated as unknown.
type Status string

const (
	StatusNotStarted Status = "notStarted"
	StatusInProgress Status = "inProgress"
	StatusFinished   Status = "finished"
)

// Statuses lists the recognised statuses in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusFinished}

// Known reports whether s is one of the recognised statuses.
func (s Status) Known() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusFinished:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// ParseStatus converts a requested status string into a Status, rejecting
// anything outside the recognised set.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Known() {
		return "", &UnrecognizedStatusError{Value: s}
	}
	return st, nil
}
