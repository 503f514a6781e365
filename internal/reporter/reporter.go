package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/5ALAM/workkflow/internal/cpm"
	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/transition"
	"github.com/5ALAM/workkflow/internal/ui"
)

// Layer statuses.
const (
	LayerDone    = "done"
	LayerActive  = "active"
	LayerReady   = "ready"
	LayerBlocked = "blocked"
)

// Reporter provides progress display for a workflow.
type Reporter struct {
	Graph  *graph.Graph
	Layout *layout.Result
}

// New creates a new Reporter.
func New(g *graph.Graph, res *layout.Result) *Reporter {
	return &Reporter{Graph: g, Layout: res}
}

// PrintStatus writes a terminal-friendly status table, one block per layer.
func (r *Reporter) PrintStatus(w io.Writer) {
	counts := r.counts()
	total := r.Graph.Len()

	fmt.Fprintf(w, "%s — %s %d/%d — %d of %d steps finished",
		ui.BoldCyan("workkflow"),
		ui.Bold("Layer"),
		r.CurrentLayer()+1, len(r.Layout.Layers), counts[graph.StatusFinished], total)
	if n := counts[graph.StatusInProgress]; n > 0 {
		fmt.Fprintf(w, " %s", ui.Yellow(fmt.Sprintf("(%d in progress)", n)))
	}
	fmt.Fprintln(w)
	if cp, err := cpm.Analyze(r.Graph); err == nil && cp.TotalDuration > 0 {
		fmt.Fprintf(w, "%s %s %s\n", ui.Bold("Critical path:"), joinIDsWith(cp.CriticalPath, " → "),
			ui.Dim(fmt.Sprintf("(%d days remaining)", cp.TotalDuration)))
	}
	fmt.Fprintln(w)

	for rank, ids := range r.Layout.Layers {
		fmt.Fprintf(w, "  %s %d (%s)\n", ui.Bold("LAYER"), rank+1, ui.LayerStatus(r.LayerStatus(rank)))
		for _, id := range ids {
			r.printStep(w, id)
		}
		fmt.Fprintln(w)
	}
}

func (r *Reporter) printStep(w io.Writer, id graph.StepID) {
	s, ok := r.Graph.Step(id)
	if !ok {
		return
	}

	title := truncate(s.Event, 40)

	note := ""
	if blocking := transition.Blocking(r.Graph, id); len(blocking) > 0 {
		note = ui.Dim("[waiting on " + joinIDs(blocking) + "]")
	} else if s.Owner != "" {
		note = ui.Dim("[" + s.Owner + "]")
	}

	fmt.Fprintf(w, "    %s %-8s %-40s %s\n", ui.StatusIcon(s.Status), ui.StepPrefix(id), title, note)
}

// CurrentLayer returns the index of the first layer with an unfinished step,
// or the last layer if every step is finished.
func (r *Reporter) CurrentLayer() int {
	for rank := range r.Layout.Layers {
		if r.LayerStatus(rank) != LayerDone {
			return rank
		}
	}
	if n := len(r.Layout.Layers); n > 0 {
		return n - 1
	}
	return 0
}

// LayerStatus derives a layer's status from its steps: done when all are
// finished, active when any is in progress, ready when an unfinished step
// can transition, blocked otherwise.
func (r *Reporter) LayerStatus(rank int) string {
	allDone := true
	anyActive := false
	anyReady := false
	for _, id := range r.Layout.Layers[rank] {
		s, _ := r.Graph.Step(id)
		switch s.Status {
		case graph.StatusFinished:
			continue
		case graph.StatusInProgress:
			anyActive = true
		}
		allDone = false
		if transition.CanTransition(r.Graph, id, graph.StatusInProgress) {
			anyReady = true
		}
	}
	switch {
	case allDone:
		return LayerDone
	case anyActive:
		return LayerActive
	case anyReady:
		return LayerReady
	default:
		return LayerBlocked
	}
}

func (r *Reporter) counts() map[graph.Status]int {
	counts := make(map[graph.Status]int)
	for _, s := range r.Graph.Steps() {
		counts[s.Status]++
	}
	return counts
}

// Summary is the machine-readable progress report.
type Summary struct {
	CurrentLayer int            `json:"current_layer"`
	TotalLayers  int            `json:"total_layers"`
	TotalSteps   int            `json:"total_steps"`
	Finished     int            `json:"finished"`
	InProgress   int            `json:"in_progress"`
	NotStarted   int            `json:"not_started"`
	Unknown      int            `json:"unknown"`
	Eligible     []graph.StepID `json:"eligible"`
	CriticalPath []graph.StepID `json:"critical_path"`
	DaysLeft     int            `json:"days_remaining"`
	Layers       []LayerSummary `json:"layers"`
}

type LayerSummary struct {
	Index  int          `json:"index"`
	Status string       `json:"status"`
	Steps  []StepStatus `json:"steps"`
}

type StepStatus struct {
	ID       graph.StepID   `json:"id"`
	Event    string         `json:"event"`
	Status   graph.Status   `json:"status"`
	Owner    string         `json:"owner,omitempty"`
	Blocking []graph.StepID `json:"blocking,omitempty"`
}

// Summarize builds the machine-readable report.
func (r *Reporter) Summarize() Summary {
	counts := r.counts()
	sum := Summary{
		CurrentLayer: r.CurrentLayer(),
		TotalLayers:  len(r.Layout.Layers),
		TotalSteps:   r.Graph.Len(),
		Finished:     counts[graph.StatusFinished],
		InProgress:   counts[graph.StatusInProgress],
		NotStarted:   counts[graph.StatusNotStarted],
		Eligible:     transition.Eligible(r.Graph),
		Layers:       make([]LayerSummary, 0, len(r.Layout.Layers)),
	}
	sum.Unknown = sum.TotalSteps - sum.Finished - sum.InProgress - sum.NotStarted
	if sum.Eligible == nil {
		sum.Eligible = []graph.StepID{}
	}
	sum.CriticalPath = []graph.StepID{}
	if cp, err := cpm.Analyze(r.Graph); err == nil {
		sum.CriticalPath = cp.CriticalPath
		sum.DaysLeft = cp.TotalDuration
	}

	for rank, ids := range r.Layout.Layers {
		ls := LayerSummary{Index: rank, Status: r.LayerStatus(rank)}
		for _, id := range ids {
			s, _ := r.Graph.Step(id)
			ls.Steps = append(ls.Steps, StepStatus{
				ID:       id,
				Event:    s.Event,
				Status:   s.Status,
				Owner:    s.Owner,
				Blocking: transition.Blocking(r.Graph, id),
			})
		}
		sum.Layers = append(sum.Layers, ls)
	}
	return sum
}

// JSON returns machine-readable status.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Summarize(), "", "  ")
}

// truncate shortens s to at most limit runes, ending in "..." when cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func joinIDs(ids []graph.StepID) string {
	return joinIDsWith(ids, ", ")
}

func joinIDsWith(ids []graph.StepID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, sep)
}
