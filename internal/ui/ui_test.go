package ui

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/view"
)

func init() {
	color.NoColor = true
}

func TestStatusIcon(t *testing.T) {
	tests := map[graph.Status]string{
		graph.StatusFinished:   "✓",
		graph.StatusInProgress: "●",
		graph.StatusNotStarted: "◌",
		"archived":             "?",
	}
	for status, want := range tests {
		if got := StatusIcon(status); got != want {
			t.Errorf("StatusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestStepPrefix(t *testing.T) {
	if got := StepPrefix("42"); got != "[42]" {
		t.Errorf("expected [42], got %q", got)
	}
	if stepColorIndex("a") != stepColorIndex("a") {
		t.Error("step color must be stable")
	}
}

func TestLayerStatus(t *testing.T) {
	for _, s := range []string{"done", "active", "ready", "blocked"} {
		if got := LayerStatus(s); got != s {
			t.Errorf("LayerStatus(%q) = %q", s, got)
		}
	}
}

func boardViews(t *testing.T, dir layout.Direction) *view.Views {
	t.Helper()
	g, err := graph.Build([]graph.Step{
		{ID: "1", Event: "Draft", Status: graph.StatusFinished, Owner: "ann"},
		{ID: "2", Event: "Review", Status: graph.StatusInProgress, ParentIDs: []graph.StepID{"1"}, DueDate: "2024-05-01"},
		{ID: "3", Event: "Publish", Status: graph.StatusNotStarted, ParentIDs: []graph.StepID{"2"}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	opts := layout.DefaultOptions()
	opts.Direction = dir
	res, err := layout.Compute(g, opts)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	v, err := view.Build(g, res)
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	return v
}

func TestBoard(t *testing.T) {
	for _, dir := range []layout.Direction{layout.LeftToRight, layout.TopToBottom} {
		out := Board(boardViews(t, dir))
		for _, want := range []string{"Layer 0", "Layer 2", "Draft", "Review", "Publish", "owner: ann", "due: 2024-05-01"} {
			if !strings.Contains(out, want) {
				t.Errorf("%s board missing %q:\n%s", dir, want, out)
			}
		}
	}
}

func TestBoard_LayerOrder(t *testing.T) {
	out := Board(boardViews(t, layout.TopToBottom))
	if strings.Index(out, "Draft") > strings.Index(out, "Publish") {
		t.Errorf("expected layer 0 above layer 2:\n%s", out)
	}
}

func TestBoard_Empty(t *testing.T) {
	if out := Board(&view.Views{}); !strings.Contains(out, "no steps") {
		t.Errorf("unexpected empty board %q", out)
	}
}
