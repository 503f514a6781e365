package transition

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/5ALAM/workkflow/internal/graph"
)

func mustBuild(t *testing.T, steps ...graph.Step) *graph.Graph {
	t.Helper()
	g, err := graph.Build(steps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func step(id string, status graph.Status, parents ...string) graph.Step {
	s := graph.Step{ID: graph.StepID(id), Event: "Step " + id, Status: status}
	for _, p := range parents {
		s.ParentIDs = append(s.ParentIDs, graph.StepID(p))
	}
	return s
}

var allStatuses = []graph.Status{graph.StatusNotStarted, graph.StatusInProgress, graph.StatusFinished}

func TestScenarioA_FinishedParentAllows(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusFinished),
		step("2", graph.StatusNotStarted, "1"),
	)
	if !CanTransition(g, "2", graph.StatusInProgress) {
		t.Fatal("expected step 2 to be allowed to move to inProgress")
	}
}

func TestScenarioB_UnfinishedParentBlocks(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusInProgress),
		step("2", graph.StatusNotStarted, "1"),
	)
	if CanTransition(g, "2", graph.StatusFinished) {
		t.Fatal("expected step 2 to be blocked")
	}

	_, err := Check(g, "2", "finished")
	var de *DependencyNotSatisfiedError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DependencyNotSatisfiedError, got %v", err)
	}
	if !reflect.DeepEqual(de.Blocking, []graph.StepID{"1"}) {
		t.Errorf("expected blocking [1], got %v", de.Blocking)
	}
	if !errors.Is(err, ErrDependencyNotSatisfied) {
		t.Error("expected errors.Is ErrDependencyNotSatisfied")
	}
}

func TestCanTransition_RootAlwaysAllowed(t *testing.T) {
	for _, current := range allStatuses {
		g := mustBuild(t, step("r", current))
		for _, target := range allStatuses {
			if !CanTransition(g, "r", target) {
				t.Errorf("root in %s: expected transition to %s to be allowed", current, target)
			}
		}
	}
}

func TestCanTransition_BlockedForEveryStatus(t *testing.T) {
	for _, parent := range []graph.Status{graph.StatusNotStarted, graph.StatusInProgress, "archived"} {
		g := mustBuild(t,
			step("1", graph.StatusFinished),
			step("2", parent),
			step("3", graph.StatusFinished, "1", "2"),
		)
		for _, target := range allStatuses {
			if CanTransition(g, "3", target) {
				t.Errorf("parent %s: expected transition to %s to be blocked", parent, target)
			}
		}
	}
}

func TestCanTransition_OnlyDirectParents(t *testing.T) {
	// The grandparent is unfinished but the direct parent is finished.
	g := mustBuild(t,
		step("1", graph.StatusNotStarted),
		step("2", graph.StatusFinished, "1"),
		step("3", graph.StatusNotStarted, "2"),
	)
	if !CanTransition(g, "3", graph.StatusInProgress) {
		t.Error("expected only direct parents to gate the transition")
	}
}

func TestCanTransition_UnknownStep(t *testing.T) {
	g := mustBuild(t, step("1", graph.StatusFinished))
	if CanTransition(g, "9", graph.StatusFinished) {
		t.Error("expected unknown step to be rejected")
	}
}

func TestCheck_Errors(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusInProgress),
		step("2", graph.StatusNotStarted, "1"),
	)

	tests := []struct {
		name      string
		id        graph.StepID
		requested string
		want      error
	}{
		{"unrecognised status", "1", "done", graph.ErrUnknownStatus},
		{"empty status", "1", "", graph.ErrUnknownStatus},
		{"unknown step", "7", "finished", ErrUnknownStep},
		{"blocked", "2", "inProgress", ErrDependencyNotSatisfied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(g, tt.id, tt.requested)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	status, err := Check(g, "1", "finished")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != graph.StatusFinished {
		t.Errorf("expected finished, got %s", status)
	}
}

func TestApply_Success(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusFinished),
		step("2", graph.StatusNotStarted, "1"),
	)
	next, err := Apply(g, "2", "inProgress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := next.Step("2"); s.Status != graph.StatusInProgress {
		t.Errorf("expected inProgress, got %s", s.Status)
	}
	if s, _ := g.Step("2"); s.Status != graph.StatusNotStarted {
		t.Errorf("input graph mutated: %s", s.Status)
	}
}

func TestApply_RevertIsGated(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusInProgress),
		step("2", graph.StatusFinished, "1"),
	)
	if _, err := Apply(g, "2", "notStarted"); !errors.Is(err, ErrDependencyNotSatisfied) {
		t.Errorf("expected revert to be gated on parents, got %v", err)
	}
}

func TestApply_RejectedLeavesGraphUnchanged(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusInProgress),
		step("2", graph.StatusNotStarted, "1"),
	)
	before, err := json.Marshal(g.Steps())
	if err != nil {
		t.Fatal(err)
	}

	for _, requested := range []string{"finished", "bogus"} {
		got, err := Apply(g, "2", requested)
		if err == nil {
			t.Fatalf("expected %q to be rejected", requested)
		}
		if got != g {
			t.Errorf("expected the original graph back on failure")
		}
		after, _ := json.Marshal(got.Steps())
		if string(before) != string(after) {
			t.Errorf("graph changed after rejected transition:\n%s\n%s", before, after)
		}
	}
}

func TestBlockingAndEligible(t *testing.T) {
	g := mustBuild(t,
		step("1", graph.StatusFinished),
		step("2", graph.StatusInProgress),
		step("3", graph.StatusNotStarted, "1"),
		step("4", graph.StatusNotStarted, "2", "1", "3"),
	)

	if got := Blocking(g, "4"); !reflect.DeepEqual(got, []graph.StepID{"2", "3"}) {
		t.Errorf("expected blocking [2 3], got %v", got)
	}
	if got := Blocking(g, "3"); len(got) != 0 {
		t.Errorf("expected no blocking parents, got %v", got)
	}
	if got := Eligible(g); !reflect.DeepEqual(got, []graph.StepID{"1", "2", "3"}) {
		t.Errorf("expected eligible [1 2 3], got %v", got)
	}
}
