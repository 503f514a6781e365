package cpm

import (
	"errors"
	"testing"

	"github.com/5ALAM/workkflow/internal/graph"
)

func buildGraph(t *testing.T, steps ...graph.Step) *graph.Graph {
	t.Helper()
	g, err := graph.Build(steps)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func step(id string, status graph.Status, parents ...string) graph.Step {
	s := graph.Step{ID: graph.StepID(id), Event: id, Status: status, ParentIDs: []graph.StepID{}}
	for _, p := range parents {
		s.ParentIDs = append(s.ParentIDs, graph.StepID(p))
	}
	return s
}

func assertSchedule(t *testing.T, s *Schedule, es, ef, ls, lf, slack int, critical bool) {
	t.Helper()
	if s.ES != es || s.EF != ef || s.LS != ls || s.LF != lf || s.Slack != slack || s.Critical != critical {
		t.Errorf("step %s: expected ES=%d EF=%d LS=%d LF=%d slack=%d critical=%v, got %+v",
			s.StepID, es, ef, ls, lf, slack, critical, *s)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		step graph.Step
		want int
	}{
		{"finished", graph.Step{Status: graph.StatusFinished, Date: "2024-03-01", DueDate: "2024-03-10"}, 0},
		{"no dates", graph.Step{Status: graph.StatusNotStarted}, 1},
		{"span", graph.Step{Status: graph.StatusInProgress, Date: "2024-03-05", DueDate: "2024-03-12"}, 7},
		{"same day", graph.Step{Status: graph.StatusNotStarted, Date: "2024-03-05", DueDate: "2024-03-05"}, 1},
		{"due before start", graph.Step{Status: graph.StatusNotStarted, Date: "2024-03-05", DueDate: "2024-03-01"}, 1},
		{"bad date", graph.Step{Status: graph.StatusNotStarted, Date: "March 5", DueDate: "2024-03-12"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.step); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAnalyze_LinearChain(t *testing.T) {
	g := buildGraph(t,
		step("a", graph.StatusNotStarted),
		step("b", graph.StatusNotStarted, "a"),
		step("c", graph.StatusNotStarted, "b"),
	)

	res, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDuration != 3 {
		t.Errorf("expected total duration 3, got %d", res.TotalDuration)
	}
	if len(res.CriticalPath) != 3 {
		t.Errorf("expected 3 critical steps, got %v", res.CriticalPath)
	}
	if len(res.Waves) != 3 {
		t.Errorf("expected 3 waves, got %d", len(res.Waves))
	}
	assertSchedule(t, res.Schedules["a"], 0, 1, 0, 1, 0, true)
	assertSchedule(t, res.Schedules["b"], 1, 2, 1, 2, 0, true)
	assertSchedule(t, res.Schedules["c"], 2, 3, 2, 3, 0, true)
}

func TestAnalyze_Diamond(t *testing.T) {
	// a -> b (3 days) -> d
	// a -> c (1 day)  -> d
	b := step("b", graph.StatusNotStarted, "a")
	b.Date, b.DueDate = "2024-03-01", "2024-03-04"
	g := buildGraph(t,
		step("a", graph.StatusNotStarted),
		b,
		step("c", graph.StatusNotStarted, "a"),
		step("d", graph.StatusNotStarted, "b", "c"),
	)

	res, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", res.TotalDuration)
	}
	assertSchedule(t, res.Schedules["c"], 1, 2, 3, 4, 2, false)

	want := []graph.StepID{"a", "b", "d"}
	if len(res.CriticalPath) != len(want) {
		t.Fatalf("expected critical path %v, got %v", want, res.CriticalPath)
	}
	for i := range want {
		if res.CriticalPath[i] != want[i] {
			t.Errorf("critical path[%d]: expected %s, got %s", i, want[i], res.CriticalPath[i])
		}
	}

	if len(res.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(res.Waves))
	}
	w := res.Waves[1]
	if w.Start != 1 || len(w.StepIDs) != 2 || w.StepIDs[0] != "b" || !w.Critical {
		t.Errorf("expected wave 1 to start at 1 with b first, got %+v", w)
	}
	if res.Schedules["c"].Wave != 1 {
		t.Errorf("expected c in wave 1, got %d", res.Schedules["c"].Wave)
	}
}

func TestAnalyze_FinishedStepsTakeNoTime(t *testing.T) {
	g := buildGraph(t,
		step("a", graph.StatusFinished),
		step("b", graph.StatusFinished, "a"),
		step("c", graph.StatusNotStarted, "b"),
	)

	res, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDuration != 1 {
		t.Errorf("expected 1 day remaining, got %d", res.TotalDuration)
	}
	if res.Schedules["c"].ES != 0 {
		t.Errorf("expected c to start now, got %d", res.Schedules["c"].ES)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	res, err := Analyze(buildGraph(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDuration != 0 || len(res.CriticalPath) != 0 || len(res.Waves) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestAnalyze_Cycle(t *testing.T) {
	g, err := graph.Index([]graph.Step{
		step("a", graph.StatusNotStarted, "b"),
		step("b", graph.StatusNotStarted, "a"),
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if _, err := Analyze(g); !errors.Is(err, graph.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}
