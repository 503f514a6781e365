// Package cpm runs a critical path analysis over the unfinished part of a
// workflow. Step durations come from the step's date and due date.
package cpm

import (
	"fmt"
	"sort"
	"time"

	"github.com/5ALAM/workkflow/internal/graph"
)

// DateLayout is the format of a step's date and dueDate fields.
const DateLayout = "2006-01-02"

// Duration returns the remaining work of a step in days. Finished steps take
// no time; otherwise the span from date to dueDate is used, with a floor of
// one day when either date is missing or unparseable.
func Duration(s graph.Step) int {
	if s.Status == graph.StatusFinished {
		return 0
	}
	start, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return 1
	}
	due, err := time.Parse(DateLayout, s.DueDate)
	if err != nil {
		return 1
	}
	days := int(due.Sub(start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Analyze computes earliest and latest start times, slack and the critical
// path of g.
func Analyze(g *graph.Graph) (*Result, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, fmt.Errorf("critical path: %w", err)
	}
	steps := g.Steps()

	sched := make([]*Schedule, len(steps))
	for i, s := range steps {
		sched[i] = &Schedule{StepID: s.ID, Duration: Duration(s)}
	}

	// Forward pass
	total := 0
	for _, i := range order {
		es := 0
		for _, p := range g.ParentPositions(i) {
			if sched[p].EF > es {
				es = sched[p].EF
			}
		}
		sched[i].ES = es
		sched[i].EF = es + sched[i].Duration
		if sched[i].EF > total {
			total = sched[i].EF
		}
	}

	// Backward pass
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		lf := total
		for _, c := range g.ChildPositions(i) {
			if sched[c].LS < lf {
				lf = sched[c].LS
			}
		}
		sched[i].LF = lf
		sched[i].LS = lf - sched[i].Duration
		sched[i].Slack = sched[i].LS - sched[i].ES
		sched[i].Critical = sched[i].Slack == 0
	}

	res := &Result{
		Schedules:     make(map[graph.StepID]*Schedule, len(steps)),
		CriticalPath:  []graph.StepID{},
		TotalDuration: total,
		TopoOrder:     make([]graph.StepID, 0, len(order)),
	}
	for _, i := range order {
		s := sched[i]
		res.Schedules[s.StepID] = s
		res.TopoOrder = append(res.TopoOrder, s.StepID)
		if s.Critical && s.Duration > 0 {
			res.CriticalPath = append(res.CriticalPath, s.StepID)
		}
	}
	res.Waves = computeWaves(res)
	return res, nil
}

// computeWaves groups steps by earliest start, critical steps first.
func computeWaves(res *Result) []Wave {
	groups := make(map[int][]graph.StepID)
	for _, id := range res.TopoOrder {
		es := res.Schedules[id].ES
		groups[es] = append(groups[es], id)
	}

	starts := make([]int, 0, len(groups))
	for es := range groups {
		starts = append(starts, es)
	}
	sort.Ints(starts)

	waves := make([]Wave, len(starts))
	for i, es := range starts {
		ids := groups[es]
		critical := false
		for _, id := range ids {
			res.Schedules[id].Wave = i
			if res.Schedules[id].Critical {
				critical = true
			}
		}
		sort.SliceStable(ids, func(a, b int) bool {
			return res.Schedules[ids[a]].Critical && !res.Schedules[ids[b]].Critical
		})
		waves[i] = Wave{Index: i, Start: es, StepIDs: ids, Critical: critical}
	}
	return waves
}
