package cpm

import "github.com/5ALAM/workkflow/internal/graph"

// Result holds the critical path analysis of a workflow.
type Result struct {
	Schedules     map[graph.StepID]*Schedule `json:"schedules"`
	CriticalPath  []graph.StepID             `json:"critical_path"` // unfinished critical steps, topological order
	TotalDuration int                        `json:"total_duration"`
	Waves         []Wave                     `json:"waves"`
	TopoOrder     []graph.StepID             `json:"topo_order"`
}

// Schedule holds the timing of a single step, in days from now.
type Schedule struct {
	StepID   graph.StepID `json:"step_id"`
	Duration int          `json:"duration"`
	ES       int          `json:"es"` // earliest start
	EF       int          `json:"ef"` // earliest finish
	LS       int          `json:"ls"` // latest start
	LF       int          `json:"lf"` // latest finish
	Slack    int          `json:"slack"`
	Critical bool         `json:"critical"`
	Wave     int          `json:"wave"`
}

// Wave is a group of steps that can start at the same time.
type Wave struct {
	Index    int            `json:"index"`
	Start    int            `json:"start"`
	StepIDs  []graph.StepID `json:"step_ids"`
	Critical bool           `json:"critical"`
}
