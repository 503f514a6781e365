package ui

import (
	"github.com/fatih/color"

	"github.com/5ALAM/workkflow/internal/graph"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

// stepColors is a palette of distinct bold colors for differentiating steps.
var stepColors = []func(a ...interface{}) string{
	color.New(color.Bold, color.FgMagenta).SprintFunc(),
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// stepColorIndex hashes a step ID to a palette index.
func stepColorIndex(id graph.StepID) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(stepColors)))
}

// StepPrefix returns a colored [step-id] prefix string.
func StepPrefix(id graph.StepID) string {
	c := stepColors[stepColorIndex(id)]
	return Dim("[") + c(string(id)) + Dim("]")
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status graph.Status) string {
	switch status {
	case graph.StatusFinished:
		return Green("✓")
	case graph.StatusInProgress:
		return Yellow("●")
	case graph.StatusNotStarted:
		return Dim("◌")
	default:
		return Red("?")
	}
}

// StatusLabel returns the status text colored like its icon.
func StatusLabel(status graph.Status) string {
	switch status {
	case graph.StatusFinished:
		return Green(string(status))
	case graph.StatusInProgress:
		return Yellow(string(status))
	case graph.StatusNotStarted:
		return Dim(string(status))
	default:
		return Red(string(status))
	}
}

// LayerStatus returns a colored layer status string.
func LayerStatus(status string) string {
	switch status {
	case "done":
		return Green("done")
	case "active":
		return BoldCyan("active")
	case "ready":
		return Yellow("ready")
	default:
		return Dim("blocked")
	}
}
