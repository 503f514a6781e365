package view

import "github.com/5ALAM/workkflow/internal/graph"

// Category is the colour family a renderer uses for a status.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryNeutral Category = "neutral"
)

// Weight is the border or stroke thickness.
type Weight string

const (
	WeightThin  Weight = "thin"
	WeightThick Weight = "thick"
)

// Style describes how a status is drawn, without colour literals.
type Style struct {
	Category Category `json:"category"`
	Weight   Weight   `json:"weight"`
	Opacity  float64  `json:"opacity"`
	Emphasis bool     `json:"emphasis"` // shadow or glow
	Animated bool     `json:"animated"` // applies to edges into a step with this status
}

var styles = map[graph.Status]Style{
	graph.StatusFinished:   {Category: CategorySuccess, Weight: WeightThick, Opacity: 1, Emphasis: true, Animated: true},
	graph.StatusInProgress: {Category: CategoryWarning, Weight: WeightThick, Opacity: 1, Emphasis: true, Animated: true},
	graph.StatusNotStarted: {Category: CategoryNeutral, Weight: WeightThin, Opacity: 0.5},
}

// unknownStyle is used for any status outside the known set. Such steps are
// drawn at full weight but never emphasised.
var unknownStyle = Style{Category: CategoryNeutral, Weight: WeightThick, Opacity: 1}

// StyleFor returns the style for status.
func StyleFor(status graph.Status) Style {
	if s, ok := styles[status]; ok {
		return s
	}
	return unknownStyle
}
