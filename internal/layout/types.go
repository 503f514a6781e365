package layout

import (
	"fmt"

	"github.com/5ALAM/workkflow/internal/graph"
)

// Direction is the primary axis along which ranks advance.
type Direction string

const (
	LeftToRight Direction = "LR"
	TopToBottom Direction = "TB"
)

// Options configures spacing and orientation.
type Options struct {
	Direction      Direction `json:"direction"`
	NodeSeparation float64   `json:"node_separation"` // gap between steps within a rank
	RankSeparation float64   `json:"rank_separation"` // gap between ranks
	NodeWidth      float64   `json:"node_width"`
	NodeHeight     float64   `json:"node_height"`
	Passes         int       `json:"passes"` // crossing-reduction sweeps
}

// DefaultOptions returns the spacing used by the workflow board.
func DefaultOptions() Options {
	return Options{
		Direction:      LeftToRight,
		NodeSeparation: 150,
		RankSeparation: 150,
		NodeWidth:      150,
		NodeHeight:     70,
		Passes:         4,
	}
}

// Validate rejects options that cannot produce distinct positions.
func (o Options) Validate() error {
	switch o.Direction {
	case LeftToRight, TopToBottom:
	default:
		return fmt.Errorf("unknown direction %q (use LR or TB)", o.Direction)
	}
	if o.NodeSeparation < 0 || o.RankSeparation < 0 {
		return fmt.Errorf("separation must not be negative (node=%v, rank=%v)", o.NodeSeparation, o.RankSeparation)
	}
	if o.NodeWidth <= 0 || o.NodeHeight <= 0 {
		return fmt.Errorf("node size must be positive (width=%v, height=%v)", o.NodeWidth, o.NodeHeight)
	}
	if o.Passes < 0 {
		return fmt.Errorf("passes must not be negative, got %d", o.Passes)
	}
	return nil
}

// Point is a 2-D coordinate. Positions are step centres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement holds the layout of a single step.
type Placement struct {
	StepID   graph.StepID `json:"step_id"`
	Rank     int          `json:"rank"`  // layer index
	Order    int          `json:"order"` // index within the layer
	Position Point        `json:"position"`
}

// Result is the complete layout of a graph.
type Result struct {
	Placements map[graph.StepID]*Placement `json:"placements"`
	Layers     [][]graph.StepID            `json:"layers"` // by rank, in final order
	TopoOrder  []graph.StepID              `json:"topo_order"`
	Crossings  int                         `json:"crossings"`
	Width      float64                     `json:"width"`
	Height     float64                     `json:"height"`
	Options    Options                     `json:"options"`
}

// Position returns the coordinates of id.
func (r *Result) Position(id graph.StepID) (Point, bool) {
	p, ok := r.Placements[id]
	if !ok {
		return Point{}, false
	}
	return p.Position, true
}
