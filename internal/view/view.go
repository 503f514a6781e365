// Package view merges a graph and its layout into renderer-facing node and
// edge records.
package view

import (
	"fmt"

	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
)

// Side names a node border.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Handles are the borders edges leave from and arrive at.
type Handles struct {
	Source Side `json:"source"`
	Target Side `json:"target"`
}

// Node is a positioned, styled step.
type Node struct {
	ID       graph.StepID `json:"id"`
	Position layout.Point `json:"position"`
	Rank     int          `json:"rank"`
	Order    int          `json:"order"`
	Type     string       `json:"type"`
	Style    Style        `json:"style"`
	Handles  Handles      `json:"handles"`
	Data     graph.Step   `json:"data"`
}

// Edge joins a parent to a child. Its style follows the child.
type Edge struct {
	ID       string       `json:"id"`
	Source   graph.StepID `json:"source"`
	Target   graph.StepID `json:"target"`
	Style    Style        `json:"style"`
	Animated bool         `json:"animated"`
}

// Metadata describes the view as a whole.
type Metadata struct {
	ID          string           `json:"id,omitempty"`
	Direction   layout.Direction `json:"direction"`
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	TotalSteps  int              `json:"total_steps"`
	TotalLayers int              `json:"total_layers"`
}

// Views is everything a renderer needs to paint the graph.
type Views struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// EdgeID returns the key of the edge from parent to child.
func EdgeID(parent, child graph.StepID) string {
	return fmt.Sprintf("%s-%s", parent, child)
}

// Build derives views from g and its layout. Nodes follow input order; edges
// follow child input order, then parent order. Every step must have a
// placement in res.
func Build(g *graph.Graph, res *layout.Result) (*Views, error) {
	handles := Handles{Source: SideRight, Target: SideLeft}
	if res.Options.Direction == layout.TopToBottom {
		handles = Handles{Source: SideBottom, Target: SideTop}
	}

	steps := g.Steps()
	v := &Views{
		Nodes: make([]Node, 0, len(steps)),
		Edges: []Edge{},
		Metadata: Metadata{
			Direction:   res.Options.Direction,
			Width:       res.Width,
			Height:      res.Height,
			TotalSteps:  len(steps),
			TotalLayers: len(res.Layers),
		},
	}

	for _, s := range steps {
		p, ok := res.Placements[s.ID]
		if !ok {
			return nil, fmt.Errorf("step %s has no layout placement", s.ID)
		}
		style := StyleFor(s.Status)
		v.Nodes = append(v.Nodes, Node{
			ID:       s.ID,
			Position: p.Position,
			Rank:     p.Rank,
			Order:    p.Order,
			Type:     s.Kind(),
			Style:    style,
			Handles:  handles,
			Data:     s,
		})

		for _, parent := range g.ParentsOf(s.ID) {
			v.Edges = append(v.Edges, Edge{
				ID:       EdgeID(parent.ID, s.ID),
				Source:   parent.ID,
				Target:   s.ID,
				Style:    style,
				Animated: style.Animated,
			})
		}
	}
	return v, nil
}
