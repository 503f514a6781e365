// Package dot converts workflows to and from Graphviz DOT.
package dot

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/view"
)

const graphName = "workkflow"

var categoryColors = map[view.Category]string{
	view.CategorySuccess: "#8ac926",
	view.CategoryWarning: "#ffb703",
	view.CategoryNeutral: "gray",
}

var weightPen = map[view.Weight]string{
	view.WeightThin:  "1",
	view.WeightThick: "3",
}

// Export renders a laid-out graph as a DOT digraph. Node positions are pinned
// with pos="x,y!" so `neato -n` reproduces the layout. The step status is
// carried in the node comment so Parse can read it back.
func Export(g *graph.Graph, res *layout.Result) (string, error) {
	v, err := view.Build(g, res)
	if err != nil {
		return "", err
	}

	out := gographviz.NewEscape()
	if err := out.SetName(graphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	if err := out.AddAttr(graphName, "rankdir", string(res.Options.Direction)); err != nil {
		return "", fmt.Errorf("dot graph attrs: %w", err)
	}

	for _, n := range v.Nodes {
		style := "rounded"
		if n.Style.Emphasis {
			style = "rounded,bold"
		}
		attrs := map[string]string{
			"shape":    "box",
			"style":    style,
			"label":    n.Data.Event,
			"pos":      fmt.Sprintf("%s,%s!", formatFloat(n.Position.X), formatFloat(n.Position.Y)),
			"color":    categoryColors[n.Style.Category],
			"penwidth": weightPen[n.Style.Weight],
			"comment":  string(n.Data.Status),
		}
		if tip := tooltip(n.Data); tip != "" {
			attrs["tooltip"] = tip
		}
		if err := out.AddNode(graphName, string(n.ID), attrs); err != nil {
			return "", fmt.Errorf("dot node %s: %w", n.ID, err)
		}
	}

	for _, e := range v.Edges {
		attrs := map[string]string{
			"id":       e.ID,
			"color":    categoryColors[e.Style.Category],
			"penwidth": weightPen[e.Style.Weight],
		}
		if !e.Animated {
			attrs["style"] = "dashed"
		}
		if err := out.AddEdge(string(e.Source), string(e.Target), true, attrs); err != nil {
			return "", fmt.Errorf("dot edge %s: %w", e.ID, err)
		}
	}

	return out.String(), nil
}

func tooltip(s graph.Step) string {
	tip := ""
	if s.Owner != "" {
		tip = "owner: " + s.Owner
	}
	if s.DueDate != "" {
		if tip != "" {
			tip += ", "
		}
		tip += "due: " + s.DueDate
	}
	return tip
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
