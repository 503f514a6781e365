package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/view"
)

var categoryColors = map[view.Category]lipgloss.AdaptiveColor{
	view.CategorySuccess: {Light: "#5a8a12", Dark: "#8ac926"},
	view.CategoryWarning: {Light: "#c78a00", Dark: "#ffb703"},
	view.CategoryNeutral: {Light: "#8a8a8a", Dark: "#8a8a8a"},
}

var (
	layerHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Width(22)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#6c7680"})
)

// Card renders a single node as a bordered box styled from its status.
func Card(n view.Node) string {
	border := lipgloss.NormalBorder()
	if n.Style.Weight == view.WeightThick {
		border = lipgloss.ThickBorder()
	}
	style := cardStyle.
		Border(border).
		BorderForeground(categoryColors[n.Style.Category]).
		Faint(n.Style.Opacity < 1)
	if n.Style.Emphasis {
		style = style.Bold(true)
	}

	lines := []string{
		fmt.Sprintf("%s %s", StatusIcon(n.Data.Status), n.Data.Event),
		metaStyle.Render(fmt.Sprintf("#%s · %s", n.ID, n.Data.Status)),
	}
	if n.Data.Owner != "" {
		lines = append(lines, metaStyle.Render("owner: "+n.Data.Owner))
	}
	if n.Data.DueDate != "" {
		lines = append(lines, metaStyle.Render("due: "+n.Data.DueDate))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// Board renders views as layers of cards. Layers run left to right for LR
// layouts and top to bottom for TB, matching the computed layout.
func Board(v *view.Views) string {
	if len(v.Nodes) == 0 {
		return metaStyle.Render("(no steps)")
	}

	layers := make([][]view.Node, v.Metadata.TotalLayers)
	for _, n := range v.Nodes {
		layers[n.Rank] = append(layers[n.Rank], n)
	}

	horizontal := v.Metadata.Direction != layout.TopToBottom
	blocks := make([]string, 0, len(layers))
	for rank, nodes := range layers {
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
		cards := make([]string, 0, len(nodes)+1)
		cards = append(cards, layerHeaderStyle.Render(fmt.Sprintf("Layer %d", rank)))
		for _, n := range nodes {
			cards = append(cards, Card(n))
		}
		if horizontal {
			blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, cards...))
		} else {
			blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Center, cards...))
		}
	}

	if horizontal {
		return lipgloss.JoinHorizontal(lipgloss.Top, withGaps(blocks, "  ")...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func withGaps(blocks []string, gap string) []string {
	out := make([]string, 0, 2*len(blocks))
	for i, b := range blocks {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, b)
	}
	return out
}
