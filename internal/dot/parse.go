package dot

import (
	"fmt"
	"html"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/5ALAM/workkflow/internal/graph"
)

// Parse reads workflow steps from a DOT digraph. Each node is a step and each
// edge a -> b makes a a parent of b. Recognised node attributes are status
// (or comment, as written by Export), label, owner, date, dueDate and type.
// Nodes without a status start as notStarted. Steps keep the order in which
// nodes first appear.
func Parse(src string) ([]graph.Step, error) {
	ast, err := gographviz.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("dot parse error: %w", err)
	}

	c := newCollector()
	if err := gographviz.Analyse(ast, c); err != nil {
		return nil, fmt.Errorf("dot analyse error: %w", err)
	}

	index := make(map[string]int, len(c.order))
	steps := make([]graph.Step, 0, len(c.order))
	for _, id := range c.order {
		attrs := c.nodes[id]
		status := attrs["status"]
		if status == "" {
			status = attrs["comment"]
		}
		if status == "" {
			status = string(graph.StatusNotStarted)
		}
		label := attrs["label"]
		if label == "" {
			label = id
		}
		owner := attrs["owner"]
		if owner == "" {
			owner = attrs["stepOwner"]
		}

		index[id] = len(steps)
		steps = append(steps, graph.Step{
			ID:        graph.StepID(id),
			Event:     label,
			Status:    graph.Status(status),
			Owner:     owner,
			Date:      attrs["date"],
			DueDate:   attrs["dueDate"],
			Type:      attrs["type"],
			ParentIDs: []graph.StepID{},
		})
	}

	for _, e := range c.edges {
		child := &steps[index[e.to]]
		child.ParentIDs = append(child.ParentIDs, graph.StepID(e.from))
	}
	return steps, nil
}

type rawEdge struct {
	from, to string
}

// collector implements gographviz.Interface without attribute validation, so
// workflow-specific attributes such as status pass through.
type collector struct {
	name  string
	nodes map[string]map[string]string
	order []string
	edges []rawEdge
}

func newCollector() *collector {
	return &collector{nodes: make(map[string]map[string]string)}
}

func (c *collector) SetStrict(_ bool) error { return nil }
func (c *collector) SetDir(_ bool) error    { return nil }
func (c *collector) SetName(n string) error { c.name = unquote(n); return nil }
func (c *collector) String() string         { return c.name }

// AddNode is also called for edge endpoints with only the default node
// attributes, so a repeated node fills in missing attributes and never
// overwrites.
func (c *collector) AddNode(_ string, name string, attrs map[string]string) error {
	id := c.touch(unquote(name))
	for k, v := range attrs {
		if _, set := c.nodes[id][k]; !set {
			c.nodes[id][k] = unquote(v)
		}
	}
	return nil
}

func (c *collector) AddEdge(src, dst string, _ bool, _ map[string]string) error {
	from, to := c.touch(unquote(src)), c.touch(unquote(dst))
	c.edges = append(c.edges, rawEdge{from: from, to: to})
	return nil
}

func (c *collector) AddPortEdge(src, _, dst, _ string, directed bool, attrs map[string]string) error {
	return c.AddEdge(src, dst, directed, attrs)
}

func (c *collector) AddAttr(_ string, _, _ string) error                 { return nil }
func (c *collector) AddSubGraph(_, _ string, _ map[string]string) error { return nil }

// touch registers id on first sight.
func (c *collector) touch(id string) string {
	if _, ok := c.nodes[id]; !ok {
		c.nodes[id] = make(map[string]string)
		c.order = append(c.order, id)
	}
	return id
}

// unquote strips DOT string quotes and decodes the entities Export's escaper
// writes for quotes, ampersands and angle brackets.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return html.UnescapeString(strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`))
	}
	return s
}
