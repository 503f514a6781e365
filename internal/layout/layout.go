package layout

import (
	"fmt"
	"sort"

	"github.com/5ALAM/workkflow/internal/graph"
)

// Compute performs a layered layout of g.
//
// Each step's rank is the length of the longest dependency path from a root,
// so every edge points from a lower rank to a strictly higher one. Steps are
// grouped into one layer per rank, reordered within layers to reduce edge
// crossings, then mapped to coordinates. Identical input yields identical
// output.
func Compute(g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("layout options: %w", err)
	}

	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}

	ranks := assignRanks(g, order)
	layers := groupLayers(ranks)
	crossings := reduceCrossings(g, ranks, layers, opts.Passes)

	steps := g.Steps()
	result := &Result{
		Placements: make(map[graph.StepID]*Placement, len(steps)),
		Layers:     make([][]graph.StepID, len(layers)),
		TopoOrder:  make([]graph.StepID, len(order)),
		Crossings:  crossings,
		Options:    opts,
	}
	for i, v := range order {
		result.TopoOrder[i] = steps[v].ID
	}

	place(result, steps, layers, opts)
	return result, nil
}

// assignRanks sets rank = 0 for roots, else 1 + max(rank of parents).
func assignRanks(g *graph.Graph, order []int) []int {
	ranks := make([]int, g.Len())
	for _, v := range order {
		r := 0
		for _, p := range g.ParentPositions(v) {
			if ranks[p]+1 > r {
				r = ranks[p] + 1
			}
		}
		ranks[v] = r
	}
	return ranks
}

// groupLayers buckets step positions by rank. Within a layer steps start in
// input order.
func groupLayers(ranks []int) [][]int {
	maxRank := -1
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	layers := make([][]int, maxRank+1)
	for v, r := range ranks {
		layers[r] = append(layers[r], v)
	}
	return layers
}

// reduceCrossings reorders layers in place using the barycenter heuristic,
// alternating downward and upward sweeps. The best ordering seen is kept and
// its crossing count returned.
func reduceCrossings(g *graph.Graph, ranks []int, layers [][]int, passes int) int {
	pos := make([]int, len(ranks))
	index := func() {
		for _, layer := range layers {
			for i, v := range layer {
				pos[v] = i
			}
		}
	}
	index()

	best := countCrossings(g, ranks, layers, pos)
	bestLayers := cloneLayers(layers)

	for pass := 0; pass < passes && best > 0; pass++ {
		for l := 1; l < len(layers); l++ {
			sortByBarycenter(layers[l], pos, ranks, l-1, g.ParentPositions)
			index()
		}
		for l := len(layers) - 2; l >= 0; l-- {
			sortByBarycenter(layers[l], pos, ranks, l+1, g.ChildPositions)
			index()
		}

		if c := countCrossings(g, ranks, layers, pos); c < best {
			best = c
			bestLayers = cloneLayers(layers)
		}
	}

	copy(layers, bestLayers)
	return best
}

// sortByBarycenter orders layer by the mean position of each step's
// neighbours in the adjacent layer (rank fixedRank). Steps without such
// neighbours keep their current position as key. The sort is stable, so ties
// keep their current relative order.
func sortByBarycenter(layer []int, pos []int, ranks []int, fixedRank int, neighbours func(int) []int) {
	keys := make(map[int]float64, len(layer))
	for _, v := range layer {
		sum, n := 0, 0
		for _, u := range neighbours(v) {
			if ranks[u] == fixedRank {
				sum += pos[u]
				n++
			}
		}
		if n == 0 {
			keys[v] = float64(pos[v])
			continue
		}
		keys[v] = float64(sum) / float64(n)
	}
	sort.SliceStable(layer, func(a, b int) bool {
		return keys[layer[a]] < keys[layer[b]]
	})
}

// countCrossings counts pairwise crossings between edges joining adjacent
// layers. Edges spanning more than one rank are not counted.
func countCrossings(g *graph.Graph, ranks []int, layers [][]int, pos []int) int {
	total := 0
	for l := 0; l+1 < len(layers); l++ {
		type edge struct{ from, to int }
		var edges []edge
		for _, u := range layers[l] {
			for _, v := range g.ChildPositions(u) {
				if ranks[v] == l+1 {
					edges = append(edges, edge{pos[u], pos[v]})
				}
			}
		}
		for i := 0; i < len(edges); i++ {
			for j := i + 1; j < len(edges); j++ {
				a, b := edges[i], edges[j]
				if (a.from < b.from && a.to > b.to) || (a.from > b.from && a.to < b.to) {
					total++
				}
			}
		}
	}
	return total
}

// Crossings counts the adjacent-layer edge crossings of a computed layout.
func Crossings(g *graph.Graph, res *Result) int {
	ranks := make([]int, g.Len())
	pos := make([]int, g.Len())
	layers := make([][]int, len(res.Layers))
	for l, ids := range res.Layers {
		for i, id := range ids {
			v, ok := g.Position(id)
			if !ok {
				continue
			}
			ranks[v] = l
			pos[v] = i
			layers[l] = append(layers[l], v)
		}
	}
	return countCrossings(g, ranks, layers, pos)
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, l := range layers {
		out[i] = append([]int(nil), l...)
	}
	return out
}

// place maps (rank, order) to coordinates. Ranks advance along the primary
// axis; each layer is centred on the secondary axis.
func place(result *Result, steps []graph.Step, layers [][]int, opts Options) {
	primarySize, secondarySize := opts.NodeWidth, opts.NodeHeight
	if opts.Direction == TopToBottom {
		primarySize, secondarySize = opts.NodeHeight, opts.NodeWidth
	}
	rankStep := primarySize + opts.RankSeparation
	nodeStep := secondarySize + opts.NodeSeparation

	span := func(n int) float64 {
		if n == 0 {
			return 0
		}
		return float64(n)*secondarySize + float64(n-1)*opts.NodeSeparation
	}

	widest := 0
	for _, layer := range layers {
		if len(layer) > widest {
			widest = len(layer)
		}
	}
	maxSpan := span(widest)

	for rank, layer := range layers {
		ids := make([]graph.StepID, len(layer))
		offset := (maxSpan - span(len(layer))) / 2
		primary := float64(rank)*rankStep + primarySize/2
		for order, v := range layer {
			id := steps[v].ID
			ids[order] = id
			secondary := offset + float64(order)*nodeStep + secondarySize/2

			pt := Point{X: primary, Y: secondary}
			if opts.Direction == TopToBottom {
				pt = Point{X: secondary, Y: primary}
			}
			result.Placements[id] = &Placement{
				StepID:   id,
				Rank:     rank,
				Order:    order,
				Position: pt,
			}
		}
		result.Layers[rank] = ids
	}

	primaryExtent := 0.0
	if n := len(layers); n > 0 {
		primaryExtent = float64(n)*primarySize + float64(n-1)*opts.RankSeparation
	}
	result.Width, result.Height = primaryExtent, maxSpan
	if opts.Direction == TopToBottom {
		result.Width, result.Height = maxSpan, primaryExtent
	}
}
