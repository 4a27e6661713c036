package session

import (
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// Highlights is an ordered, de-duplicated selection of nodes and edges.
type Highlights struct {
	Nodes []string       `json:"nodes"`
	Edges []graph.EdgeID `json:"edges"`
}

// Empty reports whether nothing is highlighted.
func (h Highlights) Empty() bool {
	return len(h.Nodes) == 0 && len(h.Edges) == 0
}

func newHighlights(nodes []string, edges []graph.EdgeID) Highlights {
	h := Highlights{Nodes: []string{}, Edges: []graph.EdgeID{}}
	seenN := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n == "" || seenN[n] {
			continue
		}
		seenN[n] = true
		h.Nodes = append(h.Nodes, n)
	}
	seenE := make(map[graph.EdgeID]bool, len(edges))
	for _, e := range edges {
		if e == "" || seenE[e] {
			continue
		}
		seenE[e] = true
		h.Edges = append(h.Edges, e)
	}
	return h
}

// HighlightsFor derives the selection a result should show. Results that
// do not describe a path or a set of nodes, and nil results, yield an
// empty selection.
func HighlightsFor(key protocol.AlgorithmKey, result any) Highlights {
	var (
		nodes []string
		edges []graph.EdgeID
	)
	switch r := result.(type) {
	case *protocol.BFSResponse:
		if r != nil && key == protocol.KeyBFS {
			nodes = r.Order
		}
	case *protocol.DFSResponse:
		if r != nil && key == protocol.KeyDFS {
			nodes = r.Order
		}
	case *protocol.DijkstraResponse:
		if r != nil {
			nodes = r.Path
			edges = chain(r.Path, false)
		}
	case *protocol.BellmanFordResponse:
		if r != nil && r.NegativeCycleFound {
			nodes = r.Cycle
			edges = chain(r.Cycle, true)
		}
	case *protocol.MSTResponse:
		if r != nil {
			for _, e := range r.Edges {
				nodes = append(nodes, e.U, e.V)
				edges = append(edges, graph.NewEdgeID(e.U, e.V), graph.NewEdgeID(e.V, e.U))
			}
		}
	}
	return newHighlights(nodes, edges)
}

// chain links consecutive ids. With closed set it adds the edge from the
// last id back to the first, unless the path already ends where it began.
func chain(ids []string, closed bool) []graph.EdgeID {
	if len(ids) < 2 {
		return nil
	}
	edges := make([]graph.EdgeID, 0, len(ids))
	for i := 0; i+1 < len(ids); i++ {
		edges = append(edges, graph.NewEdgeID(ids[i], ids[i+1]))
	}
	if closed && ids[len(ids)-1] != ids[0] {
		edges = append(edges, graph.NewEdgeID(ids[len(ids)-1], ids[0]))
	}
	return edges
}
