package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

func TestHighlightsFor(t *testing.T) {
	tests := []struct {
		name      string
		key       protocol.AlgorithmKey
		result    any
		wantNodes []string
		wantEdges []graph.EdgeID
	}{
		{
			name:      "bfs order",
			key:       protocol.KeyBFS,
			result:    &protocol.BFSResponse{Order: []string{"USD", "EUR"}},
			wantNodes: []string{"USD", "EUR"},
		},
		{
			name:      "dfs order",
			key:       protocol.KeyDFS,
			result:    &protocol.DFSResponse{Order: []string{"JPY", "USD"}},
			wantNodes: []string{"JPY", "USD"},
		},
		{
			name:      "dijkstra path",
			key:       protocol.KeyDijkstra,
			result:    &protocol.DijkstraResponse{Found: true, Path: []string{"USD", "EUR", "GBP"}},
			wantNodes: []string{"USD", "EUR", "GBP"},
			wantEdges: []graph.EdgeID{"USD->EUR", "EUR->GBP"},
		},
		{
			name:   "dijkstra not found",
			key:    protocol.KeyDijkstra,
			result: &protocol.DijkstraResponse{Path: []string{}},
		},
		{
			name:      "bellman-ford cycle closes",
			key:       protocol.KeyBellmanFord,
			result:    &protocol.BellmanFordResponse{NegativeCycleFound: true, Cycle: []string{"USD", "EUR", "GBP"}},
			wantNodes: []string{"USD", "EUR", "GBP"},
			wantEdges: []graph.EdgeID{"USD->EUR", "EUR->GBP", "GBP->USD"},
		},
		{
			name:      "bellman-ford cycle already closed",
			key:       protocol.KeyBellmanFord,
			result:    &protocol.BellmanFordResponse{NegativeCycleFound: true, Cycle: []string{"USD", "EUR", "USD"}},
			wantNodes: []string{"USD", "EUR"},
			wantEdges: []graph.EdgeID{"USD->EUR", "EUR->USD"},
		},
		{
			name:   "bellman-ford no cycle",
			key:    protocol.KeyBellmanFord,
			result: &protocol.BellmanFordResponse{},
		},
		{
			name: "mst both directions",
			key:  protocol.KeyMSTPrim,
			result: &protocol.MSTResponse{Edges: []protocol.MSTEdge{
				{U: "USD", V: "EUR"},
				{U: "EUR", V: "GBP"},
			}},
			wantNodes: []string{"USD", "EUR", "GBP"},
			wantEdges: []graph.EdgeID{"USD->EUR", "EUR->USD", "EUR->GBP", "GBP->EUR"},
		},
		{
			name:   "floyd-warshall clears",
			key:    protocol.KeyFloydWarshall,
			result: &protocol.FloydWarshallResponse{NodeOrder: []string{"USD"}},
		},
		{
			name:   "nil result",
			key:    protocol.KeyBFS,
			result: nil,
		},
		{
			name:   "typed nil",
			key:    protocol.KeyBFS,
			result: (*protocol.BFSResponse)(nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HighlightsFor(tt.key, tt.result)
			if tt.wantNodes == nil {
				assert.Empty(t, h.Nodes)
			} else {
				assert.Equal(t, tt.wantNodes, h.Nodes)
			}
			if tt.wantEdges == nil {
				assert.Empty(t, h.Edges)
			} else {
				assert.Equal(t, tt.wantEdges, h.Edges)
			}
			assert.NotNil(t, h.Nodes)
			assert.NotNil(t, h.Edges)
		})
	}
}
