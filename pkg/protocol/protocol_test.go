package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestGenerationRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr string
	}{
		{name: "default", req: DefaultGenerationRequest()},
		{name: "missing mode", req: GenerationRequest{}, wantErr: "mode is required"},
		{name: "bad mode", req: GenerationRequest{Mode: "weird"}, wantErr: "mode must be one of"},
		{name: "scenario without id", req: GenerationRequest{Mode: ModeScenario}, wantErr: "scenario_id is required"},
		{name: "custom without values", req: GenerationRequest{Mode: ModeCustom}, wantErr: "custom_values is required"},
		{
			name:    "custom with non-positive value",
			req:     GenerationRequest{Mode: ModeCustom, CustomValues: map[string]float64{"USD": 0}},
			wantErr: "greater than 0",
		},
		{
			name: "random ok",
			req: GenerationRequest{Mode: ModeRandom, GenerationParams: &GenerationParams{
				NumNodes: intPtr(10), ValueMin: floatPtr(0.5), ValueMax: floatPtr(2), Variance: "medium",
			}},
		},
		{
			name:    "too few nodes",
			req:     GenerationRequest{Mode: ModeRandom, GenerationParams: &GenerationParams{NumNodes: intPtr(2)}},
			wantErr: "num_nodes must be at least 3",
		},
		{
			name:    "too many nodes",
			req:     GenerationRequest{Mode: ModeRandom, GenerationParams: &GenerationParams{NumNodes: intPtr(51)}},
			wantErr: "num_nodes must be at most 50",
		},
		{
			name:    "min above max",
			req:     GenerationRequest{Mode: ModeRandom, GenerationParams: &GenerationParams{ValueMin: floatPtr(3), ValueMax: floatPtr(1)}},
			wantErr: "value_min must not exceed value_max",
		},
		{
			name:    "bad variance",
			req:     GenerationRequest{Mode: ModeRandom, GenerationParams: &GenerationParams{Variance: "extreme"}},
			wantErr: "variance must be one of",
		},
		{
			name:    "half pair",
			req:     GenerationRequest{Mode: ModeScenario, ScenarioID: "x", Pairs: [][2]string{{"USD", ""}}},
			wantErr: "pairs[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAlgorithmRequests_RequireGraph(t *testing.T) {
	err := TraversalRequest{StartNode: "USD"}.Validate()
	assert.ErrorIs(t, err, ErrMissingGraph)

	err = TraversalRequest{GraphSource: GraphSource{SnapshotID: "s1"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_node is required")

	bad := &graph.Payload{Nodes: []graph.Node{{ID: "USD"}}, Edges: []graph.Edge{{From: "USD", To: "EUR"}}}
	bad.Recount()
	err = DijkstraRequest{GraphSource: GraphSource{GraphPayload: bad}, Source: "USD"}.Validate()
	assert.ErrorIs(t, err, graph.ErrDanglingEdge)

	err = FloydWarshallRequest{GraphSource: GraphSource{SnapshotID: "s1"}, WeightMode: "miles"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight_mode must be one of")

	assert.NoError(t, MSTRequest{GraphSource: GraphSource{SnapshotID: "s1"}}.Validate())
}

func TestRequestJSON_FlattensGraphSource(t *testing.T) {
	data, err := json.Marshal(BellmanFordRequest{
		GraphSource:         GraphSource{SnapshotID: "s1"},
		Source:              "USD",
		DetectNegativeCycle: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"snapshot_id":"s1","source":"USD","detect_negative_cycle":true}`, string(data))
}

func TestResponses_Validate(t *testing.T) {
	var bfs BFSResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"snapshot_id":"s1","algorithm":"bfs","start_node":"USD",
		"order":["USD","EUR"],"parent":{"USD":null,"EUR":"USD"},"depth":{"USD":0,"EUR":1}}`), &bfs))
	assert.NoError(t, bfs.Validate())
	assert.Nil(t, bfs.Parent["USD"])
	assert.Equal(t, "USD", *bfs.Parent["EUR"])

	var missing BFSResponse
	require.NoError(t, json.Unmarshal([]byte(`{"snapshot_id":"s1","algorithm":"bfs","start_node":"USD"}`), &missing))
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order is required")

	var dj DijkstraResponse
	require.NoError(t, json.Unmarshal([]byte(`{"snapshot_id":"s1","algorithm":"dijkstra","source":"USD","found":false}`), &dj))
	require.NoError(t, dj.Validate())
	dj.Normalize()
	assert.NotNil(t, dj.Path)
	assert.NotNil(t, dj.AllDistances)

	var mst MSTResponse
	require.NoError(t, json.Unmarshal([]byte(`{"snapshot_id":"s1","algorithm":"mst_prim","edges":[{"u":"","v":"EUR","weight":1}],"total_cost":1,"is_forest":false,"num_components":1}`), &mst))
	assert.Error(t, mst.Validate())
}

func TestParseAlgorithmKey(t *testing.T) {
	cases := map[string]AlgorithmKey{
		"bfs":            KeyBFS,
		"bellmanFord":    KeyBellmanFord,
		"bellman-ford":   KeyBellmanFord,
		"Floyd_Warshall": KeyFloydWarshall,
		"prim":           KeyMSTPrim,
		"mst-kruskal":    KeyMSTKruskal,
	}
	for in, want := range cases {
		got, err := ParseAlgorithmKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAlgorithmKey("astar")
	assert.Error(t, err)

	assert.Equal(t, "/algorithms/mst/kruskal", KeyMSTKruskal.Path())
	assert.Equal(t, "Bellman-Ford", KeyBellmanFord.Label())
}
