package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

type memPersister struct {
	mu     sync.Mutex
	values map[string][]byte
	fail   error
	writes int
}

func newMemPersister() *memPersister {
	return &memPersister{values: map[string][]byte{}}
}

func (m *memPersister) SaveState(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.writes++
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memPersister) LoadState(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func triangle() *graph.Payload {
	p := &graph.Payload{
		Nodes: []graph.Node{{ID: "USD"}, {ID: "EUR"}, {ID: "GBP"}},
		Edges: []graph.Edge{
			{From: "USD", To: "EUR", WeightCost: 0.002, WeightNegLog: 0.08},
			{From: "EUR", To: "GBP", WeightCost: 0.001, WeightNegLog: 0.15},
			{From: "GBP", To: "USD", WeightCost: 0.003, WeightNegLog: -0.3},
		},
	}
	p.Recount()
	return p
}

func bfsResult(id string) *protocol.BFSResponse {
	return &protocol.BFSResponse{
		ResultMeta: protocol.ResultMeta{SnapshotID: id, Algorithm: "bfs"},
		StartNode:  "USD",
		Order:      []string{"USD", "EUR", "GBP"},
		Parent:     map[string]*string{"USD": nil},
		Depth:      map[string]int{"USD": 0, "EUR": 1, "GBP": 2},
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil, nil)
	st := s.State()
	assert.Equal(t, PageData, st.CurrentPage)
	assert.Equal(t, LabelCost, st.EdgeLabelMode)
	assert.Nil(t, st.LoadedGraph)
	assert.Empty(t, st.HighlightedNodes)
	assert.Empty(t, st.AlgorithmResults.Keys())
}

func TestLoadGraph_InvalidatesOnDifferentGraph(t *testing.T) {
	ctx := context.Background()
	s := New(newMemPersister(), nil)

	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1")))
	require.NoError(t, s.SetHighlights(ctx, []string{"USD"}, nil))

	// Same graph again keeps results.
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	assert.NotNil(t, s.Result(protocol.KeyBFS))
	assert.Equal(t, []string{"USD"}, s.State().HighlightedNodes)

	// Same id, different content.
	changed := triangle()
	changed.Edges[0].WeightCost = 0.5
	require.NoError(t, s.LoadGraph(ctx, "snap-1", changed))
	assert.Nil(t, s.Result(protocol.KeyBFS))
	assert.Empty(t, s.State().HighlightedNodes)

	// Different id.
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1")))
	require.NoError(t, s.LoadGraph(ctx, "snap-2", triangle()))
	assert.Nil(t, s.Result(protocol.KeyBFS))

	st := s.State()
	assert.Equal(t, "snap-2", st.LoadedGraphSnapshotID)
	assert.Equal(t, "snap-2", st.SelectedSnapshotID)
}

func TestLoadGraph_RejectsInvalidPayload(t *testing.T) {
	s := New(nil, nil)
	bad := triangle()
	bad.Metadata.EdgeCount = 99
	err := s.LoadGraph(context.Background(), "x", bad)
	assert.ErrorIs(t, err, graph.ErrMetadataMismatch)
	assert.ErrorIs(t, s.LoadGraph(context.Background(), "x", nil), graph.ErrEmptyGraph)
	assert.Nil(t, s.State().LoadedGraph)
}

func TestSetResult_Stale(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	err := s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1"))
	assert.ErrorIs(t, err, ErrStaleResult, "no graph loaded")

	require.NoError(t, s.LoadGraph(ctx, "snap-2", triangle()))
	err = s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1"))
	assert.ErrorIs(t, err, ErrStaleResult)
	assert.Nil(t, s.Result(protocol.KeyBFS))
}

func TestSetResult_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))

	err := s.SetResult(ctx, "snap-1", protocol.KeyDFS, bfsResult("snap-1"))
	assert.ErrorIs(t, err, ErrResultTypeInvalid)
	assert.Nil(t, s.Result(protocol.KeyDFS))
}

func TestApplyResult_SetsHighlights(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))

	h, err := s.ApplyResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, h.Nodes)

	st := s.State()
	assert.Equal(t, h.Nodes, st.HighlightedNodes)
	assert.Equal(t, []protocol.AlgorithmKey{protocol.KeyBFS}, st.AlgorithmResults.Keys())
}

func TestRerunReplacesResult(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))

	first := bfsResult("snap-1")
	second := bfsResult("snap-1")
	second.Order = []string{"USD"}
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, first))
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, second))

	got := s.Result(protocol.KeyBFS).(*protocol.BFSResponse)
	assert.Equal(t, []string{"USD"}, got.Order)
}

func TestSetHighlights_Dedupes(t *testing.T) {
	s := New(nil, nil)
	err := s.SetHighlights(context.Background(),
		[]string{"USD", "EUR", "USD", "XXX"},
		[]graph.EdgeID{"USD->EUR", "USD->EUR", "EUR->USD"})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, []string{"USD", "EUR", "XXX"}, st.HighlightedNodes, "unknown ids are kept")
	assert.Equal(t, []graph.EdgeID{"USD->EUR", "EUR->USD"}, st.HighlightedEdges)

	require.NoError(t, s.ClearHighlights(context.Background()))
	assert.Empty(t, s.State().HighlightedNodes)
	assert.Empty(t, s.State().HighlightedEdges)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	assert.ErrorIs(t, s.SetPage(ctx, "settings"), ErrInvalidPage)
	assert.ErrorIs(t, s.SetEdgeLabelMode(ctx, "rate"), ErrInvalidLabelMode)

	require.NoError(t, s.SetPage(ctx, PageLearn))
	require.NoError(t, s.SetEdgeLabelMode(ctx, LabelNone))
	st := s.State()
	assert.Equal(t, PageLearn, st.CurrentPage)
	assert.Equal(t, LabelNone, st.EdgeLabelMode)
}

func TestEdgeLabelMode_Next(t *testing.T) {
	assert.Equal(t, LabelNegLog, LabelCost.Next())
	assert.Equal(t, LabelNone, LabelNegLog.Next())
	assert.Equal(t, LabelCost, LabelNone.Next())
}

func TestCycleEdgeLabelMode_Concurrent(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := New(p, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CycleEdgeLabelMode(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// three steps from cost come back around to cost
	assert.Equal(t, LabelCost, s.State().EdgeLabelMode)
	assert.Equal(t, 3, p.writes)

	mode, err := s.CycleEdgeLabelMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, LabelNegLog, mode)
}

func TestForgetSnapshot_KeepsLoadedGraph(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1")))

	require.NoError(t, s.ForgetSnapshot(ctx, "other"))
	assert.Equal(t, "snap-1", s.State().SelectedSnapshotID)

	require.NoError(t, s.ForgetSnapshot(ctx, "snap-1"))
	st := s.State()
	assert.Empty(t, st.SelectedSnapshotID)
	assert.Equal(t, "snap-1", st.LoadedGraphSnapshotID)
	assert.NotNil(t, st.LoadedGraph)
	assert.NotNil(t, st.AlgorithmResults.BFS)
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s := New(p, nil)
	require.NoError(t, s.SetPage(ctx, PageGraph))

	p.fail = errors.New("disk full")
	err := s.SetPage(ctx, PageLearn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist session")
	assert.Equal(t, PageGraph, s.State().CurrentPage)

	err = s.LoadGraph(ctx, "snap-1", triangle())
	require.Error(t, err)
	assert.Nil(t, s.State().LoadedGraph)
}

func TestStateIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	require.NoError(t, s.SetResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1")))

	st := s.State()
	st.LoadedGraph.Nodes[0].ID = "ZZZ"
	st.AlgorithmResults.BFS.Order[0] = "ZZZ"

	again := s.State()
	assert.Equal(t, "USD", again.LoadedGraph.Nodes[0].ID)
	assert.Equal(t, "USD", again.AlgorithmResults.BFS.Order[0])
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()

	s := New(p, nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	require.NoError(t, s.SetPage(ctx, PageGraph))
	_, err := s.ApplyResult(ctx, "snap-1", protocol.KeyBFS, bfsResult("snap-1"))
	require.NoError(t, err)

	restored, err := Restore(ctx, p, nil)
	require.NoError(t, err)
	assert.Equal(t, s.State(), restored.State())
}

func TestRestore_DropsInvalidGraph(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.values[StateKey] = []byte(`{
		"current_page": "graph",
		"loaded_graph_snapshot_id": "snap-1",
		"loaded_graph": {"nodes": [{"id": "USD"}], "edges": [{"from": "USD", "to": "EUR", "weight_cost": 1, "weight_neglog": 1}], "metadata": {"node_count": 1, "edge_count": 1}},
		"algorithm_results": {"bfs": {"snapshot_id": "snap-1", "algorithm": "bfs", "start_node": "USD", "order": ["USD"], "parent": {}, "depth": {}}},
		"highlighted_nodes": ["USD"],
		"edge_label_mode": "bogus"
	}`)

	s, err := Restore(ctx, p, nil)
	require.NoError(t, err)
	st := s.State()
	assert.Equal(t, PageGraph, st.CurrentPage)
	assert.Nil(t, st.LoadedGraph)
	assert.Empty(t, st.LoadedGraphSnapshotID)
	assert.Empty(t, st.AlgorithmResults.Keys())
	assert.Empty(t, st.HighlightedNodes)
	assert.Equal(t, LabelCost, st.EdgeLabelMode)
}

func TestRestore_NoGraphDropsResults(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.values[StateKey] = []byte(`{
		"current_page": "graph",
		"loaded_graph_snapshot_id": "snap-1",
		"algorithm_results": {"bfs": {"snapshot_id": "snap-1", "algorithm": "bfs", "start_node": "USD", "order": ["USD"], "parent": {}, "depth": {}}},
		"highlighted_nodes": ["USD"],
		"highlighted_edges": ["USD->EUR"],
		"edge_label_mode": "neglog"
	}`)

	s, err := Restore(ctx, p, nil)
	require.NoError(t, err)
	st := s.State()
	assert.Empty(t, st.LoadedGraphSnapshotID)
	assert.Empty(t, st.AlgorithmResults.Keys())
	assert.Empty(t, st.HighlightedNodes)
	assert.Empty(t, st.HighlightedEdges)
	assert.Equal(t, LabelNegLog, st.EdgeLabelMode)
	assert.Nil(t, s.Result(protocol.KeyBFS))
}

func TestRestore_Garbage(t *testing.T) {
	p := newMemPersister()
	p.values[StateKey] = []byte("not json")
	s, err := Restore(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultState(), s.State())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := New(newMemPersister(), nil)
	require.NoError(t, s.LoadGraph(ctx, "snap-1", triangle()))
	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, DefaultState(), s.State())
}
