package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

type stubDaemon struct {
	state     session.State
	snapshots []store.Summary
	calls     []string
	lastRun   protocol.AlgorithmParams
}

func (s *stubDaemon) State(context.Context) (*session.State, error) {
	st := s.state
	return &st, nil
}

func (s *stubDaemon) ListSnapshots(context.Context, client.ListOptions) ([]store.Summary, error) {
	return s.snapshots, nil
}

func (s *stubDaemon) CreateSnapshot(_ context.Context, _ string, req *protocol.GenerationRequest) (*store.Snapshot, error) {
	s.calls = append(s.calls, "create:"+string(req.Mode))
	return &store.Snapshot{ID: "snap-1", NodeCount: 3, EdgeCount: 3}, nil
}

func (s *stubDaemon) LoadSnapshot(_ context.Context, id string) (*store.Summary, error) {
	s.calls = append(s.calls, "load:"+id)
	return &store.Summary{ID: id}, nil
}

func (s *stubDaemon) DeleteSnapshot(_ context.Context, id string) error {
	s.calls = append(s.calls, "delete:"+id)
	return nil
}

func (s *stubDaemon) RunAlgorithm(_ context.Context, key string, params protocol.AlgorithmParams) (*client.RunResult, error) {
	s.calls = append(s.calls, "run:"+key)
	s.lastRun = params
	return &client.RunResult{Algorithm: protocol.AlgorithmKey(key)}, nil
}

func (s *stubDaemon) SetPage(_ context.Context, p session.Page) (*session.State, error) {
	s.calls = append(s.calls, "page:"+string(p))
	s.state.CurrentPage = p
	return s.State(context.Background())
}

func (s *stubDaemon) SetEdgeLabels(_ context.Context, m session.EdgeLabelMode) (*session.State, error) {
	s.state.EdgeLabelMode = s.state.EdgeLabelMode.Next()
	return s.State(context.Background())
}

func (s *stubDaemon) ClearHighlights(context.Context) (*session.State, error) {
	s.calls = append(s.calls, "clear")
	return s.State(context.Background())
}

func (s *stubDaemon) Explanations(context.Context) ([]catalog.Explanation, error) {
	return catalog.MustDefault().Explanations(), nil
}

func loadedState() session.State {
	st := session.DefaultState()
	st.LoadedGraphSnapshotID = "snap-1"
	st.LoadedGraph = &graph.Payload{
		Nodes: []graph.Node{{ID: "USD"}, {ID: "EUR"}, {ID: "GBP"}},
		Edges: []graph.Edge{
			{From: "USD", To: "EUR", WeightCost: 15, WeightNegLog: -0.01},
			{From: "EUR", To: "GBP", WeightCost: 15, WeightNegLog: 0.01},
		},
	}
	st.HighlightedNodes = []string{"EUR"}
	st.HighlightedEdges = []graph.EdgeID{graph.NewEdgeID("USD", "EUR")}
	return st
}

// press feeds a key to the model and runs the resulting command once.
func press(t *testing.T, m model, key tea.KeyMsg) model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(model)
	// Input commands only blink the cursor.
	if m.editing != "" {
		return m
	}
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, ok := msg.(actionMsg); ok {
				next, _ = m.Update(msg)
				m = next.(model)
			}
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(d *stubDaemon) model {
	m := newModel(d, time.Second)
	next, _ := m.Update(m.fetchData()())
	return next.(model)
}

func TestModel_DataPage(t *testing.T) {
	d := &stubDaemon{
		state:     session.DefaultState(),
		snapshots: []store.Summary{{ID: "a", CreatedAt: time.Now()}, {ID: "b", CreatedAt: time.Now()}},
	}
	m := newTestModel(d)
	require.Len(t, m.table.Rows(), 2)

	m = press(t, m, runes("g"))
	assert.Equal(t, "Generated snap-1 (3 nodes, 3 edges)", m.status)
	assert.False(t, m.busy)

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	press(t, m, runes("L"))
	press(t, m, runes("r"))
	press(t, m, runes("d"))
	assert.Equal(t, []string{"create:scenario", "load:a", "load:latest", "create:random", "delete:a"}, d.calls)

	assert.Contains(t, m.View(), "Generated snap-1")
}

func TestModel_SwitchPage(t *testing.T) {
	d := &stubDaemon{state: session.DefaultState()}
	m := newTestModel(d)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, session.PageGraph, m.page)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, session.PageLearn, m.page)
	assert.Equal(t, []string{"page:graph", "page:data", "page:learn"}, d.calls)
}

func TestModel_PollDoesNotRevertPendingPage(t *testing.T) {
	d := &stubDaemon{state: session.DefaultState()}
	m := newTestModel(d)
	require.Equal(t, session.PageData, m.page)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	require.NotNil(t, cmd)
	assert.Equal(t, session.PageGraph, m.page)

	// A poll started before the switch still reports the old page.
	stale := session.DefaultState()
	next, _ = m.Update(dataMsg{state: &stale})
	m = next.(model)
	assert.Equal(t, session.PageGraph, m.page)

	next, _ = m.Update(cmd())
	m = next.(model)
	assert.Equal(t, session.PageGraph, m.page)
	assert.Equal(t, session.Page(""), m.pendingPage)

	// Once acknowledged, polled state drives the page again.
	learn := session.DefaultState()
	learn.CurrentPage = session.PageLearn
	next, _ = m.Update(dataMsg{state: &learn})
	m = next.(model)
	assert.Equal(t, session.PageLearn, m.page)
}

func TestModel_GraphPage(t *testing.T) {
	d := &stubDaemon{state: loadedState()}
	d.state.CurrentPage = session.PageGraph
	m := newTestModel(d)
	require.Equal(t, session.PageGraph, m.page)

	m = press(t, m, runes("4"))
	assert.Equal(t, "run:bellmanFord", d.calls[0])
	assert.Equal(t, "USD", d.lastRun.Source)
	assert.Equal(t, "GBP", d.lastRun.Target)

	// Set the source through the input.
	m = press(t, m, runes("s"))
	require.Equal(t, "source", m.editing)
	for _, r := range "EUR" {
		m = press(t, m, runes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.editing)
	m = press(t, m, runes("1"))
	assert.Equal(t, "run:bfs", d.calls[1])
	assert.Equal(t, "EUR", d.lastRun.Source)

	m = press(t, m, runes("e"))
	assert.Equal(t, session.LabelNegLog, m.state.EdgeLabelMode)
	m = press(t, m, runes("c"))
	assert.Equal(t, "clear", d.calls[len(d.calls)-1])
}

func TestGraphContent(t *testing.T) {
	st := loadedState()
	bf := &protocol.BellmanFordResponse{Source: "USD", NegativeCycleFound: true, Cycle: []string{"USD", "EUR", "USD"}}
	require.NoError(t, st.AlgorithmResults.Set(protocol.KeyBellmanFord, bf))

	out := graphContent(&st)
	assert.Contains(t, out, "[EUR]")
	assert.Contains(t, out, "15.00")
	assert.Contains(t, out, "arbitrage cycle USD -> EUR -> USD")

	lines := strings.Split(out, "\n")
	var marked int
	for _, l := range lines {
		if strings.Contains(l, "* USD") {
			marked++
		}
	}
	assert.Equal(t, 1, marked)

	st.EdgeLabelMode = session.LabelNegLog
	assert.Contains(t, graphContent(&st), "-0.0100")
	assert.Empty(t, graphContent(nil))
}

func TestResultSummary(t *testing.T) {
	dist := 30.0
	tests := []struct {
		key    protocol.AlgorithmKey
		result any
		want   string
	}{
		{protocol.KeyBFS, &protocol.BFSResponse{Order: []string{"USD", "EUR"}}, "order USD EUR"},
		{protocol.KeyDijkstra, &protocol.DijkstraResponse{Source: "USD", Found: true, Distance: &dist, Path: []string{"USD", "EUR"}}, "USD -> EUR (cost 30.00)"},
		{protocol.KeyDijkstra, &protocol.DijkstraResponse{Source: "USD"}, "no path from USD"},
		{protocol.KeyMSTKruskal, &protocol.MSTResponse{IsForest: true, NumComponents: 2, TotalCost: 45}, "forest of 2, 0 edges, total cost 45.00"},
		{protocol.KeyFloydWarshall, nil, "floydWarshall"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resultSummary(tt.key, tt.result))
	}
}
