package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// Page is the dashboard view the user is on.
type Page string

const (
	PageData  Page = "data"
	PageGraph Page = "graph"
	PageLearn Page = "learn"
)

func (p Page) Valid() bool {
	return p == PageData || p == PageGraph || p == PageLearn
}

// EdgeLabelMode selects which weight is drawn on edges.
type EdgeLabelMode string

const (
	LabelCost   EdgeLabelMode = "cost"
	LabelNegLog EdgeLabelMode = "neglog"
	LabelNone   EdgeLabelMode = "none"
)

func (m EdgeLabelMode) Valid() bool {
	return m == LabelCost || m == LabelNegLog || m == LabelNone
}

// Next cycles cost, neglog, none.
func (m EdgeLabelMode) Next() EdgeLabelMode {
	switch m {
	case LabelCost:
		return LabelNegLog
	case LabelNegLog:
		return LabelNone
	default:
		return LabelCost
	}
}

var (
	ErrStaleResult       = errors.New("result is for a graph that is no longer loaded")
	ErrInvalidPage       = errors.New("invalid page")
	ErrInvalidLabelMode  = errors.New("invalid edge label mode")
	ErrResultTypeInvalid = errors.New("result type does not match algorithm")
)

// Results holds the latest result per algorithm.
type Results struct {
	BFS           *protocol.BFSResponse           `json:"bfs,omitempty"`
	DFS           *protocol.DFSResponse           `json:"dfs,omitempty"`
	Dijkstra      *protocol.DijkstraResponse      `json:"dijkstra,omitempty"`
	BellmanFord   *protocol.BellmanFordResponse   `json:"bellmanFord,omitempty"`
	FloydWarshall *protocol.FloydWarshallResponse `json:"floydWarshall,omitempty"`
	MSTPrim       *protocol.MSTResponse           `json:"mstPrim,omitempty"`
	MSTKruskal    *protocol.MSTResponse           `json:"mstKruskal,omitempty"`
}

// Set stores result under key. result must be the response pointer type
// the key produces.
func (r *Results) Set(key protocol.AlgorithmKey, result any) error {
	ok := false
	switch key {
	case protocol.KeyBFS:
		r.BFS, ok = result.(*protocol.BFSResponse)
	case protocol.KeyDFS:
		r.DFS, ok = result.(*protocol.DFSResponse)
	case protocol.KeyDijkstra:
		r.Dijkstra, ok = result.(*protocol.DijkstraResponse)
	case protocol.KeyBellmanFord:
		r.BellmanFord, ok = result.(*protocol.BellmanFordResponse)
	case protocol.KeyFloydWarshall:
		r.FloydWarshall, ok = result.(*protocol.FloydWarshallResponse)
	case protocol.KeyMSTPrim:
		r.MSTPrim, ok = result.(*protocol.MSTResponse)
	case protocol.KeyMSTKruskal:
		r.MSTKruskal, ok = result.(*protocol.MSTResponse)
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrResultTypeInvalid, key)
	}
	if !ok {
		return fmt.Errorf("%w: %s got %T", ErrResultTypeInvalid, key, result)
	}
	return nil
}

// Get returns the stored result for key, or nil. The nil is untyped so
// callers can compare against nil directly.
func (r *Results) Get(key protocol.AlgorithmKey) any {
	switch key {
	case protocol.KeyBFS:
		if r.BFS != nil {
			return r.BFS
		}
	case protocol.KeyDFS:
		if r.DFS != nil {
			return r.DFS
		}
	case protocol.KeyDijkstra:
		if r.Dijkstra != nil {
			return r.Dijkstra
		}
	case protocol.KeyBellmanFord:
		if r.BellmanFord != nil {
			return r.BellmanFord
		}
	case protocol.KeyFloydWarshall:
		if r.FloydWarshall != nil {
			return r.FloydWarshall
		}
	case protocol.KeyMSTPrim:
		if r.MSTPrim != nil {
			return r.MSTPrim
		}
	case protocol.KeyMSTKruskal:
		if r.MSTKruskal != nil {
			return r.MSTKruskal
		}
	}
	return nil
}

// Keys lists the algorithms that have a result, in canonical order.
func (r *Results) Keys() []protocol.AlgorithmKey {
	var keys []protocol.AlgorithmKey
	for _, k := range protocol.AlgorithmKeys {
		if r.Get(k) != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// State is the whole client-side session.
type State struct {
	CurrentPage           Page           `json:"current_page"`
	SelectedSnapshotID    string         `json:"selected_snapshot_id,omitempty"`
	LoadedGraphSnapshotID string         `json:"loaded_graph_snapshot_id,omitempty"`
	LoadedGraph           *graph.Payload `json:"loaded_graph,omitempty"`
	AlgorithmResults      Results        `json:"algorithm_results"`
	HighlightedNodes      []string       `json:"highlighted_nodes"`
	HighlightedEdges      []graph.EdgeID `json:"highlighted_edges"`
	EdgeLabelMode         EdgeLabelMode  `json:"edge_label_mode"`
}

// DefaultState is an empty session on the data page with cost labels.
func DefaultState() State {
	return State{
		CurrentPage:      PageData,
		HighlightedNodes: []string{},
		HighlightedEdges: []graph.EdgeID{},
		EdgeLabelMode:    LabelCost,
	}
}

// clone deep-copies s through its JSON form, which is also the persisted
// form.
func (s State) clone() (State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("failed to marshal session state: %w", err)
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return out, nil
}
