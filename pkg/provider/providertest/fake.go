// Package providertest runs an in-process stand-in for the algorithm service.
// Responses have the right shape and are derived from the request graph in
// trivial ways; they are not real algorithm output.
package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// Currencies used for generated graphs.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "NZD", "SEK", "NOK", "SGD", "HKD"}

// Server is a fake algorithm service.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	calls      map[string]int
	failNext   int
	failStatus int
	delay      time.Duration
	snapshots  map[string]graph.Payload
	latest     string
	clock      time.Time
}

// NewServer starts a fake service that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		calls:     make(map[string]int),
		snapshots: make(map[string]graph.Payload),
		clock:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/nodes", s.handleNodes)
	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/algorithms/", s.handleAlgorithm)
	s.Server = httptest.NewServer(s.counting(mux))
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next n requests answer with status.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failStatus = status
}

// SetDelay slows every response down.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *Server) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		fail, status, delay := s.failNext > 0, s.failStatus, s.delay
		if fail {
			s.failNext--
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			writeDetail(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := protocol.HealthResponse{Status: "healthy", SnapshotCount: len(s.snapshots)}
	if s.latest != "" {
		latest := s.latest
		resp.LatestSnapshot = &latest
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Currencies)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var req protocol.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	label := string(req.Mode)
	var payload graph.Payload
	switch req.Mode {
	case protocol.ModeScenario:
		if req.ScenarioID == "unknown" {
			writeDetail(w, http.StatusBadRequest, "Unknown scenario: unknown")
			return
		}
		label = req.ScenarioID
		payload = Ring(Currencies[:6], req.ScenarioID == "negative_cycle")
	case protocol.ModeCustom:
		ids := make([]string, 0, len(req.CustomValues))
		for _, c := range Currencies {
			if _, ok := req.CustomValues[c]; ok {
				ids = append(ids, c)
			}
		}
		payload = Ring(ids, false)
	default:
		n := 5
		if req.GenerationParams != nil && req.GenerationParams.NumNodes != nil && *req.GenerationParams.NumNodes <= len(Currencies) {
			n = *req.GenerationParams.NumNodes
		}
		payload = Ring(Currencies[:n], false)
	}

	anchor := req.AnchorNode
	if anchor == "" {
		anchor = "USD"
	}

	s.mu.Lock()
	s.clock = s.clock.Add(time.Second)
	ts := s.clock
	id := fmt.Sprintf("%s_%s_%s", ts.Format("2006-01-02T15-04-05Z"), label, anchor)
	s.snapshots[id] = payload
	s.latest = id
	s.mu.Unlock()

	resp := protocol.GenerationResponse{
		SnapshotID:   id,
		Timestamp:    ts.Format(time.RFC3339),
		NodeCount:    payload.Metadata.NodeCount,
		EdgeCount:    payload.Metadata.EdgeCount,
		DatasetType:  string(req.Mode),
		GraphPayload: payload,
	}
	if req.Mode == protocol.ModeScenario {
		sid := req.ScenarioID
		resp.ScenarioID = &sid
	}
	writeJSON(w, http.StatusCreated, resp)
}

type algorithmRequest struct {
	protocol.GraphSource
	StartNode  string `json:"start_node"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	WeightMode string `json:"weight_mode"`
}

func (s *Server) handleAlgorithm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var req algorithmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var g graph.Payload
	switch {
	case req.GraphPayload != nil:
		g = *req.GraphPayload
	case req.SnapshotID != "":
		s.mu.Lock()
		stored, ok := s.snapshots[req.SnapshotID]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, fmt.Sprintf("Snapshot not found: %s", req.SnapshotID))
			return
		}
		g = stored
	default:
		writeDetail(w, http.StatusBadRequest, "Either snapshot_id or graph_payload is required")
		return
	}

	snapshotID := req.SnapshotID
	if snapshotID == "" {
		snapshotID = "local"
	}
	origin := req.StartNode
	if origin == "" {
		origin = req.Source
	}
	nodes := g.NodeIDs()

	switch r.URL.Path {
	case "/algorithms/bfs", "/algorithms/dfs", "/algorithms/dijkstra", "/algorithms/bellman-ford":
		if !g.HasNode(origin) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Node %s not found in graph", origin))
			return
		}
	}

	switch r.URL.Path {
	case "/algorithms/bfs", "/algorithms/dfs":
		order := []string{origin}
		parent := map[string]*string{origin: nil}
		depth := map[string]int{origin: 0}
		for _, n := range nodes {
			if n == origin {
				continue
			}
			p := origin
			order = append(order, n)
			parent[n] = &p
			depth[n] = 1
		}
		if r.URL.Path == "/algorithms/bfs" {
			writeJSON(w, http.StatusOK, protocol.BFSResponse{
				ResultMeta: protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: "bfs"},
				StartNode:  origin,
				Order:      order,
				Parent:     parent,
				Depth:      depth,
			})
			return
		}
		finish := make(map[string]int, len(order))
		for i, n := range order {
			finish[n] = 2*len(order) - i - 1
		}
		discovery := make(map[string]int, len(order))
		for i, n := range order {
			discovery[n] = i
		}
		writeJSON(w, http.StatusOK, protocol.DFSResponse{
			ResultMeta:    protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: "dfs"},
			StartNode:     origin,
			Order:         order,
			Parent:        parent,
			DiscoveryTime: discovery,
			FinishTime:    finish,
		})

	case "/algorithms/dijkstra":
		resp := protocol.DijkstraResponse{
			ResultMeta:   protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: "dijkstra"},
			Source:       origin,
			Path:         []string{},
			PathDetails:  []protocol.PathStep{},
			AllDistances: map[string]*float64{origin: ptr(0)},
		}
		if req.Target != "" {
			target := req.Target
			resp.Target = &target
			if e, ok := g.Edge(origin, target); ok {
				resp.Found = true
				resp.Distance = ptr(e.WeightCost)
				resp.Path = []string{origin, target}
				resp.PathDetails = []protocol.PathStep{{From: origin, To: target, Weight: e.WeightCost}}
				resp.AllDistances[target] = ptr(e.WeightCost)
			}
		}
		writeJSON(w, http.StatusOK, resp)

	case "/algorithms/bellman-ford":
		resp := protocol.BellmanFordResponse{
			ResultMeta: protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: "bellman_ford"},
			Source:     origin,
			Distances:  map[string]*float64{origin: ptr(0)},
			Paths:      map[string][]string{origin: {origin}},
		}
		for _, e := range g.Edges {
			if e.WeightNegLog < 0 && len(nodes) >= 3 {
				resp.NegativeCycleFound = true
				resp.Cycle = append([]string(nil), nodes[:3]...)
				break
			}
		}
		writeJSON(w, http.StatusOK, resp)

	case "/algorithms/floyd-warshall":
		if req.WeightMode != "cost" && req.WeightMode != "neglog" {
			writeDetail(w, http.StatusUnprocessableEntity, "weight_mode must be cost or neglog")
			return
		}
		matrix := make(map[string]map[string]*float64, len(nodes))
		centrality := make(map[string]protocol.Centrality, len(nodes))
		for _, a := range nodes {
			row := make(map[string]*float64, len(nodes))
			for _, b := range nodes {
				if a == b {
					row[b] = ptr(0)
				} else {
					row[b] = nil
				}
			}
			for _, e := range g.Edges {
				if e.From == a {
					wt := e.WeightCost
					if req.WeightMode == "neglog" {
						wt = e.WeightNegLog
					}
					row[e.To] = ptr(wt)
				}
			}
			matrix[a] = row
			centrality[a] = protocol.Centrality{ReachableCount: len(nodes) - 1, SumDistance: ptr(1)}
		}
		var central *string
		if len(nodes) > 0 {
			c := nodes[0]
			central = &c
		}
		writeJSON(w, http.StatusOK, protocol.FloydWarshallResponse{
			ResultMeta:     protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: "floyd_warshall"},
			WeightMode:     req.WeightMode,
			NodeOrder:      nodes,
			DistanceMatrix: matrix,
			CentralNode:    central,
			Centrality:     centrality,
			CentralityNote: "closeness by sum of finite distances",
		})

	case "/algorithms/mst/prim", "/algorithms/mst/kruskal":
		algo := "mst_prim"
		if r.URL.Path == "/algorithms/mst/kruskal" {
			algo = "mst_kruskal"
		}
		edges := []protocol.MSTEdge{}
		for i := 1; i < len(nodes); i++ {
			edges = append(edges, protocol.MSTEdge{U: nodes[i-1], V: nodes[i], Weight: 1})
		}
		writeJSON(w, http.StatusOK, protocol.MSTResponse{
			ResultMeta:    protocol.ResultMeta{SnapshotID: snapshotID, Algorithm: algo},
			Edges:         edges,
			TotalCost:     float64(len(edges)),
			NumComponents: 1,
		})

	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

// Ring builds a bidirectional ring over ids. With negative set, the
// forward direction gets negative neglog weights.
func Ring(ids []string, negative bool) graph.Payload {
	p := graph.Payload{Nodes: make([]graph.Node, 0, len(ids)), Edges: []graph.Edge{}}
	for _, id := range ids {
		p.Nodes = append(p.Nodes, graph.Node{ID: id})
	}
	if len(ids) > 1 {
		for i := range ids {
			a, b := ids[i], ids[(i+1)%len(ids)]
			if len(ids) == 2 && i == 1 {
				break
			}
			forward := 0.01
			if negative {
				forward = -0.01
			}
			p.Edges = append(p.Edges,
				graph.Edge{From: a, To: b, WeightCost: 15, WeightNegLog: forward},
				graph.Edge{From: b, To: a, WeightCost: 15, WeightNegLog: 0.02},
			)
		}
	}
	p.Recount()
	return p
}

func ptr(f float64) *float64 { return &f }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, protocol.ErrorBody{Detail: detail})
}
