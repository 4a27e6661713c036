package protocol

import (
	"fmt"
	"strings"
)

// AlgorithmKey names an algorithm result slot.
type AlgorithmKey string

const (
	KeyBFS           AlgorithmKey = "bfs"
	KeyDFS           AlgorithmKey = "dfs"
	KeyDijkstra      AlgorithmKey = "dijkstra"
	KeyBellmanFord   AlgorithmKey = "bellmanFord"
	KeyFloydWarshall AlgorithmKey = "floydWarshall"
	KeyMSTPrim       AlgorithmKey = "mstPrim"
	KeyMSTKruskal    AlgorithmKey = "mstKruskal"
)

// AlgorithmKeys lists every algorithm in display order.
var AlgorithmKeys = []AlgorithmKey{
	KeyBFS,
	KeyDFS,
	KeyDijkstra,
	KeyBellmanFord,
	KeyFloydWarshall,
	KeyMSTPrim,
	KeyMSTKruskal,
}

var algorithmPaths = map[AlgorithmKey]string{
	KeyBFS:           "/algorithms/bfs",
	KeyDFS:           "/algorithms/dfs",
	KeyDijkstra:      "/algorithms/dijkstra",
	KeyBellmanFord:   "/algorithms/bellman-ford",
	KeyFloydWarshall: "/algorithms/floyd-warshall",
	KeyMSTPrim:       "/algorithms/mst/prim",
	KeyMSTKruskal:    "/algorithms/mst/kruskal",
}

var algorithmLabels = map[AlgorithmKey]string{
	KeyBFS:           "BFS",
	KeyDFS:           "DFS",
	KeyDijkstra:      "Dijkstra",
	KeyBellmanFord:   "Bellman-Ford",
	KeyFloydWarshall: "Floyd-Warshall",
	KeyMSTPrim:       "MST (Prim)",
	KeyMSTKruskal:    "MST (Kruskal)",
}

// Path returns the algorithm service endpoint for the key.
func (k AlgorithmKey) Path() string {
	return algorithmPaths[k]
}

// Label returns a short display name.
func (k AlgorithmKey) Label() string {
	if l, ok := algorithmLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k AlgorithmKey) Valid() bool {
	_, ok := algorithmPaths[k]
	return ok
}

// ParseAlgorithmKey accepts a key or a common spelling of it
// ("bellman-ford", "floyd_warshall", "prim", "mst-kruskal", ...).
func ParseAlgorithmKey(s string) (AlgorithmKey, error) {
	if k := AlgorithmKey(s); k.Valid() {
		return k, nil
	}
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "bfs":
		return KeyBFS, nil
	case "dfs":
		return KeyDFS, nil
	case "dijkstra":
		return KeyDijkstra, nil
	case "bellmanford", "bf":
		return KeyBellmanFord, nil
	case "floydwarshall", "fw":
		return KeyFloydWarshall, nil
	case "mstprim", "prim":
		return KeyMSTPrim, nil
	case "mstkruskal", "kruskal":
		return KeyMSTKruskal, nil
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}
