package protocol

import (
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
)

// GenerationMode selects how the service builds a graph.
type GenerationMode string

const (
	ModeRandom   GenerationMode = "random"
	ModeScenario GenerationMode = "scenario"
	ModeCustom   GenerationMode = "custom"
)

// DefaultScenario is generated when no request is given.
const DefaultScenario = "dense_graph"

// WeightMode selects which edge weight an all-pairs run uses.
type WeightMode string

const (
	WeightCost   WeightMode = "cost"
	WeightNegLog WeightMode = "neglog"
)

// GenerationParams tune random generation.
type GenerationParams struct {
	NumNodes *int     `json:"num_nodes,omitempty" validate:"omitempty,min=3,max=50"`
	ValueMin *float64 `json:"value_min,omitempty" validate:"omitempty,gt=0"`
	ValueMax *float64 `json:"value_max,omitempty" validate:"omitempty,gt=0"`
	Variance string   `json:"variance,omitempty" validate:"omitempty,oneof=low medium high"`
	Seed     *int64   `json:"seed,omitempty"`
}

// GenerationRequest is the body of POST /generate.
type GenerationRequest struct {
	Mode             GenerationMode     `json:"mode" validate:"required,oneof=random scenario custom"`
	ScenarioID       string             `json:"scenario_id,omitempty" validate:"required_if=Mode scenario"`
	CustomValues     map[string]float64 `json:"custom_values,omitempty" validate:"required_if=Mode custom,dive,gt=0"`
	GenerationParams *GenerationParams  `json:"generation_params,omitempty"`
	AnchorNode       string             `json:"anchor_node,omitempty"`
	Nodes            []string           `json:"nodes,omitempty" validate:"omitempty,dive,required"`
	Pairs            [][2]string        `json:"pairs,omitempty"`
}

// DefaultGenerationRequest returns the request used when none is supplied.
func DefaultGenerationRequest() GenerationRequest {
	return GenerationRequest{Mode: ModeScenario, ScenarioID: DefaultScenario}
}

// GenerationResponse is returned by POST /generate.
type GenerationResponse struct {
	SnapshotID   string        `json:"snapshot_id" validate:"required"`
	Timestamp    string        `json:"timestamp" validate:"required"`
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
	DatasetType  string        `json:"dataset_type" validate:"required"`
	ScenarioID   *string       `json:"scenario_id,omitempty"`
	GraphPayload graph.Payload `json:"graph_payload"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status         string  `json:"status" validate:"required"`
	LatestSnapshot *string `json:"latest_snapshot"`
	SnapshotCount  int     `json:"snapshot_count"`
}

// GraphSource identifies the graph an algorithm runs on. The service
// accepts a stored snapshot id, an inline payload, or both.
type GraphSource struct {
	SnapshotID   string         `json:"snapshot_id,omitempty"`
	GraphPayload *graph.Payload `json:"graph_payload,omitempty"`
}

// TraversalRequest is the body of the BFS and DFS endpoints.
type TraversalRequest struct {
	GraphSource
	StartNode string `json:"start_node" validate:"required"`
}

type DijkstraRequest struct {
	GraphSource
	Source string `json:"source" validate:"required"`
	Target string `json:"target,omitempty"`
}

type BellmanFordRequest struct {
	GraphSource
	Source              string `json:"source" validate:"required"`
	DetectNegativeCycle bool   `json:"detect_negative_cycle"`
}

type FloydWarshallRequest struct {
	GraphSource
	WeightMode WeightMode `json:"weight_mode" validate:"required,oneof=cost neglog"`
}

type MSTRequest struct {
	GraphSource
}

// ResultMeta is common to every algorithm response.
type ResultMeta struct {
	SnapshotID string `json:"snapshot_id" validate:"required"`
	Algorithm  string `json:"algorithm" validate:"required"`
}

type BFSResponse struct {
	ResultMeta
	StartNode string             `json:"start_node" validate:"required"`
	Order     []string           `json:"order" validate:"required"`
	Parent    map[string]*string `json:"parent" validate:"required"`
	Depth     map[string]int     `json:"depth" validate:"required"`
}

type DFSResponse struct {
	ResultMeta
	StartNode     string             `json:"start_node" validate:"required"`
	Order         []string           `json:"order" validate:"required"`
	Parent        map[string]*string `json:"parent" validate:"required"`
	DiscoveryTime map[string]int     `json:"discovery_time" validate:"required"`
	FinishTime    map[string]int     `json:"finish_time" validate:"required"`
}

// PathStep is one hop of a shortest path.
type PathStep struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Weight float64 `json:"weight"`
}

type DijkstraResponse struct {
	ResultMeta
	Source       string              `json:"source" validate:"required"`
	Target       *string             `json:"target,omitempty"`
	Found        bool                `json:"found"`
	Distance     *float64            `json:"distance,omitempty"`
	Path         []string            `json:"path"`
	PathDetails  []PathStep          `json:"path_details" validate:"dive"`
	AllDistances map[string]*float64 `json:"all_distances"`
}

type BellmanFordResponse struct {
	ResultMeta
	Source             string              `json:"source" validate:"required"`
	NegativeCycleFound bool                `json:"negative_cycle_found"`
	Cycle              []string            `json:"cycle,omitempty"`
	Distances          map[string]*float64 `json:"distances"`
	Paths              map[string][]string `json:"paths"`
}

// Centrality summarizes how one node reaches the rest of the graph.
type Centrality struct {
	ReachableCount int      `json:"reachable_count"`
	SumDistance    *float64 `json:"sum_distance"`
}

type FloydWarshallResponse struct {
	ResultMeta
	WeightMode     string                         `json:"weight_mode" validate:"required"`
	NodeOrder      []string                       `json:"node_order" validate:"required"`
	DistanceMatrix map[string]map[string]*float64 `json:"distance_matrix" validate:"required"`
	CentralNode    *string                        `json:"central_node"`
	Centrality     map[string]Centrality          `json:"centrality" validate:"required"`
	CentralityNote string                         `json:"centrality_note"`
}

// MSTEdge is an undirected tree edge.
type MSTEdge struct {
	U      string  `json:"u" validate:"required"`
	V      string  `json:"v" validate:"required"`
	Weight float64 `json:"weight"`
}

type MSTResponse struct {
	ResultMeta
	Edges         []MSTEdge `json:"edges" validate:"required,dive"`
	TotalCost     float64   `json:"total_cost"`
	IsForest      bool      `json:"is_forest"`
	NumComponents int       `json:"num_components"`
}

// ErrorBody is the service's error envelope.
type ErrorBody struct {
	Detail any `json:"detail"`
}
