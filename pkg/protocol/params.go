package protocol

import "fmt"

// AlgorithmParams are the user-facing inputs of an algorithm run. Start node
// and source are interchangeable: whichever is set feeds the other.
type AlgorithmParams struct {
	StartNode           string     `json:"start_node,omitempty"`
	Source              string     `json:"source,omitempty"`
	Target              string     `json:"target,omitempty"`
	DetectNegativeCycle *bool      `json:"detect_negative_cycle,omitempty"`
	WeightMode          WeightMode `json:"weight_mode,omitempty"`
}

func (p AlgorithmParams) origin() string {
	if p.StartNode != "" {
		return p.StartNode
	}
	return p.Source
}

// Nodes returns the node ids the params refer to for key.
func (p AlgorithmParams) Nodes(key AlgorithmKey) []string {
	var ids []string
	switch key {
	case KeyBFS, KeyDFS, KeyBellmanFord:
		if o := p.origin(); o != "" {
			ids = append(ids, o)
		}
	case KeyDijkstra:
		if o := p.origin(); o != "" {
			ids = append(ids, o)
		}
		if p.Target != "" {
			ids = append(ids, p.Target)
		}
	}
	return ids
}

// Request builds the typed service request for key, applying defaults:
// negative cycle detection on, cost weights for all-pairs.
func (p AlgorithmParams) Request(key AlgorithmKey, src GraphSource) (Validatable, error) {
	switch key {
	case KeyBFS, KeyDFS:
		return TraversalRequest{GraphSource: src, StartNode: p.origin()}, nil
	case KeyDijkstra:
		return DijkstraRequest{GraphSource: src, Source: p.origin(), Target: p.Target}, nil
	case KeyBellmanFord:
		detect := true
		if p.DetectNegativeCycle != nil {
			detect = *p.DetectNegativeCycle
		}
		return BellmanFordRequest{GraphSource: src, Source: p.origin(), DetectNegativeCycle: detect}, nil
	case KeyFloydWarshall:
		mode := p.WeightMode
		if mode == "" {
			mode = WeightCost
		}
		return FloydWarshallRequest{GraphSource: src, WeightMode: mode}, nil
	case KeyMSTPrim, KeyMSTKruskal:
		return MSTRequest{GraphSource: src}, nil
	}
	return nil, fmt.Errorf("unknown algorithm %q", key)
}
