package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Node is a currency in the exchange graph.
type Node struct {
	ID string `json:"id"`
}

// Edge is a directed conversion from one currency to another.
// WeightCost is the total transaction cost, WeightNegLog the -ln of the
// effective rate used for arbitrage detection.
type Edge struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	WeightCost   float64 `json:"weight_cost"`
	WeightNegLog float64 `json:"weight_neglog"`
}

// ID returns the edge identifier "from->to".
func (e Edge) ID() EdgeID {
	return NewEdgeID(e.From, e.To)
}

// Metadata carries summary counts of a payload.
type Metadata struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Payload is the graph exchanged with the algorithm service and stored in snapshots.
type Payload struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// EdgeID identifies a directed edge as "from->to".
type EdgeID string

const edgeSeparator = "->"

// NewEdgeID builds the identifier of the edge from -> to.
func NewEdgeID(from, to string) EdgeID {
	return EdgeID(from + edgeSeparator + to)
}

// Endpoints splits the identifier back into its endpoints.
func (id EdgeID) Endpoints() (from, to string, ok bool) {
	from, to, ok = strings.Cut(string(id), edgeSeparator)
	if !ok || from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}

// NodeIDs returns the node identifiers in payload order.
func (p *Payload) NodeIDs() []string {
	ids := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// HasNode reports whether id is a node of the payload.
func (p *Payload) HasNode(id string) bool {
	for _, n := range p.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Edge returns the edge from -> to if present.
func (p *Payload) Edge(from, to string) (Edge, bool) {
	for _, e := range p.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Recount sets the metadata counts from the node and edge lists.
func (p *Payload) Recount() {
	p.Metadata = Metadata{NodeCount: len(p.Nodes), EdgeCount: len(p.Edges)}
}

// Clone returns a deep copy of the payload.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := &Payload{Metadata: p.Metadata}
	if p.Nodes != nil {
		out.Nodes = append([]Node(nil), p.Nodes...)
	}
	if p.Edges != nil {
		out.Edges = append([]Edge(nil), p.Edges...)
	}
	return out
}

// Fingerprint returns a stable hash of the payload content.
// Node and edge order do not affect the result.
func (p *Payload) Fingerprint() string {
	nodes := p.NodeIDs()
	sort.Strings(nodes)

	edges := append([]Edge(nil), p.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		if a.WeightCost != b.WeightCost {
			return a.WeightCost < b.WeightCost
		}
		return a.WeightNegLog < b.WeightNegLog
	})

	canonical := struct {
		Nodes []string `json:"nodes"`
		Edges []Edge   `json:"edges"`
	}{Nodes: nodes, Edges: edges}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
