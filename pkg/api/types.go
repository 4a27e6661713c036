package api

import (
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
)

// CreateSnapshotRequest matches the POST /v1/snapshots body schema.
// A nil Request generates the default scenario.
type CreateSnapshotRequest struct {
	Name    string                      `json:"name,omitempty"`
	Request *protocol.GenerationRequest `json:"request,omitempty"`
}

// PageRequest matches the PUT /v1/state/page body schema.
type PageRequest struct {
	Page session.Page `json:"page"`
}

// LabelModeRequest matches the PUT /v1/state/edge-labels body schema.
// An empty mode cycles to the next one.
type LabelModeRequest struct {
	Mode session.EdgeLabelMode `json:"mode,omitempty"`
}

// HighlightsRequest matches the PUT /v1/state/highlights body schema.
type HighlightsRequest struct {
	Nodes []string       `json:"nodes"`
	Edges []graph.EdgeID `json:"edges"`
}

// ArchiveResponse is returned by POST /v1/snapshots/{id}/archive.
type ArchiveResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Key        string `json:"key"`
}

// RestoreRequest matches the POST /v1/archive/restore body schema.
type RestoreRequest struct {
	Key string `json:"key"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
