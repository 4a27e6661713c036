package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// Health represents the daemon health check response.
type Health struct {
	// Status is "ok", or "degraded" when the algorithm service is down.
	Status         string                   `json:"status"`
	Service        *protocol.HealthResponse `json:"service,omitempty"`
	ServiceError   string                   `json:"service_error,omitempty"`
	SnapshotCount  int                      `json:"snapshot_count"`
	LatestSnapshot string                   `json:"latest_snapshot,omitempty"`
	LoadedSnapshot string                   `json:"loaded_snapshot,omitempty"`
}

// ListOptions filters ListSnapshots. Zero values are ignored.
type ListOptions struct {
	DatasetType store.DatasetType
	ScenarioID  string
	From        time.Time
	To          time.Time
	Limit       int
}

// ReportOptions selects the snapshots a report covers.
type ReportOptions struct {
	Format      string // "csv" or "json"
	DatasetType store.DatasetType
	ScenarioID  string
	From        time.Time
	To          time.Time
}

// RunResult is the answer of RunAlgorithm. Result keeps the service's
// response body as received; decode it with ResultAs.
type RunResult struct {
	Algorithm  protocol.AlgorithmKey `json:"algorithm"`
	SnapshotID string                `json:"snapshot_id"`
	Result     json.RawMessage       `json:"result"`
	Highlights session.Highlights    `json:"highlights"`
}

// ResultAs decodes the result into v, e.g. a *protocol.BellmanFordResponse.
func (r *RunResult) ResultAs(v any) error {
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", r.Algorithm, err)
	}
	return nil
}

// Archived is the answer of ArchiveSnapshot.
type Archived struct {
	SnapshotID string `json:"snapshot_id"`
	Key        string `json:"key"`
}

// Error is a non-2xx answer from the daemon.
type Error struct {
	Status int    `json:"-"`
	Code   string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("fxgraph-d: %s (status %d): %s", e.Code, e.Status, e.Detail)
	}
	return fmt.Sprintf("fxgraph-d: %s (status %d)", e.Code, e.Status)
}
