package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// DatasetType records how a snapshot came to exist.
type DatasetType string

const (
	DatasetRandom   DatasetType = "random"
	DatasetScenario DatasetType = "scenario"
	DatasetCustom   DatasetType = "custom"
	DatasetImport   DatasetType = "import"
)

// Valid reports whether t is a known dataset type.
func (t DatasetType) Valid() bool {
	switch t {
	case DatasetRandom, DatasetScenario, DatasetCustom, DatasetImport:
		return true
	}
	return false
}

var (
	// ErrSnapshotExists is returned when saving an id that is already stored.
	// Snapshots are immutable.
	ErrSnapshotExists = errors.New("snapshot already exists")
	// ErrInvalidSnapshot is returned when a record is missing required fields.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Snapshot is a stored graph together with how it was produced.
type Snapshot struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	CreatedAt        time.Time                  `json:"created_at"`
	DatasetType      DatasetType                `json:"dataset_type"`
	ScenarioID       string                     `json:"scenario_id,omitempty"`
	GenerationParams *protocol.GenerationParams `json:"generation_params,omitempty"`
	NodeCount        int                        `json:"node_count"`
	EdgeCount        int                        `json:"edge_count"`
	GraphPayload     graph.Payload              `json:"graph_payload"`
}

// Summary is a snapshot without its payload, for listings.
type Summary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CreatedAt   time.Time   `json:"created_at"`
	DatasetType DatasetType `json:"dataset_type"`
	ScenarioID  string      `json:"scenario_id,omitempty"`
	NodeCount   int         `json:"node_count"`
	EdgeCount   int         `json:"edge_count"`
}

// Summary drops the payload.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:          s.ID,
		Name:        s.Name,
		CreatedAt:   s.CreatedAt,
		DatasetType: s.DatasetType,
		ScenarioID:  s.ScenarioID,
		NodeCount:   s.NodeCount,
		EdgeCount:   s.EdgeCount,
	}
}

// Check fills defaults and verifies the record can be stored.
func (s *Snapshot) Check() error {
	if s.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSnapshot)
	}
	if !s.DatasetType.Valid() {
		return fmt.Errorf("%w: unknown dataset type %q", ErrInvalidSnapshot, s.DatasetType)
	}
	if err := s.GraphPayload.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.NodeCount = len(s.GraphPayload.Nodes)
	s.EdgeCount = len(s.GraphPayload.Edges)
	return nil
}

// SnapshotFilter narrows ListSnapshots. Zero fields match everything.
type SnapshotFilter struct {
	DatasetType DatasetType
	ScenarioID  string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Match reports whether s passes the filter, ignoring Limit.
func (f SnapshotFilter) Match(s *Snapshot) bool {
	if f.DatasetType != "" && s.DatasetType != f.DatasetType {
		return false
	}
	if f.ScenarioID != "" && s.ScenarioID != f.ScenarioID {
		return false
	}
	if !f.Since.IsZero() && s.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !s.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}

// Newer orders snapshots newest first, ties broken by id descending.
func Newer(a, b *Snapshot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SnapshotStore is the contract both backends satisfy.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, f SnapshotFilter) ([]*Snapshot, error)
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) (bool, error)
	CountSnapshots(ctx context.Context) (int, error)
	SaveState(ctx context.Context, key string, value []byte) error
	LoadState(ctx context.Context, key string) ([]byte, error)
	Close() error
}
