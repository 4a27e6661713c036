package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// CreateSnapshot asks the service for a new graph, stores it, and makes
// it the loaded and selected graph. An empty name defaults to the id.
func (e *Engine) CreateSnapshot(ctx context.Context, req protocol.GenerationRequest, name string) (*store.Snapshot, error) {
	resp, err := e.service.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate graph: %w", err)
	}

	snap := &store.Snapshot{
		ID:               resp.SnapshotID,
		Name:             name,
		CreatedAt:        e.parseTimestamp(resp.Timestamp),
		DatasetType:      datasetType(resp.DatasetType, req.Mode),
		GenerationParams: req.GenerationParams,
		GraphPayload:     resp.GraphPayload,
	}
	if resp.ScenarioID != nil {
		snap.ScenarioID = *resp.ScenarioID
	} else if req.Mode == protocol.ModeScenario {
		snap.ScenarioID = req.ScenarioID
	}

	if err := e.persistAndLoad(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ImportSnapshot reads a graph payload, validates it, and stores it as an
// import.
func (e *Engine) ImportSnapshot(ctx context.Context, r io.Reader, name string) (*store.Snapshot, error) {
	payload, err := graph.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to import graph: %w", err)
	}

	snap := &store.Snapshot{
		ID:           "import_" + uuid.New().String(),
		Name:         name,
		CreatedAt:    e.now().UTC(),
		DatasetType:  store.DatasetImport,
		GraphPayload: *payload,
	}
	if err := e.persistAndLoad(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Engine) persistAndLoad(ctx context.Context, snap *store.Snapshot) error {
	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.ID, err)
	}
	SnapshotsCreatedTotal.WithLabelValues(string(snap.DatasetType)).Inc()
	SnapshotsStored.Inc()

	e.logger.Info("snapshot_created",
		zap.String("snapshot_id", snap.ID),
		zap.String("dataset_type", string(snap.DatasetType)),
		zap.String("scenario_id", snap.ScenarioID),
		zap.Int("node_count", snap.NodeCount),
		zap.Int("edge_count", snap.EdgeCount))

	if err := e.session.LoadGraph(ctx, snap.ID, &snap.GraphPayload); err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// ListSnapshots returns stored snapshots newest first.
func (e *Engine) ListSnapshots(ctx context.Context, f store.SnapshotFilter) ([]*store.Snapshot, error) {
	list, err := e.store.ListSnapshots(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return list, nil
}

// GetSnapshot returns the snapshot with id. "latest" resolves to the
// newest one.
func (e *Engine) GetSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	if id == LatestID {
		snap, err := e.store.LatestSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
		}
		if snap == nil {
			return nil, ErrNoSnapshots
		}
		return snap, nil
	}

	snap, err := e.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, nil
}

// LoadSnapshot makes a stored snapshot the loaded and selected graph.
func (e *Engine) LoadSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	snap, err := e.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.session.LoadGraph(ctx, snap.ID, &snap.GraphPayload); err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", snap.ID, err)
	}
	e.logger.Info("snapshot_loaded", zap.String("snapshot_id", snap.ID))
	return snap, nil
}

// DeleteSnapshot removes a stored snapshot and clears it from the
// selection. A loaded copy of its graph stays usable.
func (e *Engine) DeleteSnapshot(ctx context.Context, id string) error {
	existed, err := e.store.DeleteSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	if !existed {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	SnapshotsStored.Dec()
	e.logger.Info("snapshot_deleted", zap.String("snapshot_id", id))

	if err := e.session.ForgetSnapshot(ctx, id); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	return nil
}

// ExportSnapshot writes the graph payload of id as JSON.
func (e *Engine) ExportSnapshot(ctx context.Context, id string, w io.Writer) (*store.Snapshot, error) {
	snap, err := e.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := graph.Encode(w, &snap.GraphPayload); err != nil {
		return nil, fmt.Errorf("failed to export snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}

// ArchiveKey is the blob key a snapshot is archived under.
func ArchiveKey(s *store.Snapshot) string {
	return fmt.Sprintf("snapshots/%s/%s.json", s.CreatedAt.UTC().Format("2006-01-02"), s.ID)
}

// ArchiveSnapshot writes the full snapshot record to the blob store and
// returns its key.
func (e *Engine) ArchiveSnapshot(ctx context.Context, id string) (string, error) {
	if e.blobs == nil {
		return "", ErrArchiveDisabled
	}
	snap, err := e.GetSnapshot(ctx, id)
	if err != nil {
		return "", err
	}
	return e.archive(ctx, snap)
}

func (e *Engine) archive(ctx context.Context, snap *store.Snapshot) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("failed to encode snapshot %s: %w", snap.ID, err)
	}

	key := ArchiveKey(snap)
	if err := e.blobs.Put(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("failed to archive snapshot %s: %w", snap.ID, err)
	}
	SnapshotsArchivedTotal.Inc()
	e.logger.Info("snapshot_archived", zap.String("snapshot_id", snap.ID), zap.String("key", key))
	return key, nil
}

// ListArchived returns the archive keys, oldest day first.
func (e *Engine) ListArchived(ctx context.Context) ([]string, error) {
	if e.blobs == nil {
		return nil, ErrArchiveDisabled
	}
	keys, err := e.blobs.List(ctx, "snapshots/")
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	return keys, nil
}

// RestoreArchived reads an archived record back into the store. The
// snapshot keeps its original id and creation time.
func (e *Engine) RestoreArchived(ctx context.Context, key string) (*store.Snapshot, error) {
	if e.blobs == nil {
		return nil, ErrArchiveDisabled
	}
	rc, err := e.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", key, err)
	}
	defer rc.Close()

	var snap store.Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", key, err)
	}
	if err := e.store.SaveSnapshot(ctx, &snap); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", snap.ID, err)
	}
	SnapshotsStored.Inc()
	return &snap, nil
}

func (e *Engine) parseTimestamp(ts string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC()
	}
	return e.now().UTC()
}

// datasetType prefers what the service reported and falls back to the
// requested mode.
func datasetType(reported string, mode protocol.GenerationMode) store.DatasetType {
	if dt := store.DatasetType(reported); dt.Valid() {
		return dt
	}
	switch mode {
	case protocol.ModeScenario:
		return store.DatasetScenario
	case protocol.ModeCustom:
		return store.DatasetCustom
	}
	return store.DatasetRandom
}

// IsNotFound reports whether err means the snapshot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound) || errors.Is(err, ErrNoSnapshots)
}
