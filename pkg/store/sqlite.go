package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

var _ SnapshotStore = (*Store)(nil)

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// created_at is unix nanoseconds so ordering is numeric.
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		dataset_type TEXT NOT NULL,
		scenario_id TEXT,
		generation_params JSON,
		node_count INTEGER NOT NULL,
		edge_count INTEGER NOT NULL,
		graph_payload JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_dataset ON snapshots(dataset_type, scenario_id);

	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// SaveSnapshot inserts a new snapshot. Existing ids are never overwritten.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := snap.Check(); err != nil {
		return err
	}

	payload, err := json.Marshal(snap.GraphPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal graph payload: %w", err)
	}

	var params []byte
	if snap.GenerationParams != nil {
		params, err = json.Marshal(snap.GenerationParams)
		if err != nil {
			return fmt.Errorf("failed to marshal generation params: %w", err)
		}
	}

	query := `
	INSERT INTO snapshots (
		id, name, created_at, dataset_type, scenario_id,
		generation_params, node_count, edge_count, graph_payload
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		snap.ID,
		snap.Name,
		snap.CreatedAt.UnixNano(),
		string(snap.DatasetType),
		nullString(snap.ScenarioID),
		nullBytes(params),
		snap.NodeCount,
		snap.EdgeCount,
		payload,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %s", ErrSnapshotExists, snap.ID)
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetSnapshot returns the snapshot with id, or nil if it does not exist.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first.
func (s *Store) ListSnapshots(ctx context.Context, f SnapshotFilter) ([]*Snapshot, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.DatasetType != "" {
		where = append(where, "dataset_type = ?")
		args = append(args, string(f.DatasetType))
	}
	if f.ScenarioID != "" {
		where = append(where, "scenario_id = ?")
		args = append(args, f.ScenarioID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.Until.UnixNano())
	}

	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// LatestSnapshot returns the newest snapshot, or nil when there are none.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	list, err := s.ListSnapshots(ctx, SnapshotFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteSnapshot removes id and reports whether it existed.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// CountSnapshots returns how many snapshots are stored.
func (s *Store) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// SaveState upserts an opaque value under key.
func (s *Store) SaveState(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

// LoadState returns the value under key, or nil if it was never saved.
func (s *Store) LoadState(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state %q: %w", key, err)
	}
	return value, nil
}

const snapshotColumns = `id, name, created_at, dataset_type, scenario_id,
	generation_params, node_count, edge_count, graph_payload`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		snap      Snapshot
		createdAt int64
		dataset   string
		scenario  sql.NullString
		params    []byte
		payload   []byte
	)
	if err := row.Scan(
		&snap.ID,
		&snap.Name,
		&createdAt,
		&dataset,
		&scenario,
		&params,
		&snap.NodeCount,
		&snap.EdgeCount,
		&payload,
	); err != nil {
		return nil, err
	}

	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	snap.DatasetType = DatasetType(dataset)
	snap.ScenarioID = scenario.String

	if len(params) > 0 {
		if err := json.Unmarshal(params, &snap.GenerationParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal generation params for %s: %w", snap.ID, err)
		}
	}
	if err := json.Unmarshal(payload, &snap.GraphPayload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph payload for %s: %w", snap.ID, err)
	}
	return &snap, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
