package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// ArchiveConfig holds configuration for the ArchiveWorker.
type ArchiveConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	Retention     time.Duration `json:"retention" yaml:"retention"`
	BatchSize     int           `json:"batch_size" yaml:"batch_size"`
	CheckInterval time.Duration `json:"check_interval" yaml:"check_interval"`
	// Prune deletes snapshots from the store once they are archived.
	Prune bool `json:"prune" yaml:"prune"`
}

// ArchiveWorker moves snapshots older than the retention window to the
// blob store.
type ArchiveWorker struct {
	engine *Engine
	config ArchiveConfig
}

func NewArchiveWorker(e *Engine, config ArchiveConfig) *ArchiveWorker {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	return &ArchiveWorker{engine: e, config: config}
}

// Run starts the archive worker loop.
func (w *ArchiveWorker) Run(ctx context.Context) {
	log := w.engine.logger
	if !w.config.Enabled || w.engine.blobs == nil {
		log.Info("archive_worker_disabled")
		return
	}

	log.Info("archive_worker_started",
		zap.Duration("interval", w.config.CheckInterval),
		zap.Duration("retention", w.config.Retention))

	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("archive_worker_stopped")
			return
		case <-ticker.C:
			n, err := w.ProcessBatch(ctx)
			if err != nil {
				log.Error("archive_batch_failed", zap.Error(err))
			} else if n > 0 {
				log.Info("archive_batch_done", zap.Int("archived", n))
			}
		}
	}
}

// ProcessBatch archives up to BatchSize snapshots created before the
// retention cutoff that are not archived yet, and returns how many it
// wrote. The loaded graph's snapshot is never pruned.
func (w *ArchiveWorker) ProcessBatch(ctx context.Context) (int, error) {
	if w.engine.blobs == nil {
		return 0, ErrArchiveDisabled
	}

	cutoff := w.engine.now().Add(-w.config.Retention)
	candidates, err := w.engine.store.ListSnapshots(ctx, store.SnapshotFilter{Until: cutoff})
	if err != nil {
		return 0, fmt.Errorf("failed to read candidate snapshots: %w", err)
	}
	loaded, _ := w.engine.session.LoadedGraph()

	archived := 0
	for _, snap := range candidates {
		if archived >= w.config.BatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		if w.isArchived(ctx, snap) {
			continue
		}
		if _, err := w.engine.archive(ctx, snap); err != nil {
			return archived, err
		}
		archived++

		if !w.config.Prune || snap.ID == loaded {
			continue
		}
		if err := w.engine.DeleteSnapshot(ctx, snap.ID); err != nil {
			return archived, fmt.Errorf("failed to prune archived snapshot: %w", err)
		}
	}
	return archived, nil
}

func (w *ArchiveWorker) isArchived(ctx context.Context, snap *store.Snapshot) bool {
	rc, err := w.engine.blobs.Get(ctx, ArchiveKey(snap))
	if err != nil {
		return false
	}
	rc.Close()
	return true
}
