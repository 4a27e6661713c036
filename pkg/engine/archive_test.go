package engine_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/blob"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store/storetest"
)

func TestArchiveWorker_ProcessBatch(t *testing.T) {
	tmpDir := t.TempDir()
	dbStore, err := store.NewStore(filepath.Join(tmpDir, "fxgraph.db"))
	require.NoError(t, err)
	defer dbStore.Close()
	blobStore := blob.NewLocalBlobStore(filepath.Join(tmpDir, "blobs"))
	ctx := context.Background()

	for _, s := range []*store.Snapshot{
		storetest.Snapshot("old-a", store.DatasetRandom, "", -72*time.Hour),
		storetest.Snapshot("old-b", store.DatasetScenario, "negative_cycle", -48*time.Hour),
		storetest.Snapshot("old-c", store.DatasetImport, "", -47*time.Hour),
		storetest.Snapshot("new", store.DatasetRandom, "", 0),
	} {
		require.NoError(t, dbStore.SaveSnapshot(ctx, s))
	}

	now := storetest.Base.Add(time.Hour)
	e := engine.New(dbStore, nil, session.New(dbStore, nil),
		engine.WithBlobStore(blobStore),
		engine.WithClock(func() time.Time { return now }))
	_, err = e.LoadSnapshot(ctx, "old-b")
	require.NoError(t, err)

	worker := engine.NewArchiveWorker(e, engine.ArchiveConfig{
		Enabled:   true,
		Retention: 24 * time.Hour,
		BatchSize: 2,
		Prune:     true,
	})

	n, err := worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already archived snapshots are skipped")

	n, err = worker.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	keys, err := blobStore.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"snapshots/2024-12-30/old-a.json",
		"snapshots/2024-12-31/old-b.json",
		"snapshots/2024-12-31/old-c.json",
	}, keys)

	// The loaded snapshot is archived but kept; the rest are pruned.
	remaining, err := dbStore.ListSnapshots(ctx, store.SnapshotFilter{})
	require.NoError(t, err)
	var ids []string
	for _, s := range remaining {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"new", "old-b"}, ids)

	rc, err := blobStore.Get(ctx, "snapshots/2024-12-30/old-a.json")
	require.NoError(t, err)
	defer rc.Close()
	var archived store.Snapshot
	require.NoError(t, json.NewDecoder(rc).Decode(&archived))
	assert.Equal(t, "old-a", archived.ID)
	assert.Equal(t, store.DatasetRandom, archived.DatasetType)
	require.NoError(t, archived.GraphPayload.Validate())
}

func TestArchiveWorker_RunDisabled(t *testing.T) {
	dbStore, err := store.NewStore(filepath.Join(t.TempDir(), "fxgraph.db"))
	require.NoError(t, err)
	defer dbStore.Close()

	e := engine.New(dbStore, nil, session.New(dbStore, nil))
	worker := engine.NewArchiveWorker(e, engine.ArchiveConfig{Enabled: true})

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without a blob store should return immediately")
	}

	_, err = worker.ProcessBatch(context.Background())
	assert.ErrorIs(t, err, engine.ErrArchiveDisabled)
}
