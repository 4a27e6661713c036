// Package storetest holds the behavior every SnapshotStore backend must show.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// Base is the creation time of the first fixture snapshot.
var Base = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// Payload returns a small valid three-currency triangle.
func Payload() graph.Payload {
	p := graph.Payload{
		Nodes: []graph.Node{{ID: "USD"}, {ID: "EUR"}, {ID: "GBP"}},
		Edges: []graph.Edge{
			{From: "USD", To: "EUR", WeightCost: 0.002, WeightNegLog: 0.081},
			{From: "EUR", To: "GBP", WeightCost: 0.001, WeightNegLog: 0.152},
			{From: "GBP", To: "USD", WeightCost: 0.003, WeightNegLog: -0.25},
		},
	}
	p.Recount()
	return p
}

// Snapshot builds a fixture created offset after Base.
func Snapshot(id string, dt store.DatasetType, scenario string, offset time.Duration) *store.Snapshot {
	return &store.Snapshot{
		ID:           id,
		DatasetType:  dt,
		ScenarioID:   scenario,
		CreatedAt:    Base.Add(offset),
		GraphPayload: Payload(),
	}
}

// Run exercises s, which must start empty.
func Run(t *testing.T, newStore func(t *testing.T) store.SnapshotStore) {
	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n := 10
		snap := Snapshot("2025-01-02T03-04-05Z_random_USD", store.DatasetRandom, "", 0)
		snap.GenerationParams = &protocol.GenerationParams{NumNodes: &n, Variance: "low"}
		require.NoError(t, s.SaveSnapshot(ctx, snap))

		got, err := s.GetSnapshot(ctx, snap.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, snap.ID, got.Name, "name defaults to id")
		assert.True(t, Base.Equal(got.CreatedAt))
		assert.Equal(t, store.DatasetRandom, got.DatasetType)
		assert.Equal(t, 3, got.NodeCount)
		assert.Equal(t, 3, got.EdgeCount)
		require.NotNil(t, got.GenerationParams)
		assert.Equal(t, 10, *got.GenerationParams.NumNodes)
		assert.Equal(t, snap.GraphPayload.Fingerprint(), got.GraphPayload.Fingerprint())

		missing, err := s.GetSnapshot(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("immutable", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := Snapshot("dup", store.DatasetScenario, "dense_graph", 0)
		require.NoError(t, s.SaveSnapshot(ctx, first))

		second := Snapshot("dup", store.DatasetImport, "", time.Hour)
		second.Name = "other"
		err := s.SaveSnapshot(ctx, second)
		assert.ErrorIs(t, err, store.ErrSnapshotExists)

		got, err := s.GetSnapshot(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, store.DatasetScenario, got.DatasetType)
		assert.Equal(t, "dup", got.Name)
	})

	t.Run("rejects invalid", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		bad := Snapshot("bad", store.DatasetRandom, "", 0)
		bad.GraphPayload.Edges = append(bad.GraphPayload.Edges, graph.Edge{From: "USD", To: "XXX"})
		bad.GraphPayload.Recount()
		assert.ErrorIs(t, s.SaveSnapshot(ctx, bad), store.ErrInvalidSnapshot)

		noType := Snapshot("untyped", "", "", 0)
		assert.ErrorIs(t, s.SaveSnapshot(ctx, noType), store.ErrInvalidSnapshot)

		count, err := s.CountSnapshots(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("list order and filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		fixtures := []*store.Snapshot{
			Snapshot("a", store.DatasetScenario, "dense_graph", 0),
			Snapshot("b", store.DatasetScenario, "negative_cycle", time.Minute),
			Snapshot("c", store.DatasetRandom, "", 2*time.Minute),
			Snapshot("d", store.DatasetImport, "", 2*time.Minute),
		}
		for _, f := range fixtures {
			require.NoError(t, s.SaveSnapshot(ctx, f))
		}

		all, err := s.ListSnapshots(ctx, store.SnapshotFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c", "b", "a"}, ids(all))

		scen, err := s.ListSnapshots(ctx, store.SnapshotFilter{DatasetType: store.DatasetScenario})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, ids(scen))

		neg, err := s.ListSnapshots(ctx, store.SnapshotFilter{ScenarioID: "negative_cycle"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(neg))

		limited, err := s.ListSnapshots(ctx, store.SnapshotFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c"}, ids(limited))

		window, err := s.ListSnapshots(ctx, store.SnapshotFilter{Since: Base.Add(time.Minute), Until: Base.Add(2 * time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(window))

		latest, err := s.LatestSnapshot(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "d", latest.ID)

		count, err := s.CountSnapshots(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("latest on empty", func(t *testing.T) {
		s := newStore(t)
		latest, err := s.LatestSnapshot(context.Background())
		require.NoError(t, err)
		assert.Nil(t, latest)

		list, err := s.ListSnapshots(context.Background(), store.SnapshotFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveSnapshot(ctx, Snapshot("gone", store.DatasetRandom, "", 0)))

		existed, err := s.DeleteSnapshot(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.DeleteSnapshot(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, existed)

		got, err := s.GetSnapshot(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, s.SaveSnapshot(ctx, Snapshot("gone", store.DatasetRandom, "", 0)), "deleted id is reusable")
	})

	t.Run("state", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		v, err := s.LoadState(ctx, "session")
		require.NoError(t, err)
		assert.Nil(t, v)

		require.NoError(t, s.SaveState(ctx, "session", []byte(`{"current_page":"graph"}`)))
		require.NoError(t, s.SaveState(ctx, "session", []byte(`{"current_page":"learn"}`)))

		v, err = s.LoadState(ctx, "session")
		require.NoError(t, err)
		assert.JSONEq(t, `{"current_page":"learn"}`, string(v))
	})
}

func ids(list []*store.Snapshot) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}
