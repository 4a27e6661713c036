package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store/storetest"
)

func newTestStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewSnapshotStore(client, nil)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisSnapshotStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.SnapshotStore {
		s, _ := newTestStore(t)
		return s
	})
}

func TestRedisSnapshotStore_Keys(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, storetest.Snapshot("k1", store.DatasetRandom, "", 0)))
	require.NoError(t, s.SaveState(ctx, "session", []byte(`{}`)))

	assert.True(t, mr.Exists("fxgraph:snapshot:k1"))
	assert.True(t, mr.Exists("fxgraph:state:session"))

	members, err := mr.ZMembers("fxgraph:snapshots")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, members)
}

func TestRedisSnapshotStore_SkipsDanglingIndex(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, storetest.Snapshot("k1", store.DatasetRandom, "", 0)))
	require.NoError(t, s.SaveSnapshot(ctx, storetest.Snapshot("k2", store.DatasetRandom, "", 1)))
	mr.Del("fxgraph:snapshot:k2")

	list, err := s.ListSnapshots(ctx, store.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "k1", list[0].ID)
}
