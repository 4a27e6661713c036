package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

const (
	snapshotIndex  = "fxgraph:snapshots"
	snapshotPrefix = "fxgraph:snapshot:"
	statePrefix    = "fxgraph:state:"
)

// SnapshotStore keeps snapshots as JSON values with a sorted-set index
// scored by creation time.
type SnapshotStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore(client *redis.Client, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{client: client, logger: logger}
}

func (s *SnapshotStore) makeKey(id string) string {
	return snapshotPrefix + id
}

// SaveSnapshot writes with SETNX so an existing id is never replaced.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	if err := snap.Check(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.makeKey(snap.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to SETNX snapshot %s: %w", snap.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrSnapshotExists, snap.ID)
	}

	member := redis.Z{Score: float64(snap.CreatedAt.UnixMilli()), Member: snap.ID}
	if err := s.client.ZAdd(ctx, snapshotIndex, member).Err(); err != nil {
		return fmt.Errorf("failed to ZADD snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SnapshotStore) GetSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	data, err := s.client.Get(ctx, s.makeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET snapshot %s: %w", id, err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// ListSnapshots reads the index in score range, then orders with
// store.Newer since the index resolution is milliseconds.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, f store.SnapshotFilter) ([]*store.Snapshot, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !f.Since.IsZero() {
		rng.Min = strconv.FormatInt(f.Since.UnixMilli(), 10)
	}
	if !f.Until.IsZero() {
		rng.Max = strconv.FormatInt(f.Until.UnixMilli(), 10)
	}
	ids, err := s.client.ZRevRangeByScore(ctx, snapshotIndex, rng).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to ZREVRANGEBYSCORE %s: %w", snapshotIndex, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.makeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET snapshots: %w", err)
	}

	var out []*store.Snapshot
	for i, val := range values {
		if val == nil {
			// Index entry without a record; a delete raced us.
			continue
		}
		str, ok := val.(string)
		if !ok {
			s.logger.Warn("redis_snapshot_unexpected_type", zap.String("key", keys[i]))
			continue
		}
		var snap store.Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			s.logger.Warn("redis_snapshot_unmarshal_failed", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		if !f.Match(&snap) {
			continue
		}
		out = append(out, &snap)
	}

	sortNewest(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *SnapshotStore) LatestSnapshot(ctx context.Context) (*store.Snapshot, error) {
	list, err := s.ListSnapshots(ctx, store.SnapshotFilter{})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *SnapshotStore) DeleteSnapshot(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.makeKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to DEL snapshot %s: %w", id, err)
	}
	if err := s.client.ZRem(ctx, snapshotIndex, id).Err(); err != nil {
		return false, fmt.Errorf("failed to ZREM snapshot %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SnapshotStore) CountSnapshots(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, snapshotIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to ZCARD %s: %w", snapshotIndex, err)
	}
	return int(n), nil
}

func (s *SnapshotStore) SaveState(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, statePrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to SET state %s: %w", key, err)
	}
	return nil
}

func (s *SnapshotStore) LoadState(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, statePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET state %s: %w", key, err)
	}
	return data, nil
}

// Close closes the redis client.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

func sortNewest(list []*store.Snapshot) {
	sort.SliceStable(list, func(i, j int) bool { return store.Newer(list[i], list[j]) })
}
