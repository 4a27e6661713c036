// Package engine runs the dashboard workflows: generating and importing
// snapshots, loading them into the session, and running algorithms on the
// loaded graph through the algorithm service.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/blob"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// LatestID resolves to the newest stored snapshot.
const LatestID = "latest"

var (
	ErrNoGraphLoaded    = errors.New("no graph loaded")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNoSnapshots      = errors.New("no snapshots available")
	ErrUnknownNode      = errors.New("unknown node")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrNoResult         = errors.New("no result for algorithm")
	ErrArchiveDisabled  = errors.New("archive store not configured")
)

// SnapshotStore is the part of the store the engine needs.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *store.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*store.Snapshot, error)
	ListSnapshots(ctx context.Context, f store.SnapshotFilter) ([]*store.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*store.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) (bool, error)
	CountSnapshots(ctx context.Context) (int, error)
}

// AlgorithmService is the external service that generates graphs and runs
// algorithms on them.
type AlgorithmService interface {
	Health(ctx context.Context) (*protocol.HealthResponse, error)
	Generate(ctx context.Context, req protocol.GenerationRequest) (*protocol.GenerationResponse, error)
	Run(ctx context.Context, key protocol.AlgorithmKey, src protocol.GraphSource, params protocol.AlgorithmParams) (any, error)
}

// Engine is safe for concurrent use; the session serializes state changes.
type Engine struct {
	store   SnapshotStore
	service AlgorithmService
	session *session.Session
	blobs   blob.BlobStore
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Engine)

// WithBlobStore enables archiving.
func WithBlobStore(b blob.BlobStore) Option {
	return func(e *Engine) { e.blobs = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(st SnapshotStore, svc AlgorithmService, sess *session.Session, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		service: svc,
		session: sess,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session exposes the session for direct state changes such as paging.
func (e *Engine) Session() *session.Session {
	return e.session
}

// Health combines the daemon's own view with the algorithm service's.
type Health struct {
	Status         string                   `json:"status"`
	Service        *protocol.HealthResponse `json:"service,omitempty"`
	ServiceError   string                   `json:"service_error,omitempty"`
	SnapshotCount  int                      `json:"snapshot_count"`
	LatestSnapshot string                   `json:"latest_snapshot,omitempty"`
	LoadedSnapshot string                   `json:"loaded_snapshot,omitempty"`
}

// Health never fails because the service is down; that is reported as a
// degraded status. Only local store failures are errors.
func (e *Engine) Health(ctx context.Context) (*Health, error) {
	h := &Health{Status: "ok"}

	count, err := e.store.CountSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	h.SnapshotCount = count
	SnapshotsStored.Set(float64(count))

	latest, err := e.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		h.LatestSnapshot = latest.ID
	}
	h.LoadedSnapshot, _ = e.session.LoadedGraph()

	svc, err := e.service.Health(ctx)
	if err != nil {
		h.Status = "degraded"
		h.ServiceError = err.Error()
		e.logger.Warn("algorithm_service_unhealthy", zap.Error(err))
	} else {
		h.Service = svc
	}
	return h, nil
}
