package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
)

// RunResult is what a successful run produced.
type RunResult struct {
	Key        protocol.AlgorithmKey `json:"algorithm"`
	SnapshotID string                `json:"snapshot_id"`
	Result     any                   `json:"result"`
	Highlights session.Highlights    `json:"highlights"`
}

// RunAlgorithm runs key on the loaded graph. The request carries both the
// loaded snapshot id and its payload so the service need not have the
// snapshot cached. On success the result is stored and its highlights
// applied.
func (e *Engine) RunAlgorithm(ctx context.Context, key protocol.AlgorithmKey, params protocol.AlgorithmParams) (*RunResult, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, key)
	}

	id, payload := e.session.LoadedGraph()
	if payload == nil {
		return nil, ErrNoGraphLoaded
	}
	for _, n := range params.Nodes(key) {
		if !payload.HasNode(n) {
			return nil, fmt.Errorf("%w: %s is not in graph %s", ErrUnknownNode, n, id)
		}
	}

	start := time.Now()
	src := protocol.GraphSource{SnapshotID: id, GraphPayload: payload}
	result, err := e.service.Run(ctx, key, src, params)
	AlgorithmRunSeconds.WithLabelValues(string(key)).Observe(time.Since(start).Seconds())
	if err != nil {
		AlgorithmRunsTotal.WithLabelValues(string(key), runOutcome(err)).Inc()
		e.logger.Warn("algorithm_run_failed",
			zap.String("algorithm", string(key)),
			zap.String("snapshot_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to run %s: %w", key.Label(), err)
	}

	h, err := e.session.ApplyResult(ctx, id, key, result)
	if err != nil {
		AlgorithmRunsTotal.WithLabelValues(string(key), "discarded").Inc()
		return nil, err
	}
	AlgorithmRunsTotal.WithLabelValues(string(key), "ok").Inc()
	if bf, ok := result.(*protocol.BellmanFordResponse); ok && bf.NegativeCycleFound {
		NegativeCyclesTotal.Inc()
		e.logger.Info("negative_cycle_found",
			zap.String("snapshot_id", id),
			zap.Strings("cycle", bf.Cycle))
	}

	e.logger.Info("algorithm_run",
		zap.String("algorithm", string(key)),
		zap.String("snapshot_id", id),
		zap.Duration("duration", time.Since(start)))

	return &RunResult{Key: key, SnapshotID: id, Result: result, Highlights: h}, nil
}

// Highlight re-derives the highlights from the stored result of key.
func (e *Engine) Highlight(ctx context.Context, key protocol.AlgorithmKey) (session.Highlights, error) {
	if !key.Valid() {
		return session.Highlights{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, key)
	}
	result := e.session.Result(key)
	if result == nil {
		return session.Highlights{}, fmt.Errorf("%w: %s", ErrNoResult, key)
	}
	h := session.HighlightsFor(key, result)
	if err := e.session.SetHighlights(ctx, h.Nodes, h.Edges); err != nil {
		return session.Highlights{}, err
	}
	return h, nil
}

func runOutcome(err error) string {
	if provider.IsUnavailable(err) {
		return "unavailable"
	}
	return "error"
}
