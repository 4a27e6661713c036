// Package session holds the dashboard state shared by the daemon's
// clients: the current page, the selected and loaded snapshot, the
// latest algorithm results and the highlighted part of the graph.
//
// Every mutation is written through to a Persister before it becomes
// visible. A failed write leaves the in-memory state untouched.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// StateKey is the key the session is persisted under.
const StateKey = "session"

// Persister stores the serialized session.
type Persister interface {
	SaveState(ctx context.Context, key string, value []byte) error
	LoadState(ctx context.Context, key string) ([]byte, error)
}

// Session is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	state  State
	store  Persister
	logger *zap.Logger
}

// New returns a session in its default state. Nothing is persisted until
// the first mutation.
func New(store Persister, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{state: DefaultState(), store: store, logger: logger}
}

// Restore loads the persisted session, falling back to defaults for
// anything missing or invalid. A loaded graph that no longer validates is
// dropped along with its results and highlights.
func Restore(ctx context.Context, store Persister, logger *zap.Logger) (*Session, error) {
	s := New(store, logger)
	if store == nil {
		return s, nil
	}

	data, err := store.LoadState(ctx, StateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if data == nil {
		return s, nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("session_restore_discarded", zap.Error(err))
		return s, nil
	}

	if !st.CurrentPage.Valid() {
		st.CurrentPage = PageData
	}
	if !st.EdgeLabelMode.Valid() {
		st.EdgeLabelMode = LabelCost
	}
	if st.LoadedGraph != nil {
		if err := st.LoadedGraph.Validate(); err != nil {
			s.logger.Warn("session_loaded_graph_dropped",
				zap.String("snapshot_id", st.LoadedGraphSnapshotID),
				zap.Error(err))
			st.LoadedGraph = nil
		}
	}
	if st.LoadedGraph == nil {
		// Results and highlights only mean something against a graph.
		st.LoadedGraphSnapshotID = ""
		st.AlgorithmResults = Results{}
		st.HighlightedNodes = nil
		st.HighlightedEdges = nil
	}
	if st.HighlightedNodes == nil {
		st.HighlightedNodes = []string{}
	}
	if st.HighlightedEdges == nil {
		st.HighlightedEdges = []graph.EdgeID{}
	}

	s.state = st
	return s, nil
}

// State returns a deep copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, err := s.state.clone()
	if err != nil {
		// State always round-trips; only a broken payload gets here.
		s.logger.Error("session_clone_failed", zap.Error(err))
		return DefaultState()
	}
	return out
}

// Result returns the stored result for key, or nil.
func (s *Session) Result(key protocol.AlgorithmKey) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AlgorithmResults.Get(key)
}

// LoadedGraph returns a copy of the loaded graph and its snapshot id.
func (s *Session) LoadedGraph() (string, *graph.Payload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.LoadedGraph == nil {
		return "", nil
	}
	return s.state.LoadedGraphSnapshotID, s.state.LoadedGraph.Clone()
}

func (s *Session) SetPage(ctx context.Context, p Page) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPage, p)
	}
	return s.update(ctx, func(st *State) error {
		st.CurrentPage = p
		return nil
	})
}

// SelectSnapshot points the selection at id without loading it.
func (s *Session) SelectSnapshot(ctx context.Context, id string) error {
	return s.update(ctx, func(st *State) error {
		st.SelectedSnapshotID = id
		return nil
	})
}

// LoadGraph makes payload the working graph and selects id. When the
// graph differs from the loaded one, by id or by content, all results and
// highlights are dropped.
func (s *Session) LoadGraph(ctx context.Context, id string, payload *graph.Payload) error {
	if payload == nil {
		return fmt.Errorf("failed to load graph %s: %w", id, graph.ErrEmptyGraph)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("failed to load graph %s: %w", id, err)
	}
	return s.update(ctx, func(st *State) error {
		if differs(st, id, payload) {
			st.AlgorithmResults = Results{}
			st.HighlightedNodes = []string{}
			st.HighlightedEdges = []graph.EdgeID{}
		}
		st.LoadedGraphSnapshotID = id
		st.LoadedGraph = payload.Clone()
		st.SelectedSnapshotID = id
		return nil
	})
}

func differs(st *State, id string, payload *graph.Payload) bool {
	if st.LoadedGraph == nil || st.LoadedGraphSnapshotID != id {
		return true
	}
	return st.LoadedGraph.Fingerprint() != payload.Fingerprint()
}

// SetResult stores result for key. graphID is the snapshot the run was
// made against; if another graph has been loaded since, the result is
// discarded with ErrStaleResult.
func (s *Session) SetResult(ctx context.Context, graphID string, key protocol.AlgorithmKey, result any) error {
	return s.update(ctx, func(st *State) error {
		if st.LoadedGraph == nil || st.LoadedGraphSnapshotID != graphID {
			return fmt.Errorf("%w: %s", ErrStaleResult, graphID)
		}
		return st.AlgorithmResults.Set(key, result)
	})
}

// ApplyResult stores result like SetResult and replaces the highlights
// with the ones derived from it, in one write.
func (s *Session) ApplyResult(ctx context.Context, graphID string, key protocol.AlgorithmKey, result any) (Highlights, error) {
	h := HighlightsFor(key, result)
	err := s.update(ctx, func(st *State) error {
		if st.LoadedGraph == nil || st.LoadedGraphSnapshotID != graphID {
			return fmt.Errorf("%w: %s", ErrStaleResult, graphID)
		}
		if err := st.AlgorithmResults.Set(key, result); err != nil {
			return err
		}
		st.HighlightedNodes = h.Nodes
		st.HighlightedEdges = h.Edges
		return nil
	})
	if err != nil {
		return Highlights{}, err
	}
	return h, nil
}

// SetHighlights replaces the highlight selection. Duplicates are dropped,
// first occurrence wins.
func (s *Session) SetHighlights(ctx context.Context, nodes []string, edges []graph.EdgeID) error {
	h := newHighlights(nodes, edges)
	return s.update(ctx, func(st *State) error {
		st.HighlightedNodes = h.Nodes
		st.HighlightedEdges = h.Edges
		return nil
	})
}

func (s *Session) ClearHighlights(ctx context.Context) error {
	return s.SetHighlights(ctx, nil, nil)
}

func (s *Session) SetEdgeLabelMode(ctx context.Context, m EdgeLabelMode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLabelMode, m)
	}
	return s.update(ctx, func(st *State) error {
		st.EdgeLabelMode = m
		return nil
	})
}

// CycleEdgeLabelMode advances the edge label mode to the next one and
// returns it.
func (s *Session) CycleEdgeLabelMode(ctx context.Context) (EdgeLabelMode, error) {
	var next EdgeLabelMode
	err := s.update(ctx, func(st *State) error {
		next = st.EdgeLabelMode.Next()
		st.EdgeLabelMode = next
		return nil
	})
	return next, err
}

// ForgetSnapshot clears the selection if it points at id. The loaded
// graph stays usable until another one is loaded.
func (s *Session) ForgetSnapshot(ctx context.Context, id string) error {
	return s.update(ctx, func(st *State) error {
		if st.SelectedSnapshotID == id {
			st.SelectedSnapshotID = ""
		}
		return nil
	})
}

// Reset returns the session to its defaults.
func (s *Session) Reset(ctx context.Context) error {
	return s.update(ctx, func(st *State) error {
		*st = DefaultState()
		return nil
	})
}

// update applies fn to a copy of the state, persists the copy and only
// then swaps it in.
func (s *Session) update(ctx context.Context, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.clone()
	if err != nil {
		return err
	}
	if err := fn(&next); err != nil {
		return err
	}

	if s.store != nil {
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal session state: %w", err)
		}
		if err := s.store.SaveState(ctx, StateKey, data); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	s.state = next
	return nil
}
