package api

import (
	"net/http"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
)

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Session().State())
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}
	s.updateState(w, r, func(sess *session.Session) error {
		return sess.SetPage(r.Context(), req.Page)
	})
}

func (s *Server) handleSetEdgeLabels(w http.ResponseWriter, r *http.Request) {
	var req LabelModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}
	s.updateState(w, r, func(sess *session.Session) error {
		if req.Mode == "" {
			_, err := sess.CycleEdgeLabelMode(r.Context())
			return err
		}
		return sess.SetEdgeLabelMode(r.Context(), req.Mode)
	})
}

func (s *Server) handleSetHighlights(w http.ResponseWriter, r *http.Request) {
	var req HighlightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}
	s.updateState(w, r, func(sess *session.Session) error {
		return sess.SetHighlights(r.Context(), req.Nodes, req.Edges)
	})
}

func (s *Server) handleClearHighlights(w http.ResponseWriter, r *http.Request) {
	s.updateState(w, r, func(sess *session.Session) error {
		return sess.ClearHighlights(r.Context())
	})
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	s.updateState(w, r, func(sess *session.Session) error {
		return sess.Reset(r.Context())
	})
}

// updateState applies fn and answers with the resulting state.
func (s *Server) updateState(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sess := s.engine.Session()
	if err := fn(sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}
