package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

func algorithmKey(r *http.Request) (protocol.AlgorithmKey, error) {
	raw := chi.URLParam(r, "key")
	key, err := protocol.ParseAlgorithmKey(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", engine.ErrUnknownAlgorithm, raw)
	}
	return key, nil
}

func (s *Server) handleRunAlgorithm(w http.ResponseWriter, r *http.Request) {
	key, err := algorithmKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var params protocol.AlgorithmParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}

	res, err := s.engine.RunAlgorithm(r.Context(), key, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	key, err := algorithmKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.engine.Highlight(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}
