package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Scenarios())
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.catalog.Scenario(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleListConcepts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Concepts())
}

func (s *Server) handleListExplanations(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("group") == "category" {
		writeJSON(w, http.StatusOK, s.catalog.ByCategory())
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Explanations())
}

func (s *Server) handleGetExplanation(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Explanation(chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
