package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.engine.Health(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// snapshotFilter reads dataset_type, scenario_id, limit, from and to.
func snapshotFilter(r *http.Request) (store.SnapshotFilter, error) {
	q := r.URL.Query()
	f := store.SnapshotFilter{
		DatasetType: store.DatasetType(q.Get("dataset_type")),
		ScenarioID:  q.Get("scenario_id"),
	}
	if f.DatasetType != "" && !f.DatasetType.Valid() {
		return f, fmt.Errorf("%w: unknown dataset_type %q", store.ErrInvalidSnapshot, f.DatasetType)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: invalid limit %q", store.ErrInvalidSnapshot, v)
		}
		f.Limit = n
	}
	var err error
	if f.Since, err = parseTime(q.Get("from")); err != nil {
		return f, err
	}
	if f.Until, err = parseTime(q.Get("to")); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q is not RFC3339", store.ErrInvalidSnapshot, v)
	}
	return t, nil
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	f, err := snapshotFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.engine.ListSnapshots(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]store.Summary, 0, len(list))
	for _, snap := range list {
		out = append(out, snap.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req CreateSnapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}
	gen := protocol.DefaultGenerationRequest()
	if req.Request != nil {
		gen = *req.Request
	}

	snap, err := s.engine.CreateSnapshot(r.Context(), gen, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot_generated",
		zap.String("trace_id", getTraceID(r.Context())),
		zap.String("snapshot_id", snap.ID))
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleImportSnapshot(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	snap, err := s.engine.ImportSnapshot(r.Context(), body, r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", snap.ID))
	if _, err := s.engine.ExportSnapshot(r.Context(), snap.ID, w); err != nil {
		s.logger.Error("failed_to_stream_export",
			zap.String("trace_id", getTraceID(r.Context())),
			zap.Error(err))
	}
}

func (s *Server) handleArchiveSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := s.engine.ArchiveSnapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ArchiveResponse{SnapshotID: id, Key: key})
}

func (s *Server) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.LoadSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSnapshot(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	keys, err := s.engine.ListArchived(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleRestoreArchive(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Key == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_json_body", "key is required")
		return
	}
	snap, err := s.engine.RestoreArchived(r.Context(), req.Key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.Summary())
}
