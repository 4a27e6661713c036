package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/blob"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// errorStatus maps a domain error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	var apiErr *provider.APIError
	switch {
	case engine.IsNotFound(err), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, catalog.ErrUnknownScenario), errors.Is(err, catalog.ErrUnknownExplanation):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, engine.ErrNoResult):
		return http.StatusNotFound, "no_result"
	case errors.Is(err, store.ErrSnapshotExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, session.ErrStaleResult):
		return http.StatusConflict, "stale_result"
	case errors.Is(err, engine.ErrNoGraphLoaded):
		return http.StatusConflict, "no_graph_loaded"
	case errors.Is(err, engine.ErrArchiveDisabled):
		return http.StatusNotImplemented, "archive_disabled"
	case errors.Is(err, engine.ErrUnknownNode):
		return http.StatusBadRequest, "unknown_node"
	case errors.Is(err, engine.ErrUnknownAlgorithm):
		return http.StatusBadRequest, "unknown_algorithm"
	case errors.Is(err, provider.ErrInvalidRequest),
		errors.Is(err, store.ErrInvalidSnapshot),
		errors.Is(err, session.ErrInvalidPage),
		errors.Is(err, session.ErrInvalidLabelMode),
		errors.Is(err, blob.ErrInvalidKey),
		graph.IsInvalid(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, provider.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, provider.ErrInvalidResponse):
		return http.StatusBadGateway, "invalid_upstream_response"
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests:
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.As(err, &apiErr) && !apiErr.Temporary():
		return http.StatusUnprocessableEntity, "upstream_rejected"
	case provider.IsUnavailable(err):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_server_error"
}

// writeError answers with the mapped status. Server errors are logged;
// their detail is not exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request_failed",
			zap.String("trace_id", getTraceID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		detail = ""
	}
	writeJSONError(w, status, code, detail)
}

func writeJSONError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
