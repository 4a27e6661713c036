package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/blob"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider/providertest"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *providertest.Server) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "fxgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fake := providertest.NewServer(t)
	svc := provider.NewClient(fake.URL, provider.WithRetries(0, nil))
	eng := engine.New(st, svc, session.New(st, nil),
		engine.WithBlobStore(blob.NewLocalBlobStore(t.TempDir())))

	srv := NewServer(eng, catalog.MustDefault(), "")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, fake
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSecureHeaders(t *testing.T) {
	handler := withSecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	expectedHeaders := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	for key, expected := range expectedHeaders {
		assert.Equal(t, expected, w.Header().Get(key), key)
	}
}

func TestTraceIDPropagated(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest("GET", ts.URL+"/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Trace-ID", "trace-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-123", resp.Header.Get("X-Trace-ID"))

	resp = do(t, ts, "GET", "/v1/health", "")
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestHealth(t *testing.T) {
	ts, fake := newTestServer(t)

	resp := do(t, ts, "GET", "/v1/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[engine.Health](t, resp).Status)

	fake.Close()
	resp = do(t, ts, "GET", "/v1/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", decode[engine.Health](t, resp).Status)
}

func TestSnapshotLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, ts, "POST", "/v1/snapshots", `{"name":"first","request":{"mode":"scenario","scenario_id":"negative_cycle"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decode[store.Snapshot](t, resp)
	assert.Equal(t, "first", snap.Name)
	assert.Equal(t, "negative_cycle", snap.ScenarioID)

	resp = do(t, ts, "POST", "/v1/snapshots", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[store.Snapshot](t, resp)
	assert.Equal(t, "dense_graph", second.ScenarioID)

	resp = do(t, ts, "GET", "/v1/snapshots?scenario_id=negative_cycle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]store.Summary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	resp = do(t, ts, "GET", "/v1/snapshots/"+snap.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, decode[store.Snapshot](t, resp).NodeCount)

	resp = do(t, ts, "GET", "/v1/snapshots/"+snap.ID+"/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), snap.ID)
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	resp = do(t, ts, "POST", "/v1/snapshots/import?name=copy", string(exported))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imported := decode[store.Snapshot](t, resp)
	assert.True(t, strings.HasPrefix(imported.ID, "import_"))
	assert.Equal(t, store.DatasetImport, imported.DatasetType)

	resp = do(t, ts, "POST", "/v1/snapshots/"+snap.ID+"/load", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, "GET", "/v1/state", "")
	assert.Equal(t, snap.ID, decode[session.State](t, resp).LoadedGraphSnapshotID)

	resp = do(t, ts, "POST", "/v1/snapshots/"+snap.ID+"/archive", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	archived := decode[ArchiveResponse](t, resp)
	assert.Equal(t, engine.ArchiveKey(&snap), archived.Key)

	resp = do(t, ts, "GET", "/v1/archive", "")
	assert.Equal(t, []string{archived.Key}, decode[[]string](t, resp))

	resp = do(t, ts, "DELETE", "/v1/snapshots/"+snap.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, ts, "GET", "/v1/snapshots/"+snap.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, "POST", "/v1/archive/restore", fmt.Sprintf(`{"key":%q}`, archived.Key))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, snap.ID, decode[store.Summary](t, resp).ID)
}

func TestCreateSnapshot_Errors(t *testing.T) {
	ts, fake := newTestServer(t)

	resp := do(t, ts, "POST", "/v1/snapshots", `{"request":{"mode":"scenario","scenario_id":"unknown"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "upstream_rejected", decode[ErrorResponse](t, resp).Error)

	resp = do(t, ts, "POST", "/v1/snapshots", `{"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	fake.FailNext(1, http.StatusBadGateway)
	resp = do(t, ts, "POST", "/v1/snapshots", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = do(t, ts, "GET", "/v1/snapshots", "")
	assert.Empty(t, decode[[]store.Summary](t, resp))

	resp = do(t, ts, "GET", "/v1/snapshots?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunAlgorithm(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, ts, "POST", "/v1/algorithms/bellman-ford", `{"source":"USD"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_graph_loaded", decode[ErrorResponse](t, resp).Error)

	resp = do(t, ts, "POST", "/v1/snapshots", `{"request":{"mode":"scenario","scenario_id":"negative_cycle"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, "POST", "/v1/algorithms/bellman-ford", `{"source":"USD"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run struct {
		Algorithm  string             `json:"algorithm"`
		Highlights session.Highlights `json:"highlights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "bellmanFord", run.Algorithm)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, run.Highlights.Nodes)

	resp = do(t, ts, "DELETE", "/v1/state/highlights", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[session.State](t, resp).HighlightedNodes)

	resp = do(t, ts, "POST", "/v1/algorithms/bellmanFord/highlight", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, decode[session.Highlights](t, resp).Nodes)

	resp = do(t, ts, "POST", "/v1/algorithms/dijkstra/highlight", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, "POST", "/v1/algorithms/bfs", `{"start_node":"XAU"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_node", decode[ErrorResponse](t, resp).Error)

	resp = do(t, ts, "POST", "/v1/algorithms/astar", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_algorithm", decode[ErrorResponse](t, resp).Error)
}

func TestState(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, ts, "PUT", "/v1/state/page", `{"page":"learn"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.PageLearn, decode[session.State](t, resp).CurrentPage)

	resp = do(t, ts, "PUT", "/v1/state/page", `{"page":"settings"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, "PUT", "/v1/state/edge-labels", "")
	assert.Equal(t, session.LabelNegLog, decode[session.State](t, resp).EdgeLabelMode)
	resp = do(t, ts, "PUT", "/v1/state/edge-labels", `{"mode":"none"}`)
	assert.Equal(t, session.LabelNone, decode[session.State](t, resp).EdgeLabelMode)

	resp = do(t, ts, "PUT", "/v1/state/highlights", `{"nodes":["USD","USD","EUR"],"edges":["USD->EUR"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[session.State](t, resp)
	assert.Equal(t, []string{"USD", "EUR"}, st.HighlightedNodes)
	assert.Len(t, st.HighlightedEdges, 1)

	resp = do(t, ts, "DELETE", "/v1/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.DefaultState().CurrentPage, decode[session.State](t, resp).CurrentPage)
}

func TestCatalogRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, ts, "GET", "/v1/scenarios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[[]catalog.Scenario](t, resp))

	resp = do(t, ts, "GET", "/v1/scenarios/negative_cycle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "negative_cycle", decode[catalog.Scenario](t, resp).Name)

	resp = do(t, ts, "GET", "/v1/scenarios/lunar", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, "GET", "/v1/explanations/floyd-warshall", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "floydWarshall", string(decode[catalog.Explanation](t, resp).Key))

	resp = do(t, ts, "GET", "/v1/explanations?group=category", "")
	assert.NotEmpty(t, decode[map[string][]catalog.Explanation](t, resp))

	resp = do(t, ts, "GET", "/v1/concepts", "")
	assert.NotEmpty(t, decode[[]catalog.Concept](t, resp))
}

func TestReport(t *testing.T) {
	ts, _ := newTestServer(t)

	do(t, ts, "POST", "/v1/snapshots", "")
	do(t, ts, "POST", "/v1/snapshots", `{"request":{"mode":"scenario","scenario_id":"negative_cycle"}}`)

	resp := do(t, ts, "GET", "/v1/reports/snapshots", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	resp = do(t, ts, "GET", "/v1/reports/scenarios?format=json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = do(t, ts, "GET", "/v1/reports/usage", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, ts, "GET", "/v1/reports/snapshots?format=xlsx", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, ts, "GET", "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, resp).Error)

	resp = do(t, ts, "PATCH", "/v1/state", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get: %w", engine.ErrSnapshotNotFound), http.StatusNotFound, "not_found"},
		{store.ErrSnapshotExists, http.StatusConflict, "already_exists"},
		{session.ErrStaleResult, http.StatusConflict, "stale_result"},
		{engine.ErrArchiveDisabled, http.StatusNotImplemented, "archive_disabled"},
		{graph.ErrDanglingEdge, http.StatusBadRequest, "invalid_request"},
		{provider.ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{fmt.Errorf("run: %w", &provider.APIError{Status: http.StatusBadRequest}), http.StatusUnprocessableEntity, "upstream_rejected"},
		{fmt.Errorf("run: %w", &provider.APIError{Status: http.StatusTooManyRequests}), http.StatusServiceUnavailable, "service_unavailable"},
		{fmt.Errorf("run: %w", &provider.APIError{Status: http.StatusServiceUnavailable}), http.StatusBadGateway, "upstream_error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.code), func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
