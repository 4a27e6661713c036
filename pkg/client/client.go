package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

// DefaultEndpoint is where fxgraph-d listens unless configured otherwise.
const DefaultEndpoint = "http://127.0.0.1:8090"

// Client is the fxgraph-d SDK client.
type Client struct {
	endpoint string
	http     *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 90s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a new fxgraph-d client.
// endpoint defaults to DefaultEndpoint if empty.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{
			// Algorithm runs wait on the upstream service.
			Timeout: 90 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the daemon base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Health checks the daemon and, through it, the algorithm service.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// --- Snapshots ---

func (c *Client) ListSnapshots(ctx context.Context, opts ListOptions) ([]store.Summary, error) {
	q := url.Values{}
	if opts.DatasetType != "" {
		q.Set("dataset_type", string(opts.DatasetType))
	}
	if opts.ScenarioID != "" {
		q.Set("scenario_id", opts.ScenarioID)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	setTimeRange(q, opts.From, opts.To)

	var out []store.Summary
	if err := c.do(ctx, http.MethodGet, withQuery("/v1/snapshots", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSnapshot fetches a snapshot with its payload. id may be "latest".
func (c *Client) GetSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	var snap store.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/snapshots/"+url.PathEscape(id), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateSnapshot asks the daemon to generate, store and load a graph.
// A nil req generates the default scenario.
func (c *Client) CreateSnapshot(ctx context.Context, name string, req *protocol.GenerationRequest) (*store.Snapshot, error) {
	body := struct {
		Name    string                      `json:"name,omitempty"`
		Request *protocol.GenerationRequest `json:"request,omitempty"`
	}{Name: name, Request: req}

	var snap store.Snapshot
	if err := c.do(ctx, http.MethodPost, "/v1/snapshots", body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ImportSnapshot uploads a graph payload read from r.
func (c *Client) ImportSnapshot(ctx context.Context, r io.Reader, name string) (*store.Snapshot, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+withQuery("/v1/snapshots/import", q), r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var snap store.Snapshot
	if err := c.send(req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ExportSnapshot streams the graph payload of id into w.
func (c *Client) ExportSnapshot(ctx context.Context, id string, w io.Writer) error {
	rc, err := c.stream(ctx, "/v1/snapshots/"+url.PathEscape(id)+"/export")
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}

// LoadSnapshot makes id the graph algorithms run on.
func (c *Client) LoadSnapshot(ctx context.Context, id string) (*store.Summary, error) {
	var s store.Summary
	if err := c.do(ctx, http.MethodPost, "/v1/snapshots/"+url.PathEscape(id)+"/load", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/snapshots/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ArchiveSnapshot(ctx context.Context, id string) (*Archived, error) {
	var a Archived
	if err := c.do(ctx, http.MethodPost, "/v1/snapshots/"+url.PathEscape(id)+"/archive", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArchived returns the blob keys of archived snapshots.
func (c *Client) ListArchived(ctx context.Context) ([]string, error) {
	var keys []string
	if err := c.do(ctx, http.MethodGet, "/v1/archive", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *Client) RestoreArchived(ctx context.Context, key string) (*store.Summary, error) {
	var s store.Summary
	body := map[string]string{"key": key}
	if err := c.do(ctx, http.MethodPost, "/v1/archive/restore", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Session state ---

func (c *Client) State(ctx context.Context) (*session.State, error) {
	var st session.State
	if err := c.do(ctx, http.MethodGet, "/v1/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) SetPage(ctx context.Context, p session.Page) (*session.State, error) {
	return c.putState(ctx, "/v1/state/page", map[string]session.Page{"page": p})
}

// SetEdgeLabels sets the edge label mode. An empty mode cycles to the
// next one.
func (c *Client) SetEdgeLabels(ctx context.Context, m session.EdgeLabelMode) (*session.State, error) {
	return c.putState(ctx, "/v1/state/edge-labels", map[string]session.EdgeLabelMode{"mode": m})
}

func (c *Client) SetHighlights(ctx context.Context, nodes []string, edges []graph.EdgeID) (*session.State, error) {
	body := struct {
		Nodes []string       `json:"nodes"`
		Edges []graph.EdgeID `json:"edges"`
	}{nodes, edges}
	return c.putState(ctx, "/v1/state/highlights", body)
}

func (c *Client) ClearHighlights(ctx context.Context) (*session.State, error) {
	var st session.State
	if err := c.do(ctx, http.MethodDelete, "/v1/state/highlights", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) ResetState(ctx context.Context) (*session.State, error) {
	var st session.State
	if err := c.do(ctx, http.MethodDelete, "/v1/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) putState(ctx context.Context, path string, body any) (*session.State, error) {
	var st session.State
	if err := c.do(ctx, http.MethodPut, path, body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// --- Algorithms ---

// RunAlgorithm runs key on the loaded graph. key may be any spelling the
// daemon accepts, such as "bellman-ford".
func (c *Client) RunAlgorithm(ctx context.Context, key string, params protocol.AlgorithmParams) (*RunResult, error) {
	var res RunResult
	if err := c.do(ctx, http.MethodPost, "/v1/algorithms/"+url.PathEscape(key), params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Highlight re-applies the highlights of the stored result of key.
func (c *Client) Highlight(ctx context.Context, key string) (*session.Highlights, error) {
	var h session.Highlights
	if err := c.do(ctx, http.MethodPost, "/v1/algorithms/"+url.PathEscape(key)+"/highlight", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// --- Catalog ---

func (c *Client) Scenarios(ctx context.Context) ([]catalog.Scenario, error) {
	var out []catalog.Scenario
	if err := c.do(ctx, http.MethodGet, "/v1/scenarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Concepts(ctx context.Context) ([]catalog.Concept, error) {
	var out []catalog.Concept
	if err := c.do(ctx, http.MethodGet, "/v1/concepts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Explanations(ctx context.Context) ([]catalog.Explanation, error) {
	var out []catalog.Explanation
	if err := c.do(ctx, http.MethodGet, "/v1/explanations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Explanation(ctx context.Context, key string) (*catalog.Explanation, error) {
	var e catalog.Explanation
	if err := c.do(ctx, http.MethodGet, "/v1/explanations/"+url.PathEscape(key), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Report streams a "snapshots" or "scenarios" report. The caller closes
// the returned reader.
func (c *Client) Report(ctx context.Context, reportType string, opts ReportOptions) (io.ReadCloser, error) {
	q := url.Values{}
	if opts.Format != "" {
		q.Set("format", opts.Format)
	}
	if opts.DatasetType != "" {
		q.Set("dataset_type", string(opts.DatasetType))
	}
	if opts.ScenarioID != "" {
		q.Set("scenario_id", opts.ScenarioID)
	}
	setTimeRange(q, opts.From, opts.To)
	return c.stream(ctx, withQuery("/v1/reports/"+url.PathEscape(reportType), q))
}

// --- plumbing ---

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach fxgraph-d: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) stream(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach fxgraph-d: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, e); err != nil || e.Code == "" {
		e.Code = fmt.Sprintf("unexpected_status_%d", resp.StatusCode)
		e.Detail = string(bytes.TrimSpace(data))
	}
	return e
}

func setTimeRange(q url.Values, from, to time.Time) {
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
