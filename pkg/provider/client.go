package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// DefaultBaseURL is where the algorithm service listens by default.
const DefaultBaseURL = "http://localhost:8000"

const maxErrorBody = 1 << 20

// BreakerConfig tunes the circuit breaker in front of the service.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips at 60% failures over at least 5 calls and
// probes again after 15s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Client talks to the external algorithm service.
type Client struct {
	baseURL    string
	http       *http.Client
	backoff    BackoffStrategy
	maxRetries int
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets how many times a retryable failure is retried.
func WithRetries(n int, b BackoffStrategy) Option {
	return func(c *Client) {
		c.maxRetries = n
		if b != nil {
			c.backoff = b
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) { c.breaker = c.newBreaker(cfg) }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		backoff:    DefaultBackoff(),
		maxRetries: 2,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = c.newBreaker(DefaultBreakerConfig())
	}
	return c
}

func (c *Client) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "algorithm-service",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				ServiceBreakerOpen.Set(1)
			} else {
				ServiceBreakerOpen.Set(0)
			}
			c.logger.Warn("circuit_breaker_state_changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
	})
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	var out protocol.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Nodes calls GET /nodes and returns the currencies the service knows.
func (c *Client) Nodes(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate calls POST /generate.
func (c *Client) Generate(ctx context.Context, req protocol.GenerationRequest) (*protocol.GenerationResponse, error) {
	return post[protocol.GenerationResponse](ctx, c, "/generate", req)
}

func (c *Client) BFS(ctx context.Context, req protocol.TraversalRequest) (*protocol.BFSResponse, error) {
	return post[protocol.BFSResponse](ctx, c, protocol.KeyBFS.Path(), req)
}

func (c *Client) DFS(ctx context.Context, req protocol.TraversalRequest) (*protocol.DFSResponse, error) {
	return post[protocol.DFSResponse](ctx, c, protocol.KeyDFS.Path(), req)
}

func (c *Client) Dijkstra(ctx context.Context, req protocol.DijkstraRequest) (*protocol.DijkstraResponse, error) {
	return post[protocol.DijkstraResponse](ctx, c, protocol.KeyDijkstra.Path(), req)
}

func (c *Client) BellmanFord(ctx context.Context, req protocol.BellmanFordRequest) (*protocol.BellmanFordResponse, error) {
	return post[protocol.BellmanFordResponse](ctx, c, protocol.KeyBellmanFord.Path(), req)
}

func (c *Client) FloydWarshall(ctx context.Context, req protocol.FloydWarshallRequest) (*protocol.FloydWarshallResponse, error) {
	return post[protocol.FloydWarshallResponse](ctx, c, protocol.KeyFloydWarshall.Path(), req)
}

func (c *Client) MSTPrim(ctx context.Context, req protocol.MSTRequest) (*protocol.MSTResponse, error) {
	return post[protocol.MSTResponse](ctx, c, protocol.KeyMSTPrim.Path(), req)
}

func (c *Client) MSTKruskal(ctx context.Context, req protocol.MSTRequest) (*protocol.MSTResponse, error) {
	return post[protocol.MSTResponse](ctx, c, protocol.KeyMSTKruskal.Path(), req)
}

// Run dispatches an algorithm by key. The returned value is the typed
// response pointer for that key.
func (c *Client) Run(ctx context.Context, key protocol.AlgorithmKey, src protocol.GraphSource, params protocol.AlgorithmParams) (any, error) {
	req, err := params.Request(key, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	switch r := req.(type) {
	case protocol.TraversalRequest:
		if key == protocol.KeyDFS {
			return c.DFS(ctx, r)
		}
		return c.BFS(ctx, r)
	case protocol.DijkstraRequest:
		return c.Dijkstra(ctx, r)
	case protocol.BellmanFordRequest:
		return c.BellmanFord(ctx, r)
	case protocol.FloydWarshallRequest:
		return c.FloydWarshall(ctx, r)
	case protocol.MSTRequest:
		if key == protocol.KeyMSTKruskal {
			return c.MSTKruskal(ctx, r)
		}
		return c.MSTPrim(ctx, r)
	}
	return nil, fmt.Errorf("%w: unsupported request %T", ErrInvalidRequest, req)
}

func post[T any, PT interface {
	*T
	protocol.Validatable
}](ctx context.Context, c *Client, path string, in protocol.Validatable) (*T, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	out := PT(new(T))
	if err := c.do(ctx, http.MethodPost, path, in, out); err != nil {
		return nil, err
	}
	return (*T)(out), nil
}

// do runs one logical call with retries. Each attempt passes the breaker.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	start := time.Now()
	var err error
	for attempt := 0; ; attempt++ {
		err = c.attempt(ctx, method, path, body, out)
		if err == nil || !retryable(err) || attempt >= c.maxRetries {
			break
		}

		wait := c.backoff.Next(attempt)
		ServiceRetriesTotal.WithLabelValues(path).Inc()
		c.logger.Debug("algorithm_service_retry",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	ServiceRequestSeconds.WithLabelValues(path, outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Info("algorithm_service_call_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
	}
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if v, ok := out.(protocol.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	if n, ok := out.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var eb protocol.ErrorBody
	if json.Unmarshal(data, &eb) == nil && eb.Detail != nil {
		apiErr.Detail = eb.Detail
		if s, ok := eb.Detail.(string); ok && s != "" {
			apiErr.Message = s
		}
	}
	return apiErr
}
