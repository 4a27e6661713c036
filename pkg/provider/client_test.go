package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider/providertest"
)

func newClient(url string, opts ...provider.Option) *provider.Client {
	base := []provider.Option{
		provider.WithRetries(2, provider.ConstantBackoff(time.Millisecond)),
		provider.WithBreaker(provider.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 1,
			MinRequests:      100,
		}),
	}
	opts = append(base, opts...)
	return provider.NewClient(url, opts...)
}

func TestClient_GenerateAndRun(t *testing.T) {
	fake := providertest.NewServer(t)
	c := newClient(fake.URL)
	ctx := context.Background()

	gen, err := c.Generate(ctx, protocol.DefaultGenerationRequest())
	require.NoError(t, err)
	assert.Contains(t, gen.SnapshotID, "_dense_graph_USD")
	assert.Equal(t, "scenario", gen.DatasetType)
	require.NoError(t, gen.GraphPayload.Validate())

	src := protocol.GraphSource{SnapshotID: gen.SnapshotID, GraphPayload: &gen.GraphPayload}

	for _, key := range protocol.AlgorithmKeys {
		t.Run(string(key), func(t *testing.T) {
			res, err := c.Run(ctx, key, src, protocol.AlgorithmParams{Source: "USD", Target: "EUR"})
			require.NoError(t, err)
			require.NotNil(t, res)
		})
	}

	res, err := c.Run(ctx, protocol.KeyDijkstra, src, protocol.AlgorithmParams{Source: "USD", Target: "EUR"})
	require.NoError(t, err)
	dj, ok := res.(*protocol.DijkstraResponse)
	require.True(t, ok)
	assert.True(t, dj.Found)
	assert.Equal(t, []string{"USD", "EUR"}, dj.Path)

	res, err = c.Run(ctx, protocol.KeyMSTKruskal, src, protocol.AlgorithmParams{})
	require.NoError(t, err)
	mst := res.(*protocol.MSTResponse)
	assert.Equal(t, "mst_kruskal", mst.Algorithm)
}

func TestClient_HealthAndNodes(t *testing.T) {
	fake := providertest.NewServer(t)
	c := newClient(fake.URL)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Nil(t, h.LatestSnapshot)

	nodes, err := c.Nodes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, nodes, "USD")
}

func TestClient_APIErrorCarriesDetail(t *testing.T) {
	fake := providertest.NewServer(t)
	c := newClient(fake.URL)

	_, err := c.BFS(context.Background(), protocol.TraversalRequest{
		GraphSource: protocol.GraphSource{SnapshotID: "missing"},
		StartNode:   "USD",
	})
	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Snapshot not found: missing", apiErr.Message)
	assert.Equal(t, "Snapshot not found: missing", apiErr.Detail)
	assert.False(t, provider.IsUnavailable(err))
	assert.Equal(t, 1, fake.Calls("/algorithms/bfs"), "4xx must not be retried")
}

func TestClient_InvalidRequestNeverSent(t *testing.T) {
	fake := providertest.NewServer(t)
	c := newClient(fake.URL)

	_, err := c.Generate(context.Background(), protocol.GenerationRequest{Mode: protocol.ModeScenario})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)

	bad := &graph.Payload{Nodes: []graph.Node{{ID: "USD"}, {ID: "USD"}}}
	bad.Recount()
	_, err = c.MSTPrim(context.Background(), protocol.MSTRequest{GraphSource: protocol.GraphSource{GraphPayload: bad}})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.ErrorIs(t, err, graph.ErrDuplicateNode)

	assert.Equal(t, 0, fake.Calls("/generate"))
	assert.Equal(t, 0, fake.Calls("/algorithms/mst/prim"))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	fake := providertest.NewServer(t)
	c := newClient(fake.URL)

	fake.FailNext(2, http.StatusBadGateway)
	_, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fake.Calls("/health"))

	fake.FailNext(5, http.StatusServiceUnavailable)
	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, provider.IsUnavailable(err))
	assert.Equal(t, 6, fake.Calls("/health"))
}

func TestClient_SchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"snapshot_id":"s1","algorithm":"bfs","start_node":"USD"}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	_, err := c.BFS(context.Background(), protocol.TraversalRequest{
		GraphSource: protocol.GraphSource{SnapshotID: "s1"},
		StartNode:   "USD",
	})
	require.ErrorIs(t, err, provider.ErrInvalidResponse)
	assert.Contains(t, err.Error(), "invalid algorithm response schema")
}

func TestClient_BreakerOpens(t *testing.T) {
	fake := providertest.NewServer(t)
	c := provider.NewClient(fake.URL,
		provider.WithRetries(0, nil),
		provider.WithBreaker(provider.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      2,
		}),
	)

	fake.FailNext(10, http.StatusInternalServerError)
	for i := 0; i < 2; i++ {
		_, err := c.Health(context.Background())
		require.Error(t, err)
	}

	_, err := c.Health(context.Background())
	assert.ErrorIs(t, err, provider.ErrServiceUnavailable)
	assert.Equal(t, 2, fake.Calls("/health"), "open breaker must not reach the service")
}

func TestClient_ContextCancelStopsRetries(t *testing.T) {
	fake := providertest.NewServer(t)
	c := provider.NewClient(fake.URL, provider.WithRetries(5, provider.ConstantBackoff(time.Second)))

	fake.FailNext(10, http.StatusServiceUnavailable)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Health(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(url)
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, provider.IsUnavailable(err))
}
