package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

const promptName = "fxgraph-aware"

// Server adapts fxgraph-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"fxgraph",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"fxgraph://snapshots",
		"Graph Snapshots",
		mcp.WithResourceDescription("Stored currency graphs, newest first, without payloads"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadSnapshots)

	s.mcpServer.AddResource(mcp.NewResource(
		"fxgraph://state",
		"Session State",
		mcp.WithResourceDescription("Loaded graph, algorithm results and highlights"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadState)

	s.mcpServer.AddResource(mcp.NewResource(
		"fxgraph://scenarios",
		"Graph Scenarios",
		mcp.WithResourceDescription("Named topologies the algorithm service can generate"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadScenarios)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"generate_snapshot",
		mcp.WithDescription("Generate a currency graph, store it as a snapshot and load it."),
		mcp.WithString("scenario", mcp.Description("Scenario id (e.g. 'negative_cycle'). Omit for a random graph.")),
		mcp.WithString("anchor_node", mcp.Description("Currency the graph is priced against (default USD)")),
		mcp.WithNumber("num_nodes", mcp.Description("Node count for random graphs, 3 to 50")),
		mcp.WithString("name", mcp.Description("Display name of the snapshot")),
	), s.handleGenerateSnapshot)

	s.mcpServer.AddTool(mcp.NewTool(
		"load_snapshot",
		mcp.WithDescription("Load a stored snapshot so algorithms run on it."),
		mcp.WithString("snapshot_id", mcp.Required(), mcp.Description("Snapshot id, or 'latest'")),
	), s.handleLoadSnapshot)

	keys := make([]string, 0, len(protocol.AlgorithmKeys))
	for _, k := range protocol.AlgorithmKeys {
		keys = append(keys, string(k))
	}
	s.mcpServer.AddTool(mcp.NewTool(
		"run_algorithm",
		mcp.WithDescription("Run a graph algorithm on the loaded snapshot and highlight its result."),
		mcp.WithString("algorithm", mcp.Required(), mcp.Enum(keys...), mcp.Description("Algorithm key")),
		mcp.WithString("source", mcp.Description("Start or source currency; required except for floyd-warshall and the MSTs")),
		mcp.WithString("target", mcp.Description("Target currency, for dijkstra")),
		mcp.WithBoolean("detect_negative_cycle", mcp.Description("Bellman-Ford only (default true)")),
	), s.handleRunAlgorithm)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		promptName,
		mcp.WithPromptDescription("Explains how FX markets map onto graph algorithms"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadSnapshots(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.apiClient.ListSnapshots(ctx, client.ListOptions{Limit: 50})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}
	return jsonResource(request.Params.URI, list)
}

func (s *Server) handleReadState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := s.apiClient.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state: %w", err)
	}
	return jsonResource(request.Params.URI, st)
}

func (s *Server) handleReadScenarios(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scenarios, err := s.apiClient.Scenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scenarios: %w", err)
	}
	return jsonResource(request.Params.URI, scenarios)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleGenerateSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := protocol.GenerationRequest{
		Mode:       protocol.ModeRandom,
		AnchorNode: mcp.ParseString(request, "anchor_node", ""),
	}
	if scenario := mcp.ParseString(request, "scenario", ""); scenario != "" {
		req.Mode = protocol.ModeScenario
		req.ScenarioID = scenario
	} else if n := mcp.ParseInt(request, "num_nodes", 0); n > 0 {
		req.GenerationParams = &protocol.GenerationParams{NumNodes: &n}
	}

	snap, err := s.apiClient.CreateSnapshot(ctx, mcp.ParseString(request, "name", ""), &req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(describeSnapshot(snap)), nil
}

func describeSnapshot(snap *store.Snapshot) string {
	nodes := make([]string, 0, len(snap.GraphPayload.Nodes))
	for _, n := range snap.GraphPayload.Nodes {
		nodes = append(nodes, n.ID)
	}
	return fmt.Sprintf("Loaded snapshot %s (%s): %d nodes, %d edges\nNodes: %s",
		snap.ID, snap.DatasetType, snap.NodeCount, snap.EdgeCount, strings.Join(nodes, ", "))
}

func (s *Server) handleLoadSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "snapshot_id", "")
	if id == "" {
		return mcp.NewToolResultError("snapshot_id is required"), nil
	}
	if _, err := s.apiClient.LoadSnapshot(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	snap, err := s.apiClient.GetSnapshot(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(describeSnapshot(snap)), nil
}

func (s *Server) handleRunAlgorithm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := mcp.ParseString(request, "algorithm", "")
	params := protocol.AlgorithmParams{
		Source: mcp.ParseString(request, "source", ""),
		Target: mcp.ParseString(request, "target", ""),
	}
	detect := mcp.ParseBoolean(request, "detect_negative_cycle", true)
	params.DetectNegativeCycle = &detect

	res, err := s.apiClient.RunAlgorithm(ctx, key, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s\n", res.Algorithm.Label(), res.SnapshotID)
	if len(res.Highlights.Nodes) > 0 {
		fmt.Fprintf(&b, "Highlighted: %s\n", strings.Join(res.Highlights.Nodes, " -> "))
	}
	b.Write(res.Result)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != promptName {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are working with an FX graph dashboard backed by fxgraph-d.

Concepts:
- Node: a currency (e.g. 'USD', 'EUR').
- Edge: a conversion from one currency to another, with a rate.
- cost: 1/rate, used for shortest paths and spanning trees.
- neglog: -ln(rate). A cycle whose neglog weights sum below zero multiplies
  the starting amount above 1: an arbitrage opportunity.
- Snapshot: an immutable stored graph. Algorithms run on the loaded one.

Use 'generate_snapshot' with scenario 'negative_cycle' to get a graph with
an arbitrage loop, then 'run_algorithm' with 'bellmanFord' to find it.
Use 'dijkstra' for the cheapest conversion route between two currencies,
'floydWarshall' for all pairs, and 'mstPrim' or 'mstKruskal' for the
cheapest set of conversions connecting every currency.
`

	return mcp.NewGetPromptResult(
		promptName,
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
