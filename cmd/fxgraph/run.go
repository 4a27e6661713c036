package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

var (
	runSource     string
	runTarget     string
	runStart      string
	runNoDetect   bool
	runWeightMode string

	runCmd = &cobra.Command{
		Use:   "run <algorithm>",
		Short: "Run an algorithm on the loaded graph",
		Long: `Run an algorithm on the graph currently loaded in the session and
store the result. Algorithms: bfs, dfs, dijkstra, bellman-ford,
floyd-warshall, prim, kruskal. Every algorithm except floyd-warshall
and the spanning trees needs --source or --start.`,
		Args: cobra.ExactArgs(1),
		RunE: runAlgorithm,
	}
	highlightCmd = &cobra.Command{
		Use:   "highlight <algorithm>",
		Short: "Highlight the stored result of an algorithm",
		Args:  cobra.ExactArgs(1),
		RunE:  runHighlight,
	}
)

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "source node")
	runCmd.Flags().StringVar(&runTarget, "target", "", "target node (dijkstra)")
	runCmd.Flags().StringVar(&runStart, "start", "", "start node (traversals and prim)")
	runCmd.Flags().BoolVar(&runNoDetect, "no-detect", false, "skip negative cycle detection (bellman-ford)")
	runCmd.Flags().StringVar(&runWeightMode, "weight-mode", "", "cost or neglog (floyd-warshall)")

	rootCmd.AddCommand(runCmd, highlightCmd)
}

func algorithmParams() protocol.AlgorithmParams {
	p := protocol.AlgorithmParams{
		StartNode:  runStart,
		Source:     runSource,
		Target:     runTarget,
		WeightMode: protocol.WeightMode(runWeightMode),
	}
	if runNoDetect {
		detect := false
		p.DetectNegativeCycle = &detect
	}
	return p
}

func runAlgorithm(cmd *cobra.Command, args []string) error {
	key, err := protocol.ParseAlgorithmKey(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := newClient().RunAlgorithm(ctx, string(key), algorithmParams())
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", key.Label(), err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "%s on %s\n", key.Label(), res.SnapshotID)
	if len(res.Highlights.Nodes) > 0 {
		fmt.Fprintf(out, "Highlighted: %s\n", strings.Join(res.Highlights.Nodes, " -> "))
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, res.Result, "", "  "); err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	fmt.Fprintln(out, pretty.String())
	return nil
}

func runHighlight(cmd *cobra.Command, args []string) error {
	key, err := protocol.ParseAlgorithmKey(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := newClient().Highlight(ctx, string(key))
	if err != nil {
		return fmt.Errorf("failed to highlight %s: %w", key.Label(), err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), h)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Highlighted %d nodes, %d edges\n", len(h.Nodes), len(h.Edges))
	return nil
}
