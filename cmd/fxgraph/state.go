package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
)

var (
	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Inspect or change the dashboard session",
		Args:  cobra.NoArgs,
		RunE:  runStateShow,
	}
	stateShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the session state",
		Args:  cobra.NoArgs,
		RunE:  runStateShow,
	}
	statePageCmd = &cobra.Command{
		Use:       "page <data|graph|learn>",
		Short:     "Switch the current page",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(session.PageData), string(session.PageGraph), string(session.PageLearn)},
		RunE:      runStatePage,
	}
	stateLabelsCmd = &cobra.Command{
		Use:   "labels [cost|neglog|none]",
		Short: "Set the edge label mode, or cycle it when no mode is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStateLabels,
	}
	stateClearCmd = &cobra.Command{
		Use:   "clear-highlights",
		Short: "Clear highlighted nodes and edges",
		Args:  cobra.NoArgs,
		RunE:  runStateClear,
	}
	stateResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset the session to its defaults",
		Args:  cobra.NoArgs,
		RunE:  runStateReset,
	}
)

func init() {
	stateCmd.AddCommand(stateShowCmd, statePageCmd, stateLabelsCmd, stateClearCmd, stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := newClient().State(ctx)
	if err != nil {
		return fmt.Errorf("failed to get state: %w", err)
	}
	return writeState(cmd, st)
}

func writeState(cmd *cobra.Command, st *session.State) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, st)
	}
	writeStateText(out, st)
	return nil
}

func writeStateText(w io.Writer, st *session.State) {
	fmt.Fprintf(w, "Page:        %s\n", st.CurrentPage)
	fmt.Fprintf(w, "Selected:    %s\n", orNone(st.SelectedSnapshotID))
	fmt.Fprintf(w, "Loaded:      %s\n", orNone(st.LoadedGraphSnapshotID))
	fmt.Fprintf(w, "Edge labels: %s\n", st.EdgeLabelMode)

	keys := st.AlgorithmResults.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.Label())
	}
	fmt.Fprintf(w, "Results:     %s\n", orNone(strings.Join(names, ", ")))
	fmt.Fprintf(w, "Highlighted: %d nodes, %d edges\n", len(st.HighlightedNodes), len(st.HighlightedEdges))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func runStatePage(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := newClient().SetPage(ctx, session.Page(args[0]))
	if err != nil {
		return fmt.Errorf("failed to set page: %w", err)
	}
	return writeState(cmd, st)
}

func runStateLabels(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var mode session.EdgeLabelMode
	if len(args) == 1 {
		mode = session.EdgeLabelMode(args[0])
	}
	st, err := newClient().SetEdgeLabels(ctx, mode)
	if err != nil {
		return fmt.Errorf("failed to set edge labels: %w", err)
	}
	return writeState(cmd, st)
}

func runStateClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := newClient().ClearHighlights(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear highlights: %w", err)
	}
	return writeState(cmd, st)
}

func runStateReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := newClient().ResetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	return writeState(cmd, st)
}
