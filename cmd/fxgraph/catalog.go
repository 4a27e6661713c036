package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
)

var (
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the daemon and the algorithm service behind it",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
	scenariosCmd = &cobra.Command{
		Use:   "scenarios",
		Short: "List the graph scenarios the service can generate",
		Args:  cobra.NoArgs,
		RunE:  runScenarios,
	}
	learnCmd = &cobra.Command{
		Use:   "learn [algorithm]",
		Short: "Explain an algorithm and what it finds in FX markets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLearn,
	}
)

func init() {
	rootCmd.AddCommand(healthCmd, scenariosCmd, learnCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := newClient().Health(ctx)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, h)
	}
	fmt.Fprintf(out, "Daemon:    %s (%s)\n", h.Status, apiURL)
	if h.ServiceError != "" {
		fmt.Fprintf(out, "Service:   down: %s\n", h.ServiceError)
	} else if h.Service != nil {
		fmt.Fprintf(out, "Service:   %s, %d snapshots\n", h.Service.Status, h.Service.SnapshotCount)
	}
	fmt.Fprintf(out, "Snapshots: %d (latest %s)\n", h.SnapshotCount, orNone(h.LatestSnapshot))
	fmt.Fprintf(out, "Loaded:    %s\n", orNone(h.LoadedSnapshot))
	return nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := newClient().Scenarios(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, list)
	}
	for _, s := range list {
		fmt.Fprintf(out, "%-22s %-12s %s\n", s.Name, s.Topology, s.Description)
	}
	return nil
}

func runLearn(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	c := newClient()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		list, err := c.Explanations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list explanations: %w", err)
		}
		if jsonOutput {
			return printJSON(out, list)
		}
		for _, e := range list {
			fmt.Fprintf(out, "%-15s %-22s %s\n", e.Key, e.Name, e.Category)
		}
		return nil
	}

	e, err := c.Explanation(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get explanation: %w", err)
	}
	if jsonOutput {
		return printJSON(out, e)
	}
	writeExplanation(out, e)
	return nil
}

func writeExplanation(w io.Writer, e *catalog.Explanation) {
	fmt.Fprintf(w, "%s (%s)\n\n%s\n", e.Name, e.Category, e.WhatIsIt)

	fmt.Fprintln(w, "\nHow it works:")
	for i, step := range e.HowItWorks {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, "\nComplexity: %s\n", e.GraphTheory.Complexity)
	fmt.Fprintf(w, "In FX markets: %s\n", e.DomainApplication.WhatItFinds)
	if len(e.KeyConcepts) > 0 {
		fmt.Fprintf(w, "Key concepts: %s\n", strings.Join(e.KeyConcepts, ", "))
	}
}
