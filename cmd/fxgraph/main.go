package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// --- Global Command Variables ---
var (
	apiURL      string
	jsonOutput  bool
	callTimeout time.Duration

	rootCmd = &cobra.Command{
		Use:           "fxgraph",
		Short:         "Command line client for the FX graph daemon",
		Long:          "fxgraph drives a running fxgraph-d: generate and manage snapshots,\nrun graph algorithms on the loaded graph and read the learning catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fxgraph %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", envOrDefault("FXGRAPH_URL", client.DefaultEndpoint), "fxgraph-d base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
	rootCmd.PersistentFlags().DurationVar(&callTimeout, "timeout", 90*time.Second, "per-command timeout")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *client.Client {
	return client.NewClient(apiURL)
}

// commandContext bounds a command by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if callTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, callTimeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
