package main

import (
	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the daemon to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcp.NewServer(apiURL).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
