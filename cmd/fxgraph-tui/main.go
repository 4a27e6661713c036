package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
)

func main() {
	endpoint := client.DefaultEndpoint
	if v := os.Getenv("FXGRAPH_URL"); v != "" {
		endpoint = v
	}
	flag.StringVar(&endpoint, "url", endpoint, "fxgraph-d base URL")
	poll := flag.Duration("poll", time.Second, "state poll interval")
	flag.Parse()

	p := tea.NewProgram(newModel(client.NewClient(endpoint), *poll), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
