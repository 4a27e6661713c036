package main

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/logging"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/simulation"
)

var errSweepFailed = errors.New("sweep invariants failed")

var (
	sweepConfigPath  string
	sweepServiceURL  string
	sweepScenarios   []string
	sweepAlgorithms  []string
	sweepConcurrency int
	sweepLogLevel    string

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Generate scenarios and run every algorithm against the algorithm service",
		Long: `sweep talks to the algorithm service directly, not to fxgraph-d.
Each scenario is generated once and every selected algorithm runs on it.
Invariants from the config file decide the exit status.`,
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
)

func init() {
	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "c", "", "sweep config YAML")
	sweepCmd.Flags().StringVar(&sweepServiceURL, "service-url", envOrDefault("FXGRAPH_SERVICE_URL", provider.DefaultBaseURL), "algorithm service base URL")
	sweepCmd.Flags().StringSliceVar(&sweepScenarios, "scenarios", nil, "scenarios to generate (default: all)")
	sweepCmd.Flags().StringSliceVar(&sweepAlgorithms, "algorithms", nil, "algorithms to run (default: all)")
	sweepCmd.Flags().IntVar(&sweepConcurrency, "concurrency", 0, "scenarios in flight")
	sweepCmd.Flags().StringVarP(&outputPath, "out", "o", "", "write the report to file instead of stdout")
	sweepCmd.Flags().StringVar(&sweepLogLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(sweepCmd)
}

// sweepConfig layers the flags over the config file.
func sweepConfig() (simulation.SweepConfig, error) {
	cfg := simulation.SweepConfig{Name: "adhoc"}
	if sweepConfigPath != "" {
		loaded, err := simulation.LoadConfig(sweepConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if len(sweepScenarios) > 0 {
		cfg.Scenarios = sweepScenarios
	}
	if len(sweepAlgorithms) > 0 {
		cfg.Algorithms = nil
		for _, a := range sweepAlgorithms {
			key, err := protocol.ParseAlgorithmKey(a)
			if err != nil {
				return cfg, err
			}
			cfg.Algorithms = append(cfg.Algorithms, key)
		}
	}
	if sweepConcurrency > 0 {
		cfg.Concurrency = sweepConcurrency
	}
	return cfg, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := sweepConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(sweepLogLevel, logging.FormatConsole)
	if err != nil {
		return err
	}
	defer logger.Sync()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := provider.NewClient(sweepServiceURL, provider.WithLogger(logger))
	res, err := simulation.Sweep(ctx, svc, cfg, logger)
	if err != nil {
		return err
	}

	err = withOutput(cmd, func(w io.Writer) error {
		if jsonOutput {
			return printJSON(w, res)
		}
		simulation.WriteText(w, res)
		return nil
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return errSweepFailed
	}
	return nil
}
