// Package simulation sweeps the algorithm service: every selected scenario
// is generated and every selected algorithm is run against it.
package simulation

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

const defaultConcurrency = 4

// Service is the part of the algorithm service a sweep calls.
type Service interface {
	Generate(ctx context.Context, req protocol.GenerationRequest) (*protocol.GenerationResponse, error)
	Run(ctx context.Context, key protocol.AlgorithmKey, src protocol.GraphSource, params protocol.AlgorithmParams) (any, error)
}

// LoadConfig reads a sweep config from YAML.
func LoadConfig(path string) (SweepConfig, error) {
	var cfg SweepConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read sweep config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse sweep config: %w", err)
	}
	return cfg, nil
}

// Sweep generates each scenario and runs each algorithm on the result.
// Scenarios run concurrently up to cfg.Concurrency; the algorithms of one
// scenario run in order. Service failures are recorded, not returned; only
// cancellation and bad config end a sweep early.
func Sweep(ctx context.Context, svc Service, cfg SweepConfig, logger *zap.Logger) (*SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Scenarios) == 0 {
		cat, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		cfg.Scenarios = cat.ScenarioNames()
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = protocol.AlgorithmKeys
	}
	for _, k := range cfg.Algorithms {
		if !k.Valid() {
			return nil, fmt.Errorf("unknown algorithm %q", k)
		}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res := &SweepResult{
		Name:           cfg.Name,
		Scenarios:      make([]ScenarioResult, len(cfg.Scenarios)),
		AlgorithmStats: make(map[string]*AlgorithmStats),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, name := range cfg.Scenarios {
		g.Go(func() error {
			res.Scenarios[i] = sweepScenario(gctx, svc, name, cfg, logger)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep interrupted: %w", err)
	}

	res.Duration = time.Since(start)
	aggregate(res)
	evaluateInvariants(res, cfg.Invariants)

	res.Success = true
	for _, inv := range res.Invariants {
		if !inv.Passed {
			res.Success = false
			break
		}
	}
	return res, nil
}

func sweepScenario(ctx context.Context, svc Service, name string, cfg SweepConfig, logger *zap.Logger) ScenarioResult {
	out := ScenarioResult{Scenario: name, Runs: []RunResult{}}

	gen, err := svc.Generate(ctx, protocol.GenerationRequest{
		Mode:       protocol.ModeScenario,
		ScenarioID: name,
		AnchorNode: cfg.AnchorNode,
	})
	if err != nil {
		out.GenerateError = err.Error()
		logger.Warn("sweep_generate_failed", zap.String("scenario", name), zap.Error(err))
		return out
	}
	out.SnapshotID = gen.SnapshotID
	out.NodeCount = len(gen.GraphPayload.Nodes)
	out.EdgeCount = len(gen.GraphPayload.Edges)

	params := defaultParams(gen, cfg.AnchorNode)
	src := protocol.GraphSource{SnapshotID: gen.SnapshotID, GraphPayload: &gen.GraphPayload}
	for _, key := range cfg.Algorithms {
		if ctx.Err() != nil {
			break
		}
		started := time.Now()
		result, err := svc.Run(ctx, key, src, params)
		run := RunResult{Algorithm: key, DurationMs: time.Since(started).Milliseconds()}
		if err != nil {
			run.Error = err.Error()
			logger.Warn("sweep_run_failed",
				zap.String("scenario", name),
				zap.String("algorithm", string(key)),
				zap.Error(err))
		} else {
			run.Success = true
			observe(&run, result)
		}
		out.Runs = append(out.Runs, run)
	}
	return out
}

// defaultParams starts at the anchor, or the first node when the anchor
// is not in the graph, and targets the last node.
func defaultParams(gen *protocol.GenerationResponse, anchor string) protocol.AlgorithmParams {
	ids := gen.GraphPayload.NodeIDs()
	var p protocol.AlgorithmParams
	if len(ids) == 0 {
		return p
	}
	p.Source = ids[0]
	if anchor != "" && gen.GraphPayload.HasNode(anchor) {
		p.Source = anchor
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] != p.Source {
			p.Target = ids[i]
			break
		}
	}
	return p
}

func observe(run *RunResult, result any) {
	switch r := result.(type) {
	case *protocol.BellmanFordResponse:
		run.NegativeCycle = r.NegativeCycleFound
	case *protocol.DijkstraResponse:
		found := r.Found
		run.PathFound = &found
	case *protocol.MSTResponse:
		run.Components = r.NumComponents
	}
}

func aggregate(res *SweepResult) {
	for _, sc := range res.Scenarios {
		for _, run := range sc.Runs {
			st, ok := res.AlgorithmStats[string(run.Algorithm)]
			if !ok {
				st = &AlgorithmStats{}
				res.AlgorithmStats[string(run.Algorithm)] = st
			}
			st.Runs++
			st.TotalMs += run.DurationMs
			res.TotalRuns++
			if !run.Success {
				st.Errors++
				res.TotalErrors++
			}
			if run.NegativeCycle {
				st.NegativeCycles++
			}
		}
		if sc.GenerateError != "" {
			res.TotalErrors++
		}
	}
}

func evaluateInvariants(res *SweepResult, invariants []Invariant) {
	global := &AlgorithmStats{}
	for _, st := range res.AlgorithmStats {
		global.Runs += st.Runs
		global.Errors += st.Errors
		global.NegativeCycles += st.NegativeCycles
		global.TotalMs += st.TotalMs
	}

	for _, inv := range invariants {
		expected := fmt.Sprintf("%s %.2f", inv.Condition, inv.Value)
		stats := global
		if inv.Scope != "global" && inv.Scope != "" {
			st, ok := res.AlgorithmStats[inv.Scope]
			if !ok {
				res.Invariants = append(res.Invariants, InvariantResult{
					Metric: inv.Metric, Scope: inv.Scope, Expected: expected, Actual: "N/A",
				})
				continue
			}
			stats = st
		}

		var actual float64
		switch inv.Metric {
		case "error_rate":
			actual = stats.rate(stats.Errors)
		case "success_rate":
			actual = stats.rate(stats.Runs - stats.Errors)
		case "negative_cycle_rate":
			actual = stats.rate(stats.NegativeCycles)
		case "avg_latency_ms":
			actual = stats.rate(int(stats.TotalMs))
		}

		var passed bool
		switch inv.Condition {
		case ">":
			passed = actual > inv.Value
		case ">=":
			passed = actual >= inv.Value
		case "<":
			passed = actual < inv.Value
		case "<=":
			passed = actual <= inv.Value
		case "==":
			passed = math.Abs(actual-inv.Value) < 0.0001
		}

		res.Invariants = append(res.Invariants, InvariantResult{
			Metric:   inv.Metric,
			Scope:    inv.Scope,
			Expected: expected,
			Actual:   fmt.Sprintf("%.4f", actual),
			Passed:   passed,
		})
	}
}

// WriteText prints a human summary of res.
func WriteText(w io.Writer, res *SweepResult) {
	fmt.Fprintf(w, "\n--- Sweep Report: %s ---\n", res.Name)
	fmt.Fprintf(w, "Duration: %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Scenarios: %d | Runs: %d | Errors: %d\n", len(res.Scenarios), res.TotalRuns, res.TotalErrors)

	for _, sc := range res.Scenarios {
		if sc.GenerateError != "" {
			fmt.Fprintf(w, "\n%s: generate failed: %s\n", sc.Scenario, sc.GenerateError)
			continue
		}
		fmt.Fprintf(w, "\n%s (%s, %d nodes, %d edges)\n", sc.Scenario, sc.SnapshotID, sc.NodeCount, sc.EdgeCount)
		for _, run := range sc.Runs {
			status := "ok"
			if !run.Success {
				status = "FAIL " + run.Error
			}
			note := ""
			if run.NegativeCycle {
				note = " negative cycle"
			}
			if run.PathFound != nil && !*run.PathFound {
				note = " no path"
			}
			if run.Components > 1 {
				note = fmt.Sprintf(" forest of %d", run.Components)
			}
			fmt.Fprintf(w, "  %-14s %5dms %s%s\n", run.Algorithm.Label(), run.DurationMs, status, note)
		}
	}

	if len(res.Invariants) > 0 {
		fmt.Fprintln(w, "\nInvariants:")
		for _, inv := range res.Invariants {
			status := "FAIL"
			if inv.Passed {
				status = "PASS"
			}
			fmt.Fprintf(w, "[%s] %s (%s): Expected %s, Got %s\n", status, inv.Metric, inv.Scope, inv.Expected, inv.Actual)
		}
	}
}

// Algorithms returns the stats keys, sorted.
func (r *SweepResult) Algorithms() []string {
	keys := make([]string, 0, len(r.AlgorithmStats))
	for k := range r.AlgorithmStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
