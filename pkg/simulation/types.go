package simulation

import (
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

// SweepConfig selects what a sweep exercises. Empty lists mean every
// catalog scenario and every algorithm.
type SweepConfig struct {
	Name        string                  `json:"name" yaml:"name"`
	Scenarios   []string                `json:"scenarios" yaml:"scenarios"`
	Algorithms  []protocol.AlgorithmKey `json:"algorithms" yaml:"algorithms"`
	AnchorNode  string                  `json:"anchor_node" yaml:"anchor_node"`
	Concurrency int                     `json:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration           `json:"timeout" yaml:"timeout"`
	Invariants  []Invariant             `json:"invariants,omitempty" yaml:"invariants,omitempty"`
}

type Invariant struct {
	Metric    string  `json:"metric" yaml:"metric"`       // error_rate, success_rate, negative_cycle_rate, avg_latency_ms
	Condition string  `json:"condition" yaml:"condition"` // >, >=, <, <=, ==
	Value     float64 `json:"value" yaml:"value"`
	Scope     string  `json:"scope" yaml:"scope"` // "global" or an algorithm key
}

type InvariantResult struct {
	Metric   string `json:"metric"`
	Scope    string `json:"scope"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// SweepResult captures the final state of a sweep for reporting.
type SweepResult struct {
	Name           string                     `json:"name"`
	Duration       time.Duration              `json:"duration"`
	Scenarios      []ScenarioResult           `json:"scenarios"`
	AlgorithmStats map[string]*AlgorithmStats `json:"algorithm_stats"`
	TotalRuns      int                        `json:"total_runs"`
	TotalErrors    int                        `json:"total_errors"`
	Invariants     []InvariantResult          `json:"invariants"`
	Success        bool                       `json:"success"`
}

// ScenarioResult is one generated graph and the runs against it.
type ScenarioResult struct {
	Scenario      string      `json:"scenario"`
	SnapshotID    string      `json:"snapshot_id,omitempty"`
	NodeCount     int         `json:"node_count"`
	EdgeCount     int         `json:"edge_count"`
	GenerateError string      `json:"generate_error,omitempty"`
	Runs          []RunResult `json:"runs"`
}

type RunResult struct {
	Algorithm     protocol.AlgorithmKey `json:"algorithm"`
	Success       bool                  `json:"success"`
	Error         string                `json:"error,omitempty"`
	DurationMs    int64                 `json:"duration_ms"`
	NegativeCycle bool                  `json:"negative_cycle,omitempty"`
	PathFound     *bool                 `json:"path_found,omitempty"`
	Components    int                   `json:"components,omitempty"`
}

type AlgorithmStats struct {
	Runs           int   `json:"runs"`
	Errors         int   `json:"errors"`
	NegativeCycles int   `json:"negative_cycles"`
	TotalMs        int64 `json:"total_ms"`
}

func (s *AlgorithmStats) rate(n int) float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(n) / float64(s.Runs)
}
