// Package catalog serves the static reference data of the dashboard: the
// scenarios the algorithm service can generate and the Learn page
// explanations of each algorithm.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

//go:embed algorithms.yaml
var algorithmsYAML []byte

var (
	ErrUnknownScenario    = errors.New("unknown scenario")
	ErrUnknownExplanation = errors.New("unknown algorithm explanation")
)

// Scenario is a named graph topology.
type Scenario struct {
	Name        string   `yaml:"name" json:"name"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Description string   `yaml:"description" json:"description"`
	Topology    string   `yaml:"topology" json:"topology"`
	Nodes       []string `yaml:"nodes" json:"nodes"`
}

// Concept maps a graph term to its FX meaning.
type Concept struct {
	Key    string `yaml:"key" json:"key"`
	Graph  string `yaml:"graph" json:"graph"`
	Domain string `yaml:"domain" json:"domain"`
}

type GraphTheory struct {
	Purpose    string `yaml:"purpose" json:"purpose"`
	Input      string `yaml:"input" json:"input"`
	Output     string `yaml:"output" json:"output"`
	Complexity string `yaml:"complexity" json:"complexity"`
}

type DomainApplication struct {
	Purpose     string `yaml:"purpose" json:"purpose"`
	WhatItFinds string `yaml:"what_it_finds" json:"what_it_finds"`
	WhyUseful   string `yaml:"why_useful" json:"why_useful"`
}

type Example struct {
	Scenario string   `yaml:"scenario" json:"scenario"`
	Steps    []string `yaml:"steps" json:"steps"`
	Result   string   `yaml:"result" json:"result"`
}

// Explanation is one Learn page entry.
type Explanation struct {
	Key               protocol.AlgorithmKey `yaml:"key" json:"key"`
	Name              string                `yaml:"name" json:"name"`
	Category          string                `yaml:"category" json:"category"`
	WhatIsIt          string                `yaml:"what_is_it" json:"what_is_it"`
	HowItWorks        []string              `yaml:"how_it_works" json:"how_it_works"`
	GraphTheory       GraphTheory           `yaml:"graph_theory" json:"graph_theory"`
	DomainApplication DomainApplication     `yaml:"domain_application" json:"domain_application"`
	Example           *Example              `yaml:"example,omitempty" json:"example,omitempty"`
	KeyConcepts       []string              `yaml:"key_concepts" json:"key_concepts"`
}

// Catalog is the parsed reference data.
type Catalog struct {
	scenarios    []Scenario
	baseValues   map[string]float64
	concepts     []Concept
	explanations []Explanation
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(scenariosYAML, algorithmsYAML)
	})
	return loaded, loadErr
}

// MustDefault is Default for callers that cannot recover from a broken
// build.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from the two YAML documents.
func Parse(scenarios, algorithms []byte) (*Catalog, error) {
	var sdoc struct {
		Scenarios  []Scenario         `yaml:"scenarios"`
		BaseValues map[string]float64 `yaml:"base_values"`
		Concepts   []Concept          `yaml:"concepts"`
	}
	if err := yaml.Unmarshal(scenarios, &sdoc); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	var adoc struct {
		Algorithms []Explanation `yaml:"algorithms"`
	}
	if err := yaml.Unmarshal(algorithms, &adoc); err != nil {
		return nil, fmt.Errorf("failed to parse algorithms: %w", err)
	}

	seen := make(map[string]bool, len(sdoc.Scenarios))
	for _, s := range sdoc.Scenarios {
		if s.Name == "" || len(s.Nodes) == 0 {
			return nil, fmt.Errorf("scenario %q is incomplete", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
	}
	for _, e := range adoc.Algorithms {
		if !e.Key.Valid() {
			return nil, fmt.Errorf("explanation for unknown algorithm %q", e.Key)
		}
	}

	return &Catalog{
		scenarios:    sdoc.Scenarios,
		baseValues:   sdoc.BaseValues,
		concepts:     sdoc.Concepts,
		explanations: adoc.Algorithms,
	}, nil
}

// Scenarios returns all scenarios in display order.
func (c *Catalog) Scenarios() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

func (c *Catalog) Scenario(name string) (Scenario, error) {
	for _, s := range c.scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
}

// ScenarioNames lists scenario ids in display order.
func (c *Catalog) ScenarioNames() []string {
	names := make([]string, len(c.scenarios))
	for i, s := range c.scenarios {
		names[i] = s.Name
	}
	return names
}

// BaseValues returns reference values for the given currencies, or for
// every known currency when none are named. Unknown currencies are skipped.
func (c *Catalog) BaseValues(currencies ...string) map[string]float64 {
	out := make(map[string]float64)
	if len(currencies) == 0 {
		for k, v := range c.baseValues {
			out[k] = v
		}
		return out
	}
	for _, cur := range currencies {
		if v, ok := c.baseValues[cur]; ok {
			out[cur] = v
		}
	}
	return out
}

// Currencies lists every currency with a base value, sorted.
func (c *Catalog) Currencies() []string {
	out := make([]string, 0, len(c.baseValues))
	for k := range c.baseValues {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Concepts() []Concept {
	out := make([]Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Explanations returns every explanation in algorithm key order.
func (c *Catalog) Explanations() []Explanation {
	out := make([]Explanation, len(c.explanations))
	copy(out, c.explanations)
	return out
}

// Explanation looks up key, accepting the same aliases as
// protocol.ParseAlgorithmKey.
func (c *Catalog) Explanation(key string) (Explanation, error) {
	k, err := protocol.ParseAlgorithmKey(key)
	if err != nil {
		return Explanation{}, fmt.Errorf("%w: %s", ErrUnknownExplanation, key)
	}
	for _, e := range c.explanations {
		if e.Key == k {
			return e, nil
		}
	}
	return Explanation{}, fmt.Errorf("%w: %s", ErrUnknownExplanation, key)
}

// ByCategory groups explanations by category, preserving order inside
// each group.
func (c *Catalog) ByCategory() map[string][]Explanation {
	out := make(map[string][]Explanation)
	for _, e := range c.explanations {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}
