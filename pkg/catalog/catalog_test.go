package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
)

func TestDefault_Scenarios(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"negative_cycle",
		"sparse_graph",
		"dense_graph",
		"hub_and_spoke",
		"disconnected_components",
		"balanced_tree",
		"linear_chain",
	}, c.ScenarioNames())

	sizes := map[string]int{
		"negative_cycle":          11,
		"sparse_graph":            13,
		"dense_graph":             12,
		"hub_and_spoke":           14,
		"disconnected_components": 12,
		"balanced_tree":           13,
		"linear_chain":            11,
	}
	for name, n := range sizes {
		s, err := c.Scenario(name)
		require.NoError(t, err, name)
		assert.Len(t, s.Nodes, n, name)
		assert.NotEmpty(t, s.DisplayName, name)
		assert.NotEmpty(t, s.Description, name)
		for _, node := range s.Nodes {
			assert.Contains(t, c.Currencies(), node, "%s node %s has a base value", name, node)
		}
	}

	s, err := c.Scenario("negative_cycle")
	require.NoError(t, err)
	assert.Equal(t, "Arbitrage Loop", s.DisplayName)

	s, err = c.Scenario("hub_and_spoke")
	require.NoError(t, err)
	assert.Equal(t, "Hub & Spoke", s.DisplayName)

	_, err = c.Scenario("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)

	assert.Contains(t, c.ScenarioNames(), protocol.DefaultScenario)
}

func TestDefault_Explanations(t *testing.T) {
	c := MustDefault()

	list := c.Explanations()
	require.Len(t, list, len(protocol.AlgorithmKeys))
	for i, key := range protocol.AlgorithmKeys {
		e := list[i]
		assert.Equal(t, key, e.Key)
		assert.NotEmpty(t, e.WhatIsIt, key)
		assert.NotEmpty(t, e.HowItWorks, key)
		assert.NotEmpty(t, e.GraphTheory.Complexity, key)
		assert.NotEmpty(t, e.DomainApplication.Purpose, key)
		assert.NotEmpty(t, e.KeyConcepts, key)
		require.NotNil(t, e.Example, key)
	}

	bf, err := c.Explanation("bellman-ford")
	require.NoError(t, err)
	assert.Equal(t, "Bellman-Ford Algorithm", bf.Name)
	assert.Equal(t, "Detect arbitrage opportunities in FX markets", bf.DomainApplication.Purpose)
	assert.Equal(t, "O(V × E) where V = nodes, E = edges", bf.GraphTheory.Complexity)

	fw, err := c.Explanation("floydWarshall")
	require.NoError(t, err)
	assert.Equal(t, "  For each pair (i, j):", fw.HowItWorks[2])

	_, err = c.Explanation("astar")
	assert.ErrorIs(t, err, ErrUnknownExplanation)

	groups := c.ByCategory()
	assert.Len(t, groups["Shortest Path"], 2)
	assert.Len(t, groups["Minimum Spanning Tree"], 2)
	assert.Len(t, groups["Graph Traversal"], 2)
	assert.Len(t, groups["All-Pairs Shortest Path"], 1)
}

func TestBaseValuesAndConcepts(t *testing.T) {
	c := MustDefault()

	v := c.BaseValues("USD", "EUR", "XXX")
	assert.Equal(t, map[string]float64{"USD": 1.0, "EUR": 0.92}, v)
	assert.Len(t, c.BaseValues(), 27)

	keys := make([]string, 0)
	for _, concept := range c.Concepts() {
		keys = append(keys, concept.Key)
	}
	assert.Contains(t, keys, "negativeCycle")
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("scenarios:\n  - name: a\n"), []byte("algorithms: []\n"))
	assert.Error(t, err, "scenario without nodes")

	_, err = Parse([]byte("scenarios:\n  - name: a\n    nodes: [USD]\n  - name: a\n    nodes: [USD]\n"), []byte("algorithms: []\n"))
	assert.Error(t, err, "duplicate scenario")

	_, err = Parse([]byte("scenarios: []\n"), []byte("algorithms:\n  - key: astar\n"))
	assert.Error(t, err, "unknown algorithm")

	_, err = Parse([]byte("scenarios: [\n"), []byte(""))
	assert.Error(t, err)
}
