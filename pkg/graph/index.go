package graph

import "sort"

// Index is a read-only adjacency view over a payload.
type Index struct {
	order []string
	out   map[string][]Edge
	in    map[string]int
}

// NewIndex builds the adjacency view. Edges keep payload order.
func NewIndex(p *Payload) *Index {
	idx := &Index{
		order: p.NodeIDs(),
		out:   make(map[string][]Edge, len(p.Nodes)),
		in:    make(map[string]int, len(p.Nodes)),
	}
	for _, e := range p.Edges {
		idx.out[e.From] = append(idx.out[e.From], e)
		idx.in[e.To]++
	}
	return idx
}

// Nodes returns node ids in payload order.
func (idx *Index) Nodes() []string {
	return append([]string(nil), idx.order...)
}

// Outgoing returns the edges leaving id.
func (idx *Index) Outgoing(id string) []Edge {
	return idx.out[id]
}

func (idx *Index) OutDegree(id string) int { return len(idx.out[id]) }

func (idx *Index) InDegree(id string) int { return idx.in[id] }

// Density is edges / (n*(n-1)) for a directed graph without self loops.
func (idx *Index) Density() float64 {
	n := len(idx.order)
	if n < 2 {
		return 0
	}
	edges := 0
	for _, es := range idx.out {
		edges += len(es)
	}
	return float64(edges) / float64(n*(n-1))
}

// Components returns the weakly connected components. Each component is
// sorted, and components are ordered by their smallest node id.
func (idx *Index) Components() [][]string {
	adj := make(map[string][]string, len(idx.order))
	for from, es := range idx.out {
		for _, e := range es {
			adj[from] = append(adj[from], e.To)
			adj[e.To] = append(adj[e.To], from)
		}
	}

	seen := make(map[string]bool, len(idx.order))
	var comps [][]string
	for _, start := range idx.order {
		if seen[start] {
			continue
		}
		var comp []string
		stack := []string{start}
		seen[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			for _, m := range adj[n] {
				if !seen[m] {
					seen[m] = true
					stack = append(stack, m)
				}
			}
		}
		sort.Strings(comp)
		comps = append(comps, comp)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}
