package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/graph"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	boldStyle   = lipgloss.NewStyle().Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("241"))
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("205")).Bold(true).Underline(true)

	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true) // Orange
	edgeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // Blue
)

var pageTitles = map[session.Page]string{
	session.PageData:  "Data",
	session.PageGraph: "Graph",
	session.PageLearn: "Learn",
}

var pageHelp = map[session.Page]string{
	session.PageData:  "g generate • r random • enter load • L load latest • d delete",
	session.PageGraph: "1-7 run algorithm • s source • t target • e edge labels • c clear highlights",
	session.PageLearn: "←/→ algorithm • ↑/↓ scroll",
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Connecting to fxgraph-d...", m.spinner.View())
	}

	tabs := make([]string, 0, len(pages))
	for _, p := range pages {
		style := tabStyle
		if p == m.page {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(pageTitles[p]))
	}
	header := headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))

	var body string
	switch m.page {
	case session.PageData:
		body = paneStyle.Render(m.table.View())
	case session.PageGraph:
		top := paneStyle.Render(m.graphHeader())
		body = lipgloss.JoinVertical(lipgloss.Left, top, m.viewport.View())
	default:
		body = m.viewport.View()
	}

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.busy:
		status = fmt.Sprintf("%s Working...", m.spinner.View())
	case m.status != "":
		status = okStyle.Render(m.status)
	default:
		status = okStyle.Render(fmt.Sprintf("Online • %d Snapshots", len(m.snapshots)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\n%s • tab switch page • q quit", status, pageHelp[m.page]))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m model) graphHeader() string {
	var sb strings.Builder
	if m.state == nil || m.state.LoadedGraph == nil {
		sb.WriteString(subtleStyle.Render("No graph loaded. Generate or load one on the Data page."))
		return sb.String()
	}
	p := m.params()
	fmt.Fprintf(&sb, "%s %s • %d nodes • %d edges • labels: %s\n",
		boldStyle.Render("Snapshot"), m.state.LoadedGraphSnapshotID,
		len(m.state.LoadedGraph.Nodes), len(m.state.LoadedGraph.Edges), m.state.EdgeLabelMode)
	fmt.Fprintf(&sb, "source %s • target %s", p.Source, p.Target)
	if m.editing != "" {
		fmt.Fprintf(&sb, " • %s: %s", m.editing, m.input.View())
	}
	return sb.String()
}

func (m *model) refreshViewport() {
	switch m.page {
	case session.PageGraph:
		m.viewport.SetContent(graphContent(m.state))
	case session.PageLearn:
		if len(m.explanations) == 0 {
			m.viewport.SetContent(subtleStyle.Render("Loading explanations..."))
			return
		}
		if m.learnIdx >= len(m.explanations) {
			m.learnIdx = len(m.explanations) - 1
		}
		m.viewport.SetContent(explanationContent(m.explanations[m.learnIdx], m.learnIdx, len(m.explanations)))
	}
	m.viewport.GotoTop()
}

// graphContent lists nodes, edges labelled per the session's mode, and
// one line per stored algorithm result. Highlighted items are marked.
func graphContent(st *session.State) string {
	if st == nil || st.LoadedGraph == nil {
		return ""
	}
	nodes := make(map[string]bool, len(st.HighlightedNodes))
	for _, n := range st.HighlightedNodes {
		nodes[n] = true
	}
	edges := make(map[graph.EdgeID]bool, len(st.HighlightedEdges))
	for _, e := range st.HighlightedEdges {
		edges[e] = true
	}

	var sb strings.Builder
	sb.WriteString(boldStyle.Render("Nodes") + "\n")
	for i, n := range st.LoadedGraph.Nodes {
		if i > 0 {
			sb.WriteString(" ")
		}
		if nodes[n.ID] {
			sb.WriteString(highlightStyle.Render("[" + n.ID + "]"))
		} else {
			sb.WriteString(n.ID)
		}
	}

	sb.WriteString("\n\n" + boldStyle.Render("Results") + "\n")
	keys := st.AlgorithmResults.Keys()
	if len(keys) == 0 {
		sb.WriteString(subtleStyle.Render("none yet") + "\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-20s %s\n", k.Label(), resultSummary(k, st.AlgorithmResults.Get(k)))
	}

	sb.WriteString("\n" + boldStyle.Render("Edges") + "\n")
	for _, e := range st.LoadedGraph.Edges {
		line := fmt.Sprintf("%-4s -> %-4s %s", e.From, e.To, edgeLabel(e, st.EdgeLabelMode))
		if edges[e.ID()] {
			line = highlightStyle.Render("* " + line)
		} else {
			line = "  " + edgeStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func edgeLabel(e graph.Edge, mode session.EdgeLabelMode) string {
	switch mode {
	case session.LabelCost:
		return fmt.Sprintf("%.2f", e.WeightCost)
	case session.LabelNegLog:
		return fmt.Sprintf("%.4f", e.WeightNegLog)
	default:
		return ""
	}
}

// resultSummary is a one-line description of a stored result.
func resultSummary(key protocol.AlgorithmKey, result any) string {
	switch r := result.(type) {
	case *protocol.BFSResponse:
		return "order " + strings.Join(r.Order, " ")
	case *protocol.DFSResponse:
		return "order " + strings.Join(r.Order, " ")
	case *protocol.DijkstraResponse:
		if !r.Found || r.Distance == nil {
			return "no path from " + r.Source
		}
		return fmt.Sprintf("%s (cost %.2f)", strings.Join(r.Path, " -> "), *r.Distance)
	case *protocol.BellmanFordResponse:
		if r.NegativeCycleFound {
			return highlightStyle.Render("arbitrage cycle " + strings.Join(r.Cycle, " -> "))
		}
		return "no negative cycle from " + r.Source
	case *protocol.FloydWarshallResponse:
		if r.CentralNode != nil {
			return fmt.Sprintf("%d nodes (%s), central %s", len(r.NodeOrder), r.WeightMode, *r.CentralNode)
		}
		return fmt.Sprintf("%d nodes (%s)", len(r.NodeOrder), r.WeightMode)
	case *protocol.MSTResponse:
		kind := "tree"
		if r.IsForest {
			kind = fmt.Sprintf("forest of %d", r.NumComponents)
		}
		return fmt.Sprintf("%s, %d edges, total cost %.2f", kind, len(r.Edges), r.TotalCost)
	}
	return string(key)
}

func explanationContent(e catalog.Explanation, idx, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", boldStyle.Render(e.Name), subtleStyle.Render(fmt.Sprintf("(%s, %d/%d)", e.Category, idx+1, total)))
	fmt.Fprintf(&sb, "\n%s\n", e.WhatIsIt)

	sb.WriteString("\n" + boldStyle.Render("How it works") + "\n")
	for i, step := range e.HowItWorks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}

	sb.WriteString("\n" + boldStyle.Render("Graph theory") + "\n")
	fmt.Fprintf(&sb, "Purpose: %s\nInput: %s\nOutput: %s\nComplexity: %s\n",
		e.GraphTheory.Purpose, e.GraphTheory.Input, e.GraphTheory.Output, e.GraphTheory.Complexity)

	sb.WriteString("\n" + boldStyle.Render("In FX markets") + "\n")
	fmt.Fprintf(&sb, "%s\nFinds: %s\nWhy: %s\n",
		e.DomainApplication.Purpose, e.DomainApplication.WhatItFinds, e.DomainApplication.WhyUseful)

	if e.Example != nil {
		fmt.Fprintf(&sb, "\n%s (%s)\n", boldStyle.Render("Example"), e.Example.Scenario)
		for _, step := range e.Example.Steps {
			sb.WriteString("  " + step + "\n")
		}
		sb.WriteString("=> " + e.Example.Result + "\n")
	}

	if len(e.KeyConcepts) > 0 {
		sb.WriteString("\n" + boldStyle.Render("Key concepts") + ": " + strings.Join(e.KeyConcepts, ", ") + "\n")
	}
	return sb.String()
}
