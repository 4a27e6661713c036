package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

const (
	requestTimeout = 5 * time.Second
	// Algorithm runs wait on the upstream service.
	runTimeout     = 60 * time.Second
	viewportHeight = 18
)

var pages = []session.Page{session.PageData, session.PageGraph, session.PageLearn}

// daemon is the part of the SDK the dashboard drives.
type daemon interface {
	State(ctx context.Context) (*session.State, error)
	ListSnapshots(ctx context.Context, opts client.ListOptions) ([]store.Summary, error)
	CreateSnapshot(ctx context.Context, name string, req *protocol.GenerationRequest) (*store.Snapshot, error)
	LoadSnapshot(ctx context.Context, id string) (*store.Summary, error)
	DeleteSnapshot(ctx context.Context, id string) error
	RunAlgorithm(ctx context.Context, key string, params protocol.AlgorithmParams) (*client.RunResult, error)
	SetPage(ctx context.Context, p session.Page) (*session.State, error)
	SetEdgeLabels(ctx context.Context, m session.EdgeLabelMode) (*session.State, error)
	ClearHighlights(ctx context.Context) (*session.State, error)
	Explanations(ctx context.Context) ([]catalog.Explanation, error)
}

type tickMsg time.Time

type dataMsg struct {
	state     *session.State
	snapshots []store.Summary
	err       error
}

type explanationsMsg struct {
	explanations []catalog.Explanation
	err          error
}

// actionMsg reports the outcome of a user action.
type actionMsg struct {
	status string
	state  *session.State
	err    error
	// page is set when the action was a page switch.
	page session.Page
}

type model struct {
	daemon daemon
	poll   time.Duration

	page     session.Page
	spinner  spinner.Model
	table    table.Model
	viewport viewport.Model
	input    textinput.Model
	// editing is "source" or "target" while the input has focus.
	editing string

	source, target string

	// pendingPage is the page last sent to the daemon and not yet
	// acknowledged. Polled state does not move the page while it is set.
	pendingPage session.Page

	state        *session.State
	snapshots    []store.Summary
	explanations []catalog.Explanation
	learnIdx     int

	busy   bool
	status string
	err    error
	ready  bool
}

func newModel(d daemon, poll time.Duration) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 40},
			{Title: "Name", Width: 20},
			{Title: "Type", Width: 9},
			{Title: "Nodes", Width: 5},
			{Title: "Edges", Width: 5},
			{Title: "Created", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	in := textinput.New()
	in.CharLimit = 8
	in.Width = 10

	vp := viewport.New(100, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)

	if poll <= 0 {
		poll = time.Second
	}
	return model{
		daemon:   d,
		poll:     poll,
		page:     session.PageData,
		spinner:  s,
		table:    t,
		input:    in,
		viewport: vp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchData(),
		m.fetchExplanations(),
		m.tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing != "" {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, m.fetchData(), m.tick())

	case dataMsg:
		m.ready = true
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.err = nil
		m.snapshots = msg.snapshots
		m.setState(msg.state)
		m.table.SetRows(snapshotRows(m.snapshots))

	case explanationsMsg:
		if msg.err == nil {
			m.explanations = msg.explanations
		}
		m.refreshViewport()

	case actionMsg:
		m.busy = false
		m.err = msg.err
		if msg.page != "" && msg.page == m.pendingPage {
			m.pendingPage = ""
		}
		if msg.err == nil {
			m.status = msg.status
			m.setState(msg.state)
		}
		cmds = append(cmds, m.fetchData())

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
		m.ready = true
	}

	return m, tea.Batch(cmds...)
}

func (m *model) setState(st *session.State) {
	if st == nil {
		return
	}
	m.state = st
	if m.pendingPage == "" && st.CurrentPage.Valid() {
		m.page = st.CurrentPage
	}
	m.refreshViewport()
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.switchPage(1)
	case "shift+tab":
		return m.switchPage(-1)
	}
	if m.busy {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.page {
	case session.PageData:
		switch msg.String() {
		case "g":
			req := protocol.DefaultGenerationRequest()
			return m.startAction(m.generate(&req))
		case "r":
			return m.startAction(m.generate(&protocol.GenerationRequest{Mode: protocol.ModeRandom}))
		case "enter":
			if row := m.table.SelectedRow(); row != nil {
				return m.startAction(m.load(row[0]))
			}
			return m, nil
		case "L":
			return m.startAction(m.load("latest"))
		case "d":
			if row := m.table.SelectedRow(); row != nil {
				return m.startAction(m.remove(row[0]))
			}
			return m, nil
		}
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case session.PageGraph:
		switch k := msg.String(); k {
		case "1", "2", "3", "4", "5", "6", "7":
			key := protocol.AlgorithmKeys[k[0]-'1']
			return m.startAction(m.run(key))
		case "e":
			return m.startAction(m.cycleLabels())
		case "c":
			return m.startAction(m.clearHighlights())
		case "s", "t":
			m.editing = map[string]string{"s": "source", "t": "target"}[k]
			m.input.Placeholder = m.editing
			m.input.SetValue("")
			cmd = m.input.Focus()
			return m, cmd
		}

	case session.PageLearn:
		switch msg.String() {
		case "left", "h":
			if m.learnIdx > 0 {
				m.learnIdx--
			}
			m.refreshViewport()
			return m, nil
		case "right", "l":
			if m.learnIdx < len(m.explanations)-1 {
				m.learnIdx++
			}
			m.refreshViewport()
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.editing == "source" {
			m.source = m.input.Value()
		} else {
			m.target = m.input.Value()
		}
		fallthrough
	case tea.KeyEsc:
		m.editing = ""
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) switchPage(step int) (tea.Model, tea.Cmd) {
	idx := 0
	for i, p := range pages {
		if p == m.page {
			idx = i
		}
	}
	m.page = pages[(idx+step+len(pages))%len(pages)]
	m.refreshViewport()
	page := m.page
	m.pendingPage = page
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := m.daemon.SetPage(ctx, page)
		return actionMsg{state: st, err: err, page: page}
	}
}

func (m model) startAction(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = ""
	return m, cmd
}

// Commands

func (m model) generate(req *protocol.GenerationRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		snap, err := m.daemon.CreateSnapshot(ctx, "", req)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("Generated %s (%d nodes, %d edges)", snap.ID, snap.NodeCount, snap.EdgeCount)}
	}
}

func (m model) load(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := m.daemon.LoadSnapshot(ctx, id)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Loaded " + s.ID}
	}
}

func (m model) remove(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.daemon.DeleteSnapshot(ctx, id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Deleted " + id}
	}
}

func (m model) run(key protocol.AlgorithmKey) tea.Cmd {
	params := m.params()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		res, err := m.daemon.RunAlgorithm(ctx, string(key), params)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("%s done, %d nodes highlighted", key.Label(), len(res.Highlights.Nodes))}
	}
}

// params defaults the source to the first node and the target to the
// last one.
func (m model) params() protocol.AlgorithmParams {
	p := protocol.AlgorithmParams{Source: m.source, Target: m.target}
	if m.state == nil || m.state.LoadedGraph == nil {
		return p
	}
	ids := m.state.LoadedGraph.NodeIDs()
	if len(ids) == 0 {
		return p
	}
	if p.Source == "" {
		p.Source = ids[0]
	}
	if p.Target == "" {
		p.Target = ids[len(ids)-1]
	}
	return p
}

func (m model) cycleLabels() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := m.daemon.SetEdgeLabels(ctx, "")
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Edge labels: " + string(st.EdgeLabelMode), state: st}
	}
}

func (m model) clearHighlights() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := m.daemon.ClearHighlights(ctx)
		return actionMsg{status: "Highlights cleared", state: st, err: err}
	}
}

func (m model) fetchData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := m.daemon.State(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		list, err := m.daemon.ListSnapshots(ctx, client.ListOptions{Limit: 100})
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{state: st, snapshots: list}
	}
}

func (m model) fetchExplanations() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := m.daemon.Explanations(ctx)
		return explanationsMsg{explanations: list, err: err}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func snapshotRows(list []store.Summary) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, s := range list {
		rows = append(rows, table.Row{
			s.ID,
			s.Name,
			string(s.DatasetType),
			fmt.Sprint(s.NodeCount),
			fmt.Sprint(s.EdgeCount),
			humanize.Time(s.CreatedAt),
		})
	}
	return rows
}
