package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kardianos/dmtree"
	"github.com/kardianos/dmtree/dmstate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rowState int

const (
	rowLeaf rowState = iota
	rowCollapsed
	rowLoading
	rowExpanded
)

func (s rowState) String() string {
	switch s {
	case rowLeaf:
		return "leaf"
	case rowCollapsed:
		return "collapsed"
	case rowLoading:
		return "loading"
	case rowExpanded:
		return "expanded"
	default:
		return fmt.Sprintf("rowState(%d)", int(s))
	}
}

var rowTransitions = []dmstate.Transition[rowState]{
	{From: rowCollapsed, To: rowLoading, Name: "expand"},
	{From: rowLoading, To: rowExpanded, Name: "loaded"},
	{From: rowExpanded, To: rowCollapsed, Name: "collapse"},
	{From: rowExpanded, To: rowLoading, Name: "reload"},
}

type row struct {
	node   dmtree.Node
	item   dmtree.TreeItem
	depth  int
	parent *row
	state  *dmstate.Machine[rowState]

	children []*row
	// gen discards children that arrive for a load that was superseded.
	gen int
}

func newRow(node dmtree.Node, item dmtree.TreeItem, parent *row) *row {
	initial := rowCollapsed
	if item.Collapsible == dmtree.None {
		initial = rowLeaf
	}
	r := &row{node: node, item: item, parent: parent, state: dmstate.New(initial, rowTransitions, nil)}
	if parent != nil {
		r.depth = parent.depth + 1
	}
	return r
}

// explorerSource is what the explorer needs from *dmtree.Provider.
type explorerSource interface {
	treeSource
	Refresh(node dmtree.Node)
}

type (
	rootsMsg struct {
		nodes []dmtree.Node
	}
	childrenMsg struct {
		row   *row
		gen   int
		nodes []dmtree.Node
	}
	changeMsg struct {
		change dmtree.Change
		ok     bool
	}
)

type explorer struct {
	ctx     context.Context
	src     explorerSource
	changes <-chan dmtree.Change

	roots        []*row
	cursor       int
	loadingRoots bool
	height       int

	spinner spinner.Model
}

func newExplorer(ctx context.Context, src explorerSource, changes <-chan dmtree.Change) *explorer {
	return &explorer{
		ctx:          ctx,
		src:          src,
		changes:      changes,
		loadingRoots: true,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m *explorer) Init() tea.Cmd {
	return tea.Batch(m.loadRoots(), m.spinner.Tick, m.waitChange())
}

func (m *explorer) loadRoots() tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		return rootsMsg{nodes: src.GetChildren(ctx, nil)}
	}
}

func (m *explorer) loadChildren(r *row) tea.Cmd {
	r.gen++
	ctx, src, gen := m.ctx, m.src, r.gen
	return func() tea.Msg {
		return childrenMsg{row: r, gen: gen, nodes: src.GetChildren(ctx, r.node)}
	}
}

func (m *explorer) waitChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		c, ok := <-ch
		return changeMsg{change: c, ok: ok}
	}
}

// adopt turns nodes into rows under parent and starts loading the ones the
// provider marks as expanded.
func (m *explorer) adopt(nodes []dmtree.Node, parent *row) ([]*row, []tea.Cmd) {
	rows := make([]*row, 0, len(nodes))
	var cmds []tea.Cmd
	for _, n := range nodes {
		r := newRow(n, m.src.GetTreeItem(n), parent)
		rows = append(rows, r)
		if r.item.Collapsible == dmtree.Expanded {
			r.state.MustTransitionTo(rowLoading)
			cmds = append(cmds, m.loadChildren(r))
		}
	}
	return rows, cmds
}

func (m *explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case rootsMsg:
		var cmds []tea.Cmd
		m.roots, cmds = m.adopt(msg.nodes, nil)
		m.loadingRoots = false
		m.clampCursor()
		return m, tea.Batch(cmds...)
	case childrenMsg:
		r := msg.row
		if msg.gen != r.gen || !r.state.Is(rowLoading) {
			return m, nil
		}
		var cmds []tea.Cmd
		r.children, cmds = m.adopt(msg.nodes, r)
		r.state.MustTransitionTo(rowExpanded)
		return m, tea.Batch(cmds...)
	case changeMsg:
		if !msg.ok {
			return m, nil
		}
		return m, tea.Batch(m.applyChange(msg.change), m.waitChange())
	}
	return m, nil
}

func (m *explorer) applyChange(c dmtree.Change) tea.Cmd {
	if c.Node == nil {
		m.loadingRoots = true
		return m.loadRoots()
	}
	r := m.find(c.Node)
	if r == nil || !r.state.Is(rowExpanded) {
		return nil
	}
	r.state.MustTransitionTo(rowLoading)
	return m.loadChildren(r)
}

func (m *explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.cursor++
		m.clampCursor()
	case "enter", "right", "l":
		r := m.selected()
		if r == nil {
			break
		}
		switch {
		case r.state.Is(rowCollapsed):
			r.state.MustTransitionTo(rowLoading)
			return m, m.loadChildren(r)
		case msg.String() == "enter" && r.state.Is(rowExpanded):
			r.state.MustTransitionTo(rowCollapsed)
		}
	case "left", "h":
		r := m.selected()
		if r == nil {
			break
		}
		if r.state.Is(rowExpanded) {
			r.state.MustTransitionTo(rowCollapsed)
			break
		}
		if r.parent != nil {
			m.cursor = m.indexOf(r.parent)
		}
	case "r":
		m.src.Refresh(nil)
	}
	return m, nil
}

// visible lists the rows currently on screen, depth first.
func (m *explorer) visible() []*row {
	var out []*row
	var walk func(rows []*row)
	walk = func(rows []*row) {
		for _, r := range rows {
			out = append(out, r)
			if r.state.Is(rowExpanded) {
				walk(r.children)
			}
		}
	}
	walk(m.roots)
	return out
}

func (m *explorer) selected() *row {
	rows := m.visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m *explorer) indexOf(target *row) int {
	for i, r := range m.visible() {
		if r == target {
			return i
		}
	}
	return 0
}

func (m *explorer) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *explorer) find(node dmtree.Node) *row {
	var found *row
	var walk func(rows []*row)
	walk = func(rows []*row) {
		for _, r := range rows {
			if found != nil {
				return
			}
			if r.node == node {
				found = r
				return
			}
			walk(r.children)
		}
	}
	walk(m.roots)
	return found
}

var (
	styleCursor = lipgloss.NewStyle().Reverse(true)
	styleHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m *explorer) View() string {
	var b strings.Builder
	rows := m.visible()

	switch {
	case m.loadingRoots && len(rows) == 0:
		b.WriteString(m.spinner.View() + " loading connections\n")
	case len(rows) == 0:
		b.WriteString("no connections; run \"dmtree set-access-key\" to add one\n")
	}

	start, end := 0, len(rows)
	if limit := m.height - 2; limit > 0 && len(rows) > limit {
		start = max(0, m.cursor-limit+1)
		end = start + limit
	}
	for i := start; i < end; i++ {
		r := rows[i]
		var marker string
		switch r.state.Current() {
		case rowLeaf:
			marker = "  "
		case rowCollapsed:
			marker = "▸ "
		case rowExpanded:
			marker = "▾ "
		case rowLoading:
			marker = m.spinner.View() + " "
		}
		label := labelStyle(r.item.Icon).Render(r.item.Label)
		if i == m.cursor {
			label = styleCursor.Render(r.item.Label)
		}
		line := strings.Repeat("  ", r.depth) + marker + label
		if r.item.Description != "" {
			line += "  " + styleDesc.Render(r.item.Description)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(styleHelp.Render("↑/↓ move  →/enter expand  ← collapse  r refresh  q quit"))
	return b.String()
}

func newExploreCommand(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the tree interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The screen belongs to the explorer; logs go to a file or nowhere.
			if logFile == "" {
				a.log = zerolog.Nop()
			} else {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				a.log = a.log.Output(zerolog.ConsoleWriter{Out: f, NoColor: true})
			}

			p, err := a.tree()
			if err != nil {
				return err
			}
			changes, unsubscribe := p.Subscribe()
			defer unsubscribe()

			ctx := cmd.Context()
			prog := tea.NewProgram(newExplorer(ctx, p, changes), tea.WithContext(ctx), tea.WithAltScreen())
			if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while exploring")
	return cmd
}
