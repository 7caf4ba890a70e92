package main

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// factoredMsg carries the finished factoring run back to the UI.
type factoredMsg struct {
	result *Result
	err    error
}

// Model is the read-only viewer shown with -tui. It runs the factoring
// pipeline in the background and then lets the user page through the
// summary, the compiled program and the decoded outcomes.
type Model struct {
	ctx      context.Context
	factorer *Factorer
	n        uint64

	spinner  spinner.Model
	summary  viewport.Model
	program  viewport.Model
	outcomes table.Model
	active   tab
	width    int
	height   int

	running bool
	result  *Result
	err     error
}

func newModel(ctx context.Context, f *Factorer, n uint64) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)

	summary := viewport.New(0, 0)
	summary.MouseWheelEnabled = true
	program := viewport.New(0, 0)
	program.MouseWheelEnabled = true

	outcomes := table.New(
		table.WithColumns(outcomeColumns()),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("#7dcfff")).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#ff9e64")).Bold(true)
	outcomes.SetStyles(styles)

	return Model{
		ctx:      ctx,
		factorer: f,
		n:        n,
		spinner:  sp,
		summary:  summary,
		program:  program,
		outcomes: outcomes,
		active:   tabSummary,
		running:  true,
	}
}

// factorCmd runs the pipeline off the UI goroutine.
func (m Model) factorCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.factorer.Factor(m.ctx, m.n)
		return factoredMsg{result: res, err: err}
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.factorCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case factoredMsg:
		m.running = false
		m.result = msg.result
		m.err = msg.err
		m.fill()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = m.active.next()
			return m, nil
		case "shift+tab", "left", "h":
			m.active = m.active.prev()
			return m, nil
		}
		if t, ok := tabForKey(key); ok {
			m.active = t
			return m, nil
		}

		var cmd tea.Cmd
		switch m.active {
		case tabSummary:
			m.summary, cmd = m.summary.Update(msg)
		case tabProgram:
			m.program, cmd = m.program.Update(msg)
		case tabOutcomes:
			m.outcomes, cmd = m.outcomes.Update(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.active {
	case tabSummary:
		m.summary, cmd = m.summary.Update(msg)
	case tabProgram:
		m.program, cmd = m.program.Update(msg)
	}
	return m, cmd
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height

	bodyW := max(width-4, 10)
	bodyH := max(height-tabBarH-helpBarH-4, 3)
	m.summary.Width = bodyW
	m.summary.Height = bodyH
	m.program.Width = bodyW
	m.program.Height = bodyH
	m.outcomes.SetWidth(bodyW)
	m.outcomes.SetHeight(bodyH)

	m.fill()
}

// fill renders the finished run into the tab bodies.
func (m *Model) fill() {
	if m.running {
		return
	}
	m.summary.SetContent(renderSummary(m.n, m.result, m.err, m.summary.Width))
	m.program.SetContent(renderProgram(m.result))
	m.outcomes.SetRows(outcomeRows(m.result))
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch m.active {
	case tabSummary:
		body = m.summary.View()
	case tabProgram:
		body = m.program.View()
	case tabOutcomes:
		body = m.outcomes.View()
	}

	bodyPanel := panelStyle.Width(m.width - 2).Render(body)
	frame := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabBar(),
		bodyPanel,
		m.renderHelpPanel(m.width-4),
	)

	if m.running {
		frame = overlayAt(frame, m.renderProgress(), 4, tabBarH+2)
	}
	return frame
}
