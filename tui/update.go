package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/vpn-detector/vpn"
)

// checkMsg carries a check recorded by the monitor.
type checkMsg vpn.Check

// refreshDoneMsg ends a check requested with "r".
type refreshDoneMsg struct{}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// refresh runs an extra check outside the monitor's schedule. Its result
// reaches the model through the monitor like any other check.
func (m Model) refresh() tea.Cmd {
	ctx, monitor := m.ctx, m.monitor
	return func() tea.Msg {
		_, _ = monitor.CheckNow(ctx)
		return refreshDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refresh()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case checkMsg:
		m.checks++
		if msg.Changed {
			m.changes++
		}
		result := msg.Result
		m.result = &result
		m.lastAt = msg.Time
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}
