// Package tui implements the interactive watch screen.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/vpn-detector/vpn"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")) // Dimmed Gray

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	changeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)
)

// Config configures the watch screen.
type Config struct {
	// Monitor runs the checks. Run starts it and stops it when the screen
	// closes; status-change callbacks stay with the caller. Required.
	Monitor *vpn.Monitor
	// Identity is an optional header line, such as the public IP.
	Identity string
}

// Model is the bubbletea model for watch mode. It only renders checks made
// by the monitor; "r" asks the monitor for an extra one.
type Model struct {
	ctx     context.Context
	config  Config
	monitor *vpn.Monitor

	spinner    spinner.Model
	refreshing bool

	result  *vpn.Result
	lastAt  time.Time
	changes int
	checks  int

	width    int
	quitting bool
}

// New creates the watch model.
func New(ctx context.Context, config Config) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = headerStyle

	return Model{
		ctx:     ctx,
		config:  config,
		monitor: config.Monitor,
		spinner: s,
	}
}

// Run starts the monitor and the program and blocks until the user quits or
// ctx ends.
func Run(ctx context.Context, config Config) error {
	return run(ctx, newProgram(ctx, config, tea.WithAltScreen()), config.Monitor)
}

func newProgram(ctx context.Context, config Config, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	return tea.NewProgram(New(ctx, config), opts...)
}

func run(ctx context.Context, p *tea.Program, monitor *vpn.Monitor) error {
	monitor.SetOnCheck(func(check vpn.Check) {
		p.Send(checkMsg(check))
	})
	monitor.Start(ctx)
	defer monitor.Stop()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
