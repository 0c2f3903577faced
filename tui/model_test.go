package tui

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-detector/vpn"
)

// countingChecker returns a fixed result and counts detections.
type countingChecker struct {
	mu     sync.Mutex
	calls  int
	result vpn.Result
}

func (c *countingChecker) Detect(context.Context) vpn.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.result
}

func (c *countingChecker) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func resultWith(status vpn.Status) vpn.Result {
	return vpn.Result{
		Status: status,
		Probes: []vpn.ProbeResult{
			{Probe: vpn.ProbeInterfaces, Verdict: vpn.VerdictActive, Evidence: "wg0"},
			{Probe: vpn.ProbeConnections, Verdict: vpn.VerdictInactive},
			{Probe: vpn.ProbeRoutes, Verdict: vpn.VerdictUnknown, Detail: "routing table unavailable"},
		},
	}
}

func newTestModel(interval time.Duration) (Model, *countingChecker) {
	checker := &countingChecker{result: resultWith(vpn.StatusActive)}
	monitor := vpn.NewMonitor(checker, vpn.MonitorConfig{Interval: interval})
	return New(context.Background(), Config{Monitor: monitor, Identity: "203.0.113.7"}), checker
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestNew_WaitsForFirstCheck(t *testing.T) {
	m, checker := newTestModel(time.Minute)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Running first check")
	assert.Contains(t, m.View(), "203.0.113.7")
	assert.Zero(t, checker.Calls(), "the model never starts checks on its own")
}

func TestModel_CheckMessages(t *testing.T) {
	m, _ := newTestModel(time.Minute)
	at := time.Now()

	m, cmd := update(t, m, checkMsg(vpn.Check{Time: at, Result: resultWith(vpn.StatusInactive), Previous: vpn.StatusInactive}))
	assert.Nil(t, cmd, "results never schedule further checks")
	require.NotNil(t, m.result)
	assert.Equal(t, vpn.StatusInactive, m.result.Status)
	assert.Equal(t, at, m.lastAt)
	assert.Equal(t, 1, m.checks)
	assert.Zero(t, m.changes)

	m, cmd = update(t, m, checkMsg(vpn.Check{Time: at, Result: resultWith(vpn.StatusActive), Previous: vpn.StatusInactive, Changed: true}))
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.checks)
	assert.Equal(t, 1, m.changes)

	view := m.View()
	assert.Contains(t, view, "VPN Status: Active")
	assert.Contains(t, view, "1 change(s)")
	assert.Contains(t, view, "every 1m0s · 2 checks")
}

func TestModel_Refresh(t *testing.T) {
	m, checker := newTestModel(time.Minute)
	m, _ = update(t, m, checkMsg(vpn.Check{Time: time.Now(), Result: resultWith(vpn.StatusActive)}))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	assert.True(t, m.refreshing)
	assert.Contains(t, m.View(), "checking...")

	m, again := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Nil(t, again, "no second refresh while one is running")

	assert.Equal(t, refreshDoneMsg{}, cmd())
	assert.Equal(t, 1, checker.Calls())
	_, recorded := m.monitor.Last()
	assert.True(t, recorded, "the refresh is recorded by the monitor")

	m, cmd = update(t, m, refreshDoneMsg{})
	assert.Nil(t, cmd)
	assert.False(t, m.refreshing)
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		m, _ := newTestModel(time.Minute)
		m, cmd := update(t, m, key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
		assert.True(t, m.quitting)
		assert.Empty(t, m.View())
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(time.Minute)
	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.Equal(t, 80, m.width)
}

func TestModel_ViewWrapsEvidence(t *testing.T) {
	m, _ := newTestModel(time.Minute)
	result := resultWith(vpn.StatusActive)
	result.Probes[1] = vpn.ProbeResult{Probe: vpn.ProbeConnections, Verdict: vpn.VerdictActive, Evidence: "udp 0.0.0.0:51820 (wireguard)"}
	m, _ = update(t, m, checkMsg(vpn.Check{Time: time.Now(), Result: result}))

	wide := m.View()
	assert.Contains(t, wide, "udp 0.0.0.0:51820 (wireguard)")
	assert.Contains(t, wide, "Interface scan")
	assert.Contains(t, wide, "checked now")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 24})
	narrow := m.View()
	assert.NotContains(t, narrow, "udp 0.0.0.0:51820 (wireguard)")
	assert.Contains(t, narrow, "udp 0.0.0.0:5")
}

func TestRun_RefreshKeepsSchedule(t *testing.T) {
	const (
		interval = 50 * time.Millisecond
		runtime  = 600 * time.Millisecond
		presses  = 4
	)

	checker := &countingChecker{result: resultWith(vpn.StatusActive)}
	monitor := vpn.NewMonitor(checker, vpn.MonitorConfig{Interval: interval})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := newProgram(ctx, Config{Monitor: monitor},
		tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer(), tea.WithoutSignalHandler())

	start := time.Now()
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, p, monitor) }()

	require.Eventually(t, func() bool { return checker.Calls() > 0 }, 2*time.Second, 5*time.Millisecond)
	for i := 0; i < presses; i++ {
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
		time.Sleep(30 * time.Millisecond)
	}
	time.Sleep(runtime - time.Since(start))
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("program did not exit on cancellation")
	}
	elapsed := time.Since(start)

	// One check at start, one per tick, at most one per key press.
	limit := 1 + int(elapsed/interval) + presses
	assert.LessOrEqual(t, checker.Calls(), limit)
	assert.Greater(t, checker.Calls(), 1)
}
