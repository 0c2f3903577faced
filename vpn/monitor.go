package vpn

import (
	"context"
	"sync"
	"time"

	"github.com/yllada/vpn-detector/common"
)

// MonitorConfig holds configuration for the monitor.
type MonitorConfig struct {
	// Interval is how often detection re-runs.
	Interval time.Duration
}

// DefaultMonitorConfig returns the default monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{Interval: common.WatchInterval}
}

// Check is one detection run performed by the monitor.
type Check struct {
	Time   time.Time
	Result Result
	// Changed is true when the status differs from the previous check.
	// The first check never counts as a change.
	Changed  bool
	Previous Status
}

// Monitor re-runs detection periodically and reports status transitions.
// Only the latest check is kept in memory.
type Monitor struct {
	mu             sync.RWMutex
	config         MonitorConfig
	detect         func(ctx context.Context) Result
	running        bool
	stopChan       chan struct{}
	doneChan       chan struct{}
	last           *Check
	onCheck        func(Check)
	onStatusChange func(old, new Status, result Result)
}

// Checker runs one detection. *Detector implements it.
type Checker interface {
	Detect(ctx context.Context) Result
}

// NewMonitor creates a monitor driven by the given checker.
func NewMonitor(checker Checker, config MonitorConfig) *Monitor {
	return newMonitor(checker.Detect, config)
}

func newMonitor(detect func(ctx context.Context) Result, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = common.WatchInterval
	}
	return &Monitor{
		config: config,
		detect: detect,
	}
}

// SetOnCheck sets a callback invoked after every check.
func (m *Monitor) SetOnCheck(callback func(Check)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCheck = callback
}

// SetOnStatusChange sets a callback for status transitions.
func (m *Monitor) SetOnStatusChange(callback func(old, new Status, result Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatusChange = callback
}

// Start begins the monitoring loop. The first check runs immediately.
// The loop ends on Stop or when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	stop, done := m.stopChan, m.doneChan
	interval := m.config.Interval
	m.mu.Unlock()

	common.LogInfo("Monitor started (interval: %v)", interval)

	go m.runLoop(ctx, stop, done)
}

// Stop stops the monitoring loop and waits for an in-flight check to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	done := m.doneChan
	m.mu.Unlock()

	<-done
	common.LogInfo("Monitor stopped")
}

// Done returns a channel closed when the current loop exits, or nil if the
// monitor was never started.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doneChan
}

// Interval returns the time between automatic checks.
func (m *Monitor) Interval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Interval
}

// Last returns a copy of the latest check.
func (m *Monitor) Last() (Check, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Check{}, false
	}
	return *m.last, true
}

func (m *Monitor) runLoop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.CheckNow(ctx)

	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
			common.GetLogger().CheckRotation()
		}
	}
}

// CheckNow runs one detection synchronously, records it and fires the
// callbacks. A detection interrupted by ctx is discarded: its probes saw a
// cancelled context, not the network, so nothing is recorded or reported and
// ctx.Err() is returned.
func (m *Monitor) CheckNow(ctx context.Context) (Check, error) {
	result := m.detect(ctx)
	if err := ctx.Err(); err != nil {
		common.LogDebug("Discarding check interrupted by %v", err)
		return Check{}, err
	}

	m.mu.Lock()
	check := Check{Time: time.Now(), Result: result}
	if m.last != nil {
		check.Previous = m.last.Result.Status
		check.Changed = check.Previous != result.Status
	} else {
		check.Previous = result.Status
	}
	m.last = &check
	onCheck := m.onCheck
	onChange := m.onStatusChange
	m.mu.Unlock()

	if check.Changed {
		common.LogInfo("VPN status changed: %s -> %s", check.Previous, result.Status)
		if onChange != nil {
			onChange(check.Previous, result.Status, result)
		}
	}
	if onCheck != nil {
		onCheck(check)
	}
	return check, nil
}
