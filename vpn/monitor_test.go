package vpn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDetect returns the given statuses in order, repeating the last one.
func scriptedDetect(statuses ...Status) func(context.Context) Result {
	var mu sync.Mutex
	i := 0
	return func(context.Context) Result {
		mu.Lock()
		defer mu.Unlock()
		s := statuses[i]
		if i < len(statuses)-1 {
			i++
		}
		return Result{Status: s}
	}
}

func TestDefaultMonitorConfig(t *testing.T) {
	config := DefaultMonitorConfig()

	if config.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", config.Interval)
	}
}

func TestMonitor_CheckNowTransitions(t *testing.T) {
	m := newMonitor(scriptedDetect(StatusInactive, StatusInactive, StatusActive, StatusUnknown), MonitorConfig{})

	type change struct{ old, new Status }
	var changes []change
	m.SetOnStatusChange(func(old, new Status, _ Result) {
		changes = append(changes, change{old, new})
	})
	checks := 0
	m.SetOnCheck(func(Check) { checks++ })

	_, ok := m.Last()
	assert.False(t, ok)

	ctx := context.Background()
	first, err := m.CheckNow(ctx)
	require.NoError(t, err)
	assert.False(t, first.Changed, "first check is never a change")

	second, err := m.CheckNow(ctx)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	third, err := m.CheckNow(ctx)
	require.NoError(t, err)
	assert.True(t, third.Changed)
	assert.Equal(t, StatusInactive, third.Previous)
	_, err = m.CheckNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, []change{
		{StatusInactive, StatusActive},
		{StatusActive, StatusUnknown},
	}, changes)
	assert.Equal(t, 4, checks)

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, StatusUnknown, last.Result.Status)
}

func TestMonitor_StartStop(t *testing.T) {
	m := newMonitor(scriptedDetect(StatusInactive), MonitorConfig{Interval: 10 * time.Millisecond})
	assert.Nil(t, m.Done(), "no loop before Start")

	checked := make(chan struct{}, 16)
	m.SetOnCheck(func(Check) {
		select {
		case checked <- struct{}{}:
		default:
		}
	})

	m.Start(context.Background())
	done := m.Done()
	m.Start(context.Background()) // second start is a no-op
	assert.Equal(t, done, m.Done())

	for i := 0; i < 2; i++ {
		select {
		case <-checked:
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not run a check")
		}
	}

	m.Stop()
	select {
	case <-done:
	default:
		t.Fatal("Stop returned before the loop exited")
	}
	m.Stop() // idempotent
}

func TestMonitor_ContextCancelEndsLoop(t *testing.T) {
	m := newMonitor(scriptedDetect(StatusActive), MonitorConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	done := m.Done()
	require.NotNil(t, done)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on cancellation")
	}
	m.Stop() // no-op after the loop ended on its own
}

func TestMonitor_InterruptedCheckIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	statuses := []Status{StatusActive, StatusUnknown}
	calls := 0
	m := newMonitor(func(context.Context) Result {
		s := statuses[calls]
		calls++
		if s == StatusUnknown {
			// The signal lands while detection is running.
			cancel()
		}
		return Result{Status: s}
	}, MonitorConfig{})

	var changes, checks int
	m.SetOnStatusChange(func(Status, Status, Result) { changes++ })
	m.SetOnCheck(func(Check) { checks++ })

	_, err := m.CheckNow(ctx)
	require.NoError(t, err)

	_, err = m.CheckNow(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, changes, "no transition reported for an interrupted check")
	assert.Equal(t, 1, checks)

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, StatusActive, last.Result.Status)
}

func TestMonitor_Interval(t *testing.T) {
	assert.Equal(t, DefaultMonitorConfig().Interval, newMonitor(scriptedDetect(StatusUnknown), MonitorConfig{Interval: -1}).Interval())
	assert.Equal(t, time.Minute, newMonitor(scriptedDetect(StatusUnknown), MonitorConfig{Interval: time.Minute}).Interval())
}

func TestNewMonitor_UsesDetector(t *testing.T) {
	m := NewMonitor(newTestDetector(vpnRunner()), DefaultMonitorConfig())
	check, err := m.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, check.Result.Status)
}
