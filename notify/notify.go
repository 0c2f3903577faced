// Package notify sends desktop notifications when the detected VPN status
// changes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/vpn-detector/common"
	"github.com/yllada/vpn-detector/vpn"
)

// Urgency follows the freedesktop notification spec levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Icon    string
	Urgency Urgency
}

// Backend delivers a notification. replaces is the ID of the previous
// notification to update in place, or 0; the returned ID is 0 when the
// backend cannot replace notifications.
type Backend interface {
	Name() string
	Send(n Notification, replaces uint32) (uint32, error)
}

// Notifier sends through the first working backend. Consecutive status
// notifications replace each other instead of piling up.
type Notifier struct {
	mu       sync.Mutex
	backends []Backend
	lastID   uint32
}

// New returns a Notifier using D-Bus with a notify-send fallback.
func New() *Notifier {
	return NewWithBackends(&DBusBackend{}, &CommandBackend{})
}

// NewWithBackends returns a Notifier trying backends in order.
func NewWithBackends(backends ...Backend) *Notifier {
	return &Notifier{backends: backends}
}

// Send delivers n through the first backend that accepts it.
func (n *Notifier) Send(note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	for _, b := range n.backends {
		id, err := b.Send(note, n.lastID)
		if err == nil {
			n.lastID = id
			return nil
		}
		common.LogDebug("Notification via %s failed: %v", b.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	if len(errs) == 0 {
		return errors.New("no notification backend configured")
	}
	return errors.Join(errs...)
}

// NotifyStatusChange sends the notification for a status transition.
func (n *Notifier) NotifyStatusChange(old, new vpn.Status) error {
	return n.Send(StatusMessage(old, new))
}

// StatusMessage builds the notification shown for a status transition.
func StatusMessage(old, new vpn.Status) Notification {
	switch new {
	case vpn.StatusActive:
		return Notification{
			Title:   "VPN detected",
			Message: "Traffic appears to be routed through a VPN.",
			Icon:    "network-vpn",
			Urgency: UrgencyNormal,
		}
	case vpn.StatusInactive:
		note := Notification{
			Title:   "No VPN detected",
			Message: "Traffic is leaving through the regular connection.",
			Icon:    "network-vpn-disconnected",
			Urgency: UrgencyNormal,
		}
		if old == vpn.StatusActive {
			note.Title = "VPN lost"
			note.Message = "The VPN is no longer detected. " + note.Message
			note.Urgency = UrgencyCritical
		}
		return note
	default:
		return Notification{
			Title:   "VPN status uncertain",
			Message: fmt.Sprintf("Probes no longer agree (was %s).", old),
			Icon:    "dialog-warning",
			Urgency: UrgencyLow,
		}
	}
}

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod      = notificationsDest + ".Notify"
)

// DBusBackend calls org.freedesktop.Notifications on the session bus.
// The connection is opened on first use and kept.
type DBusBackend struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func (b *DBusBackend) Name() string { return "dbus" }

func (b *DBusBackend) Send(n Notification, replaces uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return 0, err
		}
		b.conn = conn
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}
	obj := b.conn.Object(notificationsDest, notificationsPath)
	call := obj.Call(notifyMethod, 0,
		common.AppName, replaces, n.Icon, n.Title, n.Message,
		[]string{}, hints, int32(-1))
	if call.Err != nil {
		_ = b.conn.Close()
		b.conn = nil
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Close releases the bus connection.
func (b *DBusBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// CommandBackend shells out to notify-send.
type CommandBackend struct{}

func (CommandBackend) Name() string { return "notify-send" }

func (CommandBackend) Send(n Notification, _ uint32) (uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// #nosec G204 -- fixed binary, arguments are passed without a shell
	cmd := exec.CommandContext(ctx, "notify-send", commandArgs(n)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return 0, nil
}

func commandArgs(n Notification) []string {
	args := []string{
		"--app-name=" + common.AppName,
		"--urgency=" + n.Urgency.String(),
	}
	if n.Icon != "" {
		args = append(args, "--icon="+n.Icon)
	}
	return append(args, n.Title, n.Message)
}
