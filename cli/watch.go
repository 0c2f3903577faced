package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-detector/common"
	"github.com/yllada/vpn-detector/ipinfo"
	"github.com/yllada/vpn-detector/report"
	"github.com/yllada/vpn-detector/tui"
	"github.com/yllada/vpn-detector/vpn"
)

type watchOptions struct {
	Interval time.Duration
	Notify   bool
	Headless bool
	Count    int
}

func newWatchCmd(a *app) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check periodically and report status changes",
		Long: `watch re-runs detection on an interval. On a terminal it shows a live
screen; otherwise, or with --headless, it prints one JSON line per check.

Only the previous status is kept in memory, to detect changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				opts.Interval = a.cfg.WatchInterval
			}
			if opts.Interval < common.MinWatchInterval {
				return fmt.Errorf("--interval must be at least %v", common.MinWatchInterval)
			}
			if !cmd.Flags().Changed("notify") {
				opts.Notify = a.cfg.Notifications
			}
			return a.runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", common.WatchInterval, "Time between checks")
	cmd.Flags().BoolVar(&opts.Notify, "notify", false, "Send a desktop notification when the status changes")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "Print JSON lines even on a terminal")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "Stop after this many checks (headless only, 0 = forever)")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, opts *watchOptions) error {
	ctx := cmd.Context()

	var info *ipinfo.Info
	if !a.opts.Offline {
		var err error
		info, err = a.newLookup(a.cfg, a.token()).Lookup(ctx)
		if err != nil {
			return err
		}
	}

	onChange := func(old, new vpn.Status, _ vpn.Result) {}
	if opts.Notify {
		notifier := a.newNotifier()
		onChange = func(old, new vpn.Status, _ vpn.Result) {
			if err := notifier.NotifyStatusChange(old, new); err != nil {
				common.LogWarn("Notification failed: %v", err)
			}
		}
	}

	monitor := vpn.NewMonitor(a.newDetector(a.cfg), vpn.MonitorConfig{Interval: opts.Interval})
	monitor.SetOnStatusChange(onChange)
	out := cmd.OutOrStdout()

	if !opts.Headless && opts.Count == 0 && a.isTerminal(out) {
		return tui.Run(ctx, tui.Config{Monitor: monitor, Identity: identityLine(info)})
	}

	// finished is signalled once the last wanted line is written or writing
	// fails. The loop cannot stop itself from inside its own callback.
	finished := make(chan struct{}, 1)
	var (
		mu       sync.Mutex
		checks   int
		writeErr error
	)
	monitor.SetOnCheck(func(check vpn.Check) {
		mu.Lock()
		defer mu.Unlock()
		if writeErr != nil || (opts.Count > 0 && checks >= opts.Count) {
			return
		}
		line, err := report.ToLine(report.New(info, check.Result))
		if err == nil {
			_, err = fmt.Fprintln(out, line)
		}
		if err != nil {
			writeErr = err
		} else {
			checks++
		}
		if err != nil || (opts.Count > 0 && checks >= opts.Count) {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	})

	monitor.Start(ctx)
	select {
	case <-finished:
		monitor.Stop()
	case <-monitor.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	if last, ok := monitor.Last(); ok {
		common.LogInfo("Watch ended after %d checks, last status %s", checks, last.Result.Status)
	}
	return writeErr
}

func identityLine(info *ipinfo.Info) string {
	if info == nil {
		return ""
	}
	return fmt.Sprintf("%s · %s", info.IP, info.Place())
}
