package vpn

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yllada/vpn-detector/common"
)

// Runner executes an external inspection tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs real binaries, each bounded by Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner with the given per-command timeout.
// A non-positive timeout selects common.CommandTimeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = common.CommandTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args. A binary missing from PATH yields
// common.ErrToolUnavailable and an expired deadline yields common.ErrTimeout.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrToolUnavailable, name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// The binary and arguments are fixed by the probes, never user input.
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s after %v", common.ErrTimeout, name, strings.Join(args, " "), r.Timeout)
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// commandLine formats a tool invocation for diagnostics.
func commandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
