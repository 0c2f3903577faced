package vpn

import (
	"context"
	"fmt"
	"sync"

	"github.com/yllada/vpn-detector/common"
)

// fakeRunner answers tool invocations from canned output keyed by the full
// command line. Unknown commands behave like a missing binary.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) set(cmdline, out string) *fakeRunner {
	f.outputs[cmdline] = out
	return f
}

func (f *fakeRunner) fail(cmdline string, err error) *fakeRunner {
	f.errs[cmdline] = err
	return f
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := commandLine(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[line]; ok {
		return nil, err
	}
	if out, ok := f.outputs[line]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrToolUnavailable, name)
}

func (f *fakeRunner) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// nopLogger discards detector logging in tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// newTestDetector builds a detector over r with no native socket fallback.
func newTestDetector(r Runner, opts ...Option) *Detector {
	base := []Option{WithSocketLister(nil), WithLogger(nopLogger{})}
	return NewDetector(r, DefaultSignatures(), append(base, opts...)...)
}

const (
	cmdIPLink   = "ip -o link show up"
	cmdIfconfig = "ifconfig"
	cmdSS       = "ss -tuan"
	cmdNetstat  = "netstat -an"
	cmdIPRoute  = "ip route show table all"
	cmdNetRoute = "netstat -rn"
)
