package vpn

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yllada/vpn-detector/common"
)

// Detector runs the local probes and aggregates their verdicts.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	runner  Runner
	sigs    Signatures
	sockets SocketLister
	logger  common.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithSocketLister sets the tool-free socket source used by the connection
// probe after ss and netstat. Passing nil disables it.
func WithSocketLister(fn SocketLister) Option {
	return func(d *Detector) { d.sockets = fn }
}

// WithLogger replaces the default application logger.
func WithLogger(l common.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// NewDetector creates a Detector reading OS state through runner.
func NewDetector(runner Runner, sigs Signatures, opts ...Option) *Detector {
	d := &Detector{
		runner:  runner,
		sigs:    sigs,
		sockets: ListSocketsNative,
		logger:  common.GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Probe runs a single probe. It always returns a verdict: tooling failures
// become the probe's FailureVerdict.
func (d *Detector) Probe(ctx context.Context, kind ProbeKind) ProbeResult {
	start := time.Now()

	var res ProbeResult
	switch kind {
	case ProbeInterfaces:
		res = d.scanInterfaces(ctx)
	case ProbeConnections:
		res = d.scanConnections(ctx)
	case ProbeRoutes:
		res = d.scanRoutes(ctx)
	default:
		res = ProbeResult{Probe: kind, Verdict: VerdictUnknown, Detail: fmt.Sprintf("unsupported probe %d", int(kind))}
	}

	res.Duration = time.Since(start)
	d.logger.Debug("%s probe: %s via %q in %v", kind, res.Verdict, res.Source, res.Duration)
	return res
}

// Detect runs every probe concurrently, waits for all of them and applies
// the voting policy. Probe results are returned in AllProbes order.
func (d *Detector) Detect(ctx context.Context) Result {
	results := make([]ProbeResult, len(AllProbes))

	var g errgroup.Group
	for i, kind := range AllProbes {
		i, kind := i, kind
		g.Go(func() error {
			results[i] = d.Probe(ctx, kind)
			return nil
		})
	}
	// Probes never fail; Wait is only the join point.
	_ = g.Wait()

	result := Result{Status: Aggregate(results), Probes: results}
	d.logger.Info("detection finished: %s %v", result.Status, result.Verdicts())
	return result
}
