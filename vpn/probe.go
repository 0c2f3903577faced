package vpn

import (
	"context"
	"fmt"
	"strings"
)

// ProbeKind identifies one of the fixed local probes.
type ProbeKind int

const (
	ProbeInterfaces ProbeKind = iota
	ProbeConnections
	ProbeRoutes
)

// AllProbes lists every probe in report order.
var AllProbes = []ProbeKind{ProbeInterfaces, ProbeConnections, ProbeRoutes}

// String returns the stable probe name.
func (k ProbeKind) String() string {
	switch k {
	case ProbeInterfaces:
		return "interfaces"
	case ProbeConnections:
		return "connections"
	case ProbeRoutes:
		return "routes"
	default:
		return fmt.Sprintf("probe(%d)", int(k))
	}
}

// Title returns the label used in console output.
func (k ProbeKind) Title() string {
	switch k {
	case ProbeInterfaces:
		return "Interface scan"
	case ProbeConnections:
		return "Connection scan"
	case ProbeRoutes:
		return "Routing scan"
	default:
		return k.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ProbeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ProbeKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for _, kind := range AllProbes {
		if kind.String() == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown probe %q", string(text))
}

// FailureVerdict is the verdict a probe reports when none of its sources
// could be read. A failed socket enumeration counts as no evidence found;
// failed interface or route reads mean nothing is known.
func (k ProbeKind) FailureVerdict() Verdict {
	switch k {
	case ProbeConnections:
		return VerdictInactive
	default:
		return VerdictUnknown
	}
}

// toolCommand is one OS tool a probe can read from.
type toolCommand struct {
	name string
	args []string
}

func (c toolCommand) String() string {
	return commandLine(c.name, c.args...)
}

// firstOutput runs the commands in order and returns the output of the first
// one that succeeds. failures collects one line per failed command.
func (d *Detector) firstOutput(ctx context.Context, kind ProbeKind, cmds []toolCommand) (toolCommand, []byte, []string) {
	var failures []string
	for _, c := range cmds {
		out, err := d.runner.Run(ctx, c.name, c.args...)
		if err == nil {
			return c, out, failures
		}
		d.logger.Debug("%s probe: %s failed: %v", kind, c, err)
		failures = append(failures, fmt.Sprintf("%s: %v", c.name, err))
	}
	return toolCommand{}, nil, failures
}

// ProbeTools returns the external tools a probe tries, in order.
func ProbeTools(kind ProbeKind) []string {
	var cmds []toolCommand
	switch kind {
	case ProbeInterfaces:
		cmds = interfaceSources
	case ProbeConnections:
		cmds = connectionSources
	case ProbeRoutes:
		cmds = routeSources
	}
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.name
	}
	return names
}
