package vpn

import (
	"fmt"
	"strings"
	"time"
)

// Verdict is the tri-state outcome of one probe invocation.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictActive
	VerdictInactive
)

var verdictNames = map[Verdict]string{
	VerdictUnknown:  "unknown",
	VerdictActive:   "active",
	VerdictInactive: "inactive",
}

// String returns the stable lowercase name used in machine-readable output.
func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for verdict, name := range verdictNames {
		if name == s {
			*v = verdict
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", string(text))
}

// Status is the aggregate tri-state returned to the caller after voting.
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusInactive
)

// String returns the stable lowercase name used in machine-readable output.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Title returns the human-readable form for console output.
func (s Status) Title() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "active":
		*s = StatusActive
	case "inactive":
		*s = StatusInactive
	case "unknown":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}

// ProbeResult pairs a verdict with the probe that produced it plus the
// diagnostics gathered on the way. It is never mutated after the probe returns.
type ProbeResult struct {
	Probe   ProbeKind `json:"probe"`
	Verdict Verdict   `json:"verdict"`
	// Source is the tool or backend that answered, empty when none did.
	Source string `json:"source,omitempty"`
	// Evidence is the interface, port or route that matched.
	Evidence string `json:"evidence,omitempty"`
	// Detail explains a fallback verdict.
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the outcome of one detection run.
type Result struct {
	Status Status        `json:"status"`
	Probes []ProbeResult `json:"probes"`
}

// Verdicts returns the probe verdicts in probe order.
func (r Result) Verdicts() []Verdict {
	out := make([]Verdict, len(r.Probes))
	for i, p := range r.Probes {
		out[i] = p.Verdict
	}
	return out
}
