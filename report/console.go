package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/vpn-detector/vpn"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5fd75f")) // Green
	inactiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d7875f")) // Orange
	unknownStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d7d75f")) // Yellow
)

// Options controls console rendering.
type Options struct {
	// Color enables ANSI styling.
	Color bool
	// Verbose adds the per-probe table.
	Verbose bool
}

// StatusStyle returns the style used for a status value.
func StatusStyle(s vpn.Status) lipgloss.Style {
	switch s {
	case vpn.StatusActive:
		return activeStyle
	case vpn.StatusInactive:
		return inactiveStyle
	default:
		return unknownStyle
	}
}

// VerdictStyle returns the style used for a probe verdict.
func VerdictStyle(v vpn.Verdict) lipgloss.Style {
	switch v {
	case vpn.VerdictActive:
		return activeStyle
	case vpn.VerdictInactive:
		return inactiveStyle
	default:
		return unknownStyle
	}
}

// Render writes the human-readable report.
//
//	IP Address: 203.0.113.7
//	Location:   52.3740,4.8897 (Amsterdam, North Holland, NL)
//	VPN Status: Active
func Render(w io.Writer, r *Report, opts Options) error {
	paint := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", paint(labelStyle, fmt.Sprintf("%-11s", label+":")), value)
	}

	if id := r.Identity; id != nil {
		line("IP Address", id.IP)
		line("Location", location(id))
		if id.Org != "" {
			line("Network", id.Org)
		}
		if opts.Verbose && id.Hostname != "" {
			line("Hostname", id.Hostname)
		}
	}
	line("VPN Status", paint(StatusStyle(r.Status), r.Status.Title()))

	if opts.Verbose {
		b.WriteString("\n")
		if err := writeProbeTable(&b, r.Probes); err != nil {
			return err
		}
		fmt.Fprintf(&b, "\n%s\n", paint(dimStyle, "run "+r.RunID+" at "+r.CheckedAt.Format("2006-01-02 15:04:05Z07:00")))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func location(id *Identity) string {
	var parts []string
	for _, p := range []string{id.City, id.Region, id.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return id.Location
	}
	return fmt.Sprintf("%s (%s)", id.Location, strings.Join(parts, ", "))
}

func writeProbeTable(out io.Writer, probes []vpn.ProbeResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBE\tVERDICT\tSOURCE\tDURATION\tEVIDENCE")
	fmt.Fprintln(w, "-----\t-------\t------\t--------\t--------")

	for _, p := range probes {
		source := p.Source
		if source == "" {
			source = "-"
		}
		evidence := p.Evidence
		if evidence == "" {
			evidence = p.Detail
		}
		if evidence == "" {
			evidence = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Probe.Title(), p.Verdict, source, p.Duration.Round(100*time.Microsecond), evidence)
	}

	return w.Flush()
}
