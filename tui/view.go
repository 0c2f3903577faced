package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wrap"

	"github.com/yllada/vpn-detector/report"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("vpn-detector watch"))
	if m.config.Identity != "" {
		b.WriteString("  " + dimStyle.Render(m.config.Identity))
	}
	b.WriteString("\n\n")

	switch {
	case m.result == nil:
		b.WriteString(m.spinner.View() + " Running first check...\n")
	default:
		status := report.StatusStyle(m.result.Status).Render(m.result.Status.Title())
		b.WriteString(headerStyle.Render("VPN Status: ") + status)
		if m.changes > 0 {
			b.WriteString("  " + changeStyle.Render(fmt.Sprintf("%d change(s)", m.changes)))
		}
		b.WriteString("\n\n")
		b.WriteString(m.probeTable())
		b.WriteString("\n")

		last := "checked " + humanize.Time(m.lastAt)
		if m.refreshing {
			last = m.spinner.View() + " checking..."
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s · every %s · %d checks", last, m.monitor.Interval(), m.checks)))
		b.WriteString("\n")
	}

	help := "r: check now • q: quit"
	footer := footerStyle
	if m.width > 4 {
		footer = footer.Width(m.width - 2)
	}
	b.WriteString(footer.Render(help))
	return b.String()
}

func (m Model) probeTable() string {
	const nameWidth, verdictWidth = 17, 10

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s%-*s%s", nameWidth, "PROBE", verdictWidth, "VERDICT", "EVIDENCE")))
	b.WriteString("\n")
	for _, p := range m.result.Probes {
		evidence := p.Evidence
		if evidence == "" {
			evidence = p.Detail
		}
		if room := m.width - nameWidth - verdictWidth; room > 10 {
			evidence = wrap.String(evidence, room)
		}
		verdict := report.VerdictStyle(p.Verdict).Width(verdictWidth).Render(p.Verdict.String())
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(nameWidth).Render(p.Probe.Title()),
			verdict,
			dimStyle.Render(evidence),
		)
		b.WriteString(row + "\n")
	}
	return b.String()
}
