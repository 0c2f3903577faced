package vpn

import (
	"bufio"
	"bytes"
	"context"
	"strings"
)

// routeSources are tried in order until one prints the routing table.
// "table all" includes the policy tables wg-quick installs its default into.
var routeSources = []toolCommand{
	{name: "ip", args: []string{"route", "show", "table", "all"}},
	{name: "netstat", args: []string{"-rn"}},
}

// Destinations of the two /1 routes that together override the default
// route without replacing it.
var (
	lowerHalfDestinations = []string{"0.0.0.0/1", "0/1", "::/1"}
	upperHalfDestinations = []string{"128.0.0.0/1", "128.0/1", "128/1", "8000::/1"}
)

type halfRoute int

const (
	notHalf halfRoute = iota
	lowerHalf
	upperHalf
)

// scanRoutes looks for routes through a tunnel device or for the split
// default-route signature.
func (d *Detector) scanRoutes(ctx context.Context) ProbeResult {
	res := ProbeResult{Probe: ProbeRoutes}

	src, out, failures := d.firstOutput(ctx, ProbeRoutes, routeSources)
	if src.name == "" {
		res.Verdict = ProbeRoutes.FailureVerdict()
		res.Detail = "routing table unavailable (" + strings.Join(failures, "; ") + ")"
		return res
	}
	res.Source = src.String()

	if evidence, ok := matchRoutes(out, d.sigs.Routes); ok {
		res.Verdict = VerdictActive
		res.Evidence = evidence
		d.logger.Debug("routes probe: %s", evidence)
		return res
	}
	res.Verdict = VerdictInactive
	return res
}

// matchRoutes reports the first tunnel route, or the split default-route
// pair when both halves are present.
func matchRoutes(out []byte, keywords KeywordSet) (string, bool) {
	var lower, upper bool

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := keywords.Match(line); ok {
			return line, true
		}
		switch classifyHalfRoute(strings.Fields(line)) {
		case lowerHalf:
			lower = true
		case upperHalf:
			upper = true
		}
	}

	if lower && upper {
		return "split default route (0.0.0.0/1 + 128.0.0.0/1)", true
	}
	return "", false
}

// classifyHalfRoute recognizes the /1 halves in `ip route`, BSD netstat and
// Linux netstat (destination plus 128.0.0.0 genmask) notation.
func classifyHalfRoute(fields []string) halfRoute {
	if len(fields) == 0 {
		return notHalf
	}
	dest := fields[0]

	if len(fields) >= 3 && fields[2] == "128.0.0.0" {
		switch dest {
		case "0.0.0.0":
			return lowerHalf
		case "128.0.0.0":
			return upperHalf
		}
	}

	for _, d := range lowerHalfDestinations {
		if strings.EqualFold(dest, d) {
			return lowerHalf
		}
	}
	for _, d := range upperHalfDestinations {
		if strings.EqualFold(dest, d) {
			return upperHalf
		}
	}
	return notHalf
}
