package vpn

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"unicode"

	"github.com/yllada/vpn-detector/common"
)

// interfaceSources are tried in order until one can enumerate interfaces.
var interfaceSources = []toolCommand{
	{name: "ip", args: []string{"-o", "link", "show", "up"}},
	{name: "ifconfig"},
}

// scanInterfaces looks for an up interface whose name matches a VPN adapter
// keyword.
func (d *Detector) scanInterfaces(ctx context.Context) ProbeResult {
	res := ProbeResult{Probe: ProbeInterfaces}

	src, out, failures := d.firstOutput(ctx, ProbeInterfaces, interfaceSources)
	if src.name == "" {
		res.Verdict = ProbeInterfaces.FailureVerdict()
		res.Detail = "interface enumeration unavailable (" + strings.Join(failures, "; ") + ")"
		return res
	}
	res.Source = src.String()

	var names []string
	if src.name == "ip" {
		names = parseIPLink(out)
	} else {
		names = parseIfconfig(out)
	}

	res.Verdict = VerdictInactive
	for _, name := range names {
		if kw, ok := d.sigs.Interfaces.Match(name); ok {
			res.Verdict = VerdictActive
			res.Evidence = name
			d.logger.Debug("interfaces probe: %s matches %q", name, kw)
			break
		}
	}
	if res.Verdict == VerdictInactive && len(names) > 0 {
		res.Detail = "up: " + strings.Join(names, ", ")
	}
	return res
}

// parseIPLink returns the names of up interfaces from `ip -o link` output.
//
//	3: wg0: <POINTOPOINT,NOARP,UP,LOWER_UP> mtu 1420 qdisc noqueue state UNKNOWN mode DEFAULT
//
// A row counts as up when its flags contain UP and its operational state is
// not DOWN. Tunnels usually report state UNKNOWN.
func parseIPLink(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.HasSuffix(fields[0], ":") {
			continue
		}

		name := strings.TrimSuffix(fields[1], ":")
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}

		flags := strings.Split(strings.Trim(fields[2], "<>"), ",")
		if !common.StringInSlice("UP", flags) {
			continue
		}
		if state := valueAfter(fields, "state"); state == "DOWN" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// parseIfconfig returns the names of up and running interfaces from ifconfig
// output. It understands the BSD/macOS and current net-tools header form
//
//	utun3: flags=8051<UP,POINTOPOINT,RUNNING,MULTICAST> mtu 1380
//
// and the legacy net-tools block form where the flags follow the header:
//
//	tun0      Link encap:UNSPEC  HWaddr 00-00-00-00
//	          UP POINTOPOINT RUNNING NOARP MULTICAST  MTU:1500  Metric:1
func parseIfconfig(out []byte) []string {
	var (
		names   []string
		current string
		decided bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !unicode.IsSpace(rune(line[0])) {
			fields := strings.Fields(line)
			current = strings.TrimSuffix(fields[0], ":")
			decided = false

			if idx := strings.Index(line, "flags="); idx >= 0 {
				decided = true
				flags := line[idx:]
				if open, end := strings.IndexByte(flags, '<'), strings.IndexByte(flags, '>'); open >= 0 && end > open {
					set := strings.Split(flags[open+1:end], ",")
					if common.StringInSlice("UP", set) && common.StringInSlice("RUNNING", set) {
						names = append(names, current)
					}
				}
			}
			continue
		}

		if current == "" || decided {
			continue
		}
		fields := strings.Fields(line)
		if common.StringInSlice("UP", fields) && common.StringInSlice("RUNNING", fields) {
			names = append(names, current)
			decided = true
		}
	}
	return names
}

// valueAfter returns the field following key, or "".
func valueAfter(fields []string, key string) string {
	for i, f := range fields {
		if f == key && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
