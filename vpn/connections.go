package vpn

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Socket is a locally bound socket.
type Socket struct {
	Protocol string
	Address  string
	Port     int
}

// SocketLister enumerates local sockets without an external tool. It is the
// last source the connection probe tries.
type SocketLister func(ctx context.Context) ([]Socket, error)

// connectionSources are tried in order until one lists sockets.
var connectionSources = []toolCommand{
	{name: "ss", args: []string{"-tuan"}},
	{name: "netstat", args: []string{"-an"}},
}

// scanConnections looks for a local socket bound to a well-known VPN port.
func (d *Detector) scanConnections(ctx context.Context) ProbeResult {
	res := ProbeResult{Probe: ProbeConnections}

	var sockets []Socket
	src, out, failures := d.firstOutput(ctx, ProbeConnections, connectionSources)
	switch src.name {
	case "ss":
		res.Source = src.String()
		sockets = parseSS(out)
	case "netstat":
		res.Source = src.String()
		sockets = parseNetstatSockets(out)
	default:
		if d.sockets == nil {
			res.Verdict = ProbeConnections.FailureVerdict()
			res.Detail = "socket enumeration unavailable (" + strings.Join(failures, "; ") + ")"
			return res
		}
		listed, err := d.sockets(ctx)
		if err != nil {
			d.logger.Debug("connections probe: native socket listing failed: %v", err)
			failures = append(failures, fmt.Sprintf("native: %v", err))
			res.Verdict = ProbeConnections.FailureVerdict()
			res.Detail = "socket enumeration unavailable (" + strings.Join(failures, "; ") + ")"
			return res
		}
		res.Source = "native"
		sockets = listed
	}

	res.Verdict = VerdictInactive
	for _, s := range sockets {
		if label, ok := d.sigs.Ports.Lookup(s.Port); ok {
			res.Verdict = VerdictActive
			res.Evidence = fmt.Sprintf("%s %s (%s)", s.Protocol, joinHostPort(s.Address, s.Port), label)
			d.logger.Debug("connections probe: %s", res.Evidence)
			break
		}
	}
	return res
}

// parseSS parses `ss -tuan` output. The local address is the fifth column.
//
//	udp   UNCONN 0      0      0.0.0.0:51820      0.0.0.0:*
func parseSS(out []byte) []Socket {
	var sockets []Socket
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "Netid" {
			continue
		}
		addr, port, ok := splitLocalAddr(fields[4])
		if !ok {
			continue
		}
		sockets = append(sockets, Socket{Protocol: fields[0], Address: addr, Port: port})
	}
	return sockets
}

// parseNetstatSockets parses `netstat -an` output on Linux and BSD/macOS.
// Only tcp*/udp* rows are considered; the local address is the fourth column.
//
//	tcp        0      0 0.0.0.0:1194            0.0.0.0:*               LISTEN
//	udp4       0      0  *.500                  *.*
func parseNetstatSockets(out []byte) []Socket {
	var sockets []Socket
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		proto := strings.ToLower(fields[0])
		if !strings.HasPrefix(proto, "tcp") && !strings.HasPrefix(proto, "udp") {
			continue
		}
		addr, port, ok := splitLocalAddr(fields[3])
		if !ok {
			continue
		}
		sockets = append(sockets, Socket{Protocol: proto, Address: addr, Port: port})
	}
	return sockets
}

// splitLocalAddr splits an address whose port follows the last ':' or '.',
// covering "0.0.0.0:500", "[::]:500", "*:500", "*.500" and "10.0.0.1.500".
func splitLocalAddr(raw string) (string, int, bool) {
	sep := strings.LastIndexAny(raw, ":.")
	if sep <= 0 || sep == len(raw)-1 {
		return "", 0, false
	}
	port, err := strconv.Atoi(raw[sep+1:])
	if err != nil || port < 1 || port > 65535 {
		return "", 0, false
	}
	addr := strings.Trim(raw[:sep], "[]")
	if addr == "*" {
		addr = "0.0.0.0"
	}
	return addr, port, true
}

func joinHostPort(addr string, port int) string {
	if strings.Contains(addr, ":") {
		return fmt.Sprintf("[%s]:%d", addr, port)
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// ListSocketsNative lists inet sockets through the kernel interfaces gopsutil
// wraps, for hosts that ship neither ss nor netstat.
func ListSocketsNative(ctx context.Context) ([]Socket, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, err
	}
	sockets := make([]Socket, 0, len(conns))
	for _, c := range conns {
		if c.Laddr.Port == 0 {
			continue
		}
		proto := "tcp"
		if c.Type == 2 { // SOCK_DGRAM
			proto = "udp"
		}
		sockets = append(sockets, Socket{Protocol: proto, Address: c.Laddr.IP, Port: int(c.Laddr.Port)})
	}
	return sockets, nil
}
