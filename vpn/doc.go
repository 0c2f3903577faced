// Package vpn decides whether the host is routing traffic through a VPN.
//
// Detection is heuristic. Three local probes each inspect one kind of OS
// state and report a Verdict:
//
//   - Interface scan: an up interface whose name matches a tunnel adapter
//     keyword (tun, wg, utun, ...)
//   - Connection scan: a local socket bound to a well-known VPN port
//     (OpenVPN, IKE, WireGuard, ...)
//   - Routing scan: a route through a tunnel device, or the pair of /1
//     routes that overrides the default route
//
// # Voting
//
// Aggregate combines the verdicts. Two Active verdicts make the status
// Active, all Inactive make it Inactive, and anything else is Unknown. One
// probe alone can never declare a VPN.
//
// # Tooling
//
// Probes read OS state through a Runner, which executes ip, ifconfig, ss and
// netstat with a per-command timeout. Each probe tries its tools in order and
// falls back to a fixed verdict when none works: Inactive for connections,
// Unknown for interfaces and routes.
//
// # Architecture
//
//   - Detector: runs the probes concurrently and aggregates them
//   - Monitor: re-runs a Detector on an interval and reports transitions
//   - Signatures: the keyword and port tables the probes match against
//
// Detector holds no mutable state and is safe for concurrent use.
package vpn
