package vpn

import (
	"sort"
	"strings"

	"github.com/yllada/vpn-detector/common"
)

// KeywordSet is a list of lowercase keywords. Membership is a
// case-insensitive substring match against the tested value.
type KeywordSet []string

// Match returns the first keyword contained in s.
func (k KeywordSet) Match(s string) (string, bool) {
	s = strings.ToLower(s)
	for _, kw := range k {
		if kw != "" && strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}

// PortSet maps well-known VPN protocol ports to a short protocol label.
type PortSet map[int]string

// Lookup reports whether port belongs to the set and its label.
func (p PortSet) Lookup(port int) (string, bool) {
	label, ok := p[port]
	return label, ok
}

// Ports returns the ports in ascending order.
func (p PortSet) Ports() []int {
	out := make([]int, 0, len(p))
	for port := range p {
		out = append(out, port)
	}
	sort.Ints(out)
	return out
}

// Signatures is the static data the probes match against.
type Signatures struct {
	Interfaces KeywordSet
	Routes     KeywordSet
	Ports      PortSet
}

// Built-in signature data.
var (
	defaultInterfaceKeywords = KeywordSet{
		"tun", "tap", "wg", "ppp", "ipsec", "wireguard",
		"nordlynx", "proton", "mullvad", "tailscale", "zerotier", "vpn",
	}

	defaultRouteKeywords = KeywordSet{
		"tun", "tap", "wg", "ppp", "ipsec", "utun",
		"nordlynx", "proton", "mullvad", "tailscale", "vpn",
	}

	defaultPorts = PortSet{
		1194:  "openvpn",
		500:   "ike",
		4500:  "ipsec-nat-t",
		1701:  "l2tp",
		1723:  "pptp",
		51820: "wireguard",
	}
)

// DefaultSignatures returns a fresh copy of the built-in signature data.
func DefaultSignatures() Signatures {
	ports := make(PortSet, len(defaultPorts))
	for port, label := range defaultPorts {
		ports[port] = label
	}
	return Signatures{
		Interfaces: append(KeywordSet(nil), defaultInterfaceKeywords...),
		Routes:     append(KeywordSet(nil), defaultRouteKeywords...),
		Ports:      ports,
	}
}

// Extend returns a copy of s with additional keywords and ports appended.
// Existing entries are kept; duplicates and blanks are dropped.
func (s Signatures) Extend(interfaces, routes []string, ports []int) Signatures {
	out := Signatures{
		Interfaces: KeywordSet(common.MergeUnique(s.Interfaces, interfaces)),
		Routes:     KeywordSet(common.MergeUnique(s.Routes, routes)),
		Ports:      make(PortSet, len(s.Ports)+len(ports)),
	}
	for port, label := range s.Ports {
		out.Ports[port] = label
	}
	for _, port := range ports {
		if _, exists := out.Ports[port]; !exists {
			out.Ports[port] = "custom"
		}
	}
	return out
}
