package vpn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const ipRoutePlain = `default via 192.168.1.1 dev eth0 proto dhcp src 192.168.1.10 metric 100
192.168.1.0/24 dev eth0 proto kernel scope link src 192.168.1.10 metric 100
local 127.0.0.1 dev lo table local proto kernel scope host src 127.0.0.1
broadcast 192.168.1.255 dev eth0 table local proto kernel scope link src 192.168.1.10
`

func TestMatchRoutes(t *testing.T) {
	sigs := DefaultSignatures()

	tests := []struct {
		name     string
		out      string
		want     bool
		evidence string
	}{
		{
			name: "plain table",
			out:  ipRoutePlain,
			want: false,
		},
		{
			name:     "tunnel device route",
			out:      ipRoutePlain + "10.8.0.0/24 dev tun0 proto kernel scope link src 10.8.0.6\n",
			want:     true,
			evidence: "10.8.0.0/24 dev tun0 proto kernel scope link src 10.8.0.6",
		},
		{
			name:     "ip split default",
			out:      "0.0.0.0/1 via 10.0.0.1 dev eth1\n128.0.0.0/1 via 10.0.0.1 dev eth1\n" + ipRoutePlain,
			want:     true,
			evidence: "split default route (0.0.0.0/1 + 128.0.0.0/1)",
		},
		{
			name: "bsd split default",
			out: `Routing tables

Internet:
Destination        Gateway            Flags        Netif Expire
0/1                10.8.0.1           UGSc         en7
default            192.168.1.1        UGScg          en0
128.0/1            10.8.0.1           UGSc         en7
`,
			want:     true,
			evidence: "split default route (0.0.0.0/1 + 128.0.0.0/1)",
		},
		{
			name: "linux netstat split default",
			out: `Kernel IP routing table
Destination     Gateway         Genmask         Flags   MSS Window  irtt Iface
0.0.0.0         10.9.0.1        128.0.0.0       UG        0 0          0 eth1
0.0.0.0         192.168.1.1     0.0.0.0         UG        0 0          0 eth0
128.0.0.0       10.9.0.1        128.0.0.0       UG        0 0          0 eth1
`,
			want:     true,
			evidence: "split default route (0.0.0.0/1 + 128.0.0.0/1)",
		},
		{
			name: "one half only",
			out:  "0.0.0.0/1 via 10.0.0.1 dev eth1\n" + ipRoutePlain,
			want: false,
		},
		{
			name:     "ipv6 split default",
			out:      "::/1 dev eth1 metric 1024\n8000::/1 dev eth1 metric 1024\n",
			want:     true,
			evidence: "split default route (0.0.0.0/1 + 128.0.0.0/1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evidence, ok := matchRoutes([]byte(tt.out), sigs.Routes)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.evidence, evidence)
		})
	}
}

func TestScanRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("wireguard policy table", func(t *testing.T) {
		out := ipRoutePlain + "default dev wg0 table 51820 scope link\n"
		res := newTestDetector(newFakeRunner().set(cmdIPRoute, out)).Probe(ctx, ProbeRoutes)
		assert.Equal(t, VerdictActive, res.Verdict)
		assert.Equal(t, "default dev wg0 table 51820 scope link", res.Evidence)
		assert.Equal(t, cmdIPRoute, res.Source)
	})

	t.Run("plain table is inactive", func(t *testing.T) {
		res := newTestDetector(newFakeRunner().set(cmdIPRoute, ipRoutePlain)).Probe(ctx, ProbeRoutes)
		assert.Equal(t, VerdictInactive, res.Verdict)
	})

	t.Run("netstat fallback", func(t *testing.T) {
		out := "default            10.8.0.1           UGScg        utun4\n"
		r := newFakeRunner().fail(cmdIPRoute, errors.New("exit status 255")).set(cmdNetRoute, out)
		res := newTestDetector(r).Probe(ctx, ProbeRoutes)
		assert.Equal(t, VerdictActive, res.Verdict)
		assert.Equal(t, cmdNetRoute, res.Source)
	})

	t.Run("unreadable table is unknown", func(t *testing.T) {
		res := newTestDetector(newFakeRunner()).Probe(ctx, ProbeRoutes)
		assert.Equal(t, VerdictUnknown, res.Verdict)
		assert.Contains(t, res.Detail, "routing table unavailable")
	})
}
