package vpn

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict_String(t *testing.T) {
	tests := []struct {
		verdict  Verdict
		expected string
	}{
		{VerdictActive, "active"},
		{VerdictInactive, "inactive"},
		{VerdictUnknown, "unknown"},
		{Verdict(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.verdict.String(); got != tt.expected {
				t.Errorf("Verdict.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_Strings(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		title  string
	}{
		{StatusActive, "active", "Active"},
		{StatusInactive, "inactive", "Inactive"},
		{StatusUnknown, "unknown", "Unknown"},
		{Status(42), "unknown", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.title, tt.status.Title())
		})
	}
}

func TestProbeKind_Strings(t *testing.T) {
	assert.Equal(t, "interfaces", ProbeInterfaces.String())
	assert.Equal(t, "connections", ProbeConnections.String())
	assert.Equal(t, "routes", ProbeRoutes.String())
	assert.Equal(t, "probe(7)", ProbeKind(7).String())
	assert.Equal(t, "Routing scan", ProbeRoutes.Title())
}

func TestFailureVerdict(t *testing.T) {
	assert.Equal(t, VerdictUnknown, ProbeInterfaces.FailureVerdict())
	assert.Equal(t, VerdictInactive, ProbeConnections.FailureVerdict())
	assert.Equal(t, VerdictUnknown, ProbeRoutes.FailureVerdict())
}

func TestResult_JSON(t *testing.T) {
	result := Result{
		Status: StatusActive,
		Probes: []ProbeResult{
			{Probe: ProbeInterfaces, Verdict: VerdictActive, Source: "ip -o link show up", Evidence: "wg0", Duration: time.Millisecond},
			{Probe: ProbeConnections, Verdict: VerdictInactive, Source: "ss -tuan"},
			{Probe: ProbeRoutes, Verdict: VerdictActive, Evidence: "default dev wg0 table 51820"},
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "active", raw["status"])

	probes := raw["probes"].([]interface{})
	require.Len(t, probes, 3)
	first := probes[0].(map[string]interface{})
	assert.Equal(t, "interfaces", first["probe"])
	assert.Equal(t, "active", first["verdict"])
	assert.Equal(t, "wg0", first["evidence"])
	assert.EqualValues(t, 1000000, first["duration_ns"])
	assert.NotContains(t, probes[1].(map[string]interface{}), "evidence")

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
}

func TestUnmarshalText_Rejects(t *testing.T) {
	var v Verdict
	assert.Error(t, v.UnmarshalText([]byte("maybe")))
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("")))
	var k ProbeKind
	assert.Error(t, k.UnmarshalText([]byte("dns")))
	require.NoError(t, k.UnmarshalText([]byte("Routes")))
	assert.Equal(t, ProbeRoutes, k)
}

func TestProbeTools(t *testing.T) {
	assert.Equal(t, []string{"ip", "ifconfig"}, ProbeTools(ProbeInterfaces))
	assert.Equal(t, []string{"ss", "netstat"}, ProbeTools(ProbeConnections))
	assert.Equal(t, []string{"ip", "netstat"}, ProbeTools(ProbeRoutes))
	assert.Empty(t, ProbeTools(ProbeKind(5)))
}
