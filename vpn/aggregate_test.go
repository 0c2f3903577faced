package vpn

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allVerdicts = []Verdict{VerdictActive, VerdictInactive, VerdictUnknown}

// expectedStatus restates the voting table by counting verdicts.
func expectedStatus(a, b, c Verdict) Status {
	active, inactive := 0, 0
	for _, v := range []Verdict{a, b, c} {
		switch v {
		case VerdictActive:
			active++
		case VerdictInactive:
			inactive++
		}
	}
	if active >= 2 {
		return StatusActive
	}
	if inactive == 3 {
		return StatusInactive
	}
	return StatusUnknown
}

func TestAggregateVerdicts_Exhaustive(t *testing.T) {
	counts := map[Status]int{}
	for _, a := range allVerdicts {
		for _, b := range allVerdicts {
			for _, c := range allVerdicts {
				name := fmt.Sprintf("%s/%s/%s", a, b, c)
				want := expectedStatus(a, b, c)
				got := AggregateVerdicts(a, b, c)
				assert.Equal(t, want, got, name)
				counts[got]++
			}
		}
	}

	// 27 ordered triples: 7 with two or more Active, 1 all Inactive.
	assert.Equal(t, 7, counts[StatusActive])
	assert.Equal(t, 1, counts[StatusInactive])
	assert.Equal(t, 19, counts[StatusUnknown])
}

func TestAggregateVerdicts_OrderIndependent(t *testing.T) {
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, a := range allVerdicts {
		for _, b := range allVerdicts {
			for _, c := range allVerdicts {
				in := [3]Verdict{a, b, c}
				base := AggregateVerdicts(a, b, c)
				for _, p := range perms {
					assert.Equal(t, base, AggregateVerdicts(in[p[0]], in[p[1]], in[p[2]]))
				}
			}
		}
	}
}

func TestAggregate_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		verdicts [3]Verdict
		want     Status
	}{
		{"corroborated", [3]Verdict{VerdictActive, VerdictActive, VerdictInactive}, StatusActive},
		{"all inactive", [3]Verdict{VerdictInactive, VerdictInactive, VerdictInactive}, StatusInactive},
		{"mixed with unknown", [3]Verdict{VerdictActive, VerdictUnknown, VerdictInactive}, StatusUnknown},
		{"single active", [3]Verdict{VerdictActive, VerdictInactive, VerdictInactive}, StatusUnknown},
		{"all active", [3]Verdict{VerdictActive, VerdictActive, VerdictActive}, StatusActive},
		{"two active one unknown", [3]Verdict{VerdictUnknown, VerdictActive, VerdictActive}, StatusActive},
		{"all unknown", [3]Verdict{VerdictUnknown, VerdictUnknown, VerdictUnknown}, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]ProbeResult, len(AllProbes))
			for i, kind := range AllProbes {
				results[i] = ProbeResult{Probe: kind, Verdict: tt.verdicts[i]}
			}
			got := Aggregate(results)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Aggregate(results), "second evaluation differs")
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, StatusUnknown, Aggregate(nil))
	assert.Equal(t, StatusUnknown, AggregateVerdicts())
}
