// Package report renders the outcome of one detection run for people and for
// scripts.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yllada/vpn-detector/ipinfo"
	"github.com/yllada/vpn-detector/vpn"
)

// Identity is the public identity shown next to the verdict.
type Identity struct {
	IP       string `json:"ip"`
	Location string `json:"location"`
	Org      string `json:"org,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Report is one detection run. Identity is nil when the lookup was skipped.
type Report struct {
	RunID     string            `json:"run_id"`
	CheckedAt time.Time         `json:"checked_at"`
	Identity  *Identity         `json:"identity,omitempty"`
	Status    vpn.Status        `json:"status"`
	Probes    []vpn.ProbeResult `json:"probes"`
}

// New builds a report with a fresh run ID.
func New(info *ipinfo.Info, result vpn.Result) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		CheckedAt: time.Now().UTC(),
		Status:    result.Status,
		Probes:    result.Probes,
	}
	if info != nil {
		r.Identity = &Identity{
			IP:       info.IP,
			Location: info.Location,
			Org:      info.Org,
			Hostname: info.Hostname,
			City:     info.City,
			Region:   info.Region,
			Country:  info.Country,
		}
	}
	if r.Probes == nil {
		r.Probes = []vpn.ProbeResult{}
	}
	return r
}

// ToJSON returns the indented JSON form.
func ToJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToLine returns the single-line JSON form used for streaming output.
func ToLine(r *Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
