package cli

import (
	"fmt"
	"os/exec"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-detector/common"
	"github.com/yllada/vpn-detector/vpn"
)

type doctorCheck struct {
	Name   string
	Status string // "✓", "⊘" or "✗"
	Detail string
	Failed bool
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which inspection tools are available to the probes",
		Long: `doctor reports, for each probe, which external tools it can use on this
machine, plus the keyring backend and the configuration in effect.

A probe with no usable tool always reports its fallback verdict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.runDoctorChecks(exec.LookPath)
			printDoctorReport(cmd, checks)

			for _, check := range checks {
				if check.Failed {
					return fmt.Errorf("doctor checks failed")
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n✓ All probes have a data source.")
			return nil
		},
	}
}

func (a *app) runDoctorChecks(lookPath func(string) (string, error)) []doctorCheck {
	var checks []doctorCheck
	for _, kind := range vpn.AllProbes {
		checks = append(checks, checkProbeTools(kind, lookPath))
	}
	checks = append(checks, a.checkKeyring(), a.checkConfig())
	return checks
}

func checkProbeTools(kind vpn.ProbeKind, lookPath func(string) (string, error)) doctorCheck {
	var found, missing []string
	for _, tool := range vpn.ProbeTools(kind) {
		if _, err := lookPath(tool); err == nil {
			found = append(found, tool)
		} else {
			missing = append(missing, tool)
		}
	}

	check := doctorCheck{Name: kind.Title()}
	switch {
	case len(found) > 0:
		check.Status = "✓"
		check.Detail = "using " + found[0]
		if len(missing) > 0 {
			check.Detail += " (missing: " + strings.Join(missing, ", ") + ")"
		}
	case kind == vpn.ProbeConnections:
		check.Status = "⊘"
		check.Detail = "no tools found, using native socket listing"
	default:
		check.Status = "✗"
		check.Detail = fmt.Sprintf("none of %s found, probe will report %s",
			strings.Join(missing, ", "), kind.FailureVerdict())
		check.Failed = true
	}
	return check
}

func (a *app) checkKeyring() doctorCheck {
	return doctorCheck{
		Name:   "Token storage",
		Status: "✓",
		Detail: a.newSecrets().Backend(),
	}
}

func (a *app) checkConfig() doctorCheck {
	path, err := a.configPath()
	if err != nil {
		return doctorCheck{Name: "Configuration", Status: "✗", Detail: err.Error(), Failed: true}
	}
	detail := path
	if !common.FileExists(path) {
		detail = "defaults (" + path + " not found)"
	}
	return doctorCheck{Name: "Configuration", Status: "✓", Detail: detail}
}

func printDoctorReport(cmd *cobra.Command, checks []doctorCheck) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, check := range checks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", check.Status, check.Name, check.Detail)
	}
	w.Flush()
}
