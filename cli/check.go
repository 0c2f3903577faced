package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yllada/vpn-detector/common"
	"github.com/yllada/vpn-detector/ipinfo"
	"github.com/yllada/vpn-detector/report"
	"github.com/yllada/vpn-detector/vpn"
)

// runCheck performs one lookup and one detection concurrently and prints
// the report. Only a lookup failure is returned as an error.
func (a *app) runCheck(cmd *cobra.Command) error {
	info, result, err := a.collect(cmd.Context())
	if err != nil {
		return err
	}

	r := report.New(info, result)
	common.LogInfo("Run %s: %s", r.RunID, r.Status)

	out := cmd.OutOrStdout()
	if a.opts.JSON {
		data, err := report.ToJSON(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, data)
		return err
	}
	return report.Render(out, r, report.Options{Color: a.useColor(out), Verbose: a.opts.Verbose})
}

// collect runs the identity lookup (unless offline) and detection side by
// side. Neither result affects the other.
func (a *app) collect(ctx context.Context) (*ipinfo.Info, vpn.Result, error) {
	var (
		info   *ipinfo.Info
		result vpn.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	if !a.opts.Offline {
		lookup := a.newLookup(a.cfg, a.token())
		g.Go(func() error {
			var err error
			info, err = lookup.Lookup(gctx)
			return err
		})
	}

	detector := a.newDetector(a.cfg)
	g.Go(func() error {
		result = detector.Detect(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, vpn.Result{}, err
	}
	return info, result, nil
}

// token resolves the lookup token from the environment, then the keyring.
func (a *app) token() string {
	return ipinfo.ResolveToken(a.cfg.TokenEnv, a.newSecrets())
}
