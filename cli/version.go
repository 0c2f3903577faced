package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-detector/common"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// The configuration is not needed to print the version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			b := a.build
			if b.Version == "" {
				b.Version = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s, %s %s/%s)\n",
				common.AppBinary, b.Version, valueOr(b.Commit, "unknown"), valueOr(b.Date, "unknown"),
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
