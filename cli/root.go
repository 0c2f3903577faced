// Package cli provides the command-line interface for VPN Detector.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/vpn-detector/common"
	"github.com/yllada/vpn-detector/config"
	"github.com/yllada/vpn-detector/ipinfo"
	"github.com/yllada/vpn-detector/keyring"
	"github.com/yllada/vpn-detector/notify"
	"github.com/yllada/vpn-detector/vpn"
)

// BuildInfo carries version metadata injected at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Lookup resolves the public identity.
type Lookup interface {
	Lookup(ctx context.Context) (*ipinfo.Info, error)
}

// SecretStore is the token store used by the token commands.
type SecretStore interface {
	common.SecretStore
	Backend() string
}

// StatusNotifier announces status transitions in watch mode.
type StatusNotifier interface {
	NotifyStatusChange(old, new vpn.Status) error
}

type rootOptions struct {
	ConfigPath string
	JSON       bool
	Offline    bool
	Verbose    bool
	NoColor    bool
}

// app holds the parsed flags, the loaded configuration and the factories
// for every collaborator. Tests replace the factories.
type app struct {
	build BuildInfo
	opts  rootOptions
	cfg   *config.Config

	newDetector func(cfg *config.Config) vpn.Checker
	newLookup   func(cfg *config.Config, token string) Lookup
	newSecrets  func() SecretStore
	newNotifier func() StatusNotifier
	isTerminal  func(w io.Writer) bool
	readSecret  func(prompt string) (string, error)
	stdin       io.Reader
}

func newApp(build BuildInfo) *app {
	return &app{
		build: build,
		newDetector: func(cfg *config.Config) vpn.Checker {
			sigs := vpn.DefaultSignatures().Extend(cfg.ExtraInterfaceKeywords, cfg.ExtraRouteKeywords, cfg.ExtraPorts)
			return vpn.NewDetector(vpn.NewExecRunner(cfg.CommandTimeout), sigs)
		},
		newLookup: func(cfg *config.Config, token string) Lookup {
			return ipinfo.NewClient(ipinfo.Options{URL: cfg.LookupURL, Token: token, Timeout: cfg.LookupTimeout})
		},
		newSecrets:  func() SecretStore { return keyring.New() },
		newNotifier: func() StatusNotifier { return notify.New() },
		isTerminal:  isTerminal,
		readSecret:  readPassword,
		stdin:       os.Stdin,
	}
}

// Main runs the CLI and returns the process exit code. A failure is printed
// to stderr as "Error: ..." and recorded in the log file, never on the
// console log.
func Main(ctx context.Context, build BuildInfo, args []string, stderr io.Writer) int {
	return newApp(build).run(ctx, args, stderr)
}

func (a *app) run(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)

	logger := common.GetLogger()
	if err != nil {
		logger.FileError("%v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if cerr := logger.Close(); cerr != nil {
		fmt.Fprintf(stderr, "Warning: closing log file: %v\n", cerr)
	}

	if err != nil {
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   common.AppBinary,
		Short: "Detect whether traffic is routed through a VPN",
		Long: `vpn-detector prints the public IP address and location of this machine
and whether its traffic appears to leave through a VPN.

Three local probes inspect network interfaces, bound sockets and the routing
table. The VPN is reported Active only when at least two of them agree.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.ConfigPath, "config", "", "Path to config.yaml (default ~/.config/vpn-detector/config.yaml)")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Show probe diagnostics and debug logging")
	flags.BoolVar(&a.opts.NoColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&a.opts.Offline, "offline", false, "Skip the public IP lookup")
	rootCmd.Flags().BoolVar(&a.opts.JSON, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(
		newWatchCmd(a),
		newTokenCmd(a),
		newConfigCmd(a),
		newDoctorCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

// setup loads the configuration and applies logging flags before any
// command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := common.LevelWarn
	if a.opts.Verbose {
		level = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{Level: level, EnableFile: cfg.LogToFile}); err != nil {
		common.LogWarn("File logging disabled: %v", err)
	}
	return nil
}

// useColor reports whether styled output should be written to w.
func (a *app) useColor(w io.Writer) bool {
	if a.opts.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return a.isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
