package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-detector/common"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored IP lookup token",
		Long: `The lookup token raises the rate limit of the IP information service.
The environment variable named by token_env (IPINFO_TOKEN by default) takes
precedence over the stored token.`,
	}

	cmd.AddCommand(
		newTokenSetCmd(a),
		newTokenClearCmd(a),
		newTokenStatusCmd(a),
	)
	return cmd
}

func newTokenSetCmd(a *app) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the lookup token in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				token string
				err   error
			)
			if fromStdin || !a.isTerminal(os.Stdin) {
				token, err = readLine(a)
			} else {
				token, err = a.readSecret("Token: ")
			}
			if err != nil {
				return fmt.Errorf("reading token: %w", err)
			}

			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token cannot be empty")
			}

			store := a.newSecrets()
			if err := store.Store(common.TokenKey, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved (%s).\n", store.Backend())
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the token from standard input")
	return cmd
}

func readLine(a *app) (string, error) {
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func newTokenClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored lookup token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.newSecrets().Delete(common.TokenKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
			return nil
		},
	}
}

func newTokenStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the lookup token comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if env := a.cfg.TokenEnv; strings.TrimSpace(os.Getenv(env)) != "" {
				fmt.Fprintf(out, "Token: set via $%s\n", env)
				return nil
			}

			store := a.newSecrets()
			_, err := store.Get(common.TokenKey)
			switch {
			case err == nil:
				fmt.Fprintf(out, "Token: stored (%s)\n", store.Backend())
			case errors.Is(err, common.ErrCredentialsNotFound):
				fmt.Fprintln(out, "Token: not configured (anonymous lookups are rate limited)")
			default:
				return err
			}
			return nil
		},
	}
}
