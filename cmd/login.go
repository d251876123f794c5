package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/apiclient"
	"github.com/facilita/notifier/internal/config"
)

// NewLoginCmd returns the "login" subcommand that stores an access token.
func NewLoginCmd(cfg *config.AppConfig) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for the terminal client",
		Long: `Verify the access token against GET /me and persist the session locally.
The token may also be passed through the FACILITA_TOKEN environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("token") {
				token = os.Getenv("FACILITA_TOKEN")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("an access token is required (--token or FACILITA_TOKEN)")
			}

			env, err := openClientEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			user, err := apiclient.New(cfg.APIURL, func() string { return token }).Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("verifying token: %w", err)
			}

			env.session.SetAuth(*user, token)
			env.logger.Info("logged in", "user_id", user.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	return cmd
}

// NewLogoutCmd returns the "logout" subcommand that clears the stored session.
func NewLogoutCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openClientEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			env.session.ClearAuth()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
