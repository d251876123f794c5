package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/config"
)

// NewRootCmd builds the command tree around cfg. Persistent flags override
// the matching environment variables.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		dataDir  string
		apiURL   string
		logLevel string
	)

	root := &cobra.Command{
		Use:   "facilita",
		Short: "Facilita realtime notifications",
		Long: `Facilita realtime notifications: the notification backend (REST API,
websocket and long-poll gateway) and a terminal client that shows toasts and
the notification bell live.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// CLI flags override env config.
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", cfg.DataDir, "Data directory (overrides FACILITA_DATA_DIR)")
	root.PersistentFlags().StringVar(&apiURL, "api-url", cfg.APIURL, "REST API base URL (overrides FACILITA_API_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(
		NewServeCmd(cfg),
		NewLoginCmd(cfg),
		NewLogoutCmd(cfg),
		NewWatchCmd(cfg),
		NewUserCmd(cfg),
		NewNotifyCmd(cfg),
		NewNotificationsCmd(cfg),
		NewVersionCmd(),
		NewUpdateCmd(),
	)
	return root
}

// Execute loads configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
