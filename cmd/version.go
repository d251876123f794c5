package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/build"
)

// NewVersionCmd returns the "version" subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "facilita %s\n", build.String())
		},
	}
}
