package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigkaa/skillmatch/internal/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Вывести версию",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, config.Version)
		},
	}
}
