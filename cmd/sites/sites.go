// Package sites implements the sites command group for inspecting and
// validating per-site crawl configurations.
package sites

import (
	"github.com/spf13/cobra"
)

// Command returns the sites command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage site configurations",
		Long:  `Inspect and validate the per-site crawl configurations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}
