package sites

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscrawl/cmd/common"
)

// newValidateCommand creates the sites validate command. Loading already
// validates every entry and skips broken ones loudly, so validation is just
// a load with a summary.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the site configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			manager, err := common.LoadSites(deps.Config, deps.Logger)
			if err != nil {
				return err
			}

			all := manager.All()
			enabled := len(manager.Enabled())
			fmt.Printf("%d valid site(s), %d enabled\n", len(all), enabled)
			return nil
		},
	}
}
