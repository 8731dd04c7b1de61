package sites

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscrawl/cmd/common"
	internalsites "github.com/jonesrussell/newscrawl/internal/sites"
)

// newListCommand creates the sites list command.
func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			manager, err := common.LoadSites(deps.Config, deps.Logger)
			if err != nil {
				return err
			}

			renderTable(manager.All())
			return nil
		},
	}
}

// renderTable displays site configurations in a table.
func renderTable(configs []*internalsites.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "Kind", "Enabled", "Base URL", "Templates", "Fields", "Backfill Date"})
	for _, cfg := range configs {
		t.AppendRow(table.Row{
			cfg.Name,
			cfg.Kind,
			cfg.Enabled,
			cfg.BaseURL,
			len(cfg.SeedURLTemplates),
			len(cfg.Fields),
			cfg.BackfillDateIfMissing,
		})
	}
	t.Render()
}
