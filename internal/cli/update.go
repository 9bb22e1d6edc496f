package cli

import (
	"github.com/spf13/cobra"
)

// updateCommand creates the update command refreshing all provider
// catalogs.
func (c *CLI) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh all provider catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := c.newRegistry()
			if err != nil {
				return err
			}
			if len(registry.Providers()) == 0 {
				printWarning("No providers configured")
				return nil
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Updating provider catalogs...")
			spinner.Start()
			err = registry.UpdateAll(cmd.Context())
			if err != nil {
				spinner.StopWithError("Update failed")
				return err
			}
			spinner.StopWithSuccess("Provider catalogs updated")
			printDetail("%d providers refreshed", len(registry.Providers()))
			return nil
		},
	}
}
