package cli

import (
	"github.com/spf13/cobra"
)

// listCommand creates the list command showing the combined provider
// index.
func (c *CLI) listCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every package the configured providers carry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := c.newRegistry()
			if err != nil {
				return err
			}
			if len(registry.Providers()) == 0 {
				printWarning("No providers configured")
				printDetail("Add a [[providers]] entry to the config file")
				return nil
			}

			candidates, err := registry.Candidates(cmd.Context())
			if err != nil {
				return err
			}
			for _, cand := range candidates {
				if verbose {
					printKeyValue(cand.Package, cand.Source)
				} else {
					printInfo("%s", cand.Package)
				}
			}
			printNewline()
			printSummaryLine("%d packages from %d providers", len(candidates), len(registry.Providers()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "sources", false, "show which provider carries each package")
	return cmd
}
