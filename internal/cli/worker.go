package cli

import (
	"github.com/spf13/cobra"

	"github.com/joist-el/joist/pkg/execx"
	"github.com/joist-el/joist/pkg/gitrepo"
	"github.com/joist-el/joist/pkg/orchestrate"
)

// fetchWorkerCommand creates the hidden worker entry point. The install
// orchestrator re-invokes the joist binary with this command, passing
// the recipe through a temporary JSON file, so a single misbehaving
// fetch is isolated in its own process.
func (c *CLI) fetchWorkerCommand() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:    "fetch-worker <recipe-file>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := orchestrate.ReadRecipeFile(args[0])
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			runner := execx.NewLocal()
			worker := orchestrate.NewInProcessWorker(
				gitrepo.NewManager(store, runner, logger), runner, logger)
			return worker.Fetch(cmd.Context(), rec)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "package store directory")
	cmd.MarkFlagRequired("store")
	return cmd
}
