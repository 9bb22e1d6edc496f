package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joist-el/joist/pkg/gitrepo"
	"github.com/joist-el/joist/pkg/recipe"
)

// recipeCommand creates the recipe command, a diagnostic that prints the
// result of resolving an order without fetching anything.
func (c *CLI) recipeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <order>",
		Short: "Print the fully resolved recipe for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := recipe.ParseOrder(args[0])
			if err != nil {
				return err
			}
			registry, err := c.newRegistry()
			if err != nil {
				return err
			}
			rec, err := c.newResolver(registry).Resolve(cmd.Context(), order)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(rec.Package))
			printKeyValue("repo", rec.Repo)
			printKeyValue("host", rec.Host)
			printKeyValue("protocol", rec.EffectiveProtocol())
			if rec.Branch != "" {
				printKeyValue("branch", rec.Branch)
			}
			if rec.Tag != "" {
				printKeyValue("tag", rec.Tag)
			}
			if rec.Ref != "" {
				printKeyValue("ref", rec.Ref)
			}
			if rec.Depth > 0 {
				printKeyValue("depth", strconv.Itoa(rec.Depth))
			}
			if rec.LocalRepo != "" {
				printKeyValue("local-repo", rec.LocalRepo)
			}
			if len(rec.PreBuild) > 0 {
				printKeyValue("pre-build", strings.Join(rec.PreBuild, " "))
			}
			for _, r := range rec.Remotes {
				printKeyValue("remote", r.Name)
			}
			if rec.Fork != nil {
				printKeyValue("fork", rec.Fork.Repo)
			}

			if uri, err := gitrepo.URI(rec); err == nil {
				printDetail("clone URI: %s", uri)
			}
			if store, err := c.store(); err == nil {
				if path, err := gitrepo.Path(store, rec); err == nil {
					printDetail("local path: %s", path)
				}
			}
			return nil
		},
	}
}
