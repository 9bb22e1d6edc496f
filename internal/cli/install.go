package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/recipe"
)

// installCommand creates the install command. Each argument is an order:
// a bare package name or an inline recipe such as
// (magit :host github :repo "magit/magit").
func (c *CLI) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install <order>...",
		Short: "Install packages and their dependency closures",
		Long: `Install resolves each order to a recipe, clones the package's source
repository, and walks its declared dependencies, installing everything
that is not already present. Orders are bare package names or inline
recipe specifications:

  joist install magit
  joist install '(mylib :host github :repo "user/mylib" :branch "main")'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders := make([]recipe.Order, 0, len(args))
			for _, arg := range args {
				order, err := recipe.ParseOrder(arg)
				if err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}
				orders = append(orders, order)
			}

			o, err := c.newOrchestrator(cmd)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			var submitErrs []error
			for i, order := range orders {
				if _, _, err := o.Submit(cmd.Context(), order); err != nil {
					printError("%s: %s", args[i], errors.UserMessage(err))
					submitErrs = append(submitErrs, err)
				}
			}
			failures := o.Wait()

			installed := 0
			for _, pkg := range o.Completed() {
				if _, failed := failures[pkg]; !failed {
					installed++
				}
			}

			names := make([]string, 0, len(failures))
			for pkg := range failures {
				names = append(names, pkg)
			}
			sort.Strings(names)
			for _, pkg := range names {
				printError("%s: %s", pkg, errors.UserMessage(failures[pkg]))
			}

			printSummary(installed, len(failures))
			prog.done(fmt.Sprintf("Installed %d packages", installed))
			if len(failures) > 0 || len(submitErrs) > 0 {
				return errors.New(errors.ErrCodeInternal,
					"%d of %d packages failed", len(failures)+len(submitErrs), installed+len(failures)+len(submitErrs))
			}
			return nil
		},
	}
}
