package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for joist.

To load completions:

Bash:
  $ source <(joist completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ joist completion bash > /etc/bash_completion.d/joist
  # macOS:
  $ joist completion bash > $(brew --prefix)/etc/bash_completion.d/joist

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ joist completion zsh > "${fpath[1]}/_joist"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ joist completion fish | source

  # To load completions for each session, execute once:
  $ joist completion fish > ~/.config/fish/completions/joist.fish

PowerShell:
  PS> joist completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> joist completion powershell > joist.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
