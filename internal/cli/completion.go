package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/docpipe/internal/config"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for docpipe.

Stage names for "run", output formats and log settings complete by value;
watch targets complete as file names.

  $ source <(docpipe completion bash)
  $ docpipe completion zsh > "${fpath[1]}/_docpipe"
  $ docpipe completion fish > ~/.config/fish/completions/docpipe.fish
  PS> docpipe completion powershell | Out-String | Invoke-Expression
`,
		// Completion must work even when the config file is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// registerCompletions attaches value completions to the flags of root and
// its subcommands. It must run after the subcommands are added.
func registerCompletions(root *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp)
	}

	_ = root.RegisterFlagCompletionFunc("log-level", fixed(
		config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError))
	_ = root.RegisterFlagCompletionFunc("log-format", fixed(config.LogFormatText, config.LogFormatJSON))
	_ = root.RegisterFlagCompletionFunc("script-ext", fixed(".py", ".sh", ".js"))
	_ = root.RegisterFlagCompletionFunc("repo-root", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})

	formats := map[string][]string{
		"detect":  {"table", "json", "yaml"},
		"version": {"text", "json", "yaml"},
	}

	for _, sub := range root.Commands() {
		if values, ok := formats[sub.Name()]; ok {
			_ = sub.RegisterFlagCompletionFunc("output", fixed(values...))
		}
	}

	// Watch targets are plain files.
	root.ValidArgsFunction = func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveDefault
	}
}
