package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docpipe/internal/output"
	"github.com/hupe1980/docpipe/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format string
		short  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Display the docpipe version, git commit, build date, Go version and platform.

--short prints the bare version, which is what required-version in the
config file is matched against.`,
		Args: cobra.NoArgs,
		// Version must work even when the config file is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			w := cmd.OutOrStdout()

			if short {
				_, err := fmt.Fprintln(w, info.Version)
				return err
			}

			if cmd.Flags().Changed("json") {
				format = "json"
			}

			formats := output.DefaultRegistry()
			formats.Register("text", func(w io.Writer, _ any) error {
				_, err := fmt.Fprintln(w, info.String())
				return err
			})

			if err := formats.Render(w, format, info); err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, json, yaml")
	cmd.Flags().Bool("json", false, "shorthand for --output json")
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")

	return cmd
}
