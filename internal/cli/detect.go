package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docpipe/internal/config"
	"github.com/hupe1980/docpipe/internal/logging"
	"github.com/hupe1980/docpipe/internal/output"
	"github.com/hupe1980/docpipe/internal/scripts"
)

type detectResult struct {
	RepoRoot string       `json:"repoRoot" yaml:"repoRoot"`
	Ext      string       `json:"ext" yaml:"ext"`
	Scripts  []scriptInfo `json:"scripts" yaml:"scripts"`
}

type scriptInfo struct {
	Role  string `json:"role" yaml:"role"`
	Dir   string `json:"dir" yaml:"dir"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newDetectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Show which scripts each pipeline stage would run",
		Long: `Detect resolves the translator, minifier, converter and portfolio
updater scripts under the repository root and prints the result.

A script whose name starts with a number (e.g. 03_render.py) wins; the
highest number is preferred. Otherwise the stage's preferred file name is
used, then the most recently modified script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formats := detectFormats()
			if _, err := formats.Encoder(format); err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			a, err := newApp(cfg, logging.FromContext(ctx), cmd.ErrOrStderr())
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			return formats.Render(cmd.OutOrStdout(), format, buildDetectResult(a))
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table, json, yaml")

	return cmd
}

func buildDetectResult(a *app) detectResult {
	result := detectResult{RepoRoot: a.root, Ext: a.locator.Ext}

	roles := append(append([]scripts.Role(nil), scripts.PipelineRoles...), scripts.RolePortfolio)

	for _, r := range roles {
		info := scriptInfo{Role: string(r)}

		if dirs := a.locator.Layout.Dirs(a.root, r); len(dirs) > 0 {
			info.Dir = dirs[0]
		}

		p, err := a.locator.Locate(r)
		if err != nil {
			info.Error = err.Error()
		}

		info.Path = p
		result.Scripts = append(result.Scripts, info)
	}

	return result
}

// detectFormats returns the output formats of the detect command.
func detectFormats() *output.Registry {
	r := output.DefaultRegistry()
	r.Register("table", func(w io.Writer, v any) error {
		result, ok := v.(detectResult)
		if !ok {
			return fmt.Errorf("table output: unexpected report type %T", v)
		}

		return renderDetectTable(w, result)
	})

	return r
}

func renderDetectTable(w io.Writer, result detectResult) error {
	_, _ = fmt.Fprintf(w, "Repository root: %s\n\n", result.RepoRoot)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ROLE\tSCRIPT\tDIRECTORY")

	for _, s := range result.Scripts {
		path := s.Path
		if path == "" {
			path = "(not found)"
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Role, path, s.Dir)
	}

	return tw.Flush()
}
