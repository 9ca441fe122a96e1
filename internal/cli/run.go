package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docpipe/internal/config"
	"github.com/hupe1980/docpipe/internal/logging"
	"github.com/hupe1980/docpipe/internal/pipeline"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [translate|minify|convert|all|portfolio]",
		Short: "Run one pipeline stage, or all of them, without watching",
		Long: `Run executes a single stage of the pipeline immediately and exits.

  translate   run the translator and wait for it
  minify      run the asset minifier and wait for it
  convert     launch the HTML to PDF converter detached
  all         run all three stages in order (default)
  portfolio   launch the portfolio updater detached

The command exits with code 1 when a stage fails. A single named stage
also fails when its script cannot be found.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"translate", "minify", "convert", "all", "portfolio"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}

			return runStage(cmd, target)
		},
	}

	return cmd
}

func runStage(cmd *cobra.Command, target string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stage pipeline.Stage

	if target != "all" && target != "portfolio" {
		st, err := pipeline.ParseStage(target)
		if err != nil {
			return &ExitError{Code: 2, Err: err}
		}

		stage = st
	}

	a, err := newApp(config.FromContext(ctx), logging.FromContext(ctx), cmd.OutOrStdout())
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	var failed error

	err = a.supervisor.Do(ctx, func(ctx context.Context) {
		switch target {
		case "all":
			if run := a.dispatcher.Dispatch(ctx); !run.OK() {
				failed = fmt.Errorf("pipeline incomplete: %s", run.Summary())
			}
		case "portfolio":
			failed = outcomeError("portfolio updater", a.dispatcher.OpenPortfolioUpdater(ctx))
		default:
			failed = outcomeError(string(stage), a.dispatcher.RunStage(ctx, stage))
		}
	})
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if failed != nil {
		return &ExitError{Code: 1, Err: failed}
	}

	return nil
}

func outcomeError(name string, o pipeline.Outcome) error {
	switch o {
	case pipeline.Succeeded, pipeline.Launched, pipeline.Skipped:
		return nil
	default:
		return fmt.Errorf("%s %s", name, o)
	}
}
