// Package cli implements the cobra command tree for docpipe.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docpipe/internal/config"
	"github.com/hupe1980/docpipe/internal/logging"
	"github.com/hupe1980/docpipe/internal/tui"
	"github.com/hupe1980/docpipe/internal/version"
	"github.com/hupe1980/docpipe/internal/watch"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

type rootOptions struct {
	gui  bool
	once bool
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docpipe [targets...]",
		Short: "Watch files and rebuild documents through a script pipeline",
		Long: `docpipe polls one or more target files and, whenever their content
changes, runs the document pipeline: translate, minify assets, then convert
HTML to PDF.

The stage scripts are discovered under the repository root
(dev/scripts/translator, dev/scripts/asset-optimizer, dev/scripts/html-2-pdf).
Numbered scripts such as 02_build.py win over the others.

Without targets, or with --gui, an interactive terminal front-end starts.`,
		// Positional arguments are watch targets, not subcommands.
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			if err := version.GetInfo().Satisfies(cfg.RequiredVersion); err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.gui || len(args) == 0 {
				return runInteractive(cmd, args)
			}

			return runWatch(cmd, args, opts.once)
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .docpipe.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Pipeline flags shared by every command that runs scripts.
	pf.Float64("interval", config.DefaultIntervalSeconds, "poll interval in seconds")
	pf.Bool("no-html", false, "skip the HTML to PDF conversion stage")
	pf.String("repo-root", "", "repository root holding dev/scripts (default: two levels above the binary)")
	pf.String("interpreter", config.DefaultInterpreter, "program used to run scripts (empty runs them directly)")
	pf.String("script-ext", config.DefaultScriptExt, "extension of discoverable scripts")
	pf.String("env-file", "", "dotenv file with extra environment for scripts")

	// Watch flags.
	f := cmd.Flags()
	f.BoolVar(&opts.gui, "gui", false, "start the interactive front-end")
	f.BoolVar(&opts.once, "once", false, "run the pipeline once and exit")
	f.Bool("coalesce", false, "run once per poll even when several targets changed")
	f.Bool("show-diff", false, "print a diff of changed text targets")
	f.String("schedule", "", "cron expression for additional scheduled runs")
	f.Bool("auto-detect", false, "re-detect scripts when the script directories change")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newDetectCommand(),
		newRunCommand(),
		newCompletionCommand(),
	)

	registerCompletions(cmd)

	return cmd
}

// runWatch validates the targets, then polls them until interrupted.
func runWatch(cmd *cobra.Command, targets []string, once bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)
	out := cmd.OutOrStdout()

	if err := watch.ValidateSchedule(cfg.Schedule); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	if _, err := watch.ValidateTargets(targets); err != nil {
		var missing *watch.MissingTargetsError
		if errors.As(err, &missing) {
			for _, p := range missing.Paths {
				fmt.Fprintf(out, "[!] target not found: %s\n", p)
			}
		}

		return &ExitError{Code: 1, Err: err}
	}

	a, err := newApp(cfg, logger, out)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	opts := a.watchOptions()
	opts.Targets = targets
	opts.Once = once

	if err := watch.Run(ctx, opts, a.dispatch); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if !once {
		fmt.Fprintln(a.out, "stopped")
	}

	return nil
}

// runInteractive starts the terminal front-end. Logs and status lines are
// routed into a queue the front-end drains.
func runInteractive(cmd *cobra.Command, targets []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	queue := logging.NewQueue(0)
	logger := logging.SetupWithWriter(cfg, queue)

	a, err := newApp(cfg, logger, queue)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	session := watch.NewSession(a.watchOptions(), a.dispatch)

	err = tui.Run(logging.NewContext(ctx, logger), tui.Options{
		Dispatcher: a.dispatcher,
		Supervisor: a.supervisor,
		Session:    session,
		Queue:      queue,
		Out:        a.out,
		Targets:    targets,
		Interval:   cfg.PollInterval(),
		NoColor:    cfg.NoColor,
	})

	// Lines the log pane had no chance to show go to the terminal.
	queue.Flush()

	for _, line := range queue.Drain() {
		fmt.Fprintln(cmd.ErrOrStderr(), line)
	}

	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}
