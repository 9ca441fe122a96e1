package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hupe1980/docpipe/internal/config"
	"github.com/hupe1980/docpipe/internal/logging"
	"github.com/hupe1980/docpipe/internal/pipeline"
	"github.com/hupe1980/docpipe/internal/runner"
	"github.com/hupe1980/docpipe/internal/scripts"
	"github.com/hupe1980/docpipe/internal/watch"
)

// app holds the pipeline components shared by the commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	out        io.Writer
	root       string
	locator    scripts.Locator
	dispatcher *pipeline.Dispatcher
	supervisor *pipeline.Supervisor
}

// newApp resolves the repository root, applies script overrides from the
// config file and resolves the initial script set. Scripts that cannot be
// resolved are logged; the affected stages report themselves as not run.
func newApp(cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	// Detached children write straight to the terminal when out is one;
	// under the front-end or in tests their output is dropped.
	detached, _ := out.(*os.File)
	out = &lockedWriter{w: out}

	root, err := cfg.ResolveRepoRoot()
	if err != nil {
		return nil, err
	}

	overrides, err := config.LoadScriptsConfig(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}

	if !overrides.IsEmpty() {
		logger.Debug("script overrides loaded", slog.Any("scripts", overrides.Scripts))
	}

	env, err := runner.LoadEnvFile(cfg.EnvFile)
	if err != nil {
		return nil, err
	}

	locator := scripts.Locator{
		Root:   root,
		Ext:    cfg.ScriptExt,
		Layout: scripts.DefaultLayout().Merge(overrides.Layout()),
	}

	set, err := locator.Resolve()
	if err != nil {
		logger.Warn("resolving scripts", slog.String("error", err.Error()))
	}

	for _, r := range scripts.PipelineRoles {
		logger.Debug("script resolved", slog.String("role", string(r)), slog.String("path", set.Path(r)))
	}

	run := runner.New(runner.Options{
		Interpreter: cfg.Interpreter,
		Env:         env,
		Logger:      logging.Component(logger, "runner"),
		Out:         out,
		Detached:    detached,
	})

	d := pipeline.New(pipeline.Options{
		Runner:  run,
		Locator: locator,
		Scripts: set,
		NoHTML:  cfg.NoHTML,
		Logger:  logging.Component(logger, "pipeline"),
		Out:     out,
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		root:       root,
		locator:    locator,
		dispatcher: d,
		supervisor: pipeline.NewSupervisor(),
	}, nil
}

// dispatch runs one full pipeline pass under the supervisor.
func (a *app) dispatch(ctx context.Context, trigger string) {
	a.logger.Debug("dispatching pipeline", slog.String("trigger", trigger))

	err := a.supervisor.Do(ctx, func(ctx context.Context) {
		a.dispatcher.Dispatch(ctx)
	})
	if err != nil {
		return
	}

	fmt.Fprintln(a.out, "[✔] pipeline finished. waiting for next changes...")
}

// watchOptions derives the watch settings shared by the CLI watch and the
// interactive session.
func (a *app) watchOptions() watch.Options {
	opts := watch.DefaultOptions()
	opts.Interval = a.cfg.PollInterval()
	opts.Coalesce = a.cfg.Coalesce
	opts.ShowDiff = a.cfg.ShowDiff
	opts.Schedule = a.cfg.Schedule
	opts.ScriptExt = a.cfg.ScriptExt
	opts.Logger = logging.Component(a.logger, "watch")
	opts.Out = a.out

	if a.cfg.AutoDetect {
		opts.ScriptDirs = a.locator.Layout.Dirs(a.root, scripts.PipelineRoles...)
		opts.OnScriptsChanged = func(paths []string) {
			a.logger.Info("script directories changed", slog.Any("paths", paths))

			if _, err := a.dispatcher.Detect(); err != nil {
				a.logger.Warn("re-detecting scripts", slog.String("error", err.Error()))
			}
		}
	}

	return opts
}

// lockedWriter serialises writes from concurrently running children and
// status reporters.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
