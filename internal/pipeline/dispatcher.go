// Package pipeline runs the translate → minify → convert chain.
//
// Every stage is attempted on every run: a failing translator does not stop
// the minifier, and only configuration (no-html) skips conversion. The
// converter is launched detached because it may open its own interface.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/docpipe/internal/scripts"
)

// ScriptRunner starts a script; see runner.Runner.
type ScriptRunner interface {
	Run(ctx context.Context, path string, interactive bool) bool
}

// Options configures a Dispatcher.
type Options struct {
	// Runner starts the stage scripts.
	Runner ScriptRunner

	// Locator re-resolves scripts on Detect and finds the portfolio updater.
	Locator scripts.Locator

	// Scripts is the initial resolved script set.
	Scripts *scripts.Set

	// NoHTML skips the conversion stage.
	NoHTML bool

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// Dispatcher executes pipeline runs against a resolved script set.
type Dispatcher struct {
	runner  ScriptRunner
	locator scripts.Locator
	noHTML  bool
	logger  *slog.Logger
	out     io.Writer

	scripts atomic.Pointer[scripts.Set]
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Scripts == nil {
		opts.Scripts = scripts.NewSet(nil)
	}

	d := &Dispatcher{
		runner:  opts.Runner,
		locator: opts.Locator,
		noHTML:  opts.NoHTML,
		logger:  opts.Logger,
		out:     opts.Out,
	}
	d.scripts.Store(opts.Scripts)

	return d
}

// Scripts returns the current script snapshot.
func (d *Dispatcher) Scripts() *scripts.Set { return d.scripts.Load() }

// NoHTML reports whether conversion is disabled.
func (d *Dispatcher) NoHTML() bool { return d.noHTML }

// Detect re-resolves the pipeline scripts and swaps in the new snapshot.
// Roles that failed to resolve are left empty in the new set.
func (d *Dispatcher) Detect() (*scripts.Set, error) {
	set, err := d.locator.Resolve()
	d.scripts.Store(set)

	for _, r := range scripts.PipelineRoles {
		d.logger.Debug("script resolved", slog.String("role", string(r)), slog.String("path", set.Path(r)))
	}

	fmt.Fprintln(d.out, "scripts re-detected")

	return set, err
}

// Dispatch runs all three stages in order and returns their outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context) Run {
	run := Run{Started: time.Now()}

	fmt.Fprintln(d.out, "--- run all started ---")

	run.Translate = d.RunStage(ctx, StageTranslate)
	run.Minify = d.RunStage(ctx, StageMinify)
	run.Convert = d.RunStage(ctx, StageConvert)

	run.Duration = time.Since(run.Started)

	fmt.Fprintf(d.out, "--- run all finished: %s ---\n", run.Summary())
	d.logger.Info("pipeline run finished",
		slog.String("translate", string(run.Translate)),
		slog.String("minify", string(run.Minify)),
		slog.String("convert", string(run.Convert)),
		slog.Duration("duration", run.Duration),
	)

	return run
}

// RunStage runs a single stage against the current snapshot.
func (d *Dispatcher) RunStage(ctx context.Context, stage Stage) Outcome {
	role, ok := stageRoles[stage]
	if !ok {
		fmt.Fprintf(d.out, "[!] unknown stage %q\n", stage)
		return NotRun
	}

	interactive := stage == StageConvert

	if interactive && d.noHTML {
		fmt.Fprintf(d.out, "-> %s skipped by configuration\n", stage)
		return Skipped
	}

	path := d.Scripts().Path(role)
	if path == "" {
		fmt.Fprintf(d.out, "[!] %s script not found\n", role)
		d.logger.Warn("script not found", slog.String("role", string(role)))

		return NotRun
	}

	return d.launch(ctx, string(stage), path, interactive)
}

// OpenPortfolioUpdater resolves the portfolio updater on demand and launches
// it detached.
func (d *Dispatcher) OpenPortfolioUpdater(ctx context.Context) Outcome {
	path, err := d.locator.Locate(scripts.RolePortfolio)
	if err != nil {
		fmt.Fprintf(d.out, "[!] locating portfolio updater: %v\n", err)
		return NotRun
	}

	if path == "" {
		fmt.Fprintln(d.out, "[!] portfolio updater not found")
		return NotRun
	}

	fmt.Fprintf(d.out, "-> opening portfolio updater: %s\n", filepath.Base(path))

	return d.launch(ctx, "portfolio updater", path, true)
}

func (d *Dispatcher) launch(ctx context.Context, name, path string, interactive bool) Outcome {
	ok := d.runner.Run(ctx, path, interactive)

	if interactive {
		fmt.Fprintf(d.out, "   %s launched: %t\n", name, ok)

		if ok {
			return Launched
		}

		return Failed
	}

	fmt.Fprintf(d.out, "   %s finished: %t\n", name, ok)

	if ok {
		return Succeeded
	}

	return Failed
}

var stageRoles = map[Stage]scripts.Role{
	StageTranslate: scripts.RoleTranslator,
	StageMinify:    scripts.RoleMinifier,
	StageConvert:   scripts.RoleConverter,
}

// ParseStage converts a stage name to a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if _, ok := stageRoles[st]; !ok {
		return "", fmt.Errorf("unknown stage %q: must be one of translate, minify, convert", s)
	}

	return st, nil
}
