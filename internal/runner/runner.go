// Package runner launches pipeline scripts as child processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"

	"github.com/joho/godotenv"
)

// DefaultInterpreter runs the collaborator scripts.
const DefaultInterpreter = "python3"

// Options configures a Runner.
type Options struct {
	// Interpreter is the program each script is passed to. When empty the
	// script itself is executed.
	Interpreter string

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives status lines and the output of blocking children.
	Out io.Writer

	// Detached receives the output of detached children. The child holds
	// its own copy of the descriptor, so it keeps writing after docpipe
	// exits. Nil sends the output to the null device.
	Detached *os.File
}

// Runner starts scripts either blocking (exit status observed) or detached
// (fire-and-forget).
type Runner struct {
	interpreter string
	env         []string
	logger      *slog.Logger
	out         io.Writer
	detached    *os.File
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &Runner{
		interpreter: opts.Interpreter,
		env:         opts.Env,
		logger:      opts.Logger,
		out:         opts.Out,
		detached:    opts.Detached,
	}
}

// Run starts the script at path. Interactive scripts are detached and Run
// reports true once the spawn succeeds; otherwise Run blocks and reports
// whether the child exited with status 0. Run never returns an error: a
// missing script or failed spawn is logged and reported as false.
func (r *Runner) Run(ctx context.Context, path string, interactive bool) bool {
	if path == "" {
		fmt.Fprintln(r.out, "[!] no script path given")
		r.logger.Warn("script path empty")

		return false
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(r.out, "[!] script not found: %s\n", path)
		r.logger.Warn("script not found", slog.String("path", path), slog.String("error", err.Error()))

		return false
	}

	fmt.Fprintf(r.out, "-> running: %s\n", path)

	if interactive {
		return r.spawn(path)
	}

	return r.wait(ctx, path)
}

func (r *Runner) command(ctx context.Context, path string) *exec.Cmd {
	var cmd *exec.Cmd

	if r.interpreter == "" {
		cmd = exec.CommandContext(ctx, path) //nolint:gosec // path comes from the script locator
	} else {
		cmd = exec.CommandContext(ctx, r.interpreter, path) //nolint:gosec // interpreter is operator configuration
	}

	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	return cmd
}

func (r *Runner) wait(ctx context.Context, path string) bool {
	cmd := r.command(ctx, path)
	cmd.Stdout = r.out
	cmd.Stderr = r.out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Info("script exited with failure",
				slog.String("path", path), slog.Int("exitCode", exitErr.ExitCode()))

			return false
		}

		fmt.Fprintf(r.out, "[!] error running %s: %v\n", path, err)
		r.logger.Error("spawning script", slog.String("path", path), slog.String("error", err.Error()))

		return false
	}

	return true
}

func (r *Runner) spawn(path string) bool {
	// Detached children outlive the caller's context.
	cmd := r.command(context.Background(), path)

	// Only an *os.File is handed to the child as-is. Any other writer would
	// be fed through a pipe that breaks when docpipe exits.
	if r.detached != nil {
		cmd.Stdout = r.detached
		cmd.Stderr = r.detached
	}

	detach(cmd)

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(r.out, "[!] error launching %s: %v\n", path, err)
		r.logger.Error("launching script", slog.String("path", path), slog.String("error", err.Error()))

		return false
	}

	r.logger.Debug("script launched", slog.String("path", path), slog.Int("pid", cmd.Process.Pid))

	// Reap the child so it does not linger as a zombie; its status is ignored.
	go func() { _ = cmd.Wait() }()

	return true
}

// LoadEnvFile reads a dotenv file into sorted KEY=VALUE pairs. An empty
// path yields no pairs.
func LoadEnvFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %q: %w", path, err)
	}

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}

	sort.Strings(env)

	return env, nil
}
