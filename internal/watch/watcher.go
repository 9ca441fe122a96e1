package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 2 * time.Second

// queueSize bounds the change events waiting for the dispatch consumer.
const queueSize = 64

// DispatchFunc runs one pipeline pass. trigger names the path (or source)
// that caused it.
type DispatchFunc func(ctx context.Context, trigger string)

// Options configures the watch behaviour.
type Options struct {
	// Targets are the files to poll.
	Targets []string

	// Interval is the poll period.
	Interval time.Duration

	// Once runs the pipeline a single time without polling.
	Once bool

	// Coalesce collapses several changed targets in one tick into a single
	// run. When false each changed target triggers its own run.
	Coalesce bool

	// ShowDiff attaches a unified diff to changes of small text targets.
	ShowDiff bool

	// Schedule is an optional cron expression that triggers extra runs.
	Schedule string

	// ScriptDirs are watched for script changes when OnScriptsChanged is set.
	ScriptDirs []string

	// ScriptExt limits script directory events to this extension.
	ScriptExt string

	// OnScriptsChanged is called (debounced) when a script file changes.
	OnScriptsChanged func(paths []string)

	// Debounce is the quiet period for script directory events.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Interval: DefaultInterval,
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if o.Out == nil {
		o.Out = io.Discard
	}

	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}

	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
}

// Run validates the targets and either dispatches once (Once) or polls until
// ctx is cancelled. Change events are handed to a single consumer, so
// dispatches never overlap.
func Run(ctx context.Context, opts Options, dispatch DispatchFunc) error {
	opts.normalize()

	targets, err := ValidateTargets(opts.Targets)
	if err != nil {
		return err
	}

	opts.Targets = targets

	fmt.Fprintf(opts.Out, "watching %s\n", strings.Join(targets, ", "))

	if opts.Once {
		fmt.Fprintln(opts.Out, "-- running once")
		dispatch(ctx, "(once)")

		return nil
	}

	poller, err := NewPoller(targets, opts.ShowDiff)
	if err != nil {
		return fmt.Errorf("fingerprinting targets: %w", err)
	}

	return run(ctx, opts, poller, dispatch)
}

// run drives an already initialised poller.
func run(ctx context.Context, opts Options, poller *Poller, dispatch DispatchFunc) error {
	fmt.Fprintf(opts.Out, "polling every %s (coalesce=%t)\n", opts.Interval, opts.Coalesce)

	queue := make(chan Event, queueSize)

	enqueue := func(ev Event) {
		select {
		case queue <- ev:
		default:
			opts.Logger.Warn("dispatch queue full, dropping trigger",
				slog.String("kind", string(ev.Kind)), slog.String("path", ev.Path))
		}
	}

	if opts.Schedule != "" {
		sched, err := newScheduler(opts.Schedule, func() {
			enqueue(Event{Kind: EventScheduled, Path: "(schedule)"})
		})
		if err != nil {
			return err
		}

		sched.Start()
		defer sched.Stop()

		fmt.Fprintf(opts.Out, "scheduled runs: %s\n", opts.Schedule)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pollLoop(gctx, opts, poller, enqueue)
		return nil
	})

	g.Go(func() error {
		consume(gctx, queue, dispatch)
		return nil
	})

	if opts.OnScriptsChanged != nil && len(opts.ScriptDirs) > 0 {
		g.Go(func() error {
			// Losing auto-detection must not stop the watch itself.
			if err := watchScriptDirs(gctx, opts.ScriptDirs, opts.ScriptExt, opts.Debounce,
				opts.OnScriptsChanged, opts.Logger); err != nil {
				opts.Logger.Error("script directory watch stopped", slog.String("error", err.Error()))
			}

			return nil
		})
	}

	return g.Wait()
}

func pollLoop(ctx context.Context, opts Options, poller *Poller, enqueue func(Event)) {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		changed := false

		for _, ev := range poller.Tick() {
			switch ev.Kind {
			case EventMissing:
				fmt.Fprintf(opts.Out, "[!] target missing: %s\n", ev.Path)

			case EventError:
				fmt.Fprintf(opts.Out, "[!] cannot read target %s: %v\n", ev.Path, ev.Err)
				opts.Logger.Error("fingerprinting target",
					slog.String("path", ev.Path), slog.String("error", ev.Err.Error()))

			case EventChanged:
				fmt.Fprintf(opts.Out, "[+] change detected: %s\n", ev.Path)

				if ev.Diff != "" {
					fmt.Fprintln(opts.Out, ev.Diff)
				}

				opts.Logger.Debug("target changed",
					slog.String("path", ev.Path), slog.String("fingerprint", ev.Fingerprint.Short()))

				if opts.Coalesce && changed {
					continue
				}

				changed = true

				enqueue(ev)
			}
		}
	}
}

func consume(ctx context.Context, queue <-chan Event, dispatch DispatchFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			dispatch(ctx, ev.Path)
		}
	}
}

// newScheduler parses expr (5 or 6 fields, or a descriptor such as
// "@every 1h") and registers fn.
func newScheduler(expr string, fn func()) (*cron.Cron, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	c := cron.New(cron.WithParser(parser))

	if _, err := c.AddFunc(expr, fn); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	return c, nil
}

// ValidateSchedule reports whether expr is a usable schedule.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}

	_, err := newScheduler(expr, func() {})

	return err
}

// ErrAlreadyWatching is returned by Session.Start while a watch is active.
var ErrAlreadyWatching = errors.New("already watching")

// Session is the Idle/Watching state machine used by interactive front-ends.
type Session struct {
	base     Options
	dispatch DispatchFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	targets []string
}

// NewSession creates an idle session. base supplies everything except the
// targets and interval, which are given to Start.
func NewSession(base Options, dispatch DispatchFunc) *Session {
	base.normalize()

	return &Session{base: base, dispatch: dispatch}
}

// Start moves the session to Watching. Every target must exist; their
// fingerprints are recorded before Start returns.
func (s *Session) Start(ctx context.Context, targets []string, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyWatching
	}

	abs, err := ValidateTargets(targets)
	if err != nil {
		return err
	}

	opts := s.base
	opts.Targets = abs
	opts.Once = false

	opts.Interval = interval
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	if err := ValidateSchedule(opts.Schedule); err != nil {
		return err
	}

	poller, err := NewPoller(abs, opts.ShowDiff)
	if err != nil {
		return fmt.Errorf("fingerprinting targets: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done
	s.targets = abs

	fmt.Fprintf(opts.Out, "watch started for %d target(s)\n", len(abs))

	go func() {
		defer close(done)

		if err := run(runCtx, opts, poller, s.dispatch); err != nil {
			opts.Logger.Error("watch stopped", slog.String("error", err.Error()))
		}

		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.targets = nil
		}
		s.mu.Unlock()
	}()

	return nil
}

// Stop moves the session to Idle. It does not wait for an in-flight
// dispatch; use Done for that.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil
	s.targets = nil

	fmt.Fprintln(s.base.Out, "watch stopped")
}

// Watching reports whether the session is in the Watching state.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

// Targets returns the targets being watched, or nil when idle.
func (s *Session) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.targets...)
}

// Done returns a channel closed when the most recently started watch task
// exits, or nil if Start never succeeded.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done
}
