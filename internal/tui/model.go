// Package tui implements the interactive terminal front-end.
//
// The model never blocks: pipeline actions run as tea.Cmds admitted by the
// pipeline supervisor, and everything they print lands in a logging.Queue
// that is drained into the log pane on a short tick.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/hupe1980/docpipe/internal/config"
	"github.com/hupe1980/docpipe/internal/logging"
	"github.com/hupe1980/docpipe/internal/pipeline"
	"github.com/hupe1980/docpipe/internal/scripts"
	"github.com/hupe1980/docpipe/internal/watch"
)

const (
	// drainInterval is how often the log queue is moved into the log pane.
	drainInterval = 200 * time.Millisecond

	// maxLogLines bounds the log pane history.
	maxLogLines = 500

	// headerLines is the height of everything above the log pane.
	headerLines = 13
)

// Options wires the front-end to the pipeline.
type Options struct {
	Dispatcher *pipeline.Dispatcher
	Supervisor *pipeline.Supervisor
	Session    *watch.Session

	// Queue collects logs and status lines for the log pane.
	Queue *logging.Queue

	// Out is where the front-end writes its own status lines. It should
	// feed Queue.
	Out io.Writer

	// Targets and Interval pre-fill the input fields.
	Targets  []string
	Interval time.Duration

	NoColor bool
}

type focusField int

const (
	focusNone focusField = iota
	focusTarget
	focusInterval
)

type (
	tickMsg time.Time

	actionDoneMsg struct {
		name string
		err  error
	}

	watchStartedMsg struct {
		err error
	}
)

// keyString adapts a plain key name for key.Matches.
type keyString string

func (k keyString) String() string { return string(k) }

// Model is the bubbletea model of the front-end.
type Model struct {
	ctx        context.Context
	dispatcher *pipeline.Dispatcher
	supervisor *pipeline.Supervisor
	session    *watch.Session
	queue      *logging.Queue
	out        io.Writer

	keys   keyMap
	help   help.Model
	styles styles

	target   textinput.Model
	interval textinput.Model
	focus    focusField

	lines   []string
	logView viewport.Model

	width    int
	height   int
	inFlight int
}

// New creates the front-end model.
func New(ctx context.Context, opts Options) *Model {
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Queue == nil {
		opts.Queue = logging.NewQueue(0)
	}

	if opts.Interval <= 0 {
		opts.Interval = watch.DefaultInterval
	}

	target := textinput.New()
	target.Prompt = ""
	target.Placeholder = "path/to/file.html; other.md"
	target.SetValue(strings.Join(opts.Targets, "; "))

	interval := textinput.New()
	interval.Prompt = ""
	interval.Placeholder = "2"
	interval.SetValue(formatSeconds(opts.Interval))

	m := &Model{
		ctx:        ctx,
		dispatcher: opts.Dispatcher,
		supervisor: opts.Supervisor,
		session:    opts.Session,
		queue:      opts.Queue,
		out:        opts.Out,
		keys:       defaultKeyMap(),
		help:       help.New(),
		styles:     newStyles(opts.NoColor),
		target:     target,
		interval:   interval,
		width:      80,
		height:     24,
	}
	m.resize()

	return m
}

// Run starts the front-end and blocks until the user quits. An active watch
// is stopped on exit.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)

	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()

	opts.Session.Stop()

	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	fmt.Fprintln(m.out, "ready: tab edits the fields, w starts watching")

	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

		return m, nil

	case tickMsg:
		m.drain()
		return m, tick()

	case actionDoneMsg:
		m.inFlight--

		if errors.Is(msg.err, pipeline.ErrBusy) {
			fmt.Fprintf(m.out, "[!] %s ignored: another action is running\n", msg.name)
		} else if msg.err != nil {
			fmt.Fprintf(m.out, "[!] %s: %v\n", msg.name, msg.err)
		}

		return m, nil

	case watchStartedMsg:
		if msg.err != nil {
			fmt.Fprintf(m.out, "[!] cannot start watch: %v\n", msg.err)
		}

		return m, nil

	case tea.KeyMsg:
		if m.focus != focusNone {
			return m, m.updateField(msg)
		}

		return m, m.handleKey(msg.String())
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)

	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m *Model) updateField(msg tea.KeyMsg) tea.Cmd {
	k := keyString(msg.String())

	switch {
	case k == "ctrl+c":
		return m.quit()
	case key.Matches(k, m.keys.Blur):
		m.setFocus(focusNone)
		return nil
	case key.Matches(k, m.keys.Focus):
		return m.setFocus((m.focus + 1) % 3)
	}

	var cmd tea.Cmd

	switch m.focus {
	case focusTarget:
		m.target, cmd = m.target.Update(msg)
	case focusInterval:
		m.interval, cmd = m.interval.Update(msg)
	}

	return cmd
}

// handleKey maps an action key to its command while no field is focused.
func (m *Model) handleKey(k string) tea.Cmd {
	ks := keyString(k)

	switch {
	case key.Matches(ks, m.keys.Quit):
		return m.quit()

	case key.Matches(ks, m.keys.Focus):
		return m.setFocus(focusTarget)

	case key.Matches(ks, m.keys.Translate):
		return m.stage(pipeline.StageTranslate)

	case key.Matches(ks, m.keys.Minify):
		return m.stage(pipeline.StageMinify)

	case key.Matches(ks, m.keys.Convert):
		return m.stage(pipeline.StageConvert)

	case key.Matches(ks, m.keys.RunAll):
		d := m.dispatcher

		return m.action("run all", func(ctx context.Context) {
			d.Dispatch(ctx)
		})

	case key.Matches(ks, m.keys.Detect):
		d, out := m.dispatcher, m.out

		return m.action("detect", func(context.Context) {
			if _, err := d.Detect(); err != nil {
				fmt.Fprintf(out, "[!] %v\n", err)
			}
		})

	case key.Matches(ks, m.keys.Portfolio):
		d := m.dispatcher

		return m.action("portfolio updater", func(ctx context.Context) {
			d.OpenPortfolioUpdater(ctx)
		})

	case key.Matches(ks, m.keys.Watch):
		return m.toggleWatch()
	}

	return nil
}

func (m *Model) stage(st pipeline.Stage) tea.Cmd {
	d := m.dispatcher

	return m.action(string(st), func(ctx context.Context) {
		d.RunStage(ctx, st)
	})
}

// action runs fn off the UI goroutine unless another action holds the
// supervisor.
func (m *Model) action(name string, fn func(ctx context.Context)) tea.Cmd {
	m.inFlight++

	ctx, sup := m.ctx, m.supervisor

	return func() tea.Msg {
		return actionDoneMsg{name: name, err: sup.TryDo(ctx, fn)}
	}
}

func (m *Model) toggleWatch() tea.Cmd {
	if m.session.Watching() {
		m.session.Stop()
		return nil
	}

	targets := splitTargets(m.target.Value())
	if len(targets) == 0 {
		fmt.Fprintln(m.out, "[!] enter at least one target file")
		return nil
	}

	interval := config.ParseInterval(m.interval.Value())
	m.interval.SetValue(formatSeconds(interval))

	ctx, session := m.ctx, m.session

	return func() tea.Msg {
		return watchStartedMsg{err: session.Start(ctx, targets, interval)}
	}
}

func (m *Model) quit() tea.Cmd {
	m.session.Stop()
	return tea.Quit
}

func (m *Model) setFocus(f focusField) tea.Cmd {
	m.focus = f
	m.target.Blur()
	m.interval.Blur()

	switch f {
	case focusTarget:
		return m.target.Focus()
	case focusInterval:
		return m.interval.Focus()
	default:
		return nil
	}
}

// drain moves queued log lines into the log pane.
func (m *Model) drain() {
	lines := m.queue.Drain()
	if len(lines) == 0 {
		return
	}

	m.lines = append(m.lines, lines...)
	if over := len(m.lines) - maxLogLines; over > 0 {
		m.lines = m.lines[over:]
	}

	m.logView.SetContent(strings.Join(m.lines, "\n"))
	m.logView.GotoBottom()
}

func (m *Model) resize() {
	h := m.height - headerLines
	if h < 3 {
		h = 3
	}

	w := m.width - 2
	if w < 20 {
		w = 20
	}

	m.logView = viewport.New(viewport.WithWidth(w), viewport.WithHeight(h))
	m.logView.SetContent(strings.Join(m.lines, "\n"))
	m.logView.GotoBottom()
}

func (m *Model) render() string {
	s := m.styles

	var b strings.Builder

	b.WriteString(s.title.Render("docpipe"))
	b.WriteString("\n")
	b.WriteString(s.label.Render("Targets") + m.target.View() + "\n")
	b.WriteString(s.label.Render("Interval") + m.interval.View() + " s\n\n")

	set := m.dispatcher.Scripts()

	for _, r := range scripts.PipelineRoles {
		b.WriteString(s.label.Render(string(r)) + m.scriptLabel(set, r) + "\n")
	}

	b.WriteString("\n" + s.status.Render(m.statusLine()) + "\n")
	b.WriteString(s.log.Render(m.logView.View()) + "\n")
	b.WriteString(s.help.Render(m.help.View(m.keys)))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m *Model) scriptLabel(set *scripts.Set, r scripts.Role) string {
	p := set.Path(r)
	if p == "" {
		return m.styles.missing.Render("not found")
	}

	return m.styles.found.Render(filepath.Base(p))
}

func (m *Model) statusLine() string {
	status := "○ idle"
	if m.session.Watching() {
		status = fmt.Sprintf("● watching %d target(s)", len(m.session.Targets()))
	}

	if m.inFlight > 0 {
		status += " · running"
	}

	if m.dispatcher.NoHTML() {
		status += " · html→pdf off"
	}

	if n := m.queue.Dropped(); n > 0 {
		status += fmt.Sprintf(" · %d log line(s) dropped", n)
	}

	return status
}

func tick() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// splitTargets parses the ';'-separated target field.
func splitTargets(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%g", d.Seconds())
}
