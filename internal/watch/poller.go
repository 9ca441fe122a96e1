package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/docpipe/internal/fingerprint"
)

// EventKind classifies what a poll tick observed for a target.
type EventKind string

// Event kinds.
const (
	// EventChanged means the target's content differs from the last tick.
	EventChanged EventKind = "changed"
	// EventMissing means the target does not exist at the moment.
	EventMissing EventKind = "missing"
	// EventError means the target could not be fingerprinted.
	EventError EventKind = "error"
	// EventScheduled is a cron-triggered run, not tied to a target.
	EventScheduled EventKind = "scheduled"
)

// Event is emitted by the poller (or the scheduler) and consumed by the
// dispatch task.
type Event struct {
	Kind        EventKind
	Path        string
	Fingerprint fingerprint.Fingerprint

	// Diff is a unified diff of the change when content diffs are enabled.
	Diff string

	// Err is set for EventError.
	Err error
}

// ErrNoTargets is returned when a watch is started without targets.
var ErrNoTargets = errors.New("no targets to watch")

// MissingTargetsError lists targets that did not exist when watching started.
type MissingTargetsError struct {
	Paths []string
}

func (e *MissingTargetsError) Error() string {
	return fmt.Sprintf("%d target(s) not found: %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

// ValidateTargets makes every target absolute and checks that it exists.
func ValidateTargets(targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	abs := make([]string, 0, len(targets))

	var missing []string

	for _, t := range targets {
		p, err := filepath.Abs(t)
		if err != nil {
			return nil, fmt.Errorf("resolving target %q: %w", t, err)
		}

		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
			continue
		}

		abs = append(abs, p)
	}

	if len(missing) > 0 {
		return nil, &MissingTargetsError{Paths: missing}
	}

	return abs, nil
}

// Poller tracks the last known fingerprint of each target. It is owned by a
// single goroutine; nothing else reads or writes its state.
type Poller struct {
	targets  []string
	last     map[string]fingerprint.Fingerprint
	contents *contentCache
}

// NewPoller records the current fingerprint of every target, so a change is
// only reported on a later Tick. When showDiff is set the poller also keeps
// small text snapshots to diff against.
func NewPoller(targets []string, showDiff bool) (*Poller, error) {
	p := &Poller{
		targets: append([]string(nil), targets...),
		last:    make(map[string]fingerprint.Fingerprint, len(targets)),
	}

	if showDiff {
		p.contents = newContentCache()
	}

	for _, t := range p.targets {
		fp, err := fingerprint.File(t)
		if err != nil {
			return nil, err
		}

		p.last[t] = fp
		p.contents.store(t)
	}

	return p, nil
}

// Targets returns the watched paths.
func (p *Poller) Targets() []string { return append([]string(nil), p.targets...) }

// recorded returns the fingerprint target had at the previous tick.
func (p *Poller) recorded(target string) fingerprint.Fingerprint { return p.last[target] }

// Tick re-fingerprints every target and returns what changed. A vanished
// target yields EventMissing (every tick while it stays absent); a content
// change yields EventChanged. Fingerprint errors yield EventError and leave
// the recorded state untouched.
func (p *Poller) Tick() []Event {
	var events []Event

	for _, t := range p.targets {
		cur, err := fingerprint.File(t)
		if err != nil {
			events = append(events, Event{Kind: EventError, Path: t, Err: err})
			continue
		}

		if cur.IsMissing() {
			p.last[t] = fingerprint.Missing
			p.contents.forget(t)
			events = append(events, Event{Kind: EventMissing, Path: t})

			continue
		}

		if cur == p.recorded(t) {
			continue
		}

		ev := Event{Kind: EventChanged, Path: t, Fingerprint: cur}
		ev.Diff = p.contents.diff(t)

		events = append(events, ev)
		p.last[t] = cur
	}

	return events
}
