package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of one pipeline stage.
type Outcome string

// Stage outcomes.
const (
	// NotRun means no script was found for the stage.
	NotRun Outcome = "not-run"
	// Succeeded means a blocking stage exited with status 0.
	Succeeded Outcome = "ok"
	// Failed means a blocking stage exited non-zero or could not start,
	// or an interactive stage could not be spawned.
	Failed Outcome = "failed"
	// Launched means an interactive stage was spawned.
	Launched Outcome = "launched"
	// Skipped means the stage was disabled by configuration.
	Skipped Outcome = "skipped"
)

// Stage names a pipeline step.
type Stage string

// Pipeline stages in execution order.
const (
	StageTranslate Stage = "translate"
	StageMinify    Stage = "minify"
	StageConvert   Stage = "convert"
)

// Stages lists the stages in the order they always run.
var Stages = []Stage{StageTranslate, StageMinify, StageConvert}

// Run records one dispatch cycle. It is never persisted.
type Run struct {
	Translate Outcome
	Minify    Outcome
	Convert   Outcome

	Started  time.Time
	Duration time.Duration
}

// Outcome returns the recorded outcome for stage.
func (r Run) Outcome(stage Stage) Outcome {
	switch stage {
	case StageTranslate:
		return r.Translate
	case StageMinify:
		return r.Minify
	case StageConvert:
		return r.Convert
	default:
		return ""
	}
}

// OK reports whether no stage failed. Skipped and not-run stages do not
// count as failures.
func (r Run) OK() bool {
	return r.Translate != Failed && r.Minify != Failed && r.Convert != Failed
}

// Summary renders the run as a single log line.
func (r Run) Summary() string {
	parts := make([]string, 0, len(Stages))
	for _, s := range Stages {
		parts = append(parts, fmt.Sprintf("%s=%s", s, r.Outcome(s)))
	}

	return strings.Join(parts, " ")
}
