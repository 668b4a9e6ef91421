// Package report renders run progress and results.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints one line per step and a summary per run.
type ConsoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool

	title  *color.Color
	pass   *color.Color
	fail   *color.Color
	errc   *color.Color
	skip   *color.Color
	dim    *color.Color
	notice *color.Color
}

func NewConsoleReporter(w io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		w:       w,
		verbose: verbose,
		title:   color.New(color.FgCyan, color.Bold),
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		errc:    color.New(color.FgMagenta),
		skip:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
		notice:  color.New(color.FgBlue),
	}
}

func (r *ConsoleReporter) ScenarioStarted(sc entity.Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.title.Fprintf(r.w, "\n━━━ %s ━━━\n", sc.Name)
	if sc.Description != "" {
		r.dim.Fprintf(r.w, "   %s\n", sc.Description)
	}
}

func (r *ConsoleReporter) StepFinished(sc entity.Scenario, step entity.StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch step.Status {
	case entity.StatusPassed:
		r.pass.Fprintf(r.w, "✓ %s", step.Label)
		r.dim.Fprintf(r.w, " (%s)\n", formatDuration(step.Duration))
		if step.Note != "" {
			r.notice.Fprintf(r.w, "   %s\n", step.Note)
		} else if r.verbose && step.URL != "" {
			r.dim.Fprintf(r.w, "   url: %s\n", step.URL)
		}
	case entity.StatusSkipped:
		r.skip.Fprintf(r.w, "- %s (skipped)\n", step.Label)
		if step.Note != "" {
			r.dim.Fprintf(r.w, "   %s\n", step.Note)
		}
	default:
		r.colorFor(step.Status).Fprintf(r.w, "✗ %s", step.Label)
		r.dim.Fprintf(r.w, " (%s)\n", formatDuration(step.Duration))
		if step.Error != nil {
			r.colorFor(step.Status).Fprintf(r.w, "   %s: ", step.Error.Code())
			r.dim.Fprintln(r.w, truncate(step.Error.Error(), 300))
		}
		if step.URL != "" {
			r.dim.Fprintf(r.w, "   url: %s\n", step.URL)
		}
		for _, h := range step.Hints {
			r.notice.Fprintf(r.w, "   hint: %s\n", h)
		}
		for _, a := range step.Artifacts {
			r.dim.Fprintf(r.w, "   artifact: %s\n", a)
		}
	}
}

func (r *ConsoleReporter) ScenarioFinished(res entity.ScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.colorFor(res.Status)
	c.Fprintf(r.w, "%s %s", strings.ToUpper(string(res.Status)), res.Name)
	r.dim.Fprintf(r.w, " in %s\n", formatDuration(res.Duration()))
	if res.Status == entity.StatusSkipped && res.Error != nil {
		r.dim.Fprintf(r.w, "   %s\n", res.Error.Error())
	}
}

func (r *ConsoleReporter) RunFinished(run *entity.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := run.Summary
	fmt.Fprintln(r.w)
	r.title.Fprintf(r.w, "━━━ Summary ━━━\n")
	fmt.Fprintf(r.w, "%d scenarios: ", s.Total)
	r.pass.Fprintf(r.w, "%d passed", s.Passed)
	fmt.Fprint(r.w, ", ")
	r.fail.Fprintf(r.w, "%d failed", s.Failed)
	fmt.Fprint(r.w, ", ")
	r.errc.Fprintf(r.w, "%d errored", s.Errored)
	fmt.Fprint(r.w, ", ")
	r.skip.Fprintf(r.w, "%d skipped", s.Skipped)
	r.dim.Fprintf(r.w, " (%s)\n", formatDuration(run.Duration()))

	for _, sc := range run.Scenarios {
		if sc.Status == entity.StatusPassed || sc.Status == entity.StatusSkipped {
			continue
		}
		step, ok := sc.FailedStep()
		if !ok {
			r.colorFor(sc.Status).Fprintf(r.w, "  %s: %s\n", sc.Name, errorText(sc.Error))
			continue
		}
		r.colorFor(sc.Status).Fprintf(r.w, "  %s: step %d %q: %s\n", sc.Name, step.Index+1, step.Label, errorText(step.Error))
	}
}

func (r *ConsoleReporter) colorFor(s entity.Status) *color.Color {
	switch s {
	case entity.StatusPassed:
		return r.pass
	case entity.StatusFailed:
		return r.fail
	case entity.StatusSkipped:
		return r.skip
	default:
		return r.errc
	}
}

func errorText(err *entity.StepError) string {
	if err == nil {
		return "unknown error"
	}
	return truncate(err.Error(), 200)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
