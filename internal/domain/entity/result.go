package entity

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

type StepResult struct {
	Index     int
	Action    Action
	Label     string
	Status    Status
	Duration  time.Duration
	Note      string
	URL       string
	Error     *StepError
	Hints     []string
	Artifacts []string
}

type ScenarioResult struct {
	Name       string
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
	Error      *StepError
	FinalURL   string
}

func (r ScenarioResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStep returns the first step that did not pass or be skipped.
func (r ScenarioResult) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Status == StatusFailed || s.Status == StatusErrored {
			return s, true
		}
	}
	return StepResult{}, false
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
	Skipped int
}

type RunResult struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Scenarios  []ScenarioResult
	Summary    Summary
}

func (r *RunResult) Add(res ScenarioResult) {
	r.Scenarios = append(r.Scenarios, res)
	r.Summary.Total++
	switch res.Status {
	case StatusPassed:
		r.Summary.Passed++
	case StatusFailed:
		r.Summary.Failed++
	case StatusErrored:
		r.Summary.Errored++
	case StatusSkipped:
		r.Summary.Skipped++
	}
}

// Passed reports whether every scenario ran and passed.
func (r *RunResult) Passed() bool {
	return r.Summary.Total > 0 && r.Summary.Passed == r.Summary.Total
}

func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
