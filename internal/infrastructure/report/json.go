package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"schoolbus-uitest/internal/domain/entity"
)

type Report struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	DurationMs int64      `json:"durationMs"`
	Passed     bool       `json:"passed"`
	Summary    Summary    `json:"summary"`
	Scenarios  []Scenario `json:"scenarios"`
}

type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

type Scenario struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
	FinalURL   string `json:"finalUrl,omitempty"`
	Error      *Error `json:"error,omitempty"`
	Steps      []Step `json:"steps"`
}

type Step struct {
	Index      int      `json:"index"`
	Action     string   `json:"action"`
	Label      string   `json:"label"`
	Status     string   `json:"status"`
	DurationMs int64    `json:"durationMs"`
	URL        string   `json:"url,omitempty"`
	Note       string   `json:"note,omitempty"`
	Error      *Error   `json:"error,omitempty"`
	Hints      []string `json:"hints,omitempty"`
	Artifacts  []string `json:"artifacts,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewReport(run *entity.RunResult) Report {
	rep := Report{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DurationMs: run.Duration().Milliseconds(),
		Passed:     run.Passed(),
		Summary:    Summary(run.Summary),
		Scenarios:  make([]Scenario, 0, len(run.Scenarios)),
	}

	for _, sc := range run.Scenarios {
		out := Scenario{
			Name:       sc.Name,
			Status:     string(sc.Status),
			DurationMs: sc.Duration().Milliseconds(),
			FinalURL:   sc.FinalURL,
			Error:      newError(sc.Error),
			Steps:      make([]Step, 0, len(sc.Steps)),
		}
		for _, st := range sc.Steps {
			out.Steps = append(out.Steps, Step{
				Index:      st.Index,
				Action:     string(st.Action),
				Label:      st.Label,
				Status:     string(st.Status),
				DurationMs: st.Duration.Milliseconds(),
				URL:        st.URL,
				Note:       st.Note,
				Error:      newError(st.Error),
				Hints:      st.Hints,
				Artifacts:  st.Artifacts,
			})
		}
		rep.Scenarios = append(rep.Scenarios, out)
	}
	return rep
}

func newError(err *entity.StepError) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: err.Code(), Message: err.Error()}
}

// WriteJSON writes the run report to path through a temp file so readers
// never see a partial report.
func WriteJSON(path string, run *entity.RunResult) error {
	data, err := json.MarshalIndent(NewReport(run), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
