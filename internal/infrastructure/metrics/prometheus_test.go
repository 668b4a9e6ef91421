package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"schoolbus-uitest/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()
	start := time.Now()

	r.ObserveStep("valid-login", entity.StepResult{Action: entity.ActionFill, Status: entity.StatusPassed, Duration: 120 * time.Millisecond})
	r.ObserveStep("valid-login", entity.StepResult{Action: entity.ActionFill, Status: entity.StatusFailed, Duration: time.Second})
	r.ObserveStep("valid-login", entity.StepResult{Action: entity.ActionClick, Status: entity.StatusSkipped})
	r.ObserveScenario(entity.ScenarioResult{Name: "valid-login", Status: entity.StatusFailed, StartedAt: start, FinishedAt: start.Add(3 * time.Second)})
	r.ObserveScenario(entity.ScenarioResult{Name: "invalid-login", Status: entity.StatusPassed, StartedAt: start, FinishedAt: start.Add(time.Second)})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.steps.WithLabelValues("fill", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.steps.WithLabelValues("fill", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.steps.WithLabelValues("click", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scenarios.WithLabelValues("valid-login", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scenarios.WithLabelValues("invalid-login", "passed")))

	// skipped steps have no latency
	assert.Equal(t, 1, testutil.CollectAndCount(r.stepDuration, "uitest_step_duration_seconds"))

	run := &entity.RunResult{}
	run.Add(entity.ScenarioResult{Status: entity.StatusPassed})
	r.ObserveRun(run)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRunSuccess))

	run.Add(entity.ScenarioResult{Status: entity.StatusErrored})
	r.ObserveRun(run)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRunSuccess))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveScenario(entity.ScenarioResult{Name: "logout-redirect", Status: entity.StatusPassed})

	path := filepath.Join(t.TempDir(), "textfile", "uitest.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `uitest_scenarios_total{scenario="logout-redirect",status="passed"} 1`)
	assert.Contains(t, string(data), "# TYPE uitest_scenario_duration_seconds histogram")
}

func TestRecorders_AreIsolated(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveScenario(entity.ScenarioResult{Name: "x", Status: entity.StatusPassed})

	assert.Equal(t, 0, testutil.CollectAndCount(b.scenarios))
	assert.Equal(t, 1, testutil.CollectAndCount(a.scenarios))
}
