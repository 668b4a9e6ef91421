// Package metrics records run outcomes as Prometheus series and writes them
// in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ output.MetricsRecorder = (*Recorder)(nil)

const namespace = "uitest"

// Recorder owns its registry so several runs in one process never share series.
type Recorder struct {
	registry *prometheus.Registry

	scenarios        *prometheus.CounterVec
	scenarioDuration *prometheus.HistogramVec
	steps            *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	lastRunSuccess   prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scenarios: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scenarios_total",
				Help:      "Scenarios run, by outcome.",
			},
			[]string{"scenario", "status"},
		),
		scenarioDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scenario_duration_seconds",
				Help:      "Wall time of each scenario including browser startup.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
			},
			[]string{"scenario"},
		),
		steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Steps executed, by action and outcome.",
			},
			[]string{"action", "status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Step latency in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
			},
			[]string{"action"},
		),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when every scenario of the last run passed, else 0.",
		}),
	}
}

func (r *Recorder) ObserveStep(scenario string, step entity.StepResult) {
	r.steps.WithLabelValues(string(step.Action), string(step.Status)).Inc()
	if step.Status != entity.StatusSkipped {
		r.stepDuration.WithLabelValues(string(step.Action)).Observe(step.Duration.Seconds())
	}
}

func (r *Recorder) ObserveScenario(res entity.ScenarioResult) {
	r.scenarios.WithLabelValues(res.Name, string(res.Status)).Inc()
	r.scenarioDuration.WithLabelValues(res.Name).Observe(res.Duration().Seconds())
}

func (r *Recorder) ObserveRun(run *entity.RunResult) {
	if run.Passed() {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all series to path for the node_exporter textfile
// collector.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
