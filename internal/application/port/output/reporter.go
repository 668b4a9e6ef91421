package output

import "schoolbus-uitest/internal/domain/entity"

type Reporter interface {
	ScenarioStarted(sc entity.Scenario)
	StepFinished(sc entity.Scenario, step entity.StepResult)
	ScenarioFinished(res entity.ScenarioResult)
	RunFinished(run *entity.RunResult)
}

type MetricsRecorder interface {
	ObserveStep(scenario string, step entity.StepResult)
	ObserveScenario(res entity.ScenarioResult)
}

// ArtifactStore persists failure diagnostics and returns the stored paths.
type ArtifactStore interface {
	SaveSnapshot(runID, scenario string, step int, snap *entity.PageSnapshot) ([]string, error)
}

// LocatorAdvisor suggests elements in html resembling a locator that failed to resolve.
type LocatorAdvisor interface {
	Suggest(html string, loc entity.Locator) []string
}
