package input

import (
	"context"

	"schoolbus-uitest/internal/domain/entity"
)

type ScenarioRunner interface {
	Run(ctx context.Context, scenarios []entity.Scenario) (*entity.RunResult, error)
}
