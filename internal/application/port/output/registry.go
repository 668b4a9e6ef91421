package output

import "schoolbus-uitest/internal/domain/entity"

type ScenarioRegistry interface {
	Register(sc entity.Scenario) error
	Get(name string) (entity.Scenario, bool)
	All() []entity.Scenario
	Select(names []string) ([]entity.Scenario, error)
}
