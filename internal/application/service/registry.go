package service

import (
	"fmt"
	"strings"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"
)

var _ output.ScenarioRegistry = (*ScenarioRegistryImpl)(nil)

// ScenarioRegistryImpl keeps scenarios in registration order.
type ScenarioRegistryImpl struct {
	order     []string
	scenarios map[string]entity.Scenario
}

func NewScenarioRegistry() *ScenarioRegistryImpl {
	return &ScenarioRegistryImpl{
		scenarios: make(map[string]entity.Scenario),
	}
}

func (r *ScenarioRegistryImpl) Register(sc entity.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if existing, ok := r.scenarios[sc.Name]; ok {
		return fmt.Errorf("scenario %q already registered (from %s)", sc.Name, sourceOf(existing))
	}
	r.scenarios[sc.Name] = sc
	r.order = append(r.order, sc.Name)
	return nil
}

func (r *ScenarioRegistryImpl) Get(name string) (entity.Scenario, bool) {
	sc, ok := r.scenarios[name]
	return sc, ok
}

func (r *ScenarioRegistryImpl) All() []entity.Scenario {
	result := make([]entity.Scenario, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.scenarios[name])
	}
	return result
}

// Select returns the named scenarios in the order given. Names prefixed with
// "tag:" select every scenario carrying that tag. An empty list selects all.
func (r *ScenarioRegistryImpl) Select(names []string) ([]entity.Scenario, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	var (
		result  []entity.Scenario
		seen    = make(map[string]bool)
		unknown []string
	)
	add := func(sc entity.Scenario) {
		if seen[sc.Name] {
			return
		}
		seen[sc.Name] = true
		result = append(result, sc)
	}

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if tag, ok := strings.CutPrefix(name, "tag:"); ok {
			matched := false
			for _, sc := range r.All() {
				if sc.HasTag(tag) {
					add(sc)
					matched = true
				}
			}
			if !matched {
				unknown = append(unknown, name)
			}
			continue
		}
		sc, ok := r.scenarios[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		add(sc)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown scenarios: %s", strings.Join(unknown, ", "))
	}
	return result, nil
}

func sourceOf(sc entity.Scenario) string {
	if sc.Source == "" {
		return "built-in catalog"
	}
	return sc.Source
}
