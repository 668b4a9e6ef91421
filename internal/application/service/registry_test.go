package service

import (
	"testing"

	"schoolbus-uitest/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario(name string, tags ...string) entity.Scenario {
	return entity.Scenario{
		Name:  name,
		Tags:  tags,
		Steps: []entity.Step{entity.Navigate("/login")},
	}
}

func TestScenarioRegistry_RegisterAndGet(t *testing.T) {
	r := NewScenarioRegistry()
	require.NoError(t, r.Register(scenario("valid-login")))
	require.NoError(t, r.Register(scenario("invalid-login")))

	sc, ok := r.Get("valid-login")
	assert.True(t, ok)
	assert.Equal(t, "valid-login", sc.Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	names := []string{}
	for _, sc := range r.All() {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{"valid-login", "invalid-login"}, names)
}

func TestScenarioRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewScenarioRegistry()
	require.NoError(t, r.Register(scenario("valid-login")))

	dup := scenario("valid-login")
	dup.Source = "flows/login.yaml"
	err := r.Register(dup)
	assert.ErrorContains(t, err, "already registered")
	assert.ErrorContains(t, err, "built-in catalog")

	assert.Error(t, r.Register(entity.Scenario{Name: "no-steps"}))
	assert.Len(t, r.All(), 1)
}

func TestScenarioRegistry_Select(t *testing.T) {
	r := NewScenarioRegistry()
	require.NoError(t, r.Register(scenario("valid-login", "auth", "smoke")))
	require.NoError(t, r.Register(scenario("invalid-login", "auth")))
	require.NoError(t, r.Register(scenario("empty-email-login", "boundary")))

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	picked, err := r.Select([]string{"invalid-login", " valid-login ", "invalid-login"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "invalid-login", picked[0].Name)
	assert.Equal(t, "valid-login", picked[1].Name)

	tagged, err := r.Select([]string{"tag:auth"})
	require.NoError(t, err)
	assert.Len(t, tagged, 2)

	_, err = r.Select([]string{"valid-login", "nope", "tag:missing"})
	assert.EqualError(t, err, "unknown scenarios: nope, tag:missing")
}
