package flowfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"schoolbus-uitest/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVars = map[string]string{
	"LOGIN_PATH":      "/login",
	"EMAIL_FIELD":     "name=email",
	"VALID_EMAIL":     "admin@example.com",
	"SUBMIT_SELECTOR": "css=button[type='submit']",
	"SETTLE_WINDOW":   "2s",
}

func TestParse_FullFlow(t *testing.T) {
	src := `
name: admin-login-keeps-session
description: Admin stays signed in after reload
tags: [auth, smoke]
steps:
  - navigate: ${LOGIN_PATH}
  - fill: {locator: "${EMAIL_FIELD}", value: "${VALID_EMAIL}", label: type email}
  - click: "${SUBMIT_SELECTOR}"
  - expect_url: {contains: dashboard, timeout: 5s}
  - expect_url: {not_contains: login, hold: "${SETTLE_WINDOW}"}
  - log_url: Landing page
  - log_url
`
	sc, err := NewParser(testVars).Parse([]byte(src), "flows/admin.yaml")
	require.NoError(t, err)

	assert.Equal(t, "admin-login-keeps-session", sc.Name)
	assert.Equal(t, "Admin stays signed in after reload", sc.Description)
	assert.Equal(t, []string{"auth", "smoke"}, sc.Tags)
	assert.Equal(t, "flows/admin.yaml", sc.Source)
	require.Len(t, sc.Steps, 7)

	assert.Equal(t, entity.Navigate("/login"), sc.Steps[0])
	assert.Equal(t, entity.Fill(entity.Name("email"), "admin@example.com").WithLabel("type email"), sc.Steps[1])
	assert.Equal(t, entity.Click(entity.CSS("button[type='submit']")), sc.Steps[2])
	assert.Equal(t, entity.ExpectURLContains("dashboard").WithTimeout(5*time.Second), sc.Steps[3])
	assert.Equal(t, entity.ExpectURLNotContains("login", 2*time.Second), sc.Steps[4])
	assert.Equal(t, entity.LogURL("Landing page"), sc.Steps[5])
	assert.Equal(t, entity.LogURL(""), sc.Steps[6])
	assert.NoError(t, sc.Validate())
}

func TestParse_NameDefaultsToFileName(t *testing.T) {
	sc, err := NewParser(nil).Parse([]byte("steps:\n  - navigate: /login\n"), "flows/login-page.yml")
	require.NoError(t, err)
	assert.Equal(t, "login-page", sc.Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		want string
	}{
		{"empty", "", 1, "empty flow file"},
		{"not a mapping", "- navigate: /login\n", 1, "flow must be a mapping"},
		{"no steps", "name: x\n", 1, "flow has no steps"},
		{"undefined variable", "name: x\nsteps:\n  - navigate: ${NOPE}\n", 3, "undefined variable: NOPE"},
		{"unknown action", "name: x\nsteps:\n  - scroll: down\n", 3, "needs a mapping of parameters"},
		{"unknown mapping action", "name: x\nsteps:\n  - scroll: {amount: 3}\n", 3, "unknown action: scroll"},
		{"two actions", "name: x\nsteps:\n  - {navigate: /a, click: b}\n", 3, "single action"},
		{"bare action", "name: x\nsteps:\n  - click\n", 3, `step "click" needs parameters`},
		{"bad hold", "name: x\nsteps:\n  - expect_url: {not_contains: a, hold: soon}\n", 3, `invalid hold "soon"`},
		{"missing hold", "name: x\nsteps:\n  - expect_url: {not_contains: a}\n", 3, "positive hold window"},
		{"empty locator", "name: x\nsteps:\n  - fill: {value: a}\n", 3, "fill: empty locator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(testVars).Parse([]byte(tt.src), "f.yaml")
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %T: %v", err, err)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Message, tt.want)
			assert.Contains(t, err.Error(), "f.yaml")
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.yaml", "name: second\nsteps:\n  - navigate: /b\n")
	write("a.yml", "name: first\nsteps:\n  - navigate: /a\n")
	write("notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	scenarios, err := NewParser(nil).LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadDir_StopsAtFirstBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\nsteps:\n  - click\n"), 0o644))

	_, err := NewParser(nil).LoadDir(dir)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, filepath.Join(dir, "bad.yaml"), perr.Path)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := NewParser(nil).LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
