package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"
)

// fakeApp mimics the target app routing so runner behavior can be tested
// without a browser.
type fakeApp struct {
	mu       sync.Mutex
	sessions []*fakeSession
	setupErr error
	clearErr error
	// urlErr, when set, fails every CurrentURL call
	urlErr error

	// fields present on the login page, keyed by locator string
	fields map[string]bool
	// routes maps a clicked locator to the path it leads to
	routes map[string]func(s *fakeSession) string
	// redirects applied on navigation
	redirects map[string]string
	// urlSequence, when set, is returned by successive CurrentURL calls
	urlSequence []string
}

func newFakeApp() *fakeApp {
	return &fakeApp{
		fields: map[string]bool{
			"name=email":    true,
			"name=password": true,
		},
		routes:    map[string]func(s *fakeSession) string{},
		redirects: map[string]string{},
	}
}

func (a *fakeApp) NewSession(ctx context.Context) (output.BrowserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setupErr != nil {
		return nil, a.setupErr
	}
	s := &fakeSession{app: a, url: "about:blank", values: map[string]string{}}
	a.sessions = append(a.sessions, s)
	return s, nil
}

func (a *fakeApp) openSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, s := range a.sessions {
		if !s.closed {
			n++
		}
	}
	return n
}

type fakeSession struct {
	app     *fakeApp
	url     string
	values  map[string]string
	calls   []string
	closed  bool
	cleared bool
	reads   int
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.calls = append(s.calls, "navigate "+url)
	if to, ok := s.app.redirects[url]; ok {
		url = to
	}
	s.url = url
	return nil
}

func (s *fakeSession) Fill(ctx context.Context, loc entity.Locator, text string) error {
	s.calls = append(s.calls, "fill "+loc.String())
	if !s.app.fields[loc.String()] {
		return fmt.Errorf("%w: %s", entity.ErrElementNotFound, loc)
	}
	s.values[loc.String()] = text
	return nil
}

func (s *fakeSession) Click(ctx context.Context, loc entity.Locator) error {
	s.calls = append(s.calls, "click "+loc.String())
	route, ok := s.app.routes[loc.String()]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrElementNotFound, loc)
	}
	s.url = route(s)
	return nil
}

func (s *fakeSession) CurrentURL(ctx context.Context) (string, error) {
	if s.app.urlErr != nil {
		return "", s.app.urlErr
	}
	if seq := s.app.urlSequence; len(seq) > 0 {
		i := s.reads
		if i >= len(seq) {
			i = len(seq) - 1
		}
		s.reads++
		return seq[i], nil
	}
	s.reads++
	return s.url, nil
}

func (s *fakeSession) ClearCookies(ctx context.Context) error {
	s.calls = append(s.calls, "clear cookies")
	s.cleared = true
	return s.app.clearErr
}

func (s *fakeSession) Snapshot(ctx context.Context) (*entity.PageSnapshot, error) {
	return &entity.PageSnapshot{
		URL:   s.url,
		Title: "Fake",
		HTML:  `<body><input name="email"></body>`,
	}, nil
}

func (s *fakeSession) Close() error {
	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	s.closed = true
	return nil
}

// loginRoute sends admin credentials to the dashboard and everything else
// back to the login page.
func loginRoute(base string) func(s *fakeSession) string {
	return func(s *fakeSession) string {
		if s.values["name=email"] == "admin@example.com" && s.values["name=password"] == "password123" {
			return base + "/admin-dashboard"
		}
		if strings.Contains(s.values["name=email"], "@") {
			return base + "/login?error=invalid"
		}
		return base + "/login"
	}
}

type recordingReporter struct {
	started  []string
	steps    []entity.StepResult
	finished []entity.ScenarioResult
	run      *entity.RunResult
}

func (r *recordingReporter) ScenarioStarted(sc entity.Scenario) { r.started = append(r.started, sc.Name) }
func (r *recordingReporter) StepFinished(sc entity.Scenario, step entity.StepResult) {
	r.steps = append(r.steps, step)
}
func (r *recordingReporter) ScenarioFinished(res entity.ScenarioResult) {
	r.finished = append(r.finished, res)
}
func (r *recordingReporter) RunFinished(run *entity.RunResult) { r.run = run }

type recordingMetrics struct {
	steps     []entity.StepResult
	scenarios []string
}

func (m *recordingMetrics) ObserveStep(scenario string, step entity.StepResult) {
	m.steps = append(m.steps, step)
}
func (m *recordingMetrics) ObserveScenario(res entity.ScenarioResult) {
	m.scenarios = append(m.scenarios, res.Name)
}

type recordingArtifacts struct {
	saved []string
}

func (a *recordingArtifacts) SaveSnapshot(runID, scenario string, step int, snap *entity.PageSnapshot) ([]string, error) {
	path := fmt.Sprintf("%s/%s/step-%02d.html", runID, scenario, step)
	a.saved = append(a.saved, path)
	return []string{path}, nil
}

type staticAdvisor []string

func (a staticAdvisor) Suggest(html string, loc entity.Locator) []string { return a }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                             {}
func (nopLogger) Info(string, ...any)                              {}
func (nopLogger) Warn(string, ...any)                              {}
func (nopLogger) Error(string, ...any)                             {}
func (l nopLogger) WithField(string, any) output.LoggerPort        { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort    { return l }
func (l nopLogger) Named(string) output.LoggerPort                 { return l }
func (nopLogger) Close() error                                     { return nil }
