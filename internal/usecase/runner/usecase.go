package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"schoolbus-uitest/internal/application/port/input"
	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ input.ScenarioRunner = (*UseCase)(nil)

const (
	defaultURLTimeout   = 10 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	snapshotTimeout     = 10 * time.Second
)

var errURLPending = errors.New("url condition not met yet")

type Options struct {
	BaseURL      string
	URLTimeout   time.Duration
	PollInterval time.Duration
}

type Option func(*UseCase)

func WithReporter(r output.Reporter) Option {
	return func(uc *UseCase) { uc.reporter = r }
}

func WithMetrics(m output.MetricsRecorder) Option {
	return func(uc *UseCase) { uc.metrics = m }
}

func WithArtifacts(a output.ArtifactStore) Option {
	return func(uc *UseCase) { uc.artifacts = a }
}

func WithAdvisor(a output.LocatorAdvisor) Option {
	return func(uc *UseCase) { uc.advisor = a }
}

func WithTracer(t trace.Tracer) Option {
	return func(uc *UseCase) { uc.tracer = t }
}

// UseCase runs scenarios one after another, each in its own browser session.
type UseCase struct {
	sessions  output.SessionFactory
	logger    output.LoggerPort
	opts      Options
	reporter  output.Reporter
	metrics   output.MetricsRecorder
	artifacts output.ArtifactStore
	advisor   output.LocatorAdvisor
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

func New(sessions output.SessionFactory, logger output.LoggerPort, opts Options, extra ...Option) *UseCase {
	if opts.URLTimeout <= 0 {
		opts.URLTimeout = defaultURLTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	uc := &UseCase{
		sessions: sessions,
		logger:   logger,
		opts:     opts,
		reporter: nopReporter{},
		metrics:  nopMetrics{},
		tracer:   noop.NewTracerProvider().Tracer("runner"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range extra {
		o(uc)
	}
	return uc
}

func (uc *UseCase) Run(ctx context.Context, scenarios []entity.Scenario) (*entity.RunResult, error) {
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	run := &entity.RunResult{ID: uc.newID(), StartedAt: uc.now()}
	log := uc.logger.WithField("run_id", run.ID)

	ctx, span := uc.tracer.Start(ctx, "uitest.run", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.Int("run.scenarios", len(scenarios)),
	))
	defer span.End()

	log.Info("Run started", "scenarios", len(scenarios), "base_url", uc.opts.BaseURL)

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			log.Warn("Run interrupted", "error", err, "remaining", len(scenarios)-i)
			for _, rest := range scenarios[i:] {
				res := uc.skipped(rest, entity.Classify(err))
				uc.reporter.ScenarioFinished(res)
				run.Add(res)
			}
			break
		}
		run.Add(uc.runScenario(ctx, run.ID, sc, log))
	}

	run.FinishedAt = uc.now()
	span.SetAttributes(
		attribute.Int("run.passed", run.Summary.Passed),
		attribute.Int("run.failed", run.Summary.Failed+run.Summary.Errored),
	)
	if !run.Passed() {
		span.SetStatus(codes.Error, "scenarios did not pass")
	}

	log.Info("Run finished",
		"total", run.Summary.Total,
		"passed", run.Summary.Passed,
		"failed", run.Summary.Failed,
		"errored", run.Summary.Errored,
		"skipped", run.Summary.Skipped,
		"duration", run.Duration().String(),
	)
	uc.reporter.RunFinished(run)

	return run, ctx.Err()
}

func (uc *UseCase) skipped(sc entity.Scenario, cause *entity.StepError) entity.ScenarioResult {
	now := uc.now()
	res := entity.ScenarioResult{
		Name:       sc.Name,
		Status:     entity.StatusSkipped,
		StartedAt:  now,
		FinishedAt: now,
		Error:      cause,
	}
	for i, step := range sc.Steps {
		res.Steps = append(res.Steps, skippedStep(i, step))
	}
	return res
}

func skippedStep(i int, step entity.Step) entity.StepResult {
	return entity.StepResult{
		Index:  i,
		Action: step.Action,
		Label:  step.Describe(),
		Status: entity.StatusSkipped,
	}
}

func (uc *UseCase) runScenario(ctx context.Context, runID string, sc entity.Scenario, parent output.LoggerPort) (res entity.ScenarioResult) {
	log := parent.WithField("scenario", sc.Name)

	ctx, span := uc.tracer.Start(ctx, "scenario "+sc.Name, trace.WithAttributes(
		attribute.String("scenario.name", sc.Name),
	))
	defer span.End()

	res = entity.ScenarioResult{Name: sc.Name, Status: entity.StatusRunning, StartedAt: uc.now()}
	uc.reporter.ScenarioStarted(sc)
	log.Info("Scenario started", "steps", len(sc.Steps))

	defer func() {
		res.FinishedAt = uc.now()
		if res.Error != nil {
			res.Status = res.Error.Category.Status()
			span.RecordError(res.Error)
			span.SetStatus(codes.Error, res.Error.Error())
			log.Error("Scenario failed",
				"status", string(res.Status),
				"category", res.Error.Code(),
				"error", res.Error.Error(),
				"duration", res.Duration().String(),
			)
		} else {
			res.Status = entity.StatusPassed
			log.Info("Scenario passed", "duration", res.Duration().String())
		}
		span.SetAttributes(attribute.String("scenario.status", string(res.Status)))
		uc.metrics.ObserveScenario(res)
		uc.reporter.ScenarioFinished(res)
	}()

	session, err := uc.openSession(ctx)
	if err != nil {
		res.Error = entity.Classify(err)
		for i, step := range sc.Steps {
			uc.record(sc, &res, skippedStep(i, step))
		}
		return res
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("Session close failed", "error", cerr)
		}
	}()

	for i, step := range sc.Steps {
		var sr entity.StepResult
		switch {
		case res.Error == nil:
			sr = uc.runStep(ctx, session, i, step, log)
			if sr.Error != nil {
				res.Error = sr.Error
				uc.captureFailure(ctx, runID, sc.Name, session, step, &sr, log)
			}
		case step.Action == entity.ActionLogURL && ctx.Err() == nil:
			sr = uc.diagnose(ctx, session, i, step, log)
		default:
			sr = skippedStep(i, step)
		}
		if sr.URL != "" {
			res.FinalURL = sr.URL
		}
		uc.record(sc, &res, sr)
	}

	if res.Error == nil {
		if u, err := session.CurrentURL(ctx); err == nil {
			res.FinalURL = u
		}
	}
	return res
}

func (uc *UseCase) record(sc entity.Scenario, res *entity.ScenarioResult, sr entity.StepResult) {
	res.Steps = append(res.Steps, sr)
	uc.metrics.ObserveStep(sc.Name, sr)
	uc.reporter.StepFinished(sc, sr)
}

// diagnose runs a log_url step after the scenario already failed, so the
// page the failure left behind is still reported. It never changes the
// scenario outcome: an unreadable URL leaves the step skipped.
func (uc *UseCase) diagnose(ctx context.Context, session output.BrowserSession, i int, step entity.Step, log output.LoggerPort) entity.StepResult {
	sr := uc.runStep(ctx, session, i, step, log)
	if sr.Error != nil {
		log.Warn("Diagnostic step failed", "index", i, "step", sr.Label, "error", sr.Error.Error())
		sr.Status = entity.StatusSkipped
		sr.Note = "url unavailable: " + sr.Error.Error()
		sr.Error = nil
	}
	return sr
}

// openSession creates a session and clears its cookies. A session that
// cannot be made clean is closed again and reported as a setup failure.
func (uc *UseCase) openSession(ctx context.Context) (output.BrowserSession, error) {
	session, err := uc.sessions.NewSession(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrSessionSetup) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrSessionSetup, err)
	}

	if err := session.ClearCookies(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: clear cookies: %w", entity.ErrSessionSetup, err)
	}
	return session, nil
}

func (uc *UseCase) runStep(ctx context.Context, session output.BrowserSession, i int, step entity.Step, log output.LoggerPort) entity.StepResult {
	ctx, span := uc.tracer.Start(ctx, "step "+string(step.Action), trace.WithAttributes(
		attribute.Int("step.index", i),
		attribute.String("step.label", step.Describe()),
	))
	defer span.End()

	sr := entity.StepResult{
		Index:  i,
		Action: step.Action,
		Label:  step.Describe(),
	}

	start := uc.now()
	observed, note, err := uc.execute(ctx, session, step, log)
	sr.Duration = uc.now().Sub(start)
	sr.URL = observed
	sr.Note = note

	if err != nil {
		sr.Error = entity.Classify(err)
		sr.Status = sr.Error.Category.Status()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("Step failed", "index", i, "step", sr.Label, "error", err)
		return sr
	}

	sr.Status = entity.StatusPassed
	log.Debug("Step passed", "index", i, "step", sr.Label, "duration", sr.Duration.String())
	return sr
}

// execute performs one step and returns the URL it observed, if any.
func (uc *UseCase) execute(ctx context.Context, session output.BrowserSession, step entity.Step, log output.LoggerPort) (observed, note string, err error) {
	switch step.Action {
	case entity.ActionNavigate:
		target, err := uc.resolve(step.Path)
		if err != nil {
			return "", "", err
		}
		return "", "", session.Navigate(ctx, target)

	case entity.ActionFill:
		return "", "", session.Fill(ctx, step.Locator, step.Value)

	case entity.ActionClick:
		return "", "", session.Click(ctx, step.Locator)

	case entity.ActionExpectURL:
		return uc.expectURL(ctx, session, step)

	case entity.ActionLogURL:
		current, err := session.CurrentURL(ctx)
		if err != nil {
			return "", "", err
		}
		label := step.Label
		if label == "" {
			label = "Current URL"
		}
		note = fmt.Sprintf("%s: %s", label, current)
		log.Info(label, "url", current)
		return current, note, nil
	}
	return "", "", fmt.Errorf("unknown action %q", step.Action)
}

// resolve joins a relative path onto the base URL. Absolute URLs pass through.
func (uc *UseCase) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", entity.ErrInvalidURL, path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if uc.opts.BaseURL == "" {
		return "", fmt.Errorf("%w: relative path %q without base url", entity.ErrInvalidURL, path)
	}
	base, err := url.Parse(uc.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %v", entity.ErrInvalidURL, uc.opts.BaseURL, err)
	}
	if !strings.HasPrefix(ref.Path, "/") {
		ref.Path = strings.TrimSuffix(base.Path, "/") + "/" + ref.Path
	}
	return base.ResolveReference(ref).String(), nil
}

func (uc *UseCase) expectURL(ctx context.Context, session output.BrowserSession, step entity.Step) (string, string, error) {
	var last string
	if step.Expect.NotContains != "" {
		observed, err := uc.holdWithout(ctx, session, step.Expect.NotContains, step.Expect.Hold)
		if err != nil {
			return observed, "", err
		}
		last = observed
	}

	if step.Expect.Contains != "" {
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = uc.opts.URLTimeout
		}
		observed, err := uc.waitFor(ctx, session, step.Expect.Contains, timeout)
		if err != nil {
			return observed, "", err
		}
		last = observed
	}
	return last, "", nil
}

// waitFor polls the current URL until it contains marker or timeout elapses.
func (uc *UseCase) waitFor(ctx context.Context, session output.BrowserSession, marker string, timeout time.Duration) (string, error) {
	var last string
	observed, err := backoff.Retry(ctx, func() (string, error) {
		current, err := session.CurrentURL(ctx)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		last = current
		if !strings.Contains(current, marker) {
			return current, errURLPending
		}
		return current, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(uc.opts.PollInterval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err == nil {
		return observed, nil
	}
	if errors.Is(err, errURLPending) {
		return last, fmt.Errorf("%w: url %q does not contain %q after %s",
			entity.ErrAssertionMismatch, last, marker, timeout)
	}
	return last, err
}

// holdWithout watches the URL for the whole window and fails as soon as the
// forbidden marker shows up.
func (uc *UseCase) holdWithout(ctx context.Context, session output.BrowserSession, marker string, window time.Duration) (string, error) {
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(uc.opts.PollInterval)
	defer ticker.Stop()

	for {
		current, err := session.CurrentURL(ctx)
		if err != nil {
			return "", err
		}
		if strings.Contains(current, marker) {
			return current, fmt.Errorf("%w: url %q reached %q within %s",
				entity.ErrAssertionMismatch, current, marker, window)
		}
		if !time.Now().Before(deadline) {
			return current, nil
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (uc *UseCase) captureFailure(ctx context.Context, runID, scenario string, session output.BrowserSession, step entity.Step, sr *entity.StepResult, log output.LoggerPort) {
	if uc.artifacts == nil && uc.advisor == nil {
		return
	}

	snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	snap, err := session.Snapshot(snapCtx)
	if err != nil {
		log.Warn("Failure snapshot unavailable", "error", err)
		return
	}
	if sr.URL == "" {
		sr.URL = snap.URL
	}

	if uc.advisor != nil && sr.Error.Category == entity.CategoryElementNotFound && snap.HTML != "" {
		sr.Hints = uc.advisor.Suggest(snap.HTML, step.Locator)
		if len(sr.Hints) > 0 {
			log.Info("Similar elements on page", "locator", step.Locator.String(), "hints", sr.Hints)
		}
	}

	if uc.artifacts != nil {
		paths, err := uc.artifacts.SaveSnapshot(runID, scenario, sr.Index, snap)
		if err != nil {
			log.Warn("Failed to store failure artifacts", "error", err)
		}
		sr.Artifacts = paths
	}
}

type nopReporter struct{}

func (nopReporter) ScenarioStarted(entity.Scenario)                 {}
func (nopReporter) StepFinished(entity.Scenario, entity.StepResult) {}
func (nopReporter) ScenarioFinished(entity.ScenarioResult)          {}
func (nopReporter) RunFinished(*entity.RunResult)                   {}

type nopMetrics struct{}

func (nopMetrics) ObserveStep(string, entity.StepResult)  {}
func (nopMetrics) ObserveScenario(entity.ScenarioResult) {}
