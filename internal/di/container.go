package di

import (
	"context"
	"errors"
	"fmt"
	"io"

	"schoolbus-uitest/internal/application/port/input"
	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/application/service"
	"schoolbus-uitest/internal/domain/entity"
	"schoolbus-uitest/internal/infrastructure/browser/chromedp"
	"schoolbus-uitest/internal/infrastructure/browser/rod"
	"schoolbus-uitest/internal/infrastructure/dom"
	"schoolbus-uitest/internal/infrastructure/env"
	"schoolbus-uitest/internal/infrastructure/flowfile"
	"schoolbus-uitest/internal/infrastructure/logger"
	"schoolbus-uitest/internal/infrastructure/metrics"
	"schoolbus-uitest/internal/infrastructure/report"
	"schoolbus-uitest/internal/infrastructure/tracing"
	"schoolbus-uitest/internal/usecase/runner"
	"schoolbus-uitest/internal/usecase/scenarios"
)

type Container struct {
	Config   env.Config
	Logger   *logger.LoggerAdapter
	Sessions output.SessionFactory
	Registry output.ScenarioRegistry
	Runner   input.ScenarioRunner
	Reporter *report.ConsoleReporter
	Metrics  *metrics.Recorder
	Tracing  *tracing.Provider
}

type Options struct {
	// Console receives the scenario report. Nil discards it.
	Console io.Writer
	// LogConsole mirrors log entries for humans. Nil keeps logs in the file only.
	LogConsole io.Writer
	Verbose    bool
	Version    string
	// Sessions overrides the driver selected by Config.Driver.
	Sessions output.SessionFactory
}

func NewContainer(cfg env.Config, opts Options) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerAdapter(logger.Config{
		Dir:     cfg.LogDir,
		RunName: "uitest",
		Level:   cfg.LogLevel,
		Console: opts.LogConsole,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{Config: cfg, Logger: log, Registry: registry}

	c.Tracing, err = tracing.New(tracing.Config{
		File:        cfg.TraceFile,
		ServiceName: "schoolbus-uitest",
		Version:     opts.Version,
	})
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	c.Sessions = opts.Sessions
	if c.Sessions == nil {
		c.Sessions, err = newSessionFactory(cfg, log)
		if err != nil {
			c.Close(context.Background())
			return nil, err
		}
	}

	console := opts.Console
	if console == nil {
		console = io.Discard
	}
	c.Reporter = report.NewConsoleReporter(console, opts.Verbose)
	c.Metrics = metrics.NewRecorder()

	runnerOpts := []runner.Option{
		runner.WithReporter(c.Reporter),
		runner.WithMetrics(c.Metrics),
		runner.WithAdvisor(dom.NewAdvisor()),
		runner.WithTracer(c.Tracing.Tracer()),
	}
	if cfg.ArtifactsDir != "" {
		runnerOpts = append(runnerOpts, runner.WithArtifacts(report.NewFileArtifactStore(cfg.ArtifactsDir)))
	}
	c.Runner = runner.New(c.Sessions, log, runner.Options{
		BaseURL:      cfg.BaseURL,
		URLTimeout:   cfg.URLTimeout,
		PollInterval: cfg.PollInterval,
	}, runnerOpts...)

	log.Info("Container ready",
		"driver", cfg.Driver,
		"base_url", cfg.BaseURL,
		"scenarios", len(registry.All()),
		"tracing", c.Tracing.Enabled(),
	)
	return c, nil
}

// Settings maps the configuration onto the built-in scenario parameters.
func Settings(cfg env.Config) (scenarios.Settings, error) {
	email, password, submit, signOut, err := cfg.Locators()
	if err != nil {
		return scenarios.Settings{}, fmt.Errorf("invalid locator: %w", err)
	}
	return scenarios.Settings{
		LoginPath:       cfg.LoginPath,
		AdminPath:       cfg.AdminPath,
		ValidEmail:      cfg.ValidEmail,
		ValidPassword:   cfg.ValidPassword,
		InvalidEmail:    cfg.InvalidEmail,
		InvalidPassword: cfg.InvalidPassword,
		EmailField:      email,
		PasswordField:   password,
		SubmitButton:    submit,
		SignOut:         signOut,
		DashboardMarker: cfg.DashboardMarker,
		LoginMarker:     cfg.LoginMarker,
		SettleWindow:    cfg.SettleWindow,
	}, nil
}

// NewRegistry holds the built-in catalog followed by the flows found in
// cfg.FlowsDir.
func NewRegistry(cfg env.Config) (*service.ScenarioRegistryImpl, error) {
	settings, err := Settings(cfg)
	if err != nil {
		return nil, err
	}

	registry := service.NewScenarioRegistry()
	for _, sc := range scenarios.Catalog(settings) {
		if err := registry.Register(sc); err != nil {
			return nil, fmt.Errorf("register built-in scenario: %w", err)
		}
	}
	if cfg.FlowsDir == "" {
		return registry, nil
	}

	flows, err := flowfile.NewParser(cfg.Variables()).LoadDir(cfg.FlowsDir)
	if err != nil {
		return nil, fmt.Errorf("load flows: %w", err)
	}
	for _, sc := range flows {
		if err := registry.Register(sc); err != nil {
			return nil, fmt.Errorf("register flow %s: %w", sc.Source, err)
		}
	}
	return registry, nil
}

func newSessionFactory(cfg env.Config, log output.LoggerPort) (output.SessionFactory, error) {
	switch cfg.Driver {
	case env.DriverRod:
		bc := rod.DefaultConfig()
		bc.Headless = cfg.Headless
		bc.Timeout = cfg.ElementTimeout
		bc.WindowWidth, bc.WindowHeight = cfg.WindowWidth, cfg.WindowHeight
		return rod.NewFactory(bc, log), nil
	case env.DriverChromedp:
		bc := chromedp.DefaultConfig()
		bc.Headless = cfg.Headless
		bc.Timeout = cfg.ElementTimeout
		bc.WindowWidth, bc.WindowHeight = cfg.WindowWidth, cfg.WindowHeight
		return chromedp.NewFactory(bc, log), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// Scenarios selects registered scenarios by name or "tag:<tag>".
func (c *Container) Scenarios(names []string) ([]entity.Scenario, error) {
	return c.Registry.Select(names)
}

// Finish persists the run outputs that are configured: JSON report and
// metrics textfile.
func (c *Container) Finish(run *entity.RunResult) error {
	c.Metrics.ObserveRun(run)

	var errs []error
	if c.Config.ReportFile != "" {
		if err := report.WriteJSON(c.Config.ReportFile, run); err != nil {
			errs = append(errs, err)
		} else {
			c.Logger.Info("Report written", "path", c.Config.ReportFile)
		}
	}
	if c.Config.MetricsFile != "" {
		if err := c.Metrics.WriteTextfile(c.Config.MetricsFile); err != nil {
			errs = append(errs, err)
		} else {
			c.Logger.Info("Metrics written", "path", c.Config.MetricsFile)
		}
	}
	return errors.Join(errs...)
}

func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Tracing != nil {
		if err := c.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if c.Logger != nil {
		if err := c.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger: %w", err))
		}
	}
	return errors.Join(errs...)
}
