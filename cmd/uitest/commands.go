package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"schoolbus-uitest/internal/di"
	"schoolbus-uitest/internal/infrastructure/env"
	"schoolbus-uitest/internal/infrastructure/fixtureapp"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const (
	exitFailed      = 1
	exitConfig      = 2
	exitInterrupted = 130
)

var configFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "base-url",
		Usage: "Frontend origin, e.g. http://localhost:5173",
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Browser driver (rod, chromedp)",
	},
	&cli.BoolFlag{
		Name:  "headless",
		Usage: "Run the browser without a window",
	},
	&cli.StringFlag{
		Name:  "flows",
		Usage: "Directory of YAML flow files to run next to the built-in scenarios",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Console log level when --verbose is set (debug, info, warn, error)",
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run scenarios against the frontend",
	Flags: append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:    "only",
			Aliases: []string{"o"},
			Usage:   "Scenario names or tag:<tag> to run (comma-separated, default all)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON report to this path",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "Write Prometheus textfile metrics to this path",
		},
		&cli.StringFlag{
			Name:  "trace",
			Usage: "Write OpenTelemetry spans to this path",
		},
		&cli.StringFlag{
			Name:  "artifacts",
			Usage: "Directory for failure snapshots (empty string disables)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Mirror log entries to stderr",
		},
		&cli.BoolFlag{
			Name:  "fixture",
			Usage: "Start the built-in fixture app and run against it",
		},
		&cli.BoolFlag{
			Name:  "no-ansi",
			Usage: "Disable ANSI colors",
		},
	}, configFlags...),
	Action: runScenarios,
}

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "List the scenarios that run would execute",
	Flags:  configFlags,
	Action: listScenarios,
}

var serveFixtureCommand = &cli.Command{
	Name:  "serve-fixture",
	Usage: "Serve the fixture login app for local runs",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address",
			Value: ":5173",
		},
		&cli.DurationFlag{
			Name:  "redirect-delay",
			Usage: "Delay the post-login redirect like a client-side router",
		},
	},
	Action: serveFixture,
}

// loadConfig applies .env files and UITEST_* variables, then the flags the
// user set explicitly.
func loadConfig(c *cli.Context) (env.Config, error) {
	cfg, err := env.LoadConfig(env.NewEnvService())
	if err != nil {
		return env.Config{}, err
	}

	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("driver") {
		cfg.Driver = strings.ToLower(c.String("driver"))
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}
	if c.IsSet("flows") {
		cfg.FlowsDir = c.String("flows")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("report") {
		cfg.ReportFile = c.String("report")
	}
	if c.IsSet("metrics") {
		cfg.MetricsFile = c.String("metrics")
	}
	if c.IsSet("trace") {
		cfg.TraceFile = c.String("trace")
	}
	if c.IsSet("artifacts") {
		cfg.ArtifactsDir = c.String("artifacts")
	}
	return cfg, nil
}

func runScenarios(c *cli.Context) error {
	if c.Bool("no-ansi") {
		color.NoColor = true
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("fixture") {
		srv, baseURL, err := startFixture(ctx, "127.0.0.1:0", fixtureapp.Options{})
		if err != nil {
			return cli.Exit(err, exitConfig)
		}
		defer srv.Close()
		cfg.BaseURL = baseURL
	}

	opts := di.Options{
		Console: c.App.Writer,
		Verbose: c.Bool("verbose"),
		Version: Version,
	}
	if c.Bool("verbose") {
		opts.LogConsole = c.App.ErrWriter
	}

	container, err := di.NewContainer(cfg, opts)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(shutdownCtx); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "close: %v\n", err)
		}
	}()

	selected, err := container.Scenarios(c.StringSlice("only"))
	if err != nil {
		return cli.Exit(err, exitConfig)
	}

	run, runErr := container.Runner.Run(ctx, selected)
	if run == nil {
		return cli.Exit(runErr, exitConfig)
	}
	if err := container.Finish(run); err != nil {
		container.Logger.Error("Failed to write run outputs", "error", err)
		fmt.Fprintf(c.App.ErrWriter, "write outputs: %v\n", err)
	}
	if path := container.Logger.Path(); path != "" {
		fmt.Fprintf(c.App.Writer, "Log: %s\n", path)
	}

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("run interrupted: %v", runErr), exitInterrupted)
	}
	if !run.Passed() {
		return cli.Exit("", exitFailed)
	}
	return nil
}

func listScenarios(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}
	registry, err := di.NewRegistry(cfg)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tTAGS\tSOURCE\tDESCRIPTION")
	for _, sc := range registry.All() {
		source := sc.Source
		if source == "" {
			source = "built-in"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", sc.Name, len(sc.Steps), strings.Join(sc.Tags, ","), source, sc.Description)
	}
	return w.Flush()
}

func serveFixture(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, baseURL, err := startFixture(ctx, c.String("addr"), fixtureapp.Options{
		RedirectDelay: c.Duration("redirect-delay"),
		RequestLog:    c.App.Writer,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "Fixture app listening on %s\n", baseURL)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startFixture serves the fixture app on addr and returns its base URL.
func startFixture(ctx context.Context, addr string, opts fixtureapp.Options) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           fixtureapp.New(opts),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "fixture app: %v\n", err)
		}
	}()

	host := ln.Addr().String()
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		host = fmt.Sprintf("localhost:%d", tcp.Port)
	}
	return srv, "http://" + host, nil
}
