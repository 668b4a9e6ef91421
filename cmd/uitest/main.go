package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:    "uitest",
		Usage:   "Browser checks for the school bus tracker login flow",
		Version: Version,
		Description: `uitest drives a real browser against the tracker frontend and checks
login, logout and admin access redirects.

Configuration comes from UITEST_* environment variables, .env and
.env.<APP_ENV>; flags override them.

Examples:
  uitest run
  uitest run --only valid-login,invalid-login --headless
  uitest run --only tag:smoke --report out/report.json
  uitest run --fixture --headless
  uitest list --flows flows/
  uitest serve-fixture --addr :5173`,
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			serveFixtureCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
