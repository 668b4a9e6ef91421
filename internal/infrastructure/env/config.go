package env

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"

	envparse "github.com/caarlos0/env/v11"
)

const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// Config is the runner configuration. Defaults target the tracker's dev
// server and its seeded admin account.
type Config struct {
	BaseURL   string `env:"UITEST_BASE_URL"   envDefault:"http://localhost:5173"`
	LoginPath string `env:"UITEST_LOGIN_PATH" envDefault:"/login"`
	AdminPath string `env:"UITEST_ADMIN_PATH" envDefault:"/admin-dashboard"`

	ValidEmail      string `env:"UITEST_VALID_EMAIL"       envDefault:"admin@example.com"`
	ValidPassword   string `env:"UITEST_VALID_PASSWORD"    envDefault:"password123"`
	InvalidEmail    string `env:"UITEST_INVALID_EMAIL"     envDefault:"wrong@example.com"`
	InvalidPassword string `env:"UITEST_INVALID_PASSWORD"  envDefault:"wrongpassword"`

	EmailField      string `env:"UITEST_EMAIL_FIELD"       envDefault:"name=email"`
	PasswordField   string `env:"UITEST_PASSWORD_FIELD"    envDefault:"name=password"`
	SubmitSelector  string `env:"UITEST_SUBMIT_SELECTOR"   envDefault:"css=button[type='submit']"`
	SignOutSelector string `env:"UITEST_SIGN_OUT_SELECTOR" envDefault:"xpath=//button[contains(text(), 'Sign Out')]"`

	DashboardMarker string `env:"UITEST_DASHBOARD_MARKER" envDefault:"dashboard"`
	LoginMarker     string `env:"UITEST_LOGIN_MARKER"     envDefault:"login"`

	Driver         string        `env:"UITEST_DRIVER"          envDefault:"rod"`
	Headless       bool          `env:"UITEST_HEADLESS"        envDefault:"false"`
	ElementTimeout time.Duration `env:"UITEST_ELEMENT_TIMEOUT" envDefault:"10s"`
	URLTimeout     time.Duration `env:"UITEST_URL_TIMEOUT"     envDefault:"10s"`
	SettleWindow   time.Duration `env:"UITEST_SETTLE_WINDOW"   envDefault:"2s"`
	PollInterval   time.Duration `env:"UITEST_POLL_INTERVAL"   envDefault:"100ms"`
	WindowWidth    int           `env:"UITEST_WINDOW_WIDTH"    envDefault:"1920"`
	WindowHeight   int           `env:"UITEST_WINDOW_HEIGHT"   envDefault:"1080"`

	ArtifactsDir string `env:"UITEST_ARTIFACTS_DIR" envDefault:"artifacts"`
	ReportFile   string `env:"UITEST_REPORT_FILE"`
	MetricsFile  string `env:"UITEST_METRICS_FILE"`
	TraceFile    string `env:"UITEST_TRACE_FILE"`
	FlowsDir     string `env:"UITEST_FLOWS_DIR"`

	LogDir   string `env:"UITEST_LOG_DIR"   envDefault:"log"`
	LogLevel string `env:"UITEST_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from src. Keys src does not hold take their
// defaults.
func LoadConfig(src output.ConfigPort) (Config, error) {
	var cfg Config
	if err := envparse.ParseWithOptions(&cfg, envparse.Options{Environment: src.Environ()}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("base url %q: %w", c.BaseURL, err))
	case (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, fmt.Errorf("base url %q: must be an absolute http(s) url", c.BaseURL))
	}

	if c.Driver != DriverRod && c.Driver != DriverChromedp {
		errs = append(errs, fmt.Errorf("driver %q: must be %s or %s", c.Driver, DriverRod, DriverChromedp))
	}

	for name, d := range map[string]time.Duration{
		"element timeout": c.ElementTimeout,
		"url timeout":     c.URLTimeout,
		"poll interval":   c.PollInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.SettleWindow < 0 {
		errs = append(errs, fmt.Errorf("settle window must not be negative, got %s", c.SettleWindow))
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.WindowWidth, c.WindowHeight))
	}

	for name, raw := range c.locatorFields() {
		if _, err := entity.ParseLocator(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (c Config) locatorFields() map[string]string {
	return map[string]string{
		"email field":       c.EmailField,
		"password field":    c.PasswordField,
		"submit selector":   c.SubmitSelector,
		"sign out selector": c.SignOutSelector,
	}
}

// Locators parses the configured element locators.
func (c Config) Locators() (email, password, submit, signOut entity.Locator, err error) {
	parse := func(name, raw string) entity.Locator {
		if err != nil {
			return entity.Locator{}
		}
		var loc entity.Locator
		loc, err = entity.ParseLocator(raw)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
		}
		return loc
	}
	email = parse("email field", c.EmailField)
	password = parse("password field", c.PasswordField)
	submit = parse("submit selector", c.SubmitSelector)
	signOut = parse("sign out selector", c.SignOutSelector)
	return email, password, submit, signOut, err
}

// Variables exposes config values for ${VAR} expansion in flow files.
func (c Config) Variables() map[string]string {
	return map[string]string{
		"BASE_URL":          c.BaseURL,
		"LOGIN_PATH":        c.LoginPath,
		"ADMIN_PATH":        c.AdminPath,
		"VALID_EMAIL":       c.ValidEmail,
		"VALID_PASSWORD":    c.ValidPassword,
		"INVALID_EMAIL":     c.InvalidEmail,
		"INVALID_PASSWORD":  c.InvalidPassword,
		"EMAIL_FIELD":       c.EmailField,
		"PASSWORD_FIELD":    c.PasswordField,
		"SUBMIT_SELECTOR":   c.SubmitSelector,
		"SIGN_OUT_SELECTOR": c.SignOutSelector,
		"DASHBOARD_MARKER":  c.DashboardMarker,
		"LOGIN_MARKER":      c.LoginMarker,
		"SETTLE_WINDOW":     c.SettleWindow.String(),
		"URL_TIMEOUT":       c.URLTimeout.String(),
		"WINDOW_WIDTH":      strconv.Itoa(c.WindowWidth),
		"WINDOW_HEIGHT":     strconv.Itoa(c.WindowHeight),
	}
}
