// Package scenarios builds the built-in school bus tracker checks.
package scenarios

import (
	"time"

	"schoolbus-uitest/internal/domain/entity"
)

const (
	ValidLogin                = "valid-login"
	InvalidLogin              = "invalid-login"
	UnauthorizedAdminRedirect = "unauthorized-admin-redirect"
	LogoutRedirect            = "logout-redirect"
	EmptyEmailLogin           = "empty-email-login"
	MalformedEmailLogin       = "malformed-email-login"
)

const malformedEmail = "not-an-email"

type Settings struct {
	LoginPath string
	AdminPath string

	ValidEmail      string
	ValidPassword   string
	InvalidEmail    string
	InvalidPassword string

	EmailField    entity.Locator
	PasswordField entity.Locator
	SubmitButton  entity.Locator
	SignOut       entity.Locator

	DashboardMarker string
	LoginMarker     string

	// SettleWindow is how long a "stays on login" check watches the URL.
	SettleWindow time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		LoginPath:       "/login",
		AdminPath:       "/admin-dashboard",
		ValidEmail:      "admin@example.com",
		ValidPassword:   "password123",
		InvalidEmail:    "wrong@example.com",
		InvalidPassword: "wrongpassword",
		EmailField:      entity.Name("email"),
		PasswordField:   entity.Name("password"),
		SubmitButton:    entity.CSS("button[type='submit']"),
		SignOut:         entity.XPath("//button[contains(text(), 'Sign Out')]"),
		DashboardMarker: "dashboard",
		LoginMarker:     "login",
		SettleWindow:    2 * time.Second,
	}
}

// Catalog returns the built-in scenarios in execution order.
func Catalog(s Settings) []entity.Scenario {
	return []entity.Scenario{
		validLogin(s),
		invalidLogin(s),
		unauthorizedAdminRedirect(s),
		logoutRedirect(s),
		emptyEmailLogin(s),
		malformedEmailLogin(s),
	}
}

func login(s Settings, email, password string) []entity.Step {
	return []entity.Step{
		entity.Navigate(s.LoginPath),
		entity.Fill(s.EmailField, email).WithLabel("type email"),
		entity.Fill(s.PasswordField, password).WithLabel("type password"),
		entity.Click(s.SubmitButton).WithLabel("submit login form"),
	}
}

// staysOnLogin guards against a late redirect: the URL must not reach the
// dashboard during the settle window and must still name the login page.
func staysOnLogin(s Settings) []entity.Step {
	return []entity.Step{
		entity.ExpectURLNotContains(s.DashboardMarker, s.SettleWindow),
		entity.ExpectURLContains(s.LoginMarker),
	}
}

func validLogin(s Settings) entity.Scenario {
	steps := login(s, s.ValidEmail, s.ValidPassword)
	steps = append(steps, entity.ExpectURLContains(s.DashboardMarker))
	return entity.Scenario{
		Name:        ValidLogin,
		Description: "valid credentials land on the dashboard",
		Tags:        []string{"auth", "smoke"},
		Steps:       steps,
	}
}

func invalidLogin(s Settings) entity.Scenario {
	steps := login(s, s.InvalidEmail, s.InvalidPassword)
	steps = append(steps, staysOnLogin(s)...)
	return entity.Scenario{
		Name:        InvalidLogin,
		Description: "invalid credentials keep the visitor on the login page",
		Tags:        []string{"auth", "smoke"},
		Steps:       steps,
	}
}

func unauthorizedAdminRedirect(s Settings) entity.Scenario {
	return entity.Scenario{
		Name:        UnauthorizedAdminRedirect,
		Description: "anonymous visitors of the admin dashboard are sent to login",
		Tags:        []string{"auth", "access"},
		Steps: []entity.Step{
			entity.Navigate(s.AdminPath),
			entity.ExpectURLContains(s.LoginMarker),
			entity.LogURL("Current URL after accessing admin"),
		},
	}
}

func logoutRedirect(s Settings) entity.Scenario {
	steps := login(s, s.ValidEmail, s.ValidPassword)
	steps = append(steps,
		entity.ExpectURLContains(s.DashboardMarker),
		entity.Click(s.SignOut).WithLabel("sign out"),
		entity.ExpectURLContains(s.LoginMarker),
	)
	return entity.Scenario{
		Name:        LogoutRedirect,
		Description: "signing out returns to the login page",
		Tags:        []string{"auth", "smoke"},
		Steps:       steps,
	}
}

func emptyEmailLogin(s Settings) entity.Scenario {
	steps := []entity.Step{
		entity.Navigate(s.LoginPath),
		entity.Fill(s.PasswordField, s.ValidPassword).WithLabel("type password"),
		entity.Click(s.SubmitButton).WithLabel("submit login form"),
	}
	steps = append(steps, staysOnLogin(s)...)
	return entity.Scenario{
		Name:        EmptyEmailLogin,
		Description: "submitting without an email does not reach the dashboard",
		Tags:        []string{"auth", "boundary"},
		Steps:       steps,
	}
}

func malformedEmailLogin(s Settings) entity.Scenario {
	steps := login(s, malformedEmail, s.ValidPassword)
	steps = append(steps, staysOnLogin(s)...)
	return entity.Scenario{
		Name:        MalformedEmailLogin,
		Description: "a malformed email does not reach the dashboard",
		Tags:        []string{"auth", "boundary"},
		Steps:       steps,
	}
}
