package chromedp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolbus-uitest/internal/domain/entity"
	"schoolbus-uitest/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginHTML = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
	<form method="post" action="/submit">
		<input name="role" type="hidden" value="parent" />
		<input name="email" type="email" />
		<input name="password" type="password" />
		<button type="submit">Sign In</button>
	</form>
</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, loginHTML)
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><button>Sign Out</button></body></html>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests disabled in short mode")
	}

	cfg := DefaultConfig()
	cfg.Headless = true
	cfg.Timeout = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := NewFactory(cfg, logger.NewNopLogger()).NewSession(ctx)
	if err != nil {
		t.Skipf("no browser available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s.(*Session)
}

func TestNewFactory_Defaults(t *testing.T) {
	f := NewFactory(BrowserConfig{}, logger.NewNopLogger())
	assert.Equal(t, defaultTimeout, f.cfg.Timeout)
	assert.Equal(t, 1920, f.cfg.WindowWidth)
	assert.NotEmpty(t, f.allocatorOptions())
}

func TestQueryOptions(t *testing.T) {
	sel, opts := queryOptions(entity.Name("email"))
	assert.Equal(t, `[name="email"]`, sel)
	assert.Len(t, opts, 1)

	sel, opts = queryOptions(entity.Text("Sign Out"))
	assert.Contains(t, sel, "Sign Out")
	assert.Len(t, opts, 1)
}

func TestSession_LoginFlow(t *testing.T) {
	server := newTestServer(t)
	s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/login"))
	require.NoError(t, s.Fill(ctx, entity.Name("email"), "admin@example.com"))
	require.NoError(t, s.Fill(ctx, entity.Name("password"), "password123"))
	require.NoError(t, s.Click(ctx, entity.CSS("button[type='submit']")))

	require.Eventually(t, func() bool {
		u, err := s.CurrentURL(ctx)
		return err == nil && u == server.URL+"/dashboard"
	}, 5*time.Second, 50*time.Millisecond)

	assert.NoError(t, s.Click(ctx, entity.XPath("//button[contains(text(), 'Sign Out')]")))
	assert.NoError(t, s.ClearCookies(ctx))
}

func TestSession_ElementNotFound(t *testing.T) {
	server := newTestServer(t)
	s := newTestSession(t)
	s.timeout = 300 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/login"))

	err := s.Fill(ctx, entity.Name("Email"), "admin@example.com")
	assert.ErrorIs(t, err, entity.ErrElementNotFound)
}

func TestSession_HiddenFieldIsPresent(t *testing.T) {
	server := newTestServer(t)
	s := newTestSession(t)
	s.timeout = 500 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/login"))

	sel, _, err := s.waitFor(ctx, entity.Name("role"))
	require.NoError(t, err)
	assert.Equal(t, `[name="role"]`, sel)
}

func TestSession_NavigateInvalidURL(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.Navigate(context.Background(), "ftp://example.com"), entity.ErrInvalidURL)
}

func TestSession_Snapshot(t *testing.T) {
	server := newTestServer(t)
	s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, server.URL+"/login"))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/login", snap.URL)
	assert.Equal(t, "Login", snap.Title)
	assert.Contains(t, snap.HTML, `name="password"`)
	if assert.NotNil(t, snap.Screenshot) {
		assert.Equal(t, "jpeg", snap.Screenshot.Format)
	}
}

func TestSession_CloseTwice(t *testing.T) {
	s := newTestSession(t)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
