// Package fixtureapp serves a small school bus tracker login flow that the
// built-in scenarios can run against without the real frontend.
package fixtureapp

import (
	"io"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SessionCookie = "schoolbus_session"

	LoginPath          = "/login"
	DashboardPath      = "/dashboard"
	AdminDashboardPath = "/admin-dashboard"
	LogoutPath         = "/logout"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleParent Role = "parent"
	RoleDriver Role = "driver"
)

type Account struct {
	Email    string
	Password string
	Role     Role
}

// loginError carries the message shown above the form and the response status.
type loginError struct {
	status  int
	message string
}

func (e *loginError) Error() string { return e.message }

var (
	errEmailRequired    = &loginError{http.StatusUnprocessableEntity, "Email is required"}
	errEmailMalformed   = &loginError{http.StatusUnprocessableEntity, "Enter a valid email address"}
	errPasswordRequired = &loginError{http.StatusUnprocessableEntity, "Password is required"}
	errBadCredentials   = &loginError{http.StatusUnauthorized, "Invalid email or password"}
)

func DefaultAccounts() []Account {
	return []Account{
		{Email: "admin@example.com", Password: "password123", Role: RoleAdmin},
		{Email: "parent@example.com", Password: "parent123", Role: RoleParent},
		{Email: "driver@example.com", Password: "driver123", Role: RoleDriver},
	}
}

type Options struct {
	Accounts []Account
	// RedirectDelay makes a successful login land on an interstitial page that
	// moves to the dashboard from script after the delay, like a client-side router.
	RedirectDelay time.Duration
	// RequestLog receives one JSON line per request. Nil disables request logging.
	RequestLog io.Writer
}

type session struct {
	email string
	role  Role
}

type Server struct {
	opts     Options
	accounts map[string]Account
	router   chi.Router

	mu       sync.Mutex
	sessions map[string]session
}

func New(opts Options) *Server {
	if len(opts.Accounts) == 0 {
		opts.Accounts = DefaultAccounts()
	}

	s := &Server{
		opts:     opts,
		accounts: make(map[string]Account, len(opts.Accounts)),
		sessions: make(map[string]session),
	}
	for _, a := range opts.Accounts {
		s.accounts[strings.ToLower(a.Email)] = a
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ActiveSessions reports how many visitors are signed in.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.opts.RequestLog != nil {
		logger := httplog.NewLogger("schoolbus-fixture", httplog.Options{
			JSON:    true,
			Concise: true,
		}).Output(s.opts.RequestLog).Level(zerolog.InfoLevel)
		r.Use(httplog.RequestLogger(logger))
	}
	r.Use(noStore)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	})
	r.Get(LoginPath, s.handleLoginPage)
	r.Post(LoginPath, s.handleLogin)
	r.Post(LogoutPath, s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireRole(RoleParent, RoleDriver, RoleAdmin))
		r.Get(DashboardPath, s.handleDashboard)
	})
	r.Group(func(r chi.Router) {
		r.Use(s.requireRole(RoleAdmin))
		r.Get(AdminDashboardPath, s.handleAdminDashboard)
	})
	return r
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := s.current(r)
			if !ok || !hasRole(sess.role, roles) {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role Role, allowed []Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

func (s *Server) current(r *http.Request) (session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	return sess, ok
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderLogin(w, http.StatusOK, loginView{Role: RoleParent})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	view := loginView{Email: email, Role: Role(r.PostFormValue("role"))}

	account, err := s.authenticate(email, password)
	if err != nil {
		view.Error = err.message
		renderLogin(w, err.status, view)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = session{email: account.Email, role: account.Role}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	target := DashboardPath
	if account.Role == RoleAdmin {
		target = AdminDashboardPath
	}
	if s.opts.RedirectDelay > 0 {
		renderPending(w, target, s.opts.RedirectDelay)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) authenticate(email, password string) (Account, *loginError) {
	if email == "" {
		return Account{}, errEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Account{}, errEmailMalformed
	}
	if password == "" {
		return Account{}, errPasswordRequired
	}
	account, ok := s.accounts[strings.ToLower(email)]
	if !ok || account.Password != password {
		return Account{}, errBadCredentials
	}
	return account, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	title := "Parent Dashboard"
	if sess.role == RoleDriver {
		title = "Driver Dashboard"
	}
	renderDashboard(w, dashboardView{Title: title, Email: sess.email, Role: sess.role})
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	renderDashboard(w, dashboardView{Title: "Admin Dashboard", Email: sess.email, Role: sess.role})
}
