package fixtureapp

import (
	"bytes"
	"html/template"
	"net/http"
	"time"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.PageTitle}} | School Bus Tracker</title>
<style>
body { font-family: sans-serif; background: #f3f4f6; margin: 0; }
main { max-width: 28rem; margin: 4rem auto; background: #fff; padding: 2rem; border-radius: 0.5rem; }
.roles button[aria-pressed="true"] { background: #2563eb; color: #fff; }
.error { color: #b91c1c; }
</style>
</head>
<body><main>{{template "content" .}}</main></body>
</html>{{end}}`

var (
	loginTmpl = template.Must(template.Must(template.New("login").Parse(layout)).Parse(`{{define "content"}}
<h1>School Bus Tracker</h1>
<p>Login As</p>
<div class="roles">
  <button type="button" data-role="parent" aria-pressed="{{eq .Role "parent"}}">Parent</button>
  <button type="button" data-role="admin" aria-pressed="{{eq .Role "admin"}}">Admin</button>
  <button type="button" data-role="driver" aria-pressed="{{eq .Role "driver"}}">Driver</button>
</div>
{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login" novalidate>
  <input type="hidden" name="role" value="{{.Role}}">
  <label for="email">Email</label>
  <input id="email" name="email" type="email" autocomplete="username" placeholder="Enter your email" value="{{.Email}}">
  <label for="password">Password</label>
  <input id="password" name="password" type="password" autocomplete="current-password" placeholder="Enter your password">
  <button type="submit">Sign In</button>
</form>
<script>
document.querySelectorAll(".roles button").forEach(function (b) {
  b.addEventListener("click", function () {
    document.querySelectorAll(".roles button").forEach(function (o) { o.setAttribute("aria-pressed", "false"); });
    b.setAttribute("aria-pressed", "true");
    document.querySelector("input[name=role]").value = b.dataset.role;
  });
});
</script>
{{end}}`))

	pendingTmpl = template.Must(template.Must(template.New("pending").Parse(layout)).Parse(`{{define "content"}}
<p>Signing you in...</p>
<script>setTimeout(function () { location.replace({{.Target}}); }, {{.DelayMs}});</script>
{{end}}`))

	dashboardTmpl = template.Must(template.Must(template.New("dashboard").Parse(layout)).Parse(`{{define "content"}}
<h1>{{.Title}}</h1>
<p data-testid="signed-in-as">Signed in as {{.Email}} ({{.Role}})</p>
<form method="post" action="/logout">
  <button type="submit">Sign Out</button>
</form>
{{end}}`))
)

type loginView struct {
	Email string
	Role  Role
	Error string
}

func (loginView) PageTitle() string { return "Login" }

type pendingView struct {
	Target  string
	DelayMs int64
}

func (pendingView) PageTitle() string { return "Signing in" }

type dashboardView struct {
	Title string
	Email string
	Role  Role
}

func (v dashboardView) PageTitle() string { return v.Title }

func renderLogin(w http.ResponseWriter, status int, v loginView) {
	if v.Role == "" {
		v.Role = RoleParent
	}
	render(w, status, loginTmpl, v)
}

func renderPending(w http.ResponseWriter, target string, delay time.Duration) {
	render(w, http.StatusOK, pendingTmpl, pendingView{Target: target, DelayMs: delay.Milliseconds()})
}

func renderDashboard(w http.ResponseWriter, v dashboardView) {
	render(w, http.StatusOK, dashboardTmpl, v)
}

func render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
