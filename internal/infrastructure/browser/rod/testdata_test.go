package rod

// HTML pages served to the session tests.
const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	LoginHTML = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
	<form id="login" method="post" action="/submit">
		<button type="button" id="parent">Parent</button>
		<button type="button" id="admin">Admin</button>
		<input name="role" type="hidden" value="parent" />
		<input name="email" type="email" />
		<input name="password" type="password" />
		<button type="submit">Sign In</button>
	</form>
</body>
</html>`

	RedirectingHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="go">Go</button>
	<script>
		document.getElementById('go').addEventListener('click', function() {
			setTimeout(function() { window.location.href = '/dashboard'; }, 200);
		});
	</script>
</body>
</html>`

	DashboardHTML = `<!DOCTYPE html>
<html>
<head><title>Dashboard</title></head>
<body>
	<h1>Dashboard</h1>
	<button onclick="document.cookie='seen=1'">Sign Out</button>
</body>
</html>`
)
