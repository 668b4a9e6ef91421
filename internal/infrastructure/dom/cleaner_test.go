package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleaner_DropsPageChrome(t *testing.T) {
	in := `<html><head><meta charset="utf-8"><link rel="stylesheet" href="x.css"></head>
<body>
    <!-- rendered by vite -->
    <div id="root">Hello</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
    <template><p>later</p></template>
</body></html>`

	out := NewCleaner().Clean(in)

	for _, gone := range []string{"<head", "<meta", "<link", "<script", "<style", "<template", "vite"} {
		assert.NotContains(t, out, gone)
	}
	assert.Contains(t, out, `<div id="root">Hello</div>`)
}

func TestCleaner_KeepsLocatorAttributes(t *testing.T) {
	in := `<body>
    <button type="button" data-role="admin" aria-pressed="false" data-reactid="7">Admin</button>
    <input name="email" id="username" type="email" aria-label="Email" data-testid="email-input" data-x="1" onclick="go()" style="color:red" tabindex="1">
    <button type="submit" role="button" class="btn">Sign In</button>
</body>`

	out := NewCleaner().Clean(in)

	for _, want := range []string{
		`name="email"`, `id="username"`, `type="email"`, `aria-label="Email"`,
		`data-testid="email-input"`, `data-role="admin"`, `aria-pressed="false"`,
		`type="submit"`, `role="button"`, `class="btn"`,
	} {
		assert.Contains(t, out, want)
	}
	for _, gone := range []string{"data-x", "data-reactid", "onclick", "style=", "tabindex"} {
		assert.NotContains(t, out, gone)
	}
}

func TestCleaner_KeepsMediaSourceOnly(t *testing.T) {
	out := NewCleaner().Clean(`<body><img src="bus.jpg" srcset="a,b" sizes="100w" loading="lazy" alt="bus"></body>`)

	assert.Contains(t, out, `src="bus.jpg"`)
	assert.Contains(t, out, `alt="bus"`)
	assert.NotContains(t, out, "srcset=")
	assert.NotContains(t, out, "loading=")
}

func TestCleaner_NestedRemovalKeepsSiblings(t *testing.T) {
	out := NewCleaner().Clean(`<body><form><script>x()</script><!-- c --><input name="password"><svg></svg><button>Go</button></form></body>`)

	assert.Equal(t, `<body><form><input name="password"/><button>Go</button></form></body>`, out)
}
