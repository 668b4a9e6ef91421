package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_Query(t *testing.T) {
	tests := []struct {
		name      string
		locator   Locator
		wantQuery string
		wantXPath bool
	}{
		{"name", Name("email"), `[name="email"]`, false},
		{"id", ID("password"), `[id="password"]`, false},
		{"tag", Tag("button"), "button", false},
		{"css", CSS("button[type='submit']"), "button[type='submit']", false},
		{"xpath", XPath("//button[contains(text(), 'Sign Out')]"), "//button[contains(text(), 'Sign Out')]", true},
		{"text", Text("Sign Out"), "//*[contains(normalize-space(text()), 'Sign Out')]", true},
		{"text with apostrophe", Text("Don't"), `//*[contains(normalize-space(text()), "Don't")]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, isXPath := tt.locator.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantXPath, isXPath)
		})
	}
}

func TestXPathLiteral_BothQuotes(t *testing.T) {
	assert.Equal(t, `concat('say "hi"', "'", 's')`, xpathLiteral(`say "hi"'s`))
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in   string
		want Locator
	}{
		{"name=email", Name("email")},
		{"NAME = Email", Name("Email")},
		{"xpath=//button", XPath("//button")},
		{"//button[@type='submit']", XPath("//button[@type='submit']")},
		{"button[type='submit']", CSS("button[type='submit']")},
		{"css=input[name=email]", CSS("input[name=email]")},
		{"input[name=email]", CSS("input[name=email]")},
		{"text=Sign Out", Text("Sign Out")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocator(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocator_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "name=", "id=  "} {
		_, err := ParseLocator(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestLocator_Validate(t *testing.T) {
	assert.NoError(t, Name("email").Validate())
	assert.Error(t, Locator{Strategy: "label", Value: "x"}.Validate())
	assert.Error(t, Name("").Validate())
	assert.True(t, Locator{}.IsZero())
	assert.Equal(t, "name=email", Name("email").String())
}
