package entity

import (
	"fmt"
	"strings"
)

type LocatorStrategy string

const (
	ByName  LocatorStrategy = "name"
	ByID    LocatorStrategy = "id"
	ByTag   LocatorStrategy = "tag"
	ByCSS   LocatorStrategy = "css"
	ByXPath LocatorStrategy = "xpath"
	ByText  LocatorStrategy = "text"
)

func (s LocatorStrategy) Valid() bool {
	switch s {
	case ByName, ByID, ByTag, ByCSS, ByXPath, ByText:
		return true
	}
	return false
}

// Locator finds one element in a rendered page.
type Locator struct {
	Strategy LocatorStrategy
	Value    string
}

func Name(v string) Locator  { return Locator{Strategy: ByName, Value: v} }
func ID(v string) Locator    { return Locator{Strategy: ByID, Value: v} }
func Tag(v string) Locator   { return Locator{Strategy: ByTag, Value: v} }
func CSS(v string) Locator   { return Locator{Strategy: ByCSS, Value: v} }
func XPath(v string) Locator { return Locator{Strategy: ByXPath, Value: v} }
func Text(v string) Locator  { return Locator{Strategy: ByText, Value: v} }

// ParseLocator accepts "strategy=value". Without a known strategy prefix the
// value is treated as XPath when it starts with "/" and as CSS otherwise.
func ParseLocator(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, fmt.Errorf("empty locator")
	}

	if prefix, value, ok := strings.Cut(s, "="); ok {
		strategy := LocatorStrategy(strings.ToLower(strings.TrimSpace(prefix)))
		if strategy.Valid() {
			value = strings.TrimSpace(value)
			if value == "" {
				return Locator{}, fmt.Errorf("locator %q has no value", s)
			}
			return Locator{Strategy: strategy, Value: value}, nil
		}
	}

	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(") {
		return XPath(s), nil
	}
	return CSS(s), nil
}

func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Value == ""
}

func (l Locator) Validate() error {
	if !l.Strategy.Valid() {
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("locator %s has no value", l.Strategy)
	}
	return nil
}

// Query translates the locator into a selector for the browser driver.
// isXPath reports whether the selector must be evaluated as XPath.
func (l Locator) Query() (selector string, isXPath bool) {
	switch l.Strategy {
	case ByName:
		return fmt.Sprintf("[name=%q]", l.Value), false
	case ByID:
		return fmt.Sprintf("[id=%q]", l.Value), false
	case ByTag, ByCSS:
		return l.Value, false
	case ByXPath:
		return l.Value, true
	case ByText:
		return fmt.Sprintf("//*[contains(normalize-space(text()), %s)]", xpathLiteral(l.Value)), true
	}
	return l.Value, false
}

func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
