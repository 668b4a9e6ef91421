package dom

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

var _ output.LocatorAdvisor = (*Advisor)(nil)

const (
	defaultMaxHints = 5
	minPartialMatch = 3
	candidateQuery  = "input, textarea, select, button, a, label, [role='button'], [name], [id], [data-testid]"
)

var quotedLiteral = regexp.MustCompile(`['"]([^'"]+)['"]`)

// Advisor looks for elements that nearly match a locator which failed to
// resolve, such as name="email" when name="Email" was requested.
type Advisor struct {
	MaxHints int
}

func NewAdvisor() *Advisor {
	return &Advisor{MaxHints: defaultMaxHints}
}

type hint struct {
	locator string
	element string
	exact   bool
	order   int
}

func (a *Advisor) Suggest(rawHTML string, loc entity.Locator) []string {
	terms := searchTerms(loc)
	if len(terms) == 0 || strings.TrimSpace(rawHTML) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	requested := loc.String()
	seen := map[string]bool{}
	var hints []hint

	doc.Find(candidateQuery).Each(func(i int, s *goquery.Selection) {
		for _, c := range candidates(s) {
			if c.locator == requested || seen[c.locator] {
				continue
			}
			exact, ok := matchAny(c.value, terms)
			if !ok {
				continue
			}
			seen[c.locator] = true
			hints = append(hints, hint{
				locator: c.locator,
				element: describe(s),
				exact:   exact,
				order:   len(hints),
			})
		}
	})

	sort.SliceStable(hints, func(i, j int) bool {
		if hints[i].exact != hints[j].exact {
			return hints[i].exact
		}
		return hints[i].order < hints[j].order
	})

	limit := a.MaxHints
	if limit <= 0 {
		limit = defaultMaxHints
	}
	if len(hints) > limit {
		hints = hints[:limit]
	}

	out := make([]string, 0, len(hints))
	for _, h := range hints {
		out = append(out, fmt.Sprintf("%s matches %s", h.locator, h.element))
	}
	return out
}

// searchTerms extracts the words a locator is looking for.
func searchTerms(loc entity.Locator) []string {
	switch loc.Strategy {
	case entity.ByName, entity.ByID, entity.ByText, entity.ByTag:
		if v := strings.TrimSpace(loc.Value); v != "" {
			return []string{v}
		}
		return nil
	}

	var terms []string
	for _, m := range quotedLiteral.FindAllStringSubmatch(loc.Value, -1) {
		if v := strings.TrimSpace(m[1]); v != "" {
			terms = append(terms, v)
		}
	}
	return terms
}

type candidate struct {
	locator string
	value   string
}

// candidates lists the locators that would select s, paired with the value
// they match on.
func candidates(s *goquery.Selection) []candidate {
	var out []candidate
	tag := goquery.NodeName(s)

	if v, ok := s.Attr("name"); ok && v != "" {
		out = append(out, candidate{locator: entity.Name(v).String(), value: v})
	}
	if v, ok := s.Attr("id"); ok && v != "" {
		out = append(out, candidate{locator: entity.ID(v).String(), value: v})
	}
	if v, ok := s.Attr("data-testid"); ok && v != "" {
		out = append(out, candidate{locator: entity.CSS(fmt.Sprintf("[data-testid=%q]", v)).String(), value: v})
	}
	if v, ok := s.Attr("type"); ok && v != "" && tag == "input" {
		out = append(out, candidate{locator: entity.CSS(fmt.Sprintf("input[type=%q]", v)).String(), value: v})
	}
	if v, ok := s.Attr("placeholder"); ok && v != "" {
		out = append(out, candidate{locator: entity.CSS(fmt.Sprintf("%s[placeholder=%q]", tag, v)).String(), value: v})
	}
	if v, ok := s.Attr("aria-label"); ok && v != "" {
		out = append(out, candidate{locator: entity.CSS(fmt.Sprintf("%s[aria-label=%q]", tag, v)).String(), value: v})
	}

	switch tag {
	case "button", "a", "label":
		if text := normalizeSpace(s.Text()); text != "" && len(text) <= 80 {
			out = append(out, candidate{locator: entity.Text(text).String(), value: text})
		}
	}
	return out
}

// matchAny reports whether value resembles one of the terms, and whether the
// resemblance is a case-insensitive equality.
func matchAny(value string, terms []string) (exact bool, ok bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false, false
	}
	for _, term := range terms {
		t := strings.ToLower(term)
		if v == t {
			return true, true
		}
		if strings.Contains(v, t) || (len(v) >= minPartialMatch && strings.Contains(t, v)) {
			ok = true
		}
	}
	return false, ok
}

func describe(s *goquery.Selection) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(goquery.NodeName(s))
	for _, key := range []string{"id", "name", "type", "role"} {
		if v, ok := s.Attr(key); ok && v != "" {
			fmt.Fprintf(&sb, " %s=%q", key, v)
		}
	}
	sb.WriteString(">")
	if text := normalizeSpace(s.Text()); text != "" && len(text) <= 40 {
		sb.WriteString(text)
	}
	return sb.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
