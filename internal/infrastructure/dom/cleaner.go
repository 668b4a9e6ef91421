// Package dom prepares captured page HTML for failure reports.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Cleaner reduces a captured page to the markup a locator can match on.
// Page chrome (head, scripts, styles, inline handlers) is dropped. Tags,
// ids, names, types, roles, aria labels and test ids are kept.
type Cleaner struct {
	dropTags  map[string]bool
	dropAttrs map[string]bool
	keepData  map[string]bool
}

func NewCleaner() *Cleaner {
	return &Cleaner{
		dropTags:  set("head", "script", "style", "noscript", "template", "svg", "iframe", "link", "meta"),
		dropAttrs: set("style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex", "nonce"),
		keepData:  set("data-testid", "data-test", "data-cy", "data-role"),
	}
}

// Clean returns the rendered <body> of raw. Input without a body is
// returned unchanged.
func (c *Cleaner) Clean(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	body := findElement(doc, "body")
	if body == nil {
		return raw
	}

	c.prune(body)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return raw
	}
	return sb.String()
}

func (c *Cleaner) prune(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		switch {
		case child.Type == html.CommentNode:
			n.RemoveChild(child)
		case child.Type == html.ElementNode && c.dropTags[child.Data]:
			n.RemoveChild(child)
		case child.Type == html.ElementNode:
			child.Attr = c.attrs(child.Attr)
			c.prune(child)
		}
		child = next
	}
}

func (c *Cleaner) attrs(in []html.Attribute) []html.Attribute {
	out := in[:0]
	for _, a := range in {
		switch {
		case c.dropAttrs[a.Key], strings.HasPrefix(a.Key, "on"):
		case strings.HasPrefix(a.Key, "data-") && !c.keepData[a.Key]:
		default:
			out = append(out, a)
		}
	}
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
