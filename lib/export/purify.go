package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var unsafeElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Link:   true,
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
	atom.Frame:  true,
	atom.Base:   true,
	atom.Form:   true,
}

var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
}

// Purify strips active content from an exported HTML document. It removes
// script, style, link and embedding elements, meta tags other than the
// charset declaration, event handler attributes, javascript: URLs and
// inline styles that load or evaluate anything. Table markup and plain
// inline styles such as mso-number-format are kept.
func Purify(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("export: parse html: %w", err)
	}
	purifyNode(root)
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("export: render html: %w", err)
	}
	return buf.String(), nil
}

func purifyNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && (unsafeElements[c.DataAtom] || unsafeMeta(c)) {
			n.RemoveChild(c)
			c = next
			continue
		}
		if c.Type == html.ElementNode {
			c.Attr = safeAttrs(c.Attr)
		}
		purifyNode(c)
		c = next
	}
}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if urlAttrs[key] && unsafeURL(a.Val) {
			continue
		}
		if key == "style" && unsafeStyle(a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func unsafeURL(v string) bool {
	v = strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") ||
		(strings.HasPrefix(v, "data:") && !strings.HasPrefix(v, "data:image/"))
}

// unsafeMeta reports meta elements that do more than declare the charset,
// such as http-equiv refreshes.
func unsafeMeta(n *html.Node) bool {
	if n.DataAtom != atom.Meta {
		return false
	}
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) != "charset" {
			return true
		}
	}
	return len(n.Attr) == 0
}

var cssComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

func unsafeStyle(v string) bool {
	v = cssComment.ReplaceAllString(v, "")
	v = strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' || r == '\\' {
			return -1
		}
		return r
	}, v))
	for _, bad := range []string{"url(", "expression(", "javascript:", "@import", "behavior:", "-moz-binding"} {
		if strings.Contains(v, bad) {
			return true
		}
	}
	return false
}
