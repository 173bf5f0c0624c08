// Package attrs merges and renders HTML attribute maps.
//
// Attribute maps are templ.Attributes so they can be handed straight to
// templ templates. The helpers here treat "class" as a space separated set
// and "style" as an ordered list of CSS declarations, which is what the
// grid's visual states (alignment, visibility, export flags) are built on.
package attrs

import (
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"github.com/spf13/cast"
)

// Attrs is an HTML attribute map.
type Attrs = templ.Attributes

// Clone returns a shallow copy of a. A nil map clones to an empty one.
func Clone(a Attrs) Attrs {
	out := make(Attrs, len(a)+2)
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Classes splits the class attribute into its tokens.
func Classes(a Attrs) []string {
	s, _ := a["class"].(string)
	return strings.Fields(s)
}

// HasClass reports whether a carries the class name.
func HasClass(a Attrs, name string) bool {
	for _, c := range Classes(a) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends class names not already present, keeping order.
func AddClass(a Attrs, names ...string) {
	existing := Classes(a)
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c] = struct{}{}
	}
	for _, n := range names {
		for _, c := range strings.Fields(n) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			existing = append(existing, c)
		}
	}
	if len(existing) > 0 {
		a["class"] = strings.Join(existing, " ")
	}
}

// RemoveClass drops the given class names.
func RemoveClass(a Attrs, names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := Classes(a)[:0]
	for _, c := range Classes(a) {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(a, "class")
		return
	}
	a["class"] = strings.Join(kept, " ")
}

// declaration is one "property: value" pair of a style attribute.
type declaration struct {
	prop, value string
}

func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		prop = strings.TrimSpace(prop)
		if !ok || prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

// AddStyle merges CSS declarations into the style attribute. Properties
// already present are overwritten in place; new ones are appended in the
// order given by props (pairs of property, value).
func AddStyle(a Attrs, props ...string) {
	s, _ := a["style"].(string)
	decls := parseStyle(s)
	for i := 0; i+1 < len(props); i += 2 {
		prop, value := strings.TrimSpace(props[i]), strings.TrimSpace(props[i+1])
		if prop == "" {
			continue
		}
		replaced := false
		for j := range decls {
			if decls[j].prop == prop {
				decls[j].value = value
				replaced = true
				break
			}
		}
		if !replaced {
			decls = append(decls, declaration{prop: prop, value: value})
		}
	}
	if len(decls) == 0 {
		return
	}
	var sb strings.Builder
	for i, d := range decls {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.prop)
		sb.WriteString(": ")
		sb.WriteString(d.value)
		sb.WriteByte(';')
	}
	a["style"] = sb.String()
}

// Style returns the value of one CSS property from the style attribute.
func Style(a Attrs, prop string) (string, bool) {
	s, _ := a["style"].(string)
	for _, d := range parseStyle(s) {
		if d.prop == prop {
			return d.value, true
		}
	}
	return "", false
}

// Merge combines attribute maps left to right into a new map. Later maps
// win on plain keys; class tokens are unioned and style declarations merged.
func Merge(maps ...Attrs) Attrs {
	out := Attrs{}
	for _, m := range maps {
		for k, v := range m {
			switch k {
			case "class":
				if s, ok := v.(string); ok {
					AddClass(out, s)
					continue
				}
			case "style":
				if s, ok := v.(string); ok {
					var pairs []string
					for _, d := range parseStyle(s) {
						pairs = append(pairs, d.prop, d.value)
					}
					AddStyle(out, pairs...)
					continue
				}
			}
			out[k] = v
		}
	}
	return out
}

// String renders a as ` key="value"` pairs sorted by key. Boolean true
// renders a bare attribute; false and nil are omitted.
func String(a Attrs) string {
	if len(a) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		switch v := a[k].(type) {
		case nil:
		case bool:
			if v {
				sb.WriteByte(' ')
				sb.WriteString(templ.EscapeString(k))
			}
		case string:
			writePair(&sb, k, v)
		case templ.SafeURL:
			writePair(&sb, k, string(v))
		case interface{ String() string }:
			writePair(&sb, k, v.String())
		default:
			writePair(&sb, k, toString(v))
		}
	}
	return sb.String()
}

func writePair(sb *strings.Builder, k, v string) {
	sb.WriteByte(' ')
	sb.WriteString(templ.EscapeString(k))
	sb.WriteString(`="`)
	sb.WriteString(templ.EscapeString(v))
	sb.WriteByte('"')
}

// Write renders a to w, see String.
func Write(w io.Writer, a Attrs) error {
	_, err := io.WriteString(w, String(a))
	return err
}

// Tag renders an element with escaped text content.
func Tag(name string, a Attrs, text string) string {
	return Open(name, a) + templ.EscapeString(text) + "</" + name + ">"
}

// RawTag renders an element whose content is trusted markup.
func RawTag(name string, a Attrs, inner string) string {
	return Open(name, a) + inner + "</" + name + ">"
}

// Open renders an opening tag.
func Open(name string, a Attrs) string {
	return "<" + name + String(a) + ">"
}

func toString(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}
