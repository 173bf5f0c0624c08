package hxgrid

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/a-h/templ"
	"github.com/spf13/cast"

	"github.com/pthm/hxgrid/lib/attrs"
)

// DataColumn displays one value of each row.
type DataColumn[R any] struct {
	ColumnBase

	// Attribute names the value for sorting, filtering and the default
	// label.
	Attribute string
	// Value extracts the raw cell value.
	Value func(row R) any
	// Content overrides the cell markup. The raw value still comes from
	// Value.
	Content func(row R, key string, index int) string

	Sortable bool
	// Filterable renders a text input in the filter row.
	Filterable         bool
	FilterInputOptions attrs.Attrs
}

// Init implements Column.
func (c *DataColumn[R]) Init(*GridInfo) error {
	if c.Value == nil && c.Content == nil {
		return configError("data column "+c.Attribute, "Value", "is required")
	}
	if (c.Sortable || c.Filterable) && c.Attribute == "" {
		return configError("data column", "Attribute", "is required for sorting and filtering")
	}
	return nil
}

func (c *DataColumn[R]) sortAttr() string {
	if c.Sortable {
		return c.Attribute
	}
	return ""
}

func (c *DataColumn[R]) filterAttr() string {
	if c.Filterable {
		return c.Attribute
	}
	return ""
}

func (c *DataColumn[R]) label() string {
	if c.Label != "" {
		return c.Label
	}
	return Humanize(c.Attribute)
}

// Header implements Column.
func (c *DataColumn[R]) Header(rc *RenderContext) string {
	label := c.label()
	if !c.Sortable {
		return templ.EscapeString(label)
	}
	href := rc.SortURL(c.Attribute)
	a := attrs.Attrs{"href": href, "data-sort": Sort{Attr: c.Attribute, Desc: rc.Sort.Attr == c.Attribute && !rc.Sort.Desc}.String()}
	if rc.Sort.Attr == c.Attribute {
		if rc.Sort.Desc {
			a["class"] = "desc"
		} else {
			a["class"] = "asc"
		}
	}
	rc.pjaxLink(a, href)
	return attrs.Tag("a", a, label)
}

// Filter implements Column.
func (c *DataColumn[R]) Filter(rc *RenderContext) string {
	if !c.Filterable {
		return ""
	}
	a := attrs.Merge(c.FilterInputOptions, attrs.Attrs{
		"type":  "text",
		"name":  rc.FilterName(c.Attribute),
		"value": rc.Filters[c.Attribute],
	})
	attrs.AddClass(a, "form-control")
	if rc.Pjax && rc.partialURL != "" {
		a["hx-get"] = rc.filterURL()
		a["hx-include"] = "#" + rc.GridID + "-filters"
		a["hx-trigger"] = "change"
		a["hx-target"] = "#" + pjaxContainerID(rc.GridID)
		a["hx-swap"] = string(SwapOuter)
	}
	return attrs.Open("input", a)
}

// Render implements Column.
func (c *DataColumn[R]) Render(rc *RenderContext, row R, key string, index int) (Cell, error) {
	var v any
	if c.Value != nil {
		v = c.Value(row)
	}
	cell := Cell{Value: v}
	if c.Content != nil {
		cell.HTML = c.Content(row, key, index)
		cell.Text = htmlText(cell.HTML)
	} else {
		cell.HTML = rc.Formatter.Format(v, c.spec)
	}
	return cell, nil
}

// SerialColumn numbers the rows from 1 across pages.
type SerialColumn[R any] struct {
	ColumnBase
}

// Init implements Column.
func (c *SerialColumn[R]) Init(*GridInfo) error { return nil }

// Header implements Column.
func (c *SerialColumn[R]) Header(*RenderContext) string {
	if c.Label == "" {
		return "#"
	}
	return templ.EscapeString(c.Label)
}

// Filter implements Column.
func (c *SerialColumn[R]) Filter(*RenderContext) string { return "" }

// Render implements Column.
func (c *SerialColumn[R]) Render(_ *RenderContext, _ R, _ string, index int) (Cell, error) {
	n := index + 1
	return Cell{Value: n, HTML: strconv.Itoa(n)}, nil
}

// BooleanColumn shows a boolean value as an icon. Exports receive the
// label text.
type BooleanColumn[R any] struct {
	DataColumn[R]

	// TrueLabel and FalseLabel default to the translated Active/Inactive.
	TrueLabel  string
	FalseLabel string
	TrueIcon   string
	FalseIcon  string
	// ShowNullAsFalse renders nil as false instead of an empty cell.
	ShowNullAsFalse bool
}

const (
	defaultTrueIcon  = `<span class="fas fa-check text-success"></span>`
	defaultFalseIcon = `<span class="fas fa-times text-danger"></span>`
)

// Init implements Column.
func (c *BooleanColumn[R]) Init(g *GridInfo) error {
	if err := c.DataColumn.Init(g); err != nil {
		return err
	}
	if c.HAlign == "" {
		c.HAlign = AlignCenter
	}
	if c.VAlign == "" {
		c.VAlign = AlignMiddle
	}
	if c.TrueIcon == "" {
		c.TrueIcon = defaultTrueIcon
	}
	if c.FalseIcon == "" {
		c.FalseIcon = defaultFalseIcon
	}
	return nil
}

// Render implements Column.
func (c *BooleanColumn[R]) Render(rc *RenderContext, row R, _ string, _ int) (Cell, error) {
	var v any
	if c.Value != nil {
		v = c.Value(row)
	}
	if v == nil && !c.ShowNullAsFalse {
		return Cell{HTML: rc.Formatter.Format(nil, c.spec)}, nil
	}
	b := truthy(v)
	label, icon := c.FalseLabel, c.FalseIcon
	if label == "" {
		label = rc.T("grid.inactive")
	}
	if b {
		label, icon = c.TrueLabel, c.TrueIcon
		if label == "" {
			label = rc.T("grid.active")
		}
	}
	return Cell{
		Value: b,
		Text:  label,
		HTML:  attrs.RawTag("span", attrs.Attrs{"title": label}, icon),
	}, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(cast.ToString(v)), 64)
	return err == nil && n != 0
}

// Humanize turns an attribute name into a label: "created_at" becomes
// "Created At".
func Humanize(attr string) string {
	words := strings.FieldsFunc(attr, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
