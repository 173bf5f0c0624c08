package hxgrid

import (
	"strconv"

	"github.com/pthm/hxgrid/lib/attrs"
)

const (
	defaultExpandIcon   = `<span class="fas fa-plus-square"></span>`
	defaultCollapseIcon = `<span class="fas fa-minus-square"></span>`
)

// ExpandRowColumn adds a toggle cell to each row and a detail row below it.
// The detail is rendered inline by Detail or loaded on first expand from
// DetailURL. It is never exported.
type ExpandRowColumn[R any] struct {
	ColumnBase

	Detail    func(row R, key string, index int) (string, error)
	DetailURL func(row R, key string) string
	// Expanded sets the initial state per row. Nil starts collapsed.
	Expanded func(row R, key string, index int) bool
	// ExpandAll renders an expand/collapse all toggle in the header.
	ExpandAll bool

	ExpandIcon       string
	CollapseIcon     string
	DetailRowOptions attrs.Attrs
}

// Init implements Column.
func (c *ExpandRowColumn[R]) Init(*GridInfo) error {
	if c.Detail == nil && c.DetailURL == nil {
		return configError("expand row column", "Detail", "or DetailURL is required")
	}
	if c.ExpandIcon == "" {
		c.ExpandIcon = defaultExpandIcon
	}
	if c.CollapseIcon == "" {
		c.CollapseIcon = defaultCollapseIcon
	}
	if c.HAlign == "" {
		c.HAlign = AlignCenter
	}
	c.HiddenFromExport = true
	return nil
}

// Header implements Column.
func (c *ExpandRowColumn[R]) Header(rc *RenderContext) string {
	rc.Assets.Require(ExpandRowBundle)
	rc.Assets.Script("kvExpandRow(" + jsString(rc.GridID) + ");")
	if !c.ExpandAll {
		return escapeLabel(c.Label)
	}
	return attrs.RawTag("div", attrs.Attrs{
		"class":               "kv-expand-header-icon kv-state-collapsed",
		"title":               rc.T("grid.expand_all"),
		"data-collapse-title": rc.T("grid.collapse_all"),
		"role":                "button",
	}, c.ExpandIcon)
}

// Filter implements Column.
func (c *ExpandRowColumn[R]) Filter(*RenderContext) string { return "" }

func (c *ExpandRowColumn[R]) expanded(row R, key string, index int) bool {
	return c.Expanded != nil && c.Expanded(row, key, index)
}

// Render implements Column.
func (c *ExpandRowColumn[R]) Render(rc *RenderContext, row R, key string, index int) (Cell, error) {
	state, icon, title := "kv-state-collapsed", c.ExpandIcon, rc.T("grid.expand")
	if c.expanded(row, key, index) {
		state, icon, title = "kv-state-expanded", c.CollapseIcon, rc.T("grid.collapse")
	}
	html := attrs.RawTag("div", attrs.Attrs{
		"class":    "kv-expand-row " + state,
		"title":    title,
		"role":     "button",
		"data-key": key,
	}, icon)
	return Cell{HTML: html, Attrs: attrs.Attrs{"class": "kv-expand-icon-cell"}}, nil
}

// AppendRow implements RowAppender.
func (c *ExpandRowColumn[R]) AppendRow(_ *RenderContext, row R, key string, index, colspan int) (string, error) {
	inner := attrs.Attrs{"class": "kv-expanded-row", "data-key": key, "data-index": strconv.Itoa(index)}
	var content string
	if c.Detail != nil {
		var err error
		if content, err = c.Detail(row, key, index); err != nil {
			return "", err
		}
	} else {
		inner["hx-get"] = c.DetailURL(row, key)
		inner["hx-swap"] = string(SwapInner)
		inner["hx-trigger"] = "kvexpand once"
		if c.expanded(row, key, index) {
			inner["hx-trigger"] = "load"
		}
	}

	tr := attrs.Merge(c.DetailRowOptions, attrs.Attrs{"data-key": key})
	attrs.AddClass(tr, ClassExpandRow, ClassSkipExport)
	if !c.expanded(row, key, index) {
		attrs.AddClass(tr, ClassHidden)
	}
	td := attrs.Attrs{"colspan": strconv.Itoa(colspan)}
	return attrs.RawTag("tr", tr, attrs.RawTag("td", td, attrs.RawTag("div", inner, content))), nil
}
