package hxgrid

import (
	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
)

// Default input names of the selection columns.
const (
	DefaultCheckboxName = "selection[]"
	DefaultRadioName    = "kvradio"
)

// CheckboxColumn renders a checkbox per row plus a select-all checkbox in
// the header. It is never exported.
type CheckboxColumn[R any] struct {
	ColumnBase

	// Name of the row inputs, "selection[]" by default.
	Name            string
	Checked         func(row R, key string, index int) bool
	Disabled        func(row R, key string, index int) bool
	CheckboxOptions attrs.Attrs
	// HideSelectAll drops the header checkbox.
	HideSelectAll bool
	// RowHighlight marks the rows of checked boxes with RowSelectedClass.
	RowHighlight     bool
	RowSelectedClass string
}

// Init implements Column.
func (c *CheckboxColumn[R]) Init(*GridInfo) error {
	if c.Name == "" {
		c.Name = DefaultCheckboxName
	}
	if c.RowSelectedClass == "" {
		c.RowSelectedClass = "table-danger"
	}
	if c.HAlign == "" {
		c.HAlign = AlignCenter
	}
	c.HiddenFromExport = true
	return nil
}

// Header implements Column.
func (c *CheckboxColumn[R]) Header(rc *RenderContext) string {
	rc.Assets.Require(CheckboxBundle)
	rc.Assets.Script("kvSelectRow(" + jsString(rc.GridID) + ", " + jsString(c.highlightClass()) + ");")
	if c.HideSelectAll {
		return templ.EscapeString(c.Label)
	}
	return attrs.Open("input", attrs.Attrs{
		"type":       "checkbox",
		"class":      "select-on-check-all",
		"name":       "selection_all",
		"value":      "1",
		"title":      rc.T("grid.select_all"),
		"aria-label": rc.T("grid.select_all"),
	})
}

func (c *CheckboxColumn[R]) highlightClass() string {
	if !c.RowHighlight {
		return ""
	}
	return c.RowSelectedClass
}

// Filter implements Column.
func (c *CheckboxColumn[R]) Filter(*RenderContext) string { return "" }

// Render implements Column.
func (c *CheckboxColumn[R]) Render(_ *RenderContext, row R, key string, index int) (Cell, error) {
	checked := c.Checked != nil && c.Checked(row, key, index)
	a := attrs.Merge(c.CheckboxOptions, attrs.Attrs{
		"type":  "checkbox",
		"name":  c.Name,
		"value": key,
	})
	attrs.AddClass(a, "kv-row-checkbox")
	if checked {
		a["checked"] = true
	}
	if c.Disabled != nil && c.Disabled(row, key, index) {
		a["disabled"] = true
	}
	cell := Cell{Value: checked, HTML: attrs.Open("input", a), Attrs: attrs.Attrs{"class": "kv-row-select"}}
	if checked && c.RowHighlight {
		cell.Attrs["data-row-class"] = c.RowSelectedClass
	}
	return cell, nil
}

// RadioColumn renders a radio button per row, with an optional clear button
// in the header. It is never exported.
type RadioColumn[R any] struct {
	ColumnBase

	// Name of the row inputs, "kvradio" by default.
	Name         string
	Checked      func(row R, key string, index int) bool
	Disabled     func(row R, key string, index int) bool
	RadioOptions attrs.Attrs
	// HideClear drops the header clear button.
	HideClear bool
}

// Init implements Column.
func (c *RadioColumn[R]) Init(*GridInfo) error {
	if c.Name == "" {
		c.Name = DefaultRadioName
	}
	if c.HAlign == "" {
		c.HAlign = AlignCenter
	}
	c.HiddenFromExport = true
	return nil
}

// Header implements Column.
func (c *RadioColumn[R]) Header(rc *RenderContext) string {
	rc.Assets.Require(RadioBundle)
	rc.Assets.Script("kvSelectRadio(" + jsString(rc.GridID) + ", " + jsString(c.Name) + ");")
	if c.HideClear {
		return templ.EscapeString(c.Label)
	}
	return attrs.Tag("button", attrs.Attrs{
		"type":       "button",
		"class":      "kv-clear-radio btn btn-sm btn-outline-secondary",
		"title":      rc.T("grid.clear_selection"),
		"aria-label": rc.T("grid.clear_selection"),
	}, "×")
}

// Filter implements Column.
func (c *RadioColumn[R]) Filter(*RenderContext) string { return "" }

// Render implements Column.
func (c *RadioColumn[R]) Render(_ *RenderContext, row R, key string, index int) (Cell, error) {
	checked := c.Checked != nil && c.Checked(row, key, index)
	a := attrs.Merge(c.RadioOptions, attrs.Attrs{
		"type":  "radio",
		"name":  c.Name,
		"value": key,
	})
	attrs.AddClass(a, "kv-row-radio")
	if checked {
		a["checked"] = true
	}
	if c.Disabled != nil && c.Disabled(row, key, index) {
		a["disabled"] = true
	}
	return Cell{Value: checked, HTML: attrs.Open("input", a), Attrs: attrs.Attrs{"class": "kv-row-radio-select"}}, nil
}
