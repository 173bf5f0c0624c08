package hxgrid

import (
	"regexp"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
)

// Default action buttons.
const (
	ActionView   = "view"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// DefaultActionTemplate lays out the default buttons.
const DefaultActionTemplate = "{view} {update} {delete}"

var actionToken = regexp.MustCompile(`\{([\w\-/]+)\}`)

// ActionButton renders one custom button of an ActionColumn.
type ActionButton[R any] func(rc *RenderContext, url string, row R, key string) string

// ActionColumn renders per-row action buttons. It is never exported.
type ActionColumn[R any] struct {
	ColumnBase

	// Template places the buttons; each {name} is replaced by the button of
	// that name.
	Template string
	// URLFor builds the target URL of an action.
	URLFor func(action string, row R, key string) string
	// Buttons add or replace buttons by name.
	Buttons map[string]ActionButton[R]
	// VisibleButtons hide buttons per row. Missing names are visible.
	VisibleButtons map[string]func(row R, key string, index int) bool
	// ButtonOptions apply to every default button.
	ButtonOptions attrs.Attrs
	// DeleteConfirm overrides the translated delete confirmation.
	DeleteConfirm string

	// Dropdown collects the buttons in a dropdown menu.
	Dropdown      bool
	DropdownLabel string
}

// Init implements Column.
func (c *ActionColumn[R]) Init(*GridInfo) error {
	if c.URLFor == nil {
		return configError("action column", "URLFor", "is required")
	}
	if c.Template == "" {
		c.Template = DefaultActionTemplate
	}
	if c.HAlign == "" {
		c.HAlign = AlignCenter
	}
	if !c.Dropdown {
		c.NoWrap = true
	}
	c.HiddenFromExport = true
	return nil
}

// Header implements Column.
func (c *ActionColumn[R]) Header(rc *RenderContext) string {
	if c.Label != "" {
		return templ.EscapeString(c.Label)
	}
	return templ.EscapeString(rc.T("grid.actions"))
}

// Filter implements Column.
func (c *ActionColumn[R]) Filter(*RenderContext) string { return "" }

// Render implements Column.
func (c *ActionColumn[R]) Render(rc *RenderContext, row R, key string, index int) (Cell, error) {
	var items []string
	content := actionToken.ReplaceAllStringFunc(c.Template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if vis, ok := c.VisibleButtons[name]; ok && !vis(row, key, index) {
			return ""
		}
		button := c.button(rc, name, row, key)
		if button != "" {
			items = append(items, button)
		}
		return button
	})
	if !c.Dropdown {
		return Cell{HTML: content}, nil
	}
	return Cell{HTML: c.dropdown(rc, items)}, nil
}

func (c *ActionColumn[R]) button(rc *RenderContext, name string, row R, key string) string {
	url := c.URLFor(name, row, key)
	if custom, ok := c.Buttons[name]; ok {
		return custom(rc, url, row, key)
	}

	var icon, title string
	switch name {
	case ActionView:
		icon, title = "fas fa-eye", rc.T("action.view")
	case ActionUpdate:
		icon, title = "fas fa-pencil-alt", rc.T("action.update")
	case ActionDelete:
		icon, title = "fas fa-trash-alt", rc.T("action.delete")
	default:
		return ""
	}

	a := attrs.Merge(c.ButtonOptions, attrs.Attrs{
		"href":        url,
		"title":       title,
		"aria-label":  title,
		"data-action": name,
	})
	if name == ActionDelete {
		msg := c.DeleteConfirm
		if msg == "" {
			msg = rc.T("action.confirm_delete")
		}
		a["data-method"] = "post"
		a["data-confirm"] = msg
		a["hx-post"] = url
		a["hx-confirm"] = msg
		if rc.Pjax {
			a["hx-target"] = "#" + pjaxContainerID(rc.GridID)
			a["hx-swap"] = string(SwapOuter)
		} else {
			a["hx-swap"] = string(SwapNone)
		}
	}
	label := `<span class="` + icon + `"></span>`
	if c.Dropdown {
		attrs.AddClass(a, "dropdown-item")
		label += " " + templ.EscapeString(title)
	}
	return attrs.RawTag("a", a, label)
}

func (c *ActionColumn[R]) dropdown(rc *RenderContext, items []string) string {
	if len(items) == 0 {
		return ""
	}
	label := c.DropdownLabel
	if label == "" {
		label = rc.T("grid.actions")
	}
	var sb strings.Builder
	sb.WriteString(`<div class="dropdown">`)
	sb.WriteString(attrs.Tag("button", attrs.Attrs{
		"type":           "button",
		"class":          "btn btn-outline-secondary btn-sm dropdown-toggle",
		"data-bs-toggle": "dropdown",
		"aria-expanded":  "false",
	}, label))
	sb.WriteString(`<ul class="dropdown-menu dropdown-menu-end">`)
	for _, item := range items {
		sb.WriteString("<li>" + item + "</li>")
	}
	sb.WriteString(`</ul></div>`)
	return sb.String()
}
