package hxgrid

import (
	"fmt"
	"strings"

	"github.com/pthm/hxgrid/lib/attrs"
)

// Form fields posted by an editable cell besides the attribute value.
const (
	EditableKeyField       = "editableKey"
	EditableAttributeField = "editableAttribute"
	EditableIndexField     = "editableIndex"
)

// EditableColumn is a DataColumn whose cells carry an inline edit form.
// The form posts the row key, the attribute and the new value to EditURL
// over HTMX and swaps the cell with the response.
type EditableColumn[R any] struct {
	DataColumn[R]

	// EditURL receives the edit form.
	EditURL string
	// InputType of the edit input, "text" by default.
	InputType    string
	InputOptions attrs.Attrs
	// ReadOnly disables editing per row.
	ReadOnly func(row R, key string, index int) bool
}

// Init implements Column.
func (c *EditableColumn[R]) Init(g *GridInfo) error {
	if err := c.DataColumn.Init(g); err != nil {
		return err
	}
	owner := "editable column " + c.Attribute
	if c.Attribute == "" {
		return configError("editable column", "Attribute", "is required")
	}
	if c.EditURL == "" {
		return configError(owner, "EditURL", "is required")
	}
	if !g.HasKey {
		return fmt.Errorf("%w: grid %s: %s needs Grid.Key", ErrMissingKey, g.ID, owner)
	}
	if c.InputType == "" {
		c.InputType = "text"
	}
	return nil
}

// Render implements Column.
func (c *EditableColumn[R]) Render(rc *RenderContext, row R, key string, index int) (Cell, error) {
	cell, err := c.DataColumn.Render(rc, row, key, index)
	if err != nil {
		return cell, err
	}
	if key == "" {
		return cell, fmt.Errorf("%w: editable column %s row %d", ErrMissingKey, c.Attribute, index)
	}
	if c.ReadOnly != nil && c.ReadOnly(row, key, index) {
		return cell, nil
	}
	rc.Assets.Require(EditableBundle)

	id := rc.GridID + "-" + Slugify(c.Attribute) + "-" + Slugify(key)
	text := cell.Text
	if text == "" {
		text = rc.Formatter.Text(cell.Value, c.spec)
	}

	input := attrs.Merge(c.InputOptions, attrs.Attrs{
		"type":  c.InputType,
		"name":  c.Attribute,
		"value": text,
	})
	attrs.AddClass(input, "form-control form-control-sm")

	var sb strings.Builder
	sb.WriteString(attrs.Open("div", attrs.Attrs{"id": id, "class": "kv-editable"}))
	sb.WriteString(attrs.RawTag("button", attrs.Attrs{
		"type":  "button",
		"class": "kv-editable-value btn btn-link p-0",
		"title": rc.T("grid.edit"),
	}, cell.HTML))
	sb.WriteString(attrs.Open("form", attrs.Attrs{
		"class":     "kv-editable-form " + ClassHidden,
		"hx-post":   c.EditURL,
		"hx-target": "#" + id,
		"hx-swap":   string(SwapOuter),
	}))
	sb.WriteString(attrs.Open("input", attrs.Attrs{"type": "hidden", "name": EditableKeyField, "value": key}))
	sb.WriteString(attrs.Open("input", attrs.Attrs{"type": "hidden", "name": EditableAttributeField, "value": c.Attribute}))
	sb.WriteString(attrs.Open("input", attrs.Attrs{"type": "hidden", "name": EditableIndexField, "value": fmt.Sprint(index)}))
	sb.WriteString(attrs.Open("input", input))
	sb.WriteString(attrs.Tag("button", attrs.Attrs{"type": "submit", "class": "btn btn-primary btn-sm"}, rc.T("grid.save")))
	sb.WriteString("</form></div>")

	cell.HTML = sb.String()
	cell.Text = text
	return cell, nil
}

// Slugify lowercases s and replaces runs of characters other than letters
// and digits with a dash, for use in element ids.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
