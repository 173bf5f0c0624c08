package hxgrid

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
	"github.com/pthm/hxgrid/lib/format"
	"github.com/pthm/hxgrid/lib/summary"
)

// HAlign is a horizontal cell alignment.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign is a vertical cell alignment.
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "middle"
	AlignBottom VAlign = "bottom"
)

// CSS classes of the grid markup contract.
const (
	ClassHidden      = "kv-grid-hide"
	ClassSkipExport  = "skip-export"
	ClassNoWrap      = "kv-nowrap"
	ClassPageSummary = "kv-page-summary"
	ClassGroup       = "kv-grid-group"
	ClassExpandRow   = "kv-expand-detail-row"
)

// Summary describes a column's page summary: nothing, a literal text, one
// of the built-in aggregations or a custom reducer.
type Summary struct {
	text    string
	fn      summary.Func
	reducer summary.Reducer
	kind    int
}

const (
	summaryNone = iota
	summaryText
	summaryFunc
	summaryReducer
)

// SummaryText renders text verbatim in the summary cell.
func SummaryText(text string) Summary {
	return Summary{text: text, kind: summaryText}
}

// SummaryFunc aggregates the page's values with fn.
func SummaryFunc(fn summary.Func) Summary {
	return Summary{fn: fn, kind: summaryFunc}
}

// SummaryReducer aggregates the page's values with r.
func SummaryReducer(r summary.Reducer) Summary {
	return Summary{reducer: r, kind: summaryReducer}
}

// IsZero reports whether no summary is configured.
func (s Summary) IsZero() bool { return s.kind == summaryNone }

// ColumnBase holds the configuration shared by every column type. Column
// types embed it.
type ColumnBase struct {
	// Label is the header text.
	Label string
	// Footer is the footer cell content, trusted markup.
	Footer string

	HAlign HAlign
	VAlign VAlign
	// Width is a CSS width applied to the header cell.
	Width  string
	NoWrap bool

	// Hidden columns are rendered with kv-grid-hide so they stay in the
	// markup (and exports) but are not displayed.
	Hidden bool
	// HiddenFromExport columns are displayed but skipped by exports.
	HiddenFromExport bool

	HeaderOptions      attrs.Attrs
	FilterOptions      attrs.Attrs
	ContentOptions     attrs.Attrs
	FooterOptions      attrs.Attrs
	PageSummaryOptions attrs.Attrs

	PageSummary Summary
	// PageSummaryFormat formats aggregated summaries. Defaults to Format.
	PageSummaryFormat string
	// HidePageSummary computes the summary but renders an empty cell.
	HidePageSummary bool

	// Format is the display format spec, see format.Parse.
	Format string
	// XLFormat overrides the mso-number-format derived from Format.
	XLFormat string

	// Group marks the column for client-side row grouping.
	Group bool
	// MergeHeader spans the header cell over the filter row.
	MergeHeader bool

	// Visible decides per request whether the column is rendered at all.
	// Nil means always.
	Visible func(ctx context.Context) bool

	spec        format.Spec
	summarySpec format.Spec
}

// Base returns the shared configuration. Embedding ColumnBase makes a type
// satisfy this part of Column.
func (c *ColumnBase) Base() *ColumnBase { return c }

func (c *ColumnBase) visible(ctx context.Context) bool {
	return c.Visible == nil || c.Visible(ctx)
}

// FormatSpec returns the parsed display format.
func (c *ColumnBase) FormatSpec() format.Spec { return c.spec }

// initBase validates the shared options and parses the format specs. It runs
// once per grid; owner names the column in errors.
func (c *ColumnBase) initBase(owner string) error {
	spec, err := format.Parse(c.Format)
	if err != nil {
		return configError(owner, "Format", err.Error())
	}
	c.spec = spec
	c.summarySpec = spec
	if c.PageSummaryFormat != "" {
		if c.summarySpec, err = format.Parse(c.PageSummaryFormat); err != nil {
			return configError(owner, "PageSummaryFormat", err.Error())
		}
	}
	switch c.HAlign {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		return configError(owner, "HAlign", fmt.Sprintf("has unknown value %q", c.HAlign))
	}
	switch c.VAlign {
	case "", AlignTop, AlignMiddle, AlignBottom:
	default:
		return configError(owner, "VAlign", fmt.Sprintf("has unknown value %q", c.VAlign))
	}
	return nil
}

// decorate adds the alignment, visibility and export classes.
func (c *ColumnBase) decorate(a attrs.Attrs) {
	if c.HAlign != "" {
		attrs.AddClass(a, "kv-align-"+string(c.HAlign))
	}
	if c.VAlign != "" {
		attrs.AddClass(a, "kv-align-"+string(c.VAlign))
	}
	if c.NoWrap {
		attrs.AddClass(a, ClassNoWrap)
	}
	if c.Hidden {
		attrs.AddClass(a, ClassHidden)
	}
	if c.HiddenFromExport {
		attrs.AddClass(a, ClassSkipExport)
	}
}

func (c *ColumnBase) xlFormat(rc *RenderContext) string {
	if c.XLFormat != "" {
		return c.XLFormat
	}
	if !rc.AutoXLFormat {
		return ""
	}
	return format.ExcelFormat(c.spec, rc.Formatter.Separators(), rc.Formatter.CurrencyCode())
}

func (c *ColumnBase) withXL(rc *RenderContext, a attrs.Attrs) {
	if xl := c.xlFormat(rc); xl != "" {
		attrs.AddStyle(a, "mso-number-format", xl)
	}
}

func (c *ColumnBase) headerAttrs(rc *RenderContext) attrs.Attrs {
	a := attrs.Clone(c.HeaderOptions)
	c.decorate(a)
	if c.Width != "" {
		attrs.AddStyle(a, "width", c.Width)
	}
	if c.Group {
		attrs.AddClass(a, ClassGroup)
	}
	c.withXL(rc, a)
	return a
}

func (c *ColumnBase) filterAttrs() attrs.Attrs {
	a := attrs.Clone(c.FilterOptions)
	c.decorate(a)
	return a
}

func (c *ColumnBase) contentAttrs(rc *RenderContext, extra attrs.Attrs) attrs.Attrs {
	a := attrs.Merge(c.ContentOptions, extra)
	c.decorate(a)
	if c.Group {
		attrs.AddClass(a, ClassGroup)
	}
	c.withXL(rc, a)
	return a
}

func (c *ColumnBase) footerAttrs(rc *RenderContext) attrs.Attrs {
	a := attrs.Clone(c.FooterOptions)
	c.decorate(a)
	c.withXL(rc, a)
	return a
}

func (c *ColumnBase) summaryAttrs(rc *RenderContext) attrs.Attrs {
	a := attrs.Clone(c.PageSummaryOptions)
	c.decorate(a)
	c.withXL(rc, a)
	return a
}

// collect buffers a visible cell value for the page summary.
func (c *ColumnBase) collect(rc *RenderContext, v any) {
	if c.PageSummary.kind == summaryFunc || c.PageSummary.kind == summaryReducer {
		rc.buffer(c).Add(v)
	}
}

// computeSummary runs once at the end of the body and returns the raw value
// and its display markup. The markup is empty when HidePageSummary is set.
func (c *ColumnBase) computeSummary(rc *RenderContext) (raw any, html string) {
	switch c.PageSummary.kind {
	case summaryNone:
		return nil, ""
	case summaryText:
		raw, html = c.PageSummary.text, c.PageSummary.text
	case summaryFunc:
		raw = rc.buffer(c).Aggregate(c.PageSummary.fn)
		html = c.formatSummary(rc, raw)
	case summaryReducer:
		raw = summary.AggregateWith(rc.buffer(c).Values(), c.PageSummary.reducer)
		html = c.formatSummary(rc, raw)
	}
	if c.HidePageSummary {
		return raw, ""
	}
	return raw, html
}

func (c *ColumnBase) formatSummary(rc *RenderContext, raw any) string {
	if raw == nil || raw == "" {
		return ""
	}
	if c.PageSummary.kind == summaryFunc && c.PageSummary.fn == summary.Count {
		return rc.Formatter.Format(raw, format.Spec{Name: format.Integer, Decimals: 0})
	}
	return rc.Formatter.Format(raw, c.summarySpec)
}

// summaryText is the plain export text of a summary value. Hidden
// summaries are still exported.
func (c *ColumnBase) summaryText(rc *RenderContext, raw any) string {
	switch {
	case raw == nil || raw == "":
		return ""
	case c.PageSummary.kind == summaryText:
		return htmlText(c.PageSummary.text)
	case c.PageSummary.kind == summaryFunc && c.PageSummary.fn == summary.Count:
		return rc.Formatter.Text(raw, format.Spec{Name: format.Integer, Decimals: 0})
	}
	return rc.Formatter.Text(raw, c.summarySpec)
}

func escapeLabel(label string) string {
	return templ.EscapeString(label)
}

// Cell is one rendered data cell.
type Cell struct {
	// Value is the raw value, used by page summaries, formulas and exports.
	Value any
	// HTML is the trusted cell markup.
	HTML string
	// Text is the export text. Empty means Value formatted with the column
	// format.
	Text string
	// Attrs are merged over the column's content options.
	Attrs attrs.Attrs
}

// Column renders one grid column. Implementations embed ColumnBase.
type Column[R any] interface {
	Base() *ColumnBase
	// Init validates the configuration. It runs once, before the first
	// render of the grid.
	Init(g *GridInfo) error
	// Header returns the header cell markup.
	Header(rc *RenderContext) string
	// Filter returns the filter cell markup, "" for none.
	Filter(rc *RenderContext) string
	// Render produces the data cell for row.
	Render(rc *RenderContext, row R, key string, index int) (Cell, error)
}

// RowAppender is implemented by columns that emit an extra table row after
// each data row.
type RowAppender[R any] interface {
	AppendRow(rc *RenderContext, row R, key string, index, colspan int) (string, error)
}
