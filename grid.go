package hxgrid

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
	"github.com/pthm/hxgrid/lib/format"
	"github.com/pthm/hxgrid/lib/i18n"
	"github.com/pthm/hxgrid/lib/summary"
)

// Page summary positions.
const (
	PositionTop    = "top"
	PositionBottom = "bottom"
)

// DefaultPageSize is used when Grid.PageSize is 0.
const DefaultPageSize = 20

// DefaultLayout arranges the grid sections when no panel is configured.
const DefaultLayout = "{toolbar}\n{summary}\n{items}\n{pager}"

// Grid renders a data table for rows of type R.
//
// A grid is configured once and rendered per request; rendering does not
// mutate it, so one grid serves concurrent requests.
//
//	g := &hxgrid.Grid[Order]{
//	    ID:       "orders",
//	    Provider: &hxgrid.SliceProvider[Order]{Rows: orders},
//	    Key:      func(o Order) string { return o.ID },
//	    Columns: []hxgrid.Column[Order]{
//	        &hxgrid.SerialColumn[Order]{},
//	        &hxgrid.DataColumn[Order]{
//	            Attribute: "amount",
//	            Value:     func(o Order) any { return o.Amount },
//	            ColumnBase: hxgrid.ColumnBase{
//	                Format:      "currency",
//	                PageSummary: hxgrid.SummaryFunc(summary.Sum),
//	            },
//	        },
//	    },
//	}
//	reg.Add(g)
type Grid[R any] struct {
	// ID is the DOM id of the grid container and its route name.
	ID       string
	Columns  []Column[R]
	Provider DataProvider[R]
	// Key derives the row key. Nil keys rows by position.
	Key func(row R) string

	// Caption is trusted markup rendered in <caption>.
	Caption string
	// Layout arranges {summary} {items} {pager} {toolbar} {export} and
	// {toggleData}. Ignored when Panel is set.
	Layout string
	Panel  *Panel
	// Toolbar items, trusted markup. {export} and {toggleData} are expanded.
	// Nil means {toggleData} followed by {export}.
	Toolbar []string

	Bordered   bool
	Striped    bool
	Condensed  bool
	Hover      bool
	Responsive bool

	Options          attrs.Attrs
	ContainerOptions attrs.Attrs
	TableOptions     attrs.Attrs
	HeaderRowOptions attrs.Attrs
	FilterRowOptions attrs.Attrs
	FooterRowOptions attrs.Attrs
	RowOptions       func(row R, key string, index int) attrs.Attrs

	HideHeader          bool
	ShowFooter          bool
	ShowPageSummary     bool
	PageSummaryPosition string
	HideFilters         bool

	// EmptyText replaces the "No results found." message.
	EmptyText string
	// EmptyCell renders nil cell values.
	EmptyCell string

	PageSize int
	// ParamPrefix prefixes the page, sort and filter query parameters so
	// several grids can share a page.
	ParamPrefix string

	Resizable        bool
	FloatHeader      bool
	PerfectScrollbar bool
	// Pjax refreshes the grid in place over HTMX instead of reloading the
	// page. Requires the grid to be registered.
	Pjax bool
	// AutoXLFormat emits mso-number-format styles derived from column
	// formats.
	AutoXLFormat bool

	Export     *Export
	ToggleData *ToggleData

	// Sensitive encrypts the state tokens of partial and export routes
	// instead of signing them.
	Sensitive bool
	// Language overrides the request language.
	Language string

	once    sync.Once
	initErr error
	reg     *Registry
	info    GridInfo
	params  paramNames
}

// Panel wraps the grid in a card with heading, toolbar and footer.
type Panel struct {
	// Type is a contextual color (primary, success, ...). Empty for none.
	Type    string
	Heading string
	Before  string
	After   string
	Footer  string
}

// GridID returns the grid's ID.
func (g *Grid[R]) GridID() string { return g.ID }

// Init validates the configuration. It runs once; later calls return the
// first result until the grid is added to a Registry, which validates it
// again.
func (g *Grid[R]) Init() error {
	g.once.Do(func() { g.initErr = g.init() })
	return g.initErr
}

func (g *Grid[R]) init() error {
	if g.ID == "" {
		return configError("grid", "ID", "is required")
	}
	owner := "grid " + g.ID
	if len(g.Columns) == 0 {
		return configError(owner, "Columns", "must not be empty")
	}
	if g.Provider == nil {
		return configError(owner, "Provider", "is required")
	}
	switch g.PageSummaryPosition {
	case "", PositionTop, PositionBottom:
	default:
		return configError(owner, "PageSummaryPosition", fmt.Sprintf("has unknown value %q", g.PageSummaryPosition))
	}
	if g.Export != nil && g.reg == nil {
		return fmt.Errorf("%w: grid %s: export menu requires a Registry", ErrDependencyMissing, g.ID)
	}
	if g.Pjax && g.reg == nil {
		return fmt.Errorf("%w: grid %s: pjax requires a Registry", ErrDependencyMissing, g.ID)
	}
	g.params = newParamNames(g.ParamPrefix)
	g.info = GridInfo{ID: g.ID, HasKey: g.Key != nil, Registered: g.reg != nil}
	for i, c := range g.Columns {
		if c == nil {
			return configError(owner, fmt.Sprintf("Columns[%d]", i), "is nil")
		}
		if err := c.Base().initBase(fmt.Sprintf("%s column %d", owner, i)); err != nil {
			return err
		}
		if err := c.Init(&g.info); err != nil {
			return err
		}
		if f, ok := c.(interface{ bind([]Column[R], int) }); ok {
			f.bind(g.Columns, i)
		}
	}
	return nil
}

func (g *Grid[R]) attach(reg *Registry) {
	g.reg = reg
	g.once = sync.Once{}
	g.initErr = nil
}

func (g *Grid[R]) pageSize() int {
	if g.PageSize > 0 {
		return g.PageSize
	}
	return DefaultPageSize
}

// newContext resolves the request inputs into a render context.
func (g *Grid[R]) newContext(ctx context.Context, p Params) *RenderContext {
	lang := g.Language
	if lang == "" {
		lang = i18n.Language(ctx)
	}
	f := format.NewFormatter(lang)
	f.NullDisplay = g.EmptyCell

	rc := &RenderContext{
		Ctx:          ctx,
		GridID:       g.ID,
		Lang:         lang,
		Formatter:    f,
		Assets:       AssetsFrom(ctx),
		AutoXLFormat: g.AutoXLFormat,
		Pjax:         g.Pjax,
		PageSize:     g.pageSize(),
		Filters:      map[string]string{},
		params:       g.params,
		input:        p,
		buffers:      map[*ColumnBase]*summary.Buffer{},
		sortable:     map[string]bool{},
	}
	if rc.input.Query == nil {
		rc.input.Query = map[string][]string{}
	}
	if g.reg != nil {
		rc.translator = g.reg.translator
		rc.partialURL = g.reg.partialURL(g.ID, g.Sensitive, p)
	}

	var defaultAll bool
	if g.ToggleData != nil {
		defaultAll = g.ToggleData.DefaultAll
	}
	rc.All = g.ToggleData != nil && toggleMode(p.Query, g.ID, defaultAll)

	rc.Page = 1
	if n, err := strconv.Atoi(p.Query.Get(g.params.page)); err == nil && n > 0 {
		rc.Page = n
	}
	if n, err := strconv.Atoi(p.Query.Get(g.params.perPage)); err == nil && n > 0 && n <= 500 {
		rc.PageSize = n
	}

	for _, c := range g.Columns {
		if s, ok := c.(interface{ sortAttr() string }); ok && s.sortAttr() != "" {
			rc.sortable[s.sortAttr()] = true
		}
		if f, ok := c.(interface{ filterAttr() string }); ok && f.filterAttr() != "" {
			if v := p.Query.Get(g.params.filterKey(f.filterAttr())); v != "" {
				rc.Filters[f.filterAttr()] = v
			}
		}
	}
	if s := ParseSort(p.Query.Get(g.params.sort)); rc.sortable[s.Attr] {
		rc.Sort = s
	}
	return rc
}

// fetch loads the page, clamping a page number past the end.
func (g *Grid[R]) fetch(rc *RenderContext, all bool) (Page[R], error) {
	q := Query{Sort: rc.Sort, Filters: rc.Filters, Scope: rc.input.Scope}
	if !all {
		q.Offset, q.Limit = rc.Offset(), rc.PageSize
	}
	page, err := g.Provider.Fetch(rc.Ctx, q)
	if err != nil {
		return Page[R]{}, fmt.Errorf("hxgrid: grid %s: fetch: %w", g.ID, err)
	}
	if !all && len(page.Rows) == 0 && page.Total > 0 && q.Offset >= page.Total {
		rc.Page = (page.Total + rc.PageSize - 1) / rc.PageSize
		q.Offset = rc.Offset()
		if page, err = g.Provider.Fetch(rc.Ctx, q); err != nil {
			return Page[R]{}, fmt.Errorf("hxgrid: grid %s: fetch: %w", g.ID, err)
		}
	}
	rc.Total = page.Total
	return page, nil
}

// view is the outcome of one render pass, shared by the HTML and export
// writers.
type view[R any] struct {
	cols       []Column[R]
	rows       []viewRow
	summary    []summaryCell
	hasSummary bool
	hasFilters bool
}

type viewRow struct {
	key      string
	index    int
	attrs    attrs.Attrs
	cells    []Cell
	appended []string
}

type summaryCell struct {
	raw  any
	html string
	text string
}

func (g *Grid[R]) rowKey(row R, index int) string {
	if g.Key == nil {
		return strconv.Itoa(index)
	}
	return g.Key(row)
}

// build runs init, fetch and the body pass.
func (g *Grid[R]) build(ctx context.Context, p Params, all bool) (*RenderContext, *view[R], error) {
	if err := g.Init(); err != nil {
		return nil, nil, err
	}
	rc := g.newContext(ctx, p)
	page, err := g.fetch(rc, all || rc.All)
	if err != nil {
		return nil, nil, err
	}

	v := &view[R]{}
	for _, c := range g.Columns {
		if c.Base().visible(ctx) {
			v.cols = append(v.cols, c)
		}
	}

	offset := rc.Offset()
	if all {
		offset = 0
	}
	for i, row := range page.Rows {
		index := offset + i
		key := g.rowKey(row, index)
		vr := viewRow{key: key, index: index, cells: make([]Cell, len(v.cols))}
		if g.RowOptions != nil {
			vr.attrs = g.RowOptions(row, key, index)
		}
		for j, c := range v.cols {
			cell, err := c.Render(rc, row, key, index)
			if err != nil {
				return nil, nil, fmt.Errorf("hxgrid: grid %s: row %d column %d: %w", g.ID, index, j, err)
			}
			c.Base().collect(rc, cell.Value)
			vr.cells[j] = cell
		}
		for _, c := range v.cols {
			if ra, ok := c.(RowAppender[R]); ok {
				extra, err := ra.AppendRow(rc, row, key, index, len(v.cols))
				if err != nil {
					return nil, nil, fmt.Errorf("hxgrid: grid %s: row %d: %w", g.ID, index, err)
				}
				if extra != "" {
					vr.appended = append(vr.appended, extra)
				}
			}
		}
		v.rows = append(v.rows, vr)
	}

	v.summary = make([]summaryCell, len(v.cols))
	for i, c := range v.cols {
		b := c.Base()
		raw, html := b.computeSummary(rc)
		v.summary[i] = summaryCell{raw: raw, html: html, text: b.summaryText(rc, raw)}
		if !b.PageSummary.IsZero() {
			v.hasSummary = true
		}
	}
	if !g.HideFilters {
		for _, c := range v.cols {
			if c.Filter(rc) != "" {
				v.hasFilters = true
				break
			}
		}
	}
	return rc, v, nil
}

// Render writes the grid markup to w.
func (g *Grid[R]) Render(ctx context.Context, w io.Writer, p Params) error {
	start := time.Now()
	rc, v, err := g.build(ctx, p, false)
	if err != nil {
		g.observe("error", start)
		return err
	}
	out, err := g.layout(rc, v)
	if err != nil {
		g.observe("error", start)
		return err
	}
	g.observe("ok", start)
	_, err = io.WriteString(w, out)
	return err
}

// Component returns the grid as a templ component.
func (g *Grid[R]) Component(p Params) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return g.Render(ctx, w, p)
	})
}

func (g *Grid[R]) render(ctx context.Context, w io.Writer, p Params) error {
	return g.Render(ctx, w, p)
}

func (g *Grid[R]) sensitive() bool { return g.Sensitive }

func (g *Grid[R]) observe(outcome string, start time.Time) {
	if g.reg == nil || g.reg.metrics == nil {
		return
	}
	g.reg.metrics.Renders.WithLabelValues(g.ID, outcome).Inc()
	g.reg.metrics.RenderDurations.WithLabelValues(g.ID).Observe(time.Since(start).Seconds())
}

func (g *Grid[R]) emptyText(rc *RenderContext) string {
	if g.EmptyText != "" {
		return g.EmptyText
	}
	return rc.T("grid.empty")
}

func (g *Grid[R]) tableClass() string {
	cls := []string{"kv-grid-table", "table"}
	if g.Bordered {
		cls = append(cls, "table-bordered")
	}
	if g.Striped {
		cls = append(cls, "table-striped")
	}
	if g.Condensed {
		cls = append(cls, "table-sm")
	}
	if g.Hover {
		cls = append(cls, "table-hover")
	}
	return strings.Join(cls, " ")
}
