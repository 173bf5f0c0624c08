package hxgrid

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pthm/hxgrid/lib/attrs"
	"github.com/pthm/hxgrid/lib/format"
	"github.com/pthm/hxgrid/lib/i18n"
	"github.com/pthm/hxgrid/lib/summary"
)

// Params are the request inputs of one grid render.
type Params struct {
	// Path is the URL path of the page embedding the grid; pager and sort
	// links point at it.
	Path string
	// Query holds page, sort, filter and toggle parameters.
	Query url.Values
	// Scope values are passed to the data provider and survive partial
	// refreshes and server exports in the signed state token.
	Scope map[string]string
}

// ParamsFromRequest reads the grid parameters of r.
func ParamsFromRequest(r *http.Request) Params {
	return Params{Path: r.URL.Path, Query: r.URL.Query()}
}

// WithScope returns p with the scope replaced.
func (p Params) WithScope(scope map[string]string) Params {
	p.Scope = scope
	return p
}

// paramNames are the query parameter names of one grid.
type paramNames struct {
	page    string
	perPage string
	sort    string
	filter  string
}

func newParamNames(prefix string) paramNames {
	return paramNames{
		page:    prefix + "page",
		perPage: prefix + "per-page",
		sort:    prefix + "sort",
		filter:  prefix + "filter",
	}
}

func (n paramNames) filterKey(attr string) string {
	return n.filter + "[" + attr + "]"
}

// GridInfo describes the grid to its columns at initialization.
type GridInfo struct {
	ID string
	// HasKey reports whether the grid derives row keys from its rows rather
	// than row positions.
	HasKey bool
	// Registered reports whether the grid is mounted on a Registry.
	Registered bool
}

// RenderContext carries the request-scoped state of one render pass.
type RenderContext struct {
	Ctx       context.Context
	GridID    string
	Lang      string
	Formatter *format.Formatter
	Assets    *Assets

	// AutoXLFormat derives mso-number-format styles from column formats.
	AutoXLFormat bool
	// Pjax is set when pager, sort and toggle links refresh the grid in
	// place through the registry's partial route.
	Pjax bool

	Page     int
	PageSize int
	All      bool
	Total    int
	Sort     Sort
	Filters  map[string]string

	params     paramNames
	input      Params
	partialURL string
	translator *i18n.Translator
	buffers    map[*ColumnBase]*summary.Buffer
	sortable   map[string]bool
	evaluating map[*ColumnBase]bool
}

// defaultTranslator serves grids rendered without a Registry.
var defaultTranslator = sync.OnceValue(func() *i18n.Translator {
	return i18n.MustNew()
})

// T translates a message key.
func (rc *RenderContext) T(key string, args ...string) string {
	t := rc.translator
	if t == nil {
		t = defaultTranslator()
	}
	return t.T(rc.Lang, key, args...)
}

// Offset is the zero-based index of the first row of the page.
func (rc *RenderContext) Offset() int {
	if rc.All {
		return 0
	}
	return (rc.Page - 1) * rc.PageSize
}

func (rc *RenderContext) buffer(c *ColumnBase) *summary.Buffer {
	b, ok := rc.buffers[c]
	if !ok {
		b = &summary.Buffer{}
		rc.buffers[c] = b
	}
	return b
}

// URL returns the page URL with the given query parameters replaced. An
// empty value removes the parameter.
func (rc *RenderContext) URL(set map[string]string) string {
	return rc.input.Path + encodeQuery(rc.mergedQuery(set))
}

// PartialURL is URL pointed at the registry's partial refresh route.
func (rc *RenderContext) PartialURL(set map[string]string) string {
	if rc.partialURL == "" {
		return rc.URL(set)
	}
	q := rc.mergedQuery(set)
	sep := "?"
	if strings.Contains(rc.partialURL, "?") {
		sep = "&"
	}
	if enc := q.Encode(); enc != "" {
		return rc.partialURL + sep + enc
	}
	return rc.partialURL
}

func (rc *RenderContext) mergedQuery(set map[string]string) url.Values {
	q := url.Values{}
	for k, v := range rc.input.Query {
		q[k] = append([]string(nil), v...)
	}
	for k, v := range set {
		if v == "" {
			q.Del(k)
		} else {
			q.Set(k, v)
		}
	}
	return q
}

func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// pjaxLink adds the HTMX attributes refreshing the grid in place when the
// grid is in pjax mode. href is the full-page equivalent pushed to history.
func (rc *RenderContext) pjaxLink(a attrs.Attrs, href string) {
	if !rc.Pjax || rc.partialURL == "" {
		return
	}
	u, err := url.Parse(href)
	if err != nil {
		return
	}
	set := map[string]string{}
	for k := range rc.input.Query {
		set[k] = ""
	}
	for k, v := range u.Query() {
		set[k] = v[0]
	}
	a["hx-get"] = rc.PartialURL(set)
	a["hx-target"] = "#" + pjaxContainerID(rc.GridID)
	a["hx-swap"] = string(SwapOuter)
	a["hx-push-url"] = href
}

// SortURL returns the link toggling the ordering on attr.
func (rc *RenderContext) SortURL(attr string) string {
	next := Sort{Attr: attr}
	if rc.Sort.Attr == attr && !rc.Sort.Desc {
		next.Desc = true
	}
	return rc.URL(map[string]string{rc.params.sort: next.String(), rc.params.page: ""})
}

// filterURL is the partial URL of a filter change: the filter row inputs
// are sent along, so the current filter values and the page are dropped.
func (rc *RenderContext) filterURL() string {
	set := map[string]string{rc.params.page: ""}
	for k := range rc.input.Query {
		if strings.HasPrefix(k, rc.params.filter+"[") {
			set[k] = ""
		}
	}
	return rc.PartialURL(set)
}

// FilterName is the input name of the filter on attr.
func (rc *RenderContext) FilterName(attr string) string {
	return rc.params.filterKey(attr)
}
