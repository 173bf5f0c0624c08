package hxgrid

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pthm/hxgrid/lib/attrs"
)

// maxPagerButtons is the number of page links shown around the current page.
const maxPagerButtons = 10

// layout assembles the sections of the grid into its final markup.
func (g *Grid[R]) layout(rc *RenderContext, v *view[R]) (string, error) {
	rc.Assets.Require(GridBundle)

	sections := map[string]string{
		"{summary}":    g.summaryText(rc),
		"{items}":      g.table(rc, v),
		"{pager}":      g.pager(rc),
		"{toggleData}": renderToggle(rc, g.ToggleData),
	}
	menu, err := g.exportMenu(rc)
	if err != nil {
		return "", err
	}
	sections["{export}"] = menu
	sections["{toolbar}"] = g.toolbar(sections)

	var body string
	if g.Panel != nil {
		body = g.panel(sections)
	} else {
		tmpl := g.Layout
		if tmpl == "" {
			tmpl = DefaultLayout
		}
		body = replaceTokens(tmpl, sections)
	}

	a := attrs.Merge(g.Options, attrs.Attrs{"id": g.ID})
	attrs.AddClass(a, "grid-view")
	if g.Panel != nil {
		attrs.AddClass(a, "is-bs5")
	}
	out := attrs.RawTag("div", a, body)
	if g.Pjax {
		out = attrs.RawTag("div", attrs.Attrs{"id": pjaxContainerID(g.ID), "data-pjax-container": ""}, out)
	}
	g.registerScripts(rc)
	return out, nil
}

func replaceTokens(tmpl string, sections map[string]string) string {
	pairs := make([]string, 0, len(sections)*2)
	for k, v := range sections {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (g *Grid[R]) toolbar(sections map[string]string) string {
	items := g.Toolbar
	if items == nil {
		items = []string{"{toggleData}", "{export}"}
	}
	var sb strings.Builder
	for _, item := range items {
		content := replaceTokens(item, sections)
		if strings.TrimSpace(content) == "" {
			continue
		}
		sb.WriteString(attrs.RawTag("div", attrs.Attrs{"class": "btn-group me-2"}, content))
	}
	if sb.Len() == 0 {
		return ""
	}
	return attrs.RawTag("div", attrs.Attrs{"class": "btn-toolbar kv-grid-toolbar toolbar-container float-end", "role": "toolbar"}, sb.String())
}

func (g *Grid[R]) panel(sections map[string]string) string {
	p := g.Panel
	card := attrs.Attrs{"class": "card kv-panel"}
	head := attrs.Attrs{"class": "card-header"}
	if p.Type != "" {
		attrs.AddClass(card, "border-"+p.Type)
		attrs.AddClass(head, "text-white", "bg-"+p.Type)
	}

	var sb strings.Builder
	sb.WriteString(attrs.Open("div", card))
	if p.Heading != "" {
		sb.WriteString(attrs.RawTag("div", head,
			`<div class="float-end">`+sections["{summary}"]+`</div>`+
				`<h3 class="card-title m-0">`+p.Heading+`</h3>`+
				`<div class="clearfix"></div>`))
	}
	if before := sections["{toolbar}"] + p.Before; before != "" {
		sb.WriteString(attrs.RawTag("div", attrs.Attrs{"class": "kv-panel-before"}, before+`<div class="clearfix"></div>`))
	}
	sb.WriteString(sections["{items}"])
	if p.After != "" {
		sb.WriteString(attrs.RawTag("div", attrs.Attrs{"class": "kv-panel-after"}, p.After))
	}
	if pager := sections["{pager}"]; pager != "" || p.Footer != "" {
		inner := `<div class="kv-panel-pager">` + pager + `</div>` + p.Footer + `<div class="clearfix"></div>`
		sb.WriteString(attrs.RawTag("div", attrs.Attrs{"class": "card-footer"}, inner))
	}
	if p.Heading == "" {
		sb.WriteString(sections["{summary}"])
	}
	sb.WriteString("</div>")
	return sb.String()
}

// summaryText renders "Showing 1-20 of 54 items." or "Total 54 items.".
func (g *Grid[R]) summaryText(rc *RenderContext) string {
	if rc.Total == 0 {
		return ""
	}
	var text string
	if rc.All || rc.Total <= rc.PageSize {
		text = rc.T("grid.summary_all", "total", strconv.Itoa(rc.Total))
	} else {
		begin := rc.Offset() + 1
		end := min(rc.Offset()+rc.PageSize, rc.Total)
		key := "grid.summary"
		if rc.Total == 1 {
			key = "grid.summary_one"
		}
		text = rc.T(key, "begin", strconv.Itoa(begin), "end", strconv.Itoa(end), "total", strconv.Itoa(rc.Total))
	}
	return attrs.Tag("div", attrs.Attrs{"class": "summary"}, text)
}

func (g *Grid[R]) pager(rc *RenderContext) string {
	if rc.All || rc.PageSize <= 0 {
		return ""
	}
	pages := (rc.Total + rc.PageSize - 1) / rc.PageSize
	if pages <= 1 {
		return ""
	}
	current := min(rc.Page, pages)
	begin := max(1, current-maxPagerButtons/2)
	end := min(pages, begin+maxPagerButtons-1)
	begin = max(1, end-maxPagerButtons+1)

	var sb strings.Builder
	sb.WriteString(`<nav class="kv-grid-pager"><ul class="pagination">`)
	sb.WriteString(g.pageLink(rc, "&laquo;", current-1, "prev", current == 1))
	for n := begin; n <= end; n++ {
		cls := ""
		if n == current {
			cls = "active"
		}
		sb.WriteString(g.pageLink(rc, strconv.Itoa(n), n, cls, false))
	}
	sb.WriteString(g.pageLink(rc, "&raquo;", current+1, "next", current == pages))
	sb.WriteString(`</ul></nav>`)
	return sb.String()
}

func (g *Grid[R]) pageLink(rc *RenderContext, label string, page int, class string, disabled bool) string {
	li := attrs.Attrs{"class": "page-item"}
	if class != "" {
		attrs.AddClass(li, class)
	}
	if disabled {
		attrs.AddClass(li, "disabled")
		return attrs.RawTag("li", li, `<span class="page-link">`+label+`</span>`)
	}
	p := ""
	if page > 1 {
		p = strconv.Itoa(page)
	}
	href := rc.URL(map[string]string{rc.params.page: p})
	a := attrs.Attrs{"class": "page-link", "href": href, "data-page": strconv.Itoa(page - 1)}
	rc.pjaxLink(a, href)
	return attrs.RawTag("li", li, attrs.RawTag("a", a, label))
}

// table renders the {items} section.
func (g *Grid[R]) table(rc *RenderContext, v *view[R]) string {
	var sb strings.Builder

	container := attrs.Merge(g.ContainerOptions, attrs.Attrs{"id": g.ID + "-container"})
	attrs.AddClass(container, "kv-grid-container")
	if g.Responsive {
		attrs.AddClass(container, "table-responsive")
	}
	sb.WriteString(attrs.Open("div", container))

	table := attrs.Clone(g.TableOptions)
	attrs.AddClass(table, strings.Fields(g.tableClass())...)
	sb.WriteString(attrs.Open("table", table))
	if g.Caption != "" {
		sb.WriteString(attrs.RawTag("caption", nil, g.Caption))
	}

	if !g.HideHeader {
		sb.WriteString("<thead>")
		g.writeHeader(&sb, rc, v)
		sb.WriteString("</thead>")
	}

	top := g.PageSummaryPosition == PositionTop
	if g.ShowPageSummary && v.hasSummary && top {
		sb.WriteString(`<tbody class="kv-page-summary-container">`)
		g.writeSummary(&sb, rc, v)
		sb.WriteString("</tbody>")
	}

	sb.WriteString("<tbody>")
	g.writeBody(&sb, rc, v)
	sb.WriteString("</tbody>")

	bottomSummary := g.ShowPageSummary && v.hasSummary && !top
	if bottomSummary || g.ShowFooter {
		sb.WriteString("<tfoot>")
		if bottomSummary {
			g.writeSummary(&sb, rc, v)
		}
		if g.ShowFooter {
			g.writeFooter(&sb, rc, v)
		}
		sb.WriteString("</tfoot>")
	}

	sb.WriteString("</table></div>")
	return sb.String()
}

func (g *Grid[R]) writeHeader(sb *strings.Builder, rc *RenderContext, v *view[R]) {
	sb.WriteString(attrs.Open("tr", g.HeaderRowOptions))
	for i, c := range v.cols {
		b := c.Base()
		a := b.headerAttrs(rc)
		a["data-col-seq"] = strconv.Itoa(i)
		if b.MergeHeader && v.hasFilters {
			a["rowspan"] = "2"
			attrs.AddClass(a, "kv-merged-header")
		}
		sb.WriteString(attrs.RawTag("th", a, c.Header(rc)))
	}
	sb.WriteString("</tr>")

	if !v.hasFilters {
		return
	}
	row := attrs.Merge(g.FilterRowOptions, attrs.Attrs{"id": g.ID + "-filters"})
	attrs.AddClass(row, "filters", ClassSkipExport)
	sb.WriteString(attrs.Open("tr", row))
	for _, c := range v.cols {
		if c.Base().MergeHeader {
			continue
		}
		sb.WriteString(attrs.RawTag("td", c.Base().filterAttrs(), c.Filter(rc)))
	}
	sb.WriteString("</tr>")
}

func (g *Grid[R]) writeBody(sb *strings.Builder, rc *RenderContext, v *view[R]) {
	if len(v.rows) == 0 {
		td := attrs.Attrs{"colspan": strconv.Itoa(len(v.cols))}
		sb.WriteString("<tr>")
		sb.WriteString(attrs.RawTag("td", td, attrs.Tag("div", attrs.Attrs{"class": "empty"}, g.emptyText(rc))))
		sb.WriteString("</tr>")
		return
	}
	for _, row := range v.rows {
		ra := attrs.Merge(row.attrs, attrs.Attrs{"data-key": row.key})
		sb.WriteString(attrs.Open("tr", ra))
		for i, c := range v.cols {
			cell := row.cells[i]
			a := c.Base().contentAttrs(rc, cell.Attrs)
			a["data-col-seq"] = strconv.Itoa(i)
			sb.WriteString(attrs.RawTag("td", a, cell.HTML))
		}
		sb.WriteString("</tr>")
		for _, extra := range row.appended {
			sb.WriteString(extra)
		}
	}
}

func (g *Grid[R]) writeSummary(sb *strings.Builder, rc *RenderContext, v *view[R]) {
	sb.WriteString(attrs.Open("tr", attrs.Attrs{"class": ClassPageSummary + " table-warning"}))
	for i, c := range v.cols {
		sb.WriteString(attrs.RawTag("td", c.Base().summaryAttrs(rc), v.summary[i].html))
	}
	sb.WriteString("</tr>")
}

func (g *Grid[R]) writeFooter(sb *strings.Builder, rc *RenderContext, v *view[R]) {
	sb.WriteString(attrs.Open("tr", g.FooterRowOptions))
	for _, c := range v.cols {
		sb.WriteString(attrs.RawTag("td", c.Base().footerAttrs(rc), c.Base().Footer))
	}
	sb.WriteString("</tr>")
}

// registerScripts adds the client initialization of the enabled plugins.
func (g *Grid[R]) registerScripts(rc *RenderContext) {
	id := jsString(g.ID)
	rc.Assets.Script("kvGridInit(" + id + ");")
	if g.Resizable {
		rc.Assets.Require(ResizableBundle)
		rc.Assets.Script("jQuery(" + jsString("#"+g.ID+"-container .kv-grid-table") + ").resizableColumns({store: null});")
	}
	if g.FloatHeader {
		rc.Assets.Require(FloatHeaderBundle)
		rc.Assets.Script("kvGridFloatHeader(" + id + ");")
	}
	if g.PerfectScrollbar {
		rc.Assets.Require(PerfectScrollbarBundle)
		rc.Assets.Script("new PerfectScrollbar(" + jsString("#"+g.ID+"-container") + ");")
	}
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsObject(v map[string]string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// htmlText extracts the text content of a markup fragment.
func htmlText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
			sb.WriteByte(' ')
		}
	}
}
