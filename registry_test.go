package hxgrid

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pthm/hxgrid/lib/export"
)

const testSalt = "test-salt"

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	reg, err := NewRegistry(context.Background(), Config{ExportSalt: testSalt}, opts...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

type fakePDF struct {
	html   []byte
	config map[string]any
}

func (p *fakePDF) RenderPDF(_ context.Context, w io.Writer, html []byte, config map[string]any) error {
	p.html, p.config = html, config
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

// downloadForm builds a valid download post for format f of the registry
// table.
func downloadForm(t *testing.T, reg *Registry, f export.Format, content string) map[string]string {
	t.Helper()
	s := reg.ExportTable()[f]
	config, err := export.ConfigJSON(s.Config)
	if err != nil {
		t.Fatalf("ConfigJSON() error = %v", err)
	}
	hash, err := export.Hash([]byte(testSalt), export.HashInput{
		Module:   "gridview",
		Filename: s.Filename,
		MIME:     s.MIME,
		Encoding: "utf-8",
		BOM:      true,
		Config:   config,
	})
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	return map[string]string{
		FieldFiletype: string(f),
		FieldFilename: s.Filename,
		FieldContent:  content,
		FieldHash:     hash,
		FieldConfig:   config,
		FieldEncoding: "utf-8",
		FieldBOM:      "1",
	}
}

func download(t *testing.T, reg *Registry, form map[string]string) *TestResult {
	t.Helper()
	result, err := NewTestRequest(http.MethodPost, "/_grid/download").
		WithFormValues(form).
		Execute(reg.Handler())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return result
}

func TestNewRegistryDefaults(t *testing.T) {
	reg := newTestRegistry(t)

	if reg.Config().Prefix != "/_grid" || reg.Config().ModuleID != "gridview" {
		t.Errorf("Config() = %+v, want defaults", reg.Config())
	}
	if _, ok := reg.ExportTable()[export.PDF]; ok {
		t.Error("pdf should be disabled without a renderer")
	}
	if len(reg.ExportTable()) != 5 {
		t.Errorf("ExportTable() has %d formats, want 5", len(reg.ExportTable()))
	}
	if reg.Translator() == nil || reg.Encoder() == nil || len(reg.salt) == 0 {
		t.Error("translator and encoder should be set")
	}

	withPDF := newTestRegistry(t, WithPDFRenderer(&fakePDF{}))
	if _, ok := withPDF.ExportTable()[export.PDF]; !ok {
		t.Error("pdf should be enabled with a renderer")
	}
}

func TestNewRegistryExportOverrides(t *testing.T) {
	label := "Spreadsheet"
	reg := newTestRegistry(t, WithExportOverrides(map[export.Format]export.Override{
		export.Excel: {Label: &label},
	}))

	table := reg.ExportTable()
	if len(table) != 1 || table[export.Excel].Label != "Spreadsheet" {
		t.Errorf("ExportTable() = %v, want only the overridden xls", table.Ordered())
	}
}

func TestNewRegistryGeneratedSalt(t *testing.T) {
	reg, err := NewRegistry(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if len(reg.salt) == 0 {
		t.Error("salt should be generated when none is configured")
	}
}

func TestRegistryAdd(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Add(orderGrid("orders", nil)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(orderGrid("orders", nil)); !IsConfigError(err) {
		t.Errorf("duplicate Add() error = %v, want a config error", err)
	}
	if err := reg.Add(&Grid[order]{ID: "broken"}); !IsConfigError(err) {
		t.Errorf("Add() of an invalid grid = %v, want a config error", err)
	}
	if _, err := reg.grid("broken"); !IsNotFound(err) {
		t.Error("invalid grids should not be registered")
	}
}

func TestExportMenu(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.Export = &Export{}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result := render(t, g, "")
	form := downloadForm(t, reg, export.CSV, "")

	wants := []string{
		`<button aria-expanded="false" class="btn btn-outline-secondary dropdown-toggle" data-bs-toggle="dropdown" id="orders-export-menu" title="Export" type="button">Export</button>`,
		`data-format="csv"`,
		`data-hash="` + form[FieldHash] + `"`,
		`data-mime="application/csv"`,
		`data-filename="grid-export"`,
		`<form action="/_grid/download" class="kv-export-form kv-grid-hide" hx-boost="false" id="orders-export-form" method="post" target="_blank">`,
		`<input name="export_grid" type="hidden" value="orders">`,
		`<input name="export_bom" type="hidden" value="1">`,
	}
	for _, want := range wants {
		if !result.HTMLContains(want) {
			t.Errorf("HTML missing %q:\n%s", want, result.HTML)
		}
	}
	if result.HTMLContains(`data-format="pdf"`) {
		t.Error("pdf should not be offered without a renderer")
	}
	if !slicesContains(result.Assets.Bundles(), "export") {
		t.Errorf("bundles = %v, want export", result.Assets.Bundles())
	}
	if !strings.Contains(result.Assets.inlineScripts(), `kvExportGrid("orders", `) {
		t.Error("missing export script")
	}
}

func TestExportMenuFormatOverrides(t *testing.T) {
	reg := newTestRegistry(t)
	name := "orders-report"
	g := orderGrid("orders", sampleOrders())
	g.Export = &Export{
		Formats: map[export.Format]export.Override{
			export.CSV:  {Filename: &name, Config: map[string]any{"colDelimiter": ";"}},
			export.JSON: {},
		},
		Label: "Download",
		NoBOM: true,
	}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result := render(t, g, "")
	if !result.HTMLContainsAll(`data-format="csv"`, `data-format="json"`, `data-filename="orders-report"`, `title="Download"`, `data-bom="0"`) {
		t.Errorf("overrides not applied: %s", result.HTML)
	}
	if result.HTMLContains(`data-format="html"`) {
		t.Error("formats missing from the overrides should be disabled")
	}
}

func TestDownload(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	reg := newTestRegistry(t, WithMetrics(m))

	result := download(t, reg, downloadForm(t, reg, export.CSV, "Name,Amount\r\nAlpha,10.00\r\n"))
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	headers := map[string]string{
		"Content-Type":        "application/csv; charset=utf-8",
		"Content-Disposition": "attachment; filename=grid-export.csv",
		"Cache-Control":       "no-cache, max-age=0",
		"Pragma":              "no-cache",
		"Expires":             "Sat, 26 Jul 1979 05:00:00 GMT",
	}
	for k, v := range headers {
		if !result.HasHeader(k, v) {
			t.Errorf("header %s = %q, want %q", k, result.GetHeader(k), v)
		}
	}
	if result.HTML != export.BOM+"Name,Amount\r\nAlpha,10.00\r\n" {
		t.Errorf("body = %q", result.HTML)
	}
	if got := testutil.ToFloat64(m.Exports.WithLabelValues("csv", "download")); got != 1 {
		t.Errorf("exports counter = %v, want 1", got)
	}
}

func TestDownloadRejectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(form map[string]string)
	}{
		{"filename", func(f map[string]string) { f[FieldFilename] = "evil" }},
		{"config", func(f map[string]string) { f[FieldConfig] = `{"colDelimiter":"|"}` }},
		{"encoding", func(f map[string]string) { f[FieldEncoding] = "windows-1252" }},
		{"bom", func(f map[string]string) { f[FieldBOM] = "0" }},
		{"hash", func(f map[string]string) { f[FieldHash] = strings.Repeat("0", 64) }},
		{"format", func(f map[string]string) { f[FieldFiletype] = "html" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMetrics(nil)
			if err != nil {
				t.Fatalf("NewMetrics() error = %v", err)
			}
			reg := newTestRegistry(t, WithMetrics(m))
			form := downloadForm(t, reg, export.CSV, "a,b")
			tt.tamper(form)

			result := download(t, reg, form)
			if !result.HasStatus(http.StatusForbidden) {
				t.Fatalf("StatusCode = %d, want 403", result.StatusCode)
			}
			if got := result.JSONError(); got != "The export request could not be verified." {
				t.Errorf("JSONError() = %q", got)
			}
			if result.GetHeader("Content-Disposition") != "" {
				t.Error("rejected downloads must not be served as files")
			}
			if got := testutil.ToFloat64(m.ExportRejected.WithLabelValues("hash")); got != 1 {
				t.Errorf("rejected counter = %v, want 1", got)
			}
		})
	}
}

func TestDownloadLogsRejection(t *testing.T) {
	var logs bytes.Buffer
	reg := newTestRegistry(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	form := downloadForm(t, reg, export.CSV, "a,b")
	form[FieldFilename] = "evil"

	download(t, reg, form)
	out := logs.String()
	for _, want := range []string{"export download rejected", "reason=hash", "format=csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestDownloadUnknownFormat(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []string{"exe", "", "pdf"}
	for _, f := range tests {
		t.Run(f, func(t *testing.T) {
			result := download(t, reg, map[string]string{FieldFiletype: f, FieldContent: "x"})
			if !result.HasStatus(http.StatusBadRequest) {
				t.Errorf("StatusCode = %d, want 400", result.StatusCode)
			}
			if result.JSONError() == "" {
				t.Error("rejection should carry a JSON error")
			}
		})
	}
}

func TestDownloadGridTable(t *testing.T) {
	reg := newTestRegistry(t)
	name := "orders-report"
	g := orderGrid("orders", sampleOrders())
	g.Export = &Export{Formats: map[export.Format]export.Override{export.CSV: {Filename: &name}}}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s := g.exportTable()[export.CSV]
	config, _ := export.ConfigJSON(s.Config)
	hash, _ := export.Hash([]byte(testSalt), export.HashInput{
		Module: "gridview", Filename: name, MIME: s.MIME, Encoding: "utf-8", BOM: true, Config: config,
	})
	form := map[string]string{
		FieldFiletype: "csv",
		FieldFilename: name,
		FieldContent:  "a,b",
		FieldHash:     hash,
		FieldConfig:   config,
		FieldEncoding: "utf-8",
		FieldBOM:      "1",
		FieldGrid:     "orders",
	}

	result := download(t, reg, form)
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if !result.HasHeader("Content-Disposition", "attachment; filename=orders-report.csv") {
		t.Errorf("Content-Disposition = %q", result.GetHeader("Content-Disposition"))
	}

	form[FieldFiletype] = "json"
	if result := download(t, reg, form); !result.HasStatus(http.StatusBadRequest) {
		t.Errorf("format disabled for the grid: StatusCode = %d, want 400", result.StatusCode)
	}
}

func TestDownloadHTMLIsPurified(t *testing.T) {
	reg := newTestRegistry(t)
	content := `<html><head><style>body{background:url(https://evil/x)}</style>` +
		`<link rel=stylesheet href=https://evil/x.css><meta http-equiv=refresh content='0;url=https://evil'></head>` +
		`<body><table onclick="steal()"><tr><td style='background:url(javascript:alert(1))'><a href="javascript:x()">a</a></td></tr></table>` +
		`<script>alert(1)</script></body></html>`

	result := download(t, reg, downloadForm(t, reg, export.HTML, content))
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if result.HTMLContainsAny("<script", "onclick", "javascript:", "<style", "<link", "<meta", "evil") {
		t.Errorf("active content survived: %s", result.HTML)
	}
	if !result.HTMLContains("<table>") {
		t.Errorf("table markup should be kept: %s", result.HTML)
	}
	if !result.HasHeader("Content-Type", "text/html; charset=utf-8") {
		t.Errorf("Content-Type = %q", result.GetHeader("Content-Type"))
	}
}

func TestDownloadJSON(t *testing.T) {
	reg := newTestRegistry(t)

	result := download(t, reg, downloadForm(t, reg, export.JSON, `[{"Name":"Alpha"}]`))
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	want := "[\n    {\n        \"Name\": \"Alpha\"\n    }\n]"
	if result.HTML != want {
		t.Errorf("body = %q, want %q", result.HTML, want)
	}

	bad := download(t, reg, downloadForm(t, reg, export.JSON, `{not json`))
	if !bad.HasStatus(http.StatusBadRequest) {
		t.Errorf("invalid JSON: StatusCode = %d, want 400", bad.StatusCode)
	}
}

func TestDownloadPDF(t *testing.T) {
	pdf := &fakePDF{}
	reg := newTestRegistry(t, WithPDFRenderer(pdf))

	result := download(t, reg, downloadForm(t, reg, export.PDF, `<table><tr><td>1</td></tr></table><script>x</script>`))
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if result.HTML != "%PDF-fake" {
		t.Errorf("body = %q", result.HTML)
	}
	if strings.Contains(string(pdf.html), "<script") {
		t.Error("pdf input should be purified")
	}
	if !strings.HasPrefix(result.GetHeader("Content-Type"), "application/pdf") {
		t.Errorf("Content-Type = %q", result.GetHeader("Content-Type"))
	}
}

func TestDownloadEncoding(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.ExportTable()[export.CSV]
	config, _ := export.ConfigJSON(s.Config)
	hash, _ := export.Hash([]byte(testSalt), export.HashInput{
		Module: "gridview", Filename: s.Filename, MIME: s.MIME, Encoding: "windows-1252", BOM: true, Config: config,
	})

	result := download(t, reg, map[string]string{
		FieldFiletype: "csv",
		FieldFilename: s.Filename,
		FieldContent:  "café",
		FieldHash:     hash,
		FieldConfig:   config,
		FieldEncoding: "windows-1252",
		FieldBOM:      "1",
	})
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if result.HTML != "caf\xe9" {
		t.Errorf("body = %q, want windows-1252 bytes without BOM", result.HTML)
	}
	if !result.HasHeader("Content-Type", "application/csv; charset=windows-1252") {
		t.Errorf("Content-Type = %q", result.GetHeader("Content-Type"))
	}
}

func TestHandlerCSRF(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Add(orderGrid("orders", sampleOrders())); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	t.Run("non-GET without HX-Request", func(t *testing.T) {
		result, _ := NewTestRequest(http.MethodPost, "/_grid/orders").Execute(reg.Handler())
		if !result.HasStatus(http.StatusForbidden) {
			t.Errorf("StatusCode = %d, want 403", result.StatusCode)
		}
		if !result.HTMLContains("HTMX request required") {
			t.Errorf("body = %q", result.HTML)
		}
	})

	t.Run("non-GET with HX-Request", func(t *testing.T) {
		result, _ := NewTestRequest(http.MethodPost, "/_grid/orders").
			WithHeader("HX-Request", "true").
			Execute(reg.Handler())
		if result.HasStatus(http.StatusForbidden) {
			t.Error("HTMX requests should pass the CSRF check")
		}
	})

	t.Run("download is exempt", func(t *testing.T) {
		result := download(t, reg, downloadForm(t, reg, export.CSV, "a"))
		if !result.IsOK() {
			t.Errorf("StatusCode = %d, want 200", result.StatusCode)
		}
	})
}

func TestPartialRoute(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.Pjax = true
	g.PageSize = 2
	g.Sensitive = true
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	page := render(t, g, "")
	if !page.HTMLContains(`<div data-pjax-container="" id="orders-pjax">`) {
		t.Errorf("pjax grid should render its container: %s", page.HTML)
	}
	if !page.HTMLContains(`hx-target="#orders-pjax"`) {
		t.Errorf("pager links should target the container: %s", page.HTML)
	}

	u := reg.partialURL("orders", true, Params{Path: "/orders"}) + "&page=2"
	result, _ := NewTestRequest(http.MethodGet, u).WithHeader("HX-Request", "true").Execute(reg.Handler())
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if !result.HTMLContains("Gamma") || result.HTMLContains("Alpha") {
		t.Errorf("partial should render page 2: %s", result.HTML)
	}
	if !result.HTMLContains(`<script>kvGridInit("orders");</script>`) {
		t.Errorf("partial should carry its init scripts: %s", result.HTML)
	}
	if !result.HTMLContains(`href="/orders"`) {
		t.Errorf("links should point at the embedding page: %s", result.HTML)
	}
}

func TestPartialRouteNavigation(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.Pjax = true
	g.PageSize = 2
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	u := reg.partialURL("orders", false, Params{Path: "/orders"}) + "&page=2"

	tests := []struct {
		name         string
		headers      map[string]string
		wantStatus   int
		wantLocation string
		wantRetarget string
	}{
		{"plain navigation", nil, http.StatusSeeOther, "/orders?page=2", ""},
		{"boosted navigation", map[string]string{"HX-Request": "true", "HX-Boosted": "true"}, http.StatusSeeOther, "/orders?page=2", ""},
		{"container target", map[string]string{"HX-Request": "true", "HX-Target": "orders-pjax"}, http.StatusOK, "", ""},
		{"no target", map[string]string{"HX-Request": "true"}, http.StatusOK, "", ""},
		{"inner target", map[string]string{"HX-Request": "true", "HX-Target": "orders-table"}, http.StatusOK, "", "#orders-pjax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewTestRequest(http.MethodGet, u)
			for k, v := range tt.headers {
				req = req.WithHeader(k, v)
			}
			result, _ := req.Execute(reg.Handler())
			if !result.HasStatus(tt.wantStatus) {
				t.Fatalf("StatusCode = %d, want %d", result.StatusCode, tt.wantStatus)
			}
			if got := result.GetHeader("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if got := result.GetHeader("HX-Retarget"); got != tt.wantRetarget {
				t.Errorf("HX-Retarget = %q, want %q", got, tt.wantRetarget)
			}
			if tt.wantRetarget != "" && !result.HasHeader("HX-Reswap", "outerHTML") {
				t.Errorf("HX-Reswap = %q, want outerHTML", result.GetHeader("HX-Reswap"))
			}
		})
	}
}

func TestPartialRouteErrors(t *testing.T) {
	reg := newTestRegistry(t)
	for _, id := range []string{"orders", "customers"} {
		g := orderGrid(id, sampleOrders())
		g.Pjax = true
		if err := reg.Add(g); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"unknown grid", "/_grid/missing?_s=x", http.StatusNotFound},
		{"garbage token", "/_grid/orders?_s=garbage", http.StatusBadRequest},
		{"missing token", "/_grid/orders", http.StatusBadRequest},
		{"token of another grid", "/_grid/orders?" + strings.SplitN(reg.partialURL("customers", false, Params{}), "?", 2)[1], http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := NewTestRequest(http.MethodGet, tt.url).Execute(reg.Handler())
			if !result.HasStatus(tt.want) {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tt.want)
			}
		})
	}
}

func TestServerExport(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.PageSize = 2
	g.Export = &Export{ServerExport: true}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	page := render(t, g, "sort=-amount")
	if !page.HTMLContains("Export All Data") || !page.HTMLContains("export-full-csv") {
		t.Errorf("menu should offer full exports: %s", page.HTML)
	}

	href, err := reg.exportURL("orders", false, export.CSV, Params{Path: "/orders", Query: url.Values{"sort": {"-amount"}}})
	if err != nil {
		t.Fatalf("exportURL() error = %v", err)
	}
	if !page.HTMLContains(`href="/_grid/orders/export/csv?_s=`) {
		t.Errorf("menu should link the server export route: %s", page.HTML)
	}

	result, _ := NewTestRequest(http.MethodGet, href).Execute(reg.Handler())
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	want := export.BOM + "Name,Amount\r\nGamma,30.00\r\nBeta,20.00\r\nAlpha,10.00\r\n"
	if result.HTML != want {
		t.Errorf("body = %q, want %q", result.HTML, want)
	}
	if !result.HasHeader("Content-Disposition", "attachment; filename=grid-export.csv") {
		t.Errorf("Content-Disposition = %q", result.GetHeader("Content-Disposition"))
	}
}

func TestServerExportXLSX(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.Export = &Export{ServerExport: true}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	href, err := reg.exportURL("orders", false, export.Excel, Params{Path: "/orders"})
	if err != nil {
		t.Fatalf("exportURL() error = %v", err)
	}
	result, _ := NewTestRequest(http.MethodGet, href).Execute(reg.Handler())
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body = %s", result.StatusCode, result.HTML)
	}
	if !result.HasHeader("Content-Type", export.XLSXMIME+"; charset=utf-8") {
		t.Errorf("Content-Type = %q", result.GetHeader("Content-Type"))
	}
	if !result.HasHeader("Content-Disposition", "attachment; filename=grid-export.xlsx") {
		t.Errorf("Content-Disposition = %q", result.GetHeader("Content-Disposition"))
	}
	if !strings.HasPrefix(result.HTML, "PK") {
		t.Error("body should be a zip container")
	}
}

func TestServerExportNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	g := orderGrid("orders", sampleOrders())
	g.Export = &Export{Formats: map[export.Format]export.Override{export.CSV: {}}}
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	jsonURL, _ := reg.exportURL("orders", false, export.JSON, Params{})
	tests := []struct {
		name string
		url  string
	}{
		{"unknown format", "/_grid/orders/export/exe?_s=x"},
		{"format disabled for the grid", jsonURL},
		{"unknown grid", "/_grid/missing/export/csv?_s=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := NewTestRequest(http.MethodGet, tt.url).Execute(reg.Handler())
			if !result.HasStatus(http.StatusNotFound) {
				t.Errorf("StatusCode = %d, want 404", result.StatusCode)
			}
		})
	}
}

func TestRegistryOnError(t *testing.T) {
	reg := newTestRegistry(t)
	var got error
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_grid/missing", nil))
	if rec.Code != http.StatusTeapot || !IsNotFound(got) {
		t.Errorf("OnError not used: code %d, err %v", rec.Code, got)
	}
}

func TestRenderMetrics(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	reg := newTestRegistry(t, WithMetrics(m))
	g := orderGrid("orders", sampleOrders())
	if err := reg.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	render(t, g, "")
	render(t, g, "")
	if got := testutil.ToFloat64(m.Renders.WithLabelValues("orders", "ok")); got != 2 {
		t.Errorf("renders = %v, want 2", got)
	}
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	r := prometheus.NewRegistry()
	if _, err := NewMetrics(r); err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	if _, err := NewMetrics(r); err == nil {
		t.Error("registering twice should fail")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HXGRID_PREFIX=/grids\nHXGRID_LANGUAGE=de\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HXGRID_EXPORT_SALT", "from-env")
	t.Setenv("HXGRID_PREFIX", "")
	os.Unsetenv("HXGRID_PREFIX")
	t.Setenv("HXGRID_LANGUAGE", "")
	os.Unsetenv("HXGRID_LANGUAGE")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Prefix != "/grids" || cfg.Language != "de" || cfg.ExportSalt != "from-env" {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	if cfg.ModuleID != "gridview" || cfg.ExportEncoding != "utf-8" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env files should be ignored, got %v", err)
	}
}

func TestDownloadHeadersQuoteFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"grid-export", "attachment; filename=grid-export.csv"},
		{"Q1 report; final", `attachment; filename="Q1 report; final.csv"`},
		{`say "hi"`, `attachment; filename="say \"hi\".csv"`},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDownloadHeaders(rec, "text/csv", "utf-8", tt.filename, "csv")
			if got := rec.Header().Get("Content-Disposition"); got != tt.want {
				t.Errorf("Content-Disposition = %q, want %q", got, tt.want)
			}
		})
	}
}
