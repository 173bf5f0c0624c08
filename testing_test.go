package hxgrid

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pthm/hxgrid/lib/i18n"
)

func TestTestRender_Success(t *testing.T) {
	g := orderGrid("orders", sampleOrders())

	result, err := TestRender(g, Params{Path: "/orders"})
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}
	if !result.IsOK() {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if !result.HTMLContainsAll(`id="orders"`, "Alpha", "Beta", "Gamma") {
		t.Errorf("HTML missing rows: %s", result.HTML)
	}
	if result.Assets == nil || len(result.Assets.Bundles()) == 0 {
		t.Error("TestRender should collect the grid bundles")
	}
}

func TestTestRender_ConfigError(t *testing.T) {
	g := &Grid[order]{ID: "orders", Provider: &SliceProvider[order]{}}

	result, err := TestRender(g, Params{})
	if err == nil {
		t.Fatal("TestRender() should fail without columns")
	}
	if result != nil {
		t.Error("result should be nil on error")
	}
	if !IsConfigError(err) {
		t.Errorf("error = %v, want a config error", err)
	}
}

func TestTestRender_ProviderError(t *testing.T) {
	boom := errors.New("database down")
	g := &Grid[order]{
		ID:      "orders",
		Columns: []Column[order]{nameColumn()},
		Provider: ProviderFunc[order](func(context.Context, Query) (Page[order], error) {
			return Page[order]{}, boom
		}),
	}

	_, err := TestRender(g, Params{})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestTestRenderWithContext(t *testing.T) {
	g := orderGrid("orders", nil)
	ctx := i18n.WithLanguage(context.Background(), "de")

	result, err := TestRenderWithContext(ctx, g, Params{})
	if err != nil {
		t.Fatalf("TestRenderWithContext() error = %v", err)
	}
	if !result.HTMLContains("Keine Ergebnisse gefunden.") {
		t.Errorf("expected German empty text, got: %s", result.HTML)
	}
}

func TestTestResult_HTMLContains(t *testing.T) {
	result := &TestResult{HTML: `<div class="grid-view"><table></table></div>`}

	tests := []struct {
		substr string
		expect bool
	}{
		{"grid-view", true},
		{"<table>", true},
		{"kv-page-summary", false},
	}

	for _, tt := range tests {
		t.Run(tt.substr, func(t *testing.T) {
			if got := result.HTMLContains(tt.substr); got != tt.expect {
				t.Errorf("HTMLContains(%q) = %v, want %v", tt.substr, got, tt.expect)
			}
		})
	}
}

func TestTestResult_HTMLContainsAll(t *testing.T) {
	result := &TestResult{HTML: "<td>1</td><td>2</td>"}

	if !result.HTMLContainsAll("<td>1</td>", "<td>2</td>") {
		t.Error("HTMLContainsAll should match both cells")
	}
	if result.HTMLContainsAll("<td>1</td>", "<td>3</td>") {
		t.Error("HTMLContainsAll should fail when one is missing")
	}
}

func TestTestResult_HTMLContainsAny(t *testing.T) {
	result := &TestResult{HTML: "<td>1</td>"}

	if !result.HTMLContainsAny("<td>3</td>", "<td>1</td>") {
		t.Error("HTMLContainsAny should match one cell")
	}
	if result.HTMLContainsAny("<td>2</td>", "<td>3</td>") {
		t.Error("HTMLContainsAny should fail when none match")
	}
}

func TestTestResult_Count(t *testing.T) {
	result := &TestResult{HTML: "<tr></tr><tr></tr><tr></tr>"}
	if got := result.Count("<tr>"); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestTestResult_StatusChecks(t *testing.T) {
	result := &TestResult{StatusCode: http.StatusForbidden}

	if result.IsOK() {
		t.Error("IsOK() should be false for 403")
	}
	if !result.HasStatus(http.StatusForbidden) {
		t.Error("HasStatus(403) should be true")
	}
}

func TestTestResult_HeaderMethods(t *testing.T) {
	h := make(http.Header)
	h.Set("Content-Disposition", "attachment; filename=grid-export.csv")
	result := &TestResult{Headers: h}

	if !result.HasHeader("Content-Disposition", "attachment; filename=grid-export.csv") {
		t.Error("HasHeader should match the set value")
	}
	if result.GetHeader("Pragma") != "" {
		t.Error("GetHeader of a missing header should be empty")
	}
}

func TestTestResult_JSONError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error payload", `{"error":"rejected"}`, "rejected"},
		{"other payload", `{"ok":true}`, ""},
		{"not json", "<p>oops</p>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &TestResult{HTML: tt.body}
			if got := result.JSONError(); got != tt.want {
				t.Errorf("JSONError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestRequestBuilder(t *testing.T) {
	var got *http.Request
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r
		w.Header().Set("X-Seen", "1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("done"))
	})

	result, err := NewTestRequest(http.MethodPost, "/_grid/download").
		WithFormData(FieldFiletype, "csv").
		WithFormValues(map[string]string{FieldFilename: "orders", FieldBOM: "1"}).
		WithHeader("HX-Request", "true").
		Execute(h)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !result.HasStatus(http.StatusAccepted) {
		t.Errorf("StatusCode = %d, want 202", result.StatusCode)
	}
	if result.HTML != "done" {
		t.Errorf("HTML = %q, want done", result.HTML)
	}
	if !result.HasHeader("X-Seen", "1") {
		t.Error("response headers should be recorded")
	}
	if got.PostFormValue(FieldFiletype) != "csv" || got.PostFormValue(FieldFilename) != "orders" {
		t.Errorf("form = %v", got.PostForm)
	}
	if !IsHTMX(got) {
		t.Error("custom header should be sent")
	}
}

func TestTestRequestBuilder_NoDefaultHTMXHeader(t *testing.T) {
	var htmx bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		htmx = IsHTMX(r)
	})

	if _, err := NewTestRequest(http.MethodGet, "/").Execute(h); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if htmx {
		t.Error("requests should not carry HX-Request unless asked")
	}
}

func TestTestRequestBuilder_WithContext(t *testing.T) {
	var lang string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = i18n.Language(r.Context())
	})

	ctx := i18n.WithLanguage(context.Background(), "fr")
	if _, err := NewTestRequest(http.MethodGet, "/").WithContext(ctx).Execute(h); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if lang != "fr" {
		t.Errorf("language = %q, want fr", lang)
	}
}
