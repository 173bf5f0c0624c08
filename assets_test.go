package hxgrid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestAssetsRequireOrder(t *testing.T) {
	a := NewAssets("")
	a.Require(ExportBundle)
	a.Require(ToggleDataBundle)
	a.Require(GridBundle)
	a.Require(nil)

	got := strings.Join(a.Bundles(), ",")
	if got != "grid,export,toggledata" {
		t.Errorf("Bundles() = %s, want dependencies first without duplicates", got)
	}
}

func TestAssetsScripts(t *testing.T) {
	a := NewAssets("")
	a.Script(`kvGridInit("orders");`)
	a.Script(`kvGridInit("orders");`)
	a.Script("")
	a.Script(`kvGridInit("customers");`)

	want := "<script>kvGridInit(\"orders\");</script>\n<script>kvGridInit(\"customers\");</script>\n"
	if got := a.inlineScripts(); got != want {
		t.Errorf("inlineScripts() = %q, want %q", got, want)
	}
}

func TestAssetsOutput(t *testing.T) {
	a := NewAssets("/static/")
	a.Require(ExportBundle)
	a.Script(`kvExportGrid("orders", {});`)

	var css strings.Builder
	if err := a.CSS().Render(context.Background(), &css); err != nil {
		t.Fatalf("CSS() error = %v", err)
	}
	wantCSS := `<link href="/static/css/kv-grid.css" rel="stylesheet">` + "\n" +
		`<link href="/static/css/kv-grid-export.css" rel="stylesheet">` + "\n"
	if css.String() != wantCSS {
		t.Errorf("CSS() = %q, want %q", css.String(), wantCSS)
	}

	var js strings.Builder
	if err := a.JS().Render(context.Background(), &js); err != nil {
		t.Fatalf("JS() error = %v", err)
	}
	wantJS := `<script src="/static/js/kv-grid.js"></script>` + "\n" +
		`<script src="/static/js/kv-grid-export.js"></script>` + "\n" +
		`<script>kvExportGrid("orders", {});</script>` + "\n"
	if js.String() != wantJS {
		t.Errorf("JS() = %q, want %q", js.String(), wantJS)
	}
}

func TestAssetsRelativeURLs(t *testing.T) {
	a := NewAssets("")
	a.Require(GridBundle)

	var css strings.Builder
	_ = a.CSS().Render(context.Background(), &css)
	if !strings.Contains(css.String(), `href="css/kv-grid.css"`) {
		t.Errorf("CSS() = %q", css.String())
	}
}

func TestAssetsConcurrent(t *testing.T) {
	a := NewAssets("")
	bundles := []*Bundle{ExportBundle, ResizableBundle, FloatHeaderBundle, EditableBundle}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.Require(bundles[i%len(bundles)])
			a.Script(`kvGridInit("orders");`)
		}(i)
	}
	wg.Wait()

	if got := len(a.Bundles()); got != len(bundles)+1 {
		t.Errorf("Bundles() has %d entries, want %d", got, len(bundles)+1)
	}
	if got := strings.Count(a.inlineScripts(), "<script>"); got != 1 {
		t.Errorf("inline scripts = %d, want 1", got)
	}
}

func TestAssetsFrom(t *testing.T) {
	if AssetsFrom(context.Background()) == nil {
		t.Fatal("AssetsFrom() should never return nil")
	}

	a := NewAssets("")
	ctx := WithAssets(context.Background(), a)
	if AssetsFrom(ctx) != a {
		t.Error("AssetsFrom() should return the stored collector")
	}
}

func TestAssetsMiddleware(t *testing.T) {
	g := orderGrid("orders", sampleOrders())
	g.FloatHeader = true

	var got []string
	h := AssetsMiddleware("/static")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Render(r.Context(), w, ParamsFromRequest(r)); err != nil {
			t.Errorf("Render() error = %v", err)
		}
		got = AssetsFrom(r.Context()).Bundles()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?sort=name", nil))
	if strings.Join(got, ",") != "grid,floatheader" {
		t.Errorf("Bundles() = %v, want grid,floatheader", got)
	}

	// Each request gets a fresh collector.
	got = nil
	g2 := orderGrid("plain", sampleOrders())
	h2 := AssetsMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = g2.Render(r.Context(), w, ParamsFromRequest(r))
		got = AssetsFrom(r.Context()).Bundles()
	}))
	h2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(got, ",") != "grid" {
		t.Errorf("Bundles() = %v, want grid", got)
	}
}
