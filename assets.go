package hxgrid

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
)

// Bundle is a named group of client files. Paths are relative to the asset
// base URL; the library ships no client code itself.
type Bundle struct {
	Name    string
	CSS     []string
	JS      []string
	Depends []*Bundle
}

// Client bundles used by the grid and its columns.
var (
	GridBundle = &Bundle{
		Name: "grid",
		CSS:  []string{"css/kv-grid.css"},
		JS:   []string{"js/kv-grid.js"},
	}
	ExportBundle = &Bundle{
		Name:    "export",
		CSS:     []string{"css/kv-grid-export.css"},
		JS:      []string{"js/kv-grid-export.js"},
		Depends: []*Bundle{GridBundle},
	}
	ResizableBundle = &Bundle{
		Name:    "resizable",
		CSS:     []string{"css/jquery.resizableColumns.css"},
		JS:      []string{"js/jquery.resizableColumns.js"},
		Depends: []*Bundle{GridBundle},
	}
	FloatHeaderBundle = &Bundle{
		Name:    "floatheader",
		JS:      []string{"js/jquery.floatThead.js", "js/kv-grid-float.js"},
		Depends: []*Bundle{GridBundle},
	}
	PerfectScrollbarBundle = &Bundle{
		Name:    "perfectscrollbar",
		CSS:     []string{"css/perfect-scrollbar.css"},
		JS:      []string{"js/perfect-scrollbar.js"},
		Depends: []*Bundle{GridBundle},
	}
	ToggleDataBundle = &Bundle{
		Name:    "toggledata",
		JS:      []string{"js/kv-grid-toggle.js"},
		Depends: []*Bundle{GridBundle},
	}
	ExpandRowBundle = &Bundle{
		Name:    "expandrow",
		CSS:     []string{"css/kv-grid-expand.css"},
		JS:      []string{"js/kv-grid-expand.js"},
		Depends: []*Bundle{GridBundle},
	}
	CheckboxBundle = &Bundle{
		Name:    "checkbox",
		JS:      []string{"js/kv-grid-checkbox.js"},
		Depends: []*Bundle{GridBundle},
	}
	RadioBundle = &Bundle{
		Name:    "radio",
		JS:      []string{"js/kv-grid-radio.js"},
		Depends: []*Bundle{GridBundle},
	}
	EditableBundle = &Bundle{
		Name:    "editable",
		CSS:     []string{"css/kv-grid-editable.css"},
		JS:      []string{"js/kv-grid-editable.js"},
		Depends: []*Bundle{GridBundle},
	}
)

// Assets collects the bundles and inline scripts required while rendering
// one page. It is safe for concurrent use.
type Assets struct {
	baseURL string

	mu      sync.Mutex
	bundles []*Bundle
	seen    map[string]bool
	scripts []string
	inline  map[string]bool
}

// NewAssets creates a collector resolving bundle files under baseURL.
func NewAssets(baseURL string) *Assets {
	return &Assets{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		seen:    make(map[string]bool),
		inline:  make(map[string]bool),
	}
}

// Require registers b and its dependencies, dependencies first.
func (a *Assets) Require(b *Bundle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.require(b)
}

func (a *Assets) require(b *Bundle) {
	if b == nil || a.seen[b.Name] {
		return
	}
	a.seen[b.Name] = true
	for _, d := range b.Depends {
		a.require(d)
	}
	a.bundles = append(a.bundles, b)
}

// Script registers an inline script. Identical scripts are emitted once.
func (a *Assets) Script(js string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if js == "" || a.inline[js] {
		return
	}
	a.inline[js] = true
	a.scripts = append(a.scripts, js)
}

// Bundles returns the registered bundle names in output order.
func (a *Assets) Bundles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.bundles))
	for i, b := range a.bundles {
		out[i] = b.Name
	}
	return out
}

// CSS renders the stylesheet links.
func (a *Assets) CSS() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		a.mu.Lock()
		defer a.mu.Unlock()
		var sb strings.Builder
		for _, b := range a.bundles {
			for _, f := range b.CSS {
				sb.WriteString(attrs.Open("link", attrs.Attrs{"rel": "stylesheet", "href": a.url(f)}))
				sb.WriteByte('\n')
			}
		}
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// JS renders the script tags followed by the inline scripts.
func (a *Assets) JS() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		a.mu.Lock()
		defer a.mu.Unlock()
		_, err := io.WriteString(w, a.jsLocked())
		return err
	})
}

func (a *Assets) jsLocked() string {
	var sb strings.Builder
	for _, b := range a.bundles {
		for _, f := range b.JS {
			sb.WriteString(attrs.RawTag("script", attrs.Attrs{"src": a.url(f)}, ""))
			sb.WriteByte('\n')
		}
	}
	return sb.String() + a.inlineLocked()
}

// inlineScripts renders only the inline scripts, for partial responses
// swapped into a page that already loaded the bundles.
func (a *Assets) inlineScripts() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inlineLocked()
}

func (a *Assets) inlineLocked() string {
	var sb strings.Builder
	for _, s := range a.scripts {
		sb.WriteString("<script>")
		sb.WriteString(s)
		sb.WriteString("</script>\n")
	}
	return sb.String()
}

func (a *Assets) url(file string) string {
	if a.baseURL == "" {
		return file
	}
	return a.baseURL + "/" + path.Clean(file)
}

type assetsKey struct{}

// WithAssets stores a collector in ctx.
func WithAssets(ctx context.Context, a *Assets) context.Context {
	return context.WithValue(ctx, assetsKey{}, a)
}

// AssetsFrom returns the collector stored in ctx. Without one it returns a
// fresh collector whose registrations are dropped.
func AssetsFrom(ctx context.Context) *Assets {
	if a, ok := ctx.Value(assetsKey{}).(*Assets); ok {
		return a
	}
	return NewAssets("")
}

// AssetsMiddleware installs a fresh collector for each request.
func AssetsMiddleware(baseURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithAssets(r.Context(), NewAssets(baseURL))))
		})
	}
}
