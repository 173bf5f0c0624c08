package hxgrid

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/pthm/hxgrid/lib/encoding"
	"github.com/pthm/hxgrid/lib/export"
	"github.com/pthm/hxgrid/lib/i18n"
	"github.com/pthm/hxgrid/lib/salt"
)

// StateParam is the query parameter carrying the signed grid state on
// partial refresh and server export routes.
const StateParam = "_s"

// mountable is the non-generic view of a Grid the registry routes to.
type mountable interface {
	GridID() string
	Init() error
	attach(reg *Registry)
	exportTable() export.Table
	render(ctx context.Context, w io.Writer, p Params) error
	serveExport(w http.ResponseWriter, r *http.Request, f export.Format, p Params) error
}

// Registry mounts the grid routes: the export download endpoint, server
// exports and partial (HTMX) refreshes. It holds the shared services grids
// render with.
type Registry struct {
	mu    sync.RWMutex
	mux   *http.ServeMux
	grids map[string]mountable

	cfg        Config
	encoder    *encoding.Encoder
	salt       []byte
	table      export.Table
	pdf        export.PDFRenderer
	logger     *slog.Logger
	metrics    *Metrics
	translator *i18n.Translator
	saltStore  salt.Store
	overrides  map[export.Format]export.Override
	closers    []io.Closer

	// OnError is called when a route fails after the request was accepted.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(reg *Registry) { reg.logger = logger }
}

// WithTranslator replaces the translator built from Config.
func WithTranslator(t *i18n.Translator) Option {
	return func(reg *Registry) { reg.translator = t }
}

// WithPDFRenderer enables the pdf export format.
func WithPDFRenderer(r export.PDFRenderer) Option {
	return func(reg *Registry) { reg.pdf = r }
}

// WithMetrics records renders and exports.
func WithMetrics(m *Metrics) Option {
	return func(reg *Registry) { reg.metrics = m }
}

// WithSaltStore resolves the export salt from s when Config.ExportSalt is
// empty. By default Config.RedisURL selects a Redis store, otherwise the
// salt is process-local.
func WithSaltStore(s salt.Store) Option {
	return func(reg *Registry) { reg.saltStore = s }
}

// WithExportOverrides customizes the module-wide format table every grid
// starts from. As with grid overrides, only the listed formats stay
// enabled.
func WithExportOverrides(o map[export.Format]export.Override) Option {
	return func(reg *Registry) { reg.overrides = o }
}

// NewRegistry resolves the salt, translator and format table and mounts the
// routes under cfg.Prefix.
func NewRegistry(ctx context.Context, cfg Config, opts ...Option) (*Registry, error) {
	reg := &Registry{
		mux:    http.NewServeMux(),
		grids:  make(map[string]mountable),
		cfg:    cfg.withDefaults(),
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(reg)
	}

	if reg.translator == nil {
		t, err := i18n.New(
			i18n.WithDefaultLanguage(reg.cfg.Language),
			i18n.WithDir(reg.cfg.I18nDir),
			i18n.WithLogger(reg.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("hxgrid: load messages: %w", err)
		}
		reg.translator = t
	}

	if reg.saltStore == nil && reg.cfg.ExportSalt == "" && reg.cfg.RedisURL != "" {
		client, err := salt.Connect(ctx, reg.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDependencyMissing, err)
		}
		reg.closers = append(reg.closers, client)
		reg.saltStore = salt.NewRedis(client, salt.DefaultKey)
	}
	s, err := salt.Resolve(ctx, reg.cfg.ExportSalt, reg.saltStore)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("hxgrid: resolve export salt: %w", err)
	}
	reg.salt = s

	key := []byte(reg.cfg.EncryptionKey)
	if len(key) == 0 {
		sum := sha256.Sum256(append([]byte("hxgrid-state:"), s...))
		key = sum[:]
	}
	if reg.encoder, err = encoding.NewEncoder(key); err != nil {
		reg.Close()
		return nil, fmt.Errorf("hxgrid: create encoder: %w", err)
	}

	reg.table = export.Merge(export.DefaultTable(reg.pdf != nil), reg.overrides)

	reg.OnError = reg.defaultOnError
	prefix := reg.cfg.Prefix
	reg.mux.HandleFunc("POST "+prefix+"/download", reg.handleDownload)
	reg.mux.HandleFunc("GET "+prefix+"/{grid}/export/{format}", reg.handleExport)
	reg.mux.HandleFunc("GET "+prefix+"/{grid}", reg.handlePartial)
	return reg, nil
}

func (reg *Registry) defaultOnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case IsDecryptionError(err):
		http.Error(w, "Bad request", http.StatusBadRequest)
	default:
		reg.logger.Error("grid request failed", slog.String("path", r.URL.Path), logAttrError(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// Config returns the resolved module configuration.
func (reg *Registry) Config() Config { return reg.cfg }

// Translator returns the message translator.
func (reg *Registry) Translator() *i18n.Translator { return reg.translator }

// ExportTable returns a copy of the module-wide format table.
func (reg *Registry) ExportTable() export.Table { return reg.table.Clone() }

// Add attaches grids and validates their configuration. Grids are
// addressed by ID; adding two grids with the same ID is an error.
func (reg *Registry) Add(grids ...interface{ GridID() string }) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, g := range grids {
		m, ok := g.(mountable)
		if !ok {
			return fmt.Errorf("%w: %T is not a grid", ErrInvalidConfig, g)
		}
		id := m.GridID()
		if _, exists := reg.grids[id]; exists {
			return configError("registry", "grid "+id, "is already registered")
		}
		m.attach(reg)
		if err := m.Init(); err != nil {
			return err
		}
		reg.grids[id] = m
	}
	return nil
}

func (reg *Registry) grid(id string) (mountable, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	g, ok := reg.grids[id]
	if !ok {
		return nil, fmt.Errorf("%w: grid %q", ErrNotFound, id)
	}
	return g, nil
}

// Close releases the connections opened by NewRegistry.
func (reg *Registry) Close() error {
	var first error
	for _, c := range reg.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	reg.closers = nil
	return first
}

// Handler returns the HTTP handler for the grid routes. Mount it at
// Config.Prefix + "/".
func (reg *Registry) Handler() http.Handler {
	download := reg.downloadURL()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CSRF protection: mutating methods require HX-Request header. The
		// download form posts natively and is covered by the export hash.
		if r.Method != http.MethodGet && r.Method != http.MethodHead && r.URL.Path != download {
			if !IsHTMX(r) {
				http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
				return
			}
		}
		reg.mux.ServeHTTP(w, r)
	})
}

func (reg *Registry) downloadURL() string {
	return reg.cfg.Prefix + "/download"
}

// partialURL is the refresh route of a grid rendered with p, or "" when
// the state cannot be encoded.
func (reg *Registry) partialURL(id string, sensitive bool, p Params) string {
	token, err := reg.stateToken(id, sensitive, p, false)
	if err != nil {
		reg.logger.Error("encode grid state", logAttrGrid(id), logAttrError(err))
		return ""
	}
	return reg.cfg.Prefix + "/" + url.PathEscape(id) + "?" + StateParam + "=" + url.QueryEscape(token)
}

func (reg *Registry) exportURL(id string, sensitive bool, f export.Format, p Params) (string, error) {
	token, err := reg.stateToken(id, sensitive, p, true)
	if err != nil {
		return "", err
	}
	return reg.cfg.Prefix + "/" + url.PathEscape(id) + "/export/" + string(f) + "?" + StateParam + "=" + url.QueryEscape(token), nil
}

// handlePartial re-renders a grid for an HTMX swap. The page path and scope
// come from the state token, the grid parameters from the query.
func (reg *Registry) handlePartial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("grid")
	g, err := reg.grid(id)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}
	sensitive := isSensitive(g)
	st, err := reg.readState(r, id, sensitive)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}
	q := r.URL.Query()
	q.Del(StateParam)

	// Full navigations (a copied link, or hx-boost following the href) get
	// the embedding page instead of a bare fragment.
	if !IsHTMX(r) || IsBoosted(r) {
		http.Redirect(w, r, pageURL(st.Path, q), http.StatusSeeOther)
		return
	}
	container := pjaxContainerID(id)
	if t := TargetID(r); t != "" && t != container {
		w.Header().Set("HX-Retarget", "#"+container)
		w.Header().Set("HX-Reswap", string(SwapOuter))
	}

	assets := NewAssets("")
	ctx := WithAssets(r.Context(), assets)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := g.render(ctx, w, Params{Path: st.Path, Query: q, Scope: st.Scope}); err != nil {
		reg.logger.Error("partial render failed", logAttrGrid(id), slog.String("page", CurrentURL(r)), logAttrError(err))
		reg.OnError(w, r, err)
		return
	}
	_, _ = io.WriteString(w, assets.inlineScripts())
}

func pjaxContainerID(gridID string) string { return gridID + "-pjax" }

func pageURL(path string, q url.Values) string {
	if path == "" {
		path = "/"
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// handleExport streams a server-built export of all rows.
func (reg *Registry) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("grid")
	g, err := reg.grid(id)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}
	f, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		reg.OnError(w, r, fmt.Errorf("%w: %w", ErrNotFound, err))
		return
	}
	st, err := reg.readState(r, id, isSensitive(g))
	if err != nil {
		reg.OnError(w, r, err)
		return
	}
	p := Params{Path: st.Path, Query: url.Values(st.Query), Scope: st.Scope}
	if err := g.serveExport(w, r, f, p); err != nil {
		reg.logger.Error("server export failed", logAttrGrid(id), logAttrFormat(string(f)), logAttrError(err))
		reg.OnError(w, r, err)
		return
	}
	if reg.metrics != nil {
		reg.metrics.Exports.WithLabelValues(string(f), "server").Inc()
	}
}

func isSensitive(g mountable) bool {
	s, ok := g.(interface{ sensitive() bool })
	return ok && s.sensitive()
}
