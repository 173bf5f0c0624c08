// Package i18n provides the message catalogs of the grid widgets.
//
// Catalogs are YAML documents keyed by language, with nested message maps
// flattened into dot-separated keys:
//
//	en:
//	  grid:
//	    summary: "Showing %{begin}-%{end} of %{total} items."
//
// English, German and French catalogs are embedded. Applications can add
// languages or override messages by pointing WithDir at a directory of
// *.yaml files.
package i18n

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when no language is requested or the requested
// one has no catalog.
const DefaultLanguage = "en"

//go:embed messages/*.yaml
var embedded embed.FS

var (
	ErrParseCatalog = errors.New("i18n: failed to parse catalog")
	ErrReadCatalog  = errors.New("i18n: failed to read catalog")
)

// Translator looks up messages. It is immutable after construction and safe
// for concurrent use.
type Translator struct {
	catalogs    map[string]map[string]string
	defaultLang string
	dir         string
	logger      *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) {
		if lang != "" {
			t.defaultLang = lang
		}
	}
}

// WithDir loads *.yaml catalogs from dir on top of the embedded ones.
func WithDir(dir string) Option {
	return func(t *Translator) {
		t.dir = dir
	}
}

// WithLogger sets the logger used to report missing messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New loads the embedded catalogs and, when configured, the override
// directory.
func New(opts ...Option) (*Translator, error) {
	t := &Translator{
		catalogs:    make(map[string]map[string]string),
		defaultLang: DefaultLanguage,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.loadFS(embedded, "messages"); err != nil {
		return nil, err
	}
	if t.dir != "" {
		if err := t.loadFS(os.DirFS(t.dir), "."); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Translator {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Translator) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return errors.Join(ErrReadCatalog, err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, e.Name())))
		if err != nil {
			return errors.Join(ErrReadCatalog, err)
		}
		if err := t.parse(data); err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
	}
	return nil
}

func (t *Translator) parse(data []byte) error {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Join(ErrParseCatalog, err)
	}
	for lang, messages := range doc {
		cat, ok := t.catalogs[lang]
		if !ok {
			cat = make(map[string]string)
			t.catalogs[lang] = cat
		}
		flatten(cat, "", messages)
	}
	return nil
}

func flatten(dst map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]any:
			flatten(dst, key, x)
		case string:
			dst[key] = x
		default:
			dst[key] = fmt.Sprint(x)
		}
	}
}

// Languages returns the languages with a catalog, sorted.
func (t *Translator) Languages() []string {
	out := make([]string, 0, len(t.catalogs))
	for lang := range t.catalogs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// resolve picks the catalog for lang: exact match, then base language,
// then the default language.
func (t *Translator) resolve(lang string) map[string]string {
	if cat, ok := t.catalogs[lang]; ok {
		return cat
	}
	if tag, err := language.Parse(lang); err == nil {
		base, _ := tag.Base()
		if cat, ok := t.catalogs[base.String()]; ok {
			return cat
		}
	}
	return t.catalogs[t.defaultLang]
}

// T returns the message for key in lang with %{name} placeholders replaced
// by the key/value pairs in args. Missing messages fall back to the default
// language and then to the key itself.
func (t *Translator) T(lang, key string, args ...string) string {
	msg, ok := t.resolve(lang)[key]
	if !ok {
		msg, ok = t.catalogs[t.defaultLang][key]
	}
	if !ok {
		t.logger.Debug("message not found", slog.String("lang", lang), slog.String("key", key))
		msg = key
	}
	return Sprintf(msg, args...)
}

// Tc is T with the language taken from ctx.
func (t *Translator) Tc(ctx context.Context, key string, args ...string) string {
	return t.T(Language(ctx), key, args...)
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

// Sprintf replaces %{name} placeholders in tmpl with the values of the
// key/value pairs in args. Unknown placeholders are kept.
func Sprintf(tmpl string, args ...string) string {
	if len(args) < 2 || !strings.Contains(tmpl, "%{") {
		return tmpl
	}
	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := params[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

type languageKey struct{}

// WithLanguage stores the request language in ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// Language returns the language stored in ctx, or DefaultLanguage.
func Language(ctx context.Context) string {
	if lang, _ := ctx.Value(languageKey{}).(string); lang != "" {
		return lang
	}
	return DefaultLanguage
}
