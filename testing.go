package hxgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// TestResult holds the output of a grid render or a registry request for
// testing.
//
// Provides convenience methods for asserting on HTML content, headers and
// status codes.
type TestResult struct {
	HTML       string
	StatusCode int
	Headers    http.Header
	// Assets collected while rendering.
	Assets *Assets
}

// TestRender renders a grid and returns testable output.
//
// Use this for unit tests of grid configuration when you don't need the
// registry routes:
//
//	result, err := hxgrid.TestRender(grid, hxgrid.Params{Path: "/orders"})
//	if !result.HTMLContains("kv-page-summary") {
//	    t.Fatal("missing page summary")
//	}
func TestRender[R any](g *Grid[R], p Params) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), g, p)
}

// TestRenderWithContext renders a grid with a custom context, e.g. one
// carrying a language:
//
//	ctx := i18n.WithLanguage(context.Background(), "de")
//	result, err := hxgrid.TestRenderWithContext(ctx, grid, params)
func TestRenderWithContext[R any](ctx context.Context, g *Grid[R], p Params) (*TestResult, error) {
	assets := NewAssets("")
	var buf bytes.Buffer
	if err := g.Render(WithAssets(ctx, assets), &buf, p); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
		Assets:     assets,
	}, nil
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the HTML contains any of the given substrings.
func (r *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.HTML, s) {
			return true
		}
	}
	return false
}

// Count returns the number of non-overlapping occurrences of substr.
func (r *TestResult) Count(substr string) int {
	return strings.Count(r.HTML, substr)
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// JSONError returns the "error" member of a JSON error response, or "".
func (r *TestResult) JSONError() string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(r.HTML), &payload); err != nil {
		return ""
	}
	return payload.Error
}

// TestRequestBuilder provides a fluent interface for building test requests
// against the registry handler:
//
//	result, err := hxgrid.NewTestRequest("POST", "/_grid/download").
//	    WithFormData(hxgrid.FieldFiletype, "csv").
//	    Execute(reg.Handler())
type TestRequestBuilder struct {
	method   string
	url      string
	formData url.Values
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a new test request builder.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string][]string),
		headers:  make(map[string]string),
		ctx:      context.Background(),
	}
}

// WithFormData adds form data to the request.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData.Set(key, value)
	return b
}

// WithFormValues adds multiple form values to the request.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.formData.Set(k, v)
	}
	return b
}

// WithHeader adds a header to the request.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute serves the request with h and records the response.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	req := httptest.NewRequest(b.method, b.url, strings.NewReader(b.formData.Encode()))
	req = req.WithContext(b.ctx)
	if len(b.formData) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}, nil
}
