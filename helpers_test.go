package hxgrid

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect bool
	}{
		{"with HX-Request true", "true", true},
		{"with HX-Request false", "false", false},
		{"without header", "", false},
		{"with other value", "yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}

			result := IsHTMX(req)
			if result != tt.expect {
				t.Errorf("IsHTMX() = %v, want %v", result, tt.expect)
			}
		})
	}
}

func TestIsBoosted(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect bool
	}{
		{"with HX-Boosted true", "true", true},
		{"with HX-Boosted false", "false", false},
		{"without header", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Boosted", tt.header)
			}

			result := IsBoosted(req)
			if result != tt.expect {
				t.Errorf("IsBoosted() = %v, want %v", result, tt.expect)
			}
		})
	}
}

func TestCurrentURL(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect string
	}{
		{"with URL", "http://example.com/page", "http://example.com/page"},
		{"without header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Current-URL", tt.header)
			}

			result := CurrentURL(req)
			if result != tt.expect {
				t.Errorf("CurrentURL() = %q, want %q", result, tt.expect)
			}
		})
	}
}

func TestTargetID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect string
	}{
		{"with ID", "target-div", "target-div"},
		{"without header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Target", tt.header)
			}

			result := TargetID(req)
			if result != tt.expect {
				t.Errorf("TargetID() = %q, want %q", result, tt.expect)
			}
		})
	}
}

func TestRenderHelper(t *testing.T) {
	comp := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>grid</p>")
		return err
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := Render(rec, req, comp); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.String() != "<p>grid</p>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestTriggerHeader(t *testing.T) {
	tests := []struct {
		name        string
		trigger     string
		triggerData map[string]any
		expect      string
	}{
		{
			name:   "empty",
			expect: "",
		},
		{
			name:    "simple trigger",
			trigger: "grid:refresh",
			expect:  "grid:refresh",
		},
		{
			name:        "trigger with data",
			trigger:     "grid:refresh",
			triggerData: map[string]any{"grid": "orders"},
			expect:      `{"grid:refresh":{"grid":"orders"}}`,
		},
		{
			name:        "trigger with multiple data values",
			trigger:     "row:saved",
			triggerData: map[string]any{"key": "123", "attribute": "name"},
			expect:      `{"row:saved":{"attribute":"name","key":"123"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TriggerHeader(tt.trigger, tt.triggerData)
			if result != tt.expect {
				t.Errorf("TriggerHeader() = %q, want %q", result, tt.expect)
			}
		})
	}
}

func TestParseEdit(t *testing.T) {
	post := func(form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/orders/edit", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("complete form", func(t *testing.T) {
		edit, err := ParseEdit(post(url.Values{
			EditableKeyField:       {"42"},
			EditableAttributeField: {"status"},
			EditableIndexField:     {"3"},
			"status":               {"shipped"},
		}))
		if err != nil {
			t.Fatalf("ParseEdit() error = %v", err)
		}
		want := Edit{Key: "42", Attribute: "status", Index: 3, Value: "shipped"}
		if edit != want {
			t.Errorf("ParseEdit() = %+v, want %+v", edit, want)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := ParseEdit(post(url.Values{EditableAttributeField: {"status"}}))
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("ParseEdit() error = %v, want ErrMissingKey", err)
		}
	})

	t.Run("missing attribute", func(t *testing.T) {
		_, err := ParseEdit(post(url.Values{EditableKeyField: {"42"}}))
		if !IsConfigError(err) {
			t.Errorf("ParseEdit() error = %v, want a config error", err)
		}
	})
}
