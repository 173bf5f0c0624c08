package hxgrid

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxgrid.Render(w, r, grid.Component(hxgrid.ParamsFromRequest(r)))
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
//
// HTMX sends HX-Request: true on all requests. Pages embedding a pjax grid
// can use it to answer navigation with the grid alone:
//
//	if hxgrid.IsHTMX(r) {
//	    return grid.Render(ctx, w, params)
//	}
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// IsBoosted returns true if the request is a boosted navigation (hx-boost).
func IsBoosted(r *http.Request) bool {
	return r.Header.Get("HX-Boosted") == "true"
}

// CurrentURL returns the URL the browser is on, from the HX-Current-URL
// header. Returns empty string for non-HTMX requests.
func CurrentURL(r *http.Request) string {
	return r.Header.Get("HX-Current-URL")
}

// TargetID returns the id attribute of the target element.
func TargetID(r *http.Request) string {
	return r.Header.Get("HX-Target")
}

// Edit is a submitted editable cell.
type Edit struct {
	Key       string
	Attribute string
	Index     int
	Value     string
}

// ParseEdit reads the form posted by an EditableColumn cell.
//
//	func saveCell(w http.ResponseWriter, r *http.Request) {
//	    edit, err := hxgrid.ParseEdit(r)
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusBadRequest)
//	        return
//	    }
//	    // store edit.Value, then render the updated cell
//	}
func ParseEdit(r *http.Request) (Edit, error) {
	if err := r.ParseForm(); err != nil {
		return Edit{}, err
	}
	e := Edit{
		Key:       r.PostFormValue(EditableKeyField),
		Attribute: r.PostFormValue(EditableAttributeField),
	}
	if e.Key == "" {
		return Edit{}, ErrMissingKey
	}
	if e.Attribute == "" {
		return Edit{}, configError("edit form", EditableAttributeField, "is missing")
	}
	e.Value = r.PostFormValue(e.Attribute)
	e.Index, _ = strconv.Atoi(r.PostFormValue(EditableIndexField))
	return e, nil
}

// TriggerHeader builds an HX-Trigger header value. Without data the event
// name is used as is; with data the header is a JSON object and HTMX passes
// data as the event detail:
//
//	w.Header().Set("HX-Trigger", hxgrid.TriggerHeader("grid:refresh", map[string]any{"grid": "orders"}))
func TriggerHeader(event string, data map[string]any) string {
	if event == "" {
		return ""
	}
	if data == nil {
		return event
	}
	b, err := json.Marshal(map[string]any{event: data})
	if err != nil {
		return event
	}
	return string(b)
}
