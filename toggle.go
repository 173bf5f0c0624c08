package hxgrid

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/pthm/hxgrid/lib/attrs"
)

// Toggle modes.
const (
	ToggleAll  = "all"
	TogglePage = "page"
)

// ToggleData configures the button switching between the paged view and
// all records.
type ToggleData struct {
	// MaxCount hides the toggle when the total exceeds it. 0 means no limit.
	MaxCount int
	// MinCount asks for confirmation before showing all records when the
	// total exceeds it.
	MinCount int
	// DefaultAll shows all records when the query names no mode.
	DefaultAll bool
}

// DefaultToggleData mirrors the usual limits: confirm above 500 records,
// hide above 10000.
func DefaultToggleData() *ToggleData {
	return &ToggleData{MaxCount: 10000, MinCount: 500}
}

// ToggleKey is the query parameter holding the toggle mode of a grid.
func ToggleKey(gridID string) string {
	return fmt.Sprintf("_tog%08x", uint32(xxhash.Sum64String(gridID)))
}

// toggleMode resolves the mode from the query.
func toggleMode(q url.Values, gridID string, defaultAll bool) bool {
	switch q.Get(ToggleKey(gridID)) {
	case ToggleAll:
		return true
	case TogglePage:
		return false
	}
	return defaultAll
}

// renderToggle renders the toggle button group, or "" when hidden.
func renderToggle(rc *RenderContext, td *ToggleData) string {
	if td == nil {
		return ""
	}
	if td.MaxCount > 0 && rc.Total > td.MaxCount {
		return ""
	}
	rc.Assets.Require(ToggleDataBundle)

	target, label, title := TogglePage, rc.T("toggle.page"), rc.T("toggle.show_page")
	if !rc.All {
		target, label, title = ToggleAll, rc.T("toggle.all"), rc.T("toggle.show_all")
	}
	href := rc.URL(map[string]string{ToggleKey(rc.GridID): target, rc.params.page: ""})
	a := attrs.Attrs{
		"id":           rc.GridID + "-togdata-" + target,
		"class":        "btn btn-outline-secondary",
		"href":         href,
		"title":        title,
		"data-toggle":  target,
		"data-pjax":    strconv.FormatBool(rc.Pjax),
		"data-grid-id": rc.GridID,
	}
	if target == ToggleAll && td.MinCount > 0 && rc.Total > td.MinCount {
		msg := rc.T("toggle.confirm", "total", strconv.Itoa(rc.Total))
		a["data-confirm"] = msg
		if rc.Pjax {
			a["hx-confirm"] = msg
		}
	}
	rc.pjaxLink(a, href)
	return `<div class="btn-group" role="group">` + attrs.Tag("a", a, label) + `</div>`
}
