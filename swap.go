package hxgrid

// SwapMode is an HTMX swap strategy for responses replacing grid parts.
//
// See https://htmx.org/attributes/hx-swap/ for visual examples.
type SwapMode string

const (
	// SwapOuter replaces the entire element including its tag (outerHTML).
	// Partial grid refreshes use it on the pjax container.
	SwapOuter SwapMode = "outerHTML"

	// SwapInner replaces only the element's contents (innerHTML). Lazy
	// expand-row details load into their container with it.
	SwapInner SwapMode = "innerHTML"

	// SwapNone discards the response. Delete buttons of grids without pjax
	// use it; the server answers with an HX-Trigger refresh event.
	SwapNone SwapMode = "none"
)
