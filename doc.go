// Package hxgrid renders server-side data grids for Go web applications
// using templ and HTMX.
//
// A Grid is a typed table over rows of type R. Rows come from a
// DataProvider; each Column turns a row into a cell. Columns share their
// configuration through ColumnBase: alignment, visibility, export flags,
// display format and the page summary.
//
//	grid := &hxgrid.Grid[Order]{
//	    ID:       "orders",
//	    Provider: &hxgrid.SliceProvider[Order]{Rows: orders, Field: orderField},
//	    Key:      func(o Order) string { return o.ID },
//	    Columns: []hxgrid.Column[Order]{
//	        &hxgrid.SerialColumn[Order]{},
//	        &hxgrid.DataColumn[Order]{
//	            Attribute: "amount",
//	            Value:     func(o Order) any { return o.Amount },
//	            Sortable:  true,
//	            ColumnBase: hxgrid.ColumnBase{
//	                Format:      "currency:USD",
//	                PageSummary: hxgrid.SummaryFunc(summary.Sum),
//	            },
//	        },
//	    },
//	    ShowPageSummary: true,
//	    Export:          &hxgrid.Export{},
//	}
//
// # Rendering
//
// Render is a single synchronous pass: validate the configuration (once per
// grid), fetch the page, render the header, filter row, body, page summary
// and footer, then register the client scripts of the enabled plugins with
// the Assets collector on the request context. Rendering does not mutate
// the grid, so one grid serves concurrent requests.
//
// Page summaries buffer the raw value of every visible cell and aggregate
// them once per render with the functions of lib/summary. Function results
// pass through the column's display format.
//
// # Registry and Routes
//
// A Registry serves three routes under Config.Prefix:
//   - POST {prefix}/download: the export download endpoint
//   - GET {prefix}/{grid}/export/{format}: server-built exports of all rows
//   - GET {prefix}/{grid}: partial refreshes for pjax grids
//
// Grid state travels in signed tokens (encrypted for Sensitive grids) so a
// partial refresh or server export reproduces the page scope it was
// rendered with.
//
// # Security Model
//
// The export menu hashes each format's settings (file name, MIME type,
// encoding, BOM flag and config) with an HMAC keyed by the export salt.
// The download endpoint recomputes the hash from the server's own format
// table and refuses mismatches with 403, so a client cannot change the
// served content type or file name. HTML content is purified before it is
// served.
//
// CSRF protection follows the HTMX convention: mutating requests require
// the HX-Request: true header. The download endpoint is a native form post
// and relies on the export hash instead.
//
// # Configuration
//
// Config is read from the environment with LoadConfig (optionally from a
// .env file). Without HXGRID_EXPORT_SALT the salt is generated at startup,
// or shared through Redis when HXGRID_REDIS_URL is set.
package hxgrid
