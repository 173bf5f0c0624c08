package hxgrid

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxgrid/lib/attrs"
	"github.com/pthm/hxgrid/lib/export"
	"github.com/pthm/hxgrid/lib/format"
)

// Export configures a grid's export menu.
type Export struct {
	// Formats enables and customizes formats. Nil enables every format of
	// the registry table unchanged; otherwise only the listed formats are
	// offered.
	Formats map[export.Format]export.Override
	// Label of the menu button. Defaults to the translated "Export".
	Label string
	// Filename replaces the default file name of every format that does not
	// override it.
	Filename string
	// Encoding of exported text files. Defaults to Config.ExportEncoding.
	Encoding string
	// NoBOM drops the UTF-8 byte order mark of csv and txt files.
	NoBOM bool
	// Target of the download form, "_blank" by default.
	Target string
	// ServerExport adds links building full exports on the server from the
	// data provider instead of the rendered page.
	ServerExport bool
}

// Download form fields.
const (
	FieldFiletype = "export_filetype"
	FieldFilename = "export_filename"
	FieldContent  = "export_content"
	FieldHash     = "export_hash"
	FieldConfig   = "export_config"
	FieldEncoding = "export_encoding"
	FieldBOM      = "export_bom"
	FieldGrid     = "export_grid"
)

var formatIcons = map[export.Format]string{
	export.HTML:  "fas fa-file-alt",
	export.CSV:   "fas fa-file-code",
	export.Text:  "fas fa-file-alt",
	export.Excel: "fas fa-file-excel",
	export.PDF:   "fas fa-file-pdf",
	export.JSON:  "fas fa-file-code",
}

// exportTable merges the grid's format overrides into the registry table.
func (g *Grid[R]) exportTable() export.Table {
	if g.Export == nil || g.reg == nil {
		return nil
	}
	base := g.reg.table.Clone()
	if g.Export.Filename != "" {
		for f, s := range base {
			if s.Filename == export.DefaultFilename {
				s.Filename = g.Export.Filename
				base[f] = s
			}
		}
	}
	return export.Merge(base, g.Export.Formats)
}

func (g *Grid[R]) exportEncoding() string {
	if g.Export != nil && g.Export.Encoding != "" {
		return g.Export.Encoding
	}
	return g.reg.cfg.ExportEncoding
}

// exportMenu renders the {export} section: the dropdown, its hashed format
// settings and the hidden download form.
func (g *Grid[R]) exportMenu(rc *RenderContext) (string, error) {
	if g.Export == nil {
		return "", nil
	}
	table := g.exportTable()
	formats := table.Ordered()
	if len(formats) == 0 {
		return "", nil
	}
	rc.Assets.Require(ExportBundle)

	encoding := g.exportEncoding()
	bom := "1"
	if g.Export.NoBOM {
		bom = "0"
	}
	label := g.Export.Label
	if label == "" {
		label = rc.T("export.menu")
	}

	var items strings.Builder
	items.WriteString(attrs.Tag("li", attrs.Attrs{"class": "dropdown-header"}, rc.T("export.header")))
	for _, f := range formats {
		s := table[f]
		config, err := export.ConfigJSON(s.Config)
		if err != nil {
			return "", fmt.Errorf("hxgrid: grid %s: %w", g.ID, err)
		}
		hash, err := export.Hash(g.reg.salt, export.HashInput{
			Module:   g.reg.cfg.ModuleID,
			Filename: s.Filename,
			MIME:     s.MIME,
			Encoding: encoding,
			BOM:      !g.Export.NoBOM,
			Config:   config,
		})
		if err != nil {
			return "", fmt.Errorf("hxgrid: grid %s: %w", g.ID, err)
		}
		alert := s.AlertMsg
		if alert == "" {
			alert = rc.T("export.alert", "format", s.Label)
		}
		a := attrs.Attrs{
			"class":         "dropdown-item export-" + string(f),
			"href":          "#",
			"tabindex":      "-1",
			"data-format":   string(f),
			"data-filename": s.Filename,
			"data-mime":     s.MIME,
			"data-hash":     hash,
			"data-config":   config,
			"data-encoding": encoding,
			"data-bom":      bom,
			"data-alert":    alert,
		}
		if !s.ShowHeader {
			a["data-skip-header"] = true
		}
		if !s.ShowPageSummary {
			a["data-skip-summary"] = true
		}
		if !s.ShowFooter {
			a["data-skip-footer"] = true
		}
		if !s.ShowCaption {
			a["data-skip-caption"] = true
		}
		icon := `<i class="` + formatIcons[f] + ` ` + templ.EscapeString(s.IconClass) + `"></i> `
		items.WriteString(attrs.RawTag("li", attrs.Attrs{"title": s.Title}, attrs.RawTag("a", a, icon+templ.EscapeString(s.Label))))
	}

	if g.Export.ServerExport {
		items.WriteString(`<li><hr class="dropdown-divider"></li>`)
		items.WriteString(attrs.Tag("li", attrs.Attrs{"class": "dropdown-header"}, rc.T("export.all_header")))
		for _, f := range formats {
			href, err := g.reg.exportURL(g.ID, g.Sensitive, f, rc.input)
			if err != nil {
				return "", fmt.Errorf("hxgrid: grid %s: %w", g.ID, err)
			}
			a := attrs.Attrs{
				"class":       "dropdown-item export-full-" + string(f),
				"href":        href,
				"data-format": string(f),
				"hx-boost":    "false",
			}
			icon := `<i class="` + formatIcons[f] + ` ` + templ.EscapeString(table[f].IconClass) + `"></i> `
			items.WriteString(attrs.RawTag("li", nil, attrs.RawTag("a", a, icon+templ.EscapeString(table[f].Label))))
		}
	}

	var sb strings.Builder
	sb.WriteString(attrs.Open("div", attrs.Attrs{"class": "btn-group kv-export-menu", "role": "group"}))
	sb.WriteString(attrs.Tag("button", attrs.Attrs{
		"id":             g.ID + "-export-menu",
		"type":           "button",
		"class":          "btn btn-outline-secondary dropdown-toggle",
		"data-bs-toggle": "dropdown",
		"aria-expanded":  "false",
		"title":          label,
	}, label))
	sb.WriteString(attrs.RawTag("ul", attrs.Attrs{"class": "dropdown-menu dropdown-menu-end kv-export-dropdown"}, items.String()))
	sb.WriteString("</div>")
	sb.WriteString(g.exportForm(encoding, bom))

	rc.Assets.Script("kvExportGrid(" + jsString(g.ID) + ", " + jsObject(map[string]string{
		"form":     "#" + g.ID + "-export-form",
		"confirm":  rc.T("export.confirm_download"),
		"progress": rc.T("export.download_progress"),
		"complete": rc.T("export.download_complete"),
	}) + ");")
	return sb.String(), nil
}

func (g *Grid[R]) exportForm(encoding, bom string) string {
	target := g.Export.Target
	if target == "" {
		target = "_blank"
	}
	hidden := func(name, value string) string {
		return attrs.Open("input", attrs.Attrs{"type": "hidden", "name": name, "value": value})
	}
	var sb strings.Builder
	sb.WriteString(attrs.Open("form", attrs.Attrs{
		"id":       g.ID + "-export-form",
		"class":    "kv-export-form " + ClassHidden,
		"action":   g.reg.downloadURL(),
		"method":   "post",
		"target":   target,
		"hx-boost": "false",
	}))
	sb.WriteString(hidden(FieldFiletype, ""))
	sb.WriteString(hidden(FieldFilename, ""))
	sb.WriteString(hidden(FieldContent, ""))
	sb.WriteString(hidden(FieldHash, ""))
	sb.WriteString(hidden(FieldConfig, ""))
	sb.WriteString(hidden(FieldEncoding, encoding))
	sb.WriteString(hidden(FieldBOM, bom))
	sb.WriteString(hidden(FieldGrid, g.ID))
	sb.WriteString("</form>")
	return sb.String()
}

// sheet converts a render pass into the neutral export form. Columns hidden
// from export are dropped.
func (g *Grid[R]) sheet(rc *RenderContext, v *view[R]) export.Sheet {
	var idx []int
	for i, c := range v.cols {
		if !c.Base().HiddenFromExport {
			idx = append(idx, i)
		}
	}
	seps, code := rc.Formatter.Separators(), rc.Formatter.CurrencyCode()
	numFmt := make([]string, len(v.cols))
	for _, i := range idx {
		b := v.cols[i].Base()
		xl := b.XLFormat
		if xl == "" {
			xl = format.ExcelFormat(b.spec, seps, code)
		}
		numFmt[i] = format.NumFmt(xl)
	}

	sh := export.Sheet{Caption: htmlText(g.Caption)}
	if !g.HideHeader {
		for _, i := range idx {
			sh.Headers = append(sh.Headers, htmlText(v.cols[i].Header(rc)))
		}
	}
	for _, row := range v.rows {
		cells := make([]export.Cell, 0, len(idx))
		for _, i := range idx {
			spec := v.cols[i].Base().spec
			cell := row.cells[i]
			text := cell.Text
			if text == "" {
				text = rc.Formatter.Text(cell.Value, spec)
			}
			cells = append(cells, export.Cell{
				Value:  rc.Formatter.Value(cell.Value, spec),
				Text:   text,
				NumFmt: numFmt[i],
			})
		}
		sh.Rows = append(sh.Rows, cells)
	}
	if g.ShowPageSummary && v.hasSummary {
		for _, i := range idx {
			s := v.summary[i]
			sh.Summary = append(sh.Summary, export.Cell{Value: s.raw, Text: s.text, NumFmt: numFmt[i]})
		}
	}
	if g.ShowFooter {
		for _, i := range idx {
			sh.Footer = append(sh.Footer, export.Cell{Text: htmlText(v.cols[i].Base().Footer)})
		}
	}
	return sh
}

// serveExport builds a full export from the data provider.
func (g *Grid[R]) serveExport(w http.ResponseWriter, r *http.Request, f export.Format, p Params) error {
	table := g.exportTable()
	s, ok := table[f]
	if !ok {
		return fmt.Errorf("%w: grid %s has no %s export", ErrNotFound, g.ID, f)
	}
	rc, v, err := g.build(r.Context(), p, true)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(r.Context(), &buf, f, g.sheet(rc, v), s, g.reg.pdf); err != nil {
		return fmt.Errorf("hxgrid: grid %s: export %s: %w", g.ID, f, err)
	}
	content, encoding, err := encodeText(f, buf.String(), g.exportEncoding(), g.Export != nil && !g.Export.NoBOM)
	if err != nil {
		return err
	}
	mimeType, ext := export.FileInfo(f, s)
	writeDownloadHeaders(w, mimeType, encoding, s.Filename, ext)
	_, err = w.Write([]byte(content))
	return err
}

// encodeText applies the charset of csv and txt files: content is converted
// to a non UTF-8 encoding, or prefixed with a BOM when requested. Other
// formats are always UTF-8.
func encodeText(f export.Format, content, encoding string, bom bool) (string, string, error) {
	if f != export.CSV && f != export.Text {
		return content, "utf-8", nil
	}
	if !export.IsUTF8(encoding) {
		converted, err := export.Convert(content, encoding)
		return converted, encoding, err
	}
	if bom {
		content = export.BOM + content
	}
	return content, "utf-8", nil
}

// writeDownloadHeaders sets the headers of a file download that must never
// be cached.
func writeDownloadHeaders(w http.ResponseWriter, mimeType, encoding, filename, ext string) {
	h := w.Header()
	h.Set("Content-Type", mimeType+"; charset="+encoding)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename + "." + ext}))
	h.Set("Cache-Control", "no-cache, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "Sat, 26 Jul 1979 05:00:00 GMT")
}
