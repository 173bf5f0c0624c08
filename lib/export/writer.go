package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// XLSXMIME is the content type of server-built spreadsheets. Client-side
// Excel exports are HTML tables served as application/vnd.ms-excel; the
// server writes real workbooks instead.
const XLSXMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PDFRenderer converts an exported HTML document into a PDF file. No
// renderer ships with the library; applications plug one in.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, w io.Writer, html []byte, config map[string]any) error
}

// FileInfo returns the content type and file extension of a server-built
// export of f.
func FileInfo(f Format, s Settings) (mime, ext string) {
	if f == Excel {
		return XLSXMIME, "xlsx"
	}
	return s.MIME, f.Extension()
}

// Write renders sh as f into w. pdf may be nil unless f is PDF.
func Write(ctx context.Context, w io.Writer, f Format, sh Sheet, s Settings, pdf PDFRenderer) error {
	v := sh.view(s)
	switch f {
	case CSV, Text:
		return writeDelimited(w, v, s.Config)
	case HTML:
		return writeHTML(w, v, s)
	case Excel:
		return writeXLSX(w, v, s.Config)
	case JSON:
		return writeJSON(w, v, s.Config)
	case PDF:
		if pdf == nil {
			return ErrNoPDFRenderer
		}
		var buf bytes.Buffer
		if err := writeHTML(&buf, v, s); err != nil {
			return err
		}
		return pdf.RenderPDF(ctx, w, buf.Bytes(), s.Config)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeDelimited(w io.Writer, sh Sheet, config map[string]any) error {
	cw := csv.NewWriter(w)
	if d, _ := utf8.DecodeRuneInString(cast.ToString(config["colDelimiter"])); d != utf8.RuneError {
		cw.Comma = d
	}
	cw.UseCRLF = cast.ToString(config["rowDelimiter"]) != "\n"
	if err := cw.WriteAll(sh.textRows()); err != nil {
		return fmt.Errorf("export: write delimited: %w", err)
	}
	return nil
}

func writeHTML(w io.Writer, sh Sheet, s Settings) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>")
	b.WriteString(templ.EscapeString(s.Filename))
	b.WriteString("</title>\n")
	if css := cast.ToString(s.Config["cssFile"]); css != "" {
		fmt.Fprintf(&b, "<link href=\"%s\" rel=\"stylesheet\">\n", templ.EscapeString(css))
	}
	if css := cast.ToString(s.Config["cssInline"]); css != "" {
		fmt.Fprintf(&b, "<style>%s</style>\n", css)
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(cast.ToString(s.Config["contentBefore"]))
	b.WriteString("<table class=\"table table-bordered table-striped\">\n")
	if sh.Caption != "" {
		fmt.Fprintf(&b, "<caption>%s</caption>\n", templ.EscapeString(sh.Caption))
	}
	if len(sh.Headers) > 0 {
		b.WriteString("<thead>\n<tr>")
		for _, h := range sh.Headers {
			fmt.Fprintf(&b, "<th>%s</th>", templ.EscapeString(h))
		}
		b.WriteString("</tr>\n</thead>\n")
	}
	b.WriteString("<tbody>\n")
	for _, r := range sh.Rows {
		writeHTMLRow(&b, r, "")
	}
	b.WriteString("</tbody>\n")
	if hasContent(sh.Summary) || hasContent(sh.Footer) {
		b.WriteString("<tfoot>\n")
		if hasContent(sh.Summary) {
			writeHTMLRow(&b, sh.Summary, "kv-page-summary")
		}
		if hasContent(sh.Footer) {
			writeHTMLRow(&b, sh.Footer, "")
		}
		b.WriteString("</tfoot>\n")
	}
	b.WriteString("</table>\n")
	b.WriteString(cast.ToString(s.Config["contentAfter"]))
	b.WriteString("</body>\n</html>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHTMLRow(b *strings.Builder, cells []Cell, class string) {
	if class != "" {
		fmt.Fprintf(b, "<tr class=\"%s\">", class)
	} else {
		b.WriteString("<tr>")
	}
	for _, c := range cells {
		b.WriteString("<td>")
		b.WriteString(templ.EscapeString(c.TextOrValue()))
		b.WriteString("</td>")
	}
	b.WriteString("</tr>\n")
}

func writeXLSX(w io.Writer, sh Sheet, config map[string]any) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheetName(cast.ToString(config["worksheet"]))
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("export: xlsx sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: xlsx style: %w", err)
	}
	styles := map[string]int{}
	styleFor := func(numFmt string) (int, error) {
		if id, ok := styles[numFmt]; ok {
			return id, nil
		}
		nf := numFmt
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &nf})
		if err != nil {
			return 0, err
		}
		styles[numFmt] = id
		return id, nil
	}

	row := 1
	setRow := func(cells []Cell, style int) error {
		for i, c := range cells {
			ref, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			v := c.Value
			if v == nil && c.Text != "" {
				v = c.Text
			}
			if err := f.SetCellValue(name, ref, v); err != nil {
				return err
			}
			id := style
			if id == 0 && c.NumFmt != "" {
				if id, err = styleFor(c.NumFmt); err != nil {
					return err
				}
			}
			if id != 0 {
				if err := f.SetCellStyle(name, ref, ref, id); err != nil {
					return err
				}
			}
		}
		row++
		return nil
	}

	if sh.Caption != "" {
		if err := setRow([]Cell{{Value: sh.Caption}}, bold); err != nil {
			return fmt.Errorf("export: xlsx caption: %w", err)
		}
	}
	if len(sh.Headers) > 0 {
		hs := make([]Cell, len(sh.Headers))
		for i, h := range sh.Headers {
			hs[i] = Cell{Value: h}
		}
		if err := setRow(hs, bold); err != nil {
			return fmt.Errorf("export: xlsx header: %w", err)
		}
	}
	for _, r := range sh.Rows {
		if err := setRow(r, 0); err != nil {
			return fmt.Errorf("export: xlsx row %d: %w", row, err)
		}
	}
	if hasContent(sh.Summary) {
		if err := setRow(sh.Summary, 0); err != nil {
			return fmt.Errorf("export: xlsx summary: %w", err)
		}
	}
	if hasContent(sh.Footer) {
		if err := setRow(sh.Footer, 0); err != nil {
			return fmt.Errorf("export: xlsx footer: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: xlsx write: %w", err)
	}
	return nil
}

// sheetName makes name acceptable as a worksheet title.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "ExportWorksheet"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

func writeJSON(w io.Writer, sh Sheet, config map[string]any) error {
	width := len(sh.Headers)
	for _, r := range sh.Rows {
		width = max(width, len(r))
	}
	keys := jsonKeys(sh.Headers, config, width)

	var b bytes.Buffer
	b.WriteByte('[')
	for i, r := range sh.Rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, k := range keys {
			if j > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			var v any
			if j < len(r) {
				v = r[j].Value
				if v == nil && r[j].Text != "" {
					v = r[j].Text
				}
			}
			vb, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("export: json cell %d/%d: %w", i, j, err)
			}
			b.Write(kb)
			b.WriteByte(':')
			b.Write(vb)
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')

	indent := cast.ToInt(config["indentSpace"])
	if indent <= 0 {
		_, err := w.Write(b.Bytes())
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
		return fmt.Errorf("export: json indent: %w", err)
	}
	_, err := w.Write(out.Bytes())
	return err
}

// jsonKeys picks the object keys of JSON rows: configured colHeads first,
// then header labels, then positional names.
func jsonKeys(headers []string, config map[string]any, width int) []string {
	heads := cast.ToStringSlice(config["colHeads"])
	slug := cast.ToBool(config["slugColHeads"])
	keys := make([]string, width)
	for i := range keys {
		switch {
		case i < len(heads) && heads[i] != "":
			keys[i] = heads[i]
		case i < len(headers) && headers[i] != "":
			keys[i] = headers[i]
			if slug {
				keys[i] = Slug(keys[i])
			}
		default:
			keys[i] = fmt.Sprintf("col_%d", i)
		}
	}
	return keys
}

// Slug lowercases s and joins its letter and digit runs with "-".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
