// Package export holds the grid export formats: their default settings,
// the merge of caller overrides into those defaults, the integrity hash that
// protects the settings on their round trip through the browser, and the
// writers that build export files on the server.
package export

import (
	"fmt"
	"strings"
)

// Format identifies an export format. The value doubles as the file
// extension of the downloaded file.
type Format string

const (
	HTML  Format = "html"
	CSV   Format = "csv"
	Text  Format = "txt"
	Excel Format = "xls"
	PDF   Format = "pdf"
	JSON  Format = "json"
)

// Formats lists every format in menu order.
var Formats = []Format{HTML, CSV, Text, Excel, PDF, JSON}

// ParseFormat validates a format identifier.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Settings configures one export format.
type Settings struct {
	Label           string         `yaml:"label" json:"label"`
	Icon            string         `yaml:"icon" json:"icon"`
	IconClass       string         `yaml:"icon_class" json:"iconClass"`
	Title           string         `yaml:"title" json:"title"`
	ShowHeader      bool           `yaml:"show_header" json:"showHeader"`
	ShowPageSummary bool           `yaml:"show_page_summary" json:"showPageSummary"`
	ShowFooter      bool           `yaml:"show_footer" json:"showFooter"`
	ShowCaption     bool           `yaml:"show_caption" json:"showCaption"`
	Filename        string         `yaml:"filename" json:"filename"`
	AlertMsg        string         `yaml:"alert_msg" json:"alertMsg"`
	MIME            string         `yaml:"mime" json:"mime"`
	Config          map[string]any `yaml:"config" json:"config"`
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.Config = cloneMap(s.Config)
	return s
}

// Table maps each enabled format to its settings.
type Table map[Format]Settings

// Ordered returns the enabled formats in menu order.
func (t Table) Ordered() []Format {
	out := make([]Format, 0, len(t))
	for _, f := range Formats {
		if _, ok := t[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for f, s := range t {
		out[f] = s.Clone()
	}
	return out
}

// DefaultFilename is the base name of exported files.
const DefaultFilename = "grid-export"

// DefaultTable returns the library defaults. The PDF entry is only present
// when withPDF is true, i.e. when a PDF renderer is available.
func DefaultTable(withPDF bool) Table {
	t := Table{
		HTML: {
			Label:           "HTML",
			Icon:            "file-text",
			IconClass:       "text-info",
			Title:           "Hyper Text Markup Language",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The HTML export file will be generated for download.",
			MIME:            "text/html",
			Config: map[string]any{
				"cssFile": "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css",
			},
		},
		CSV: {
			Label:           "CSV",
			Icon:            "file-code",
			IconClass:       "text-primary",
			Title:           "Comma Separated Values",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The CSV export file will be generated for download.",
			MIME:            "application/csv",
			Config: map[string]any{
				"colDelimiter": ",",
				"rowDelimiter": "\r\n",
			},
		},
		Text: {
			Label:           "Text",
			Icon:            "file-text",
			IconClass:       "text-muted",
			Title:           "Tab Delimited Text",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The TEXT export file will be generated for download.",
			MIME:            "text/plain",
			Config: map[string]any{
				"colDelimiter": "\t",
				"rowDelimiter": "\r\n",
			},
		},
		Excel: {
			Label:           "Excel",
			Icon:            "file-excel",
			IconClass:       "text-success",
			Title:           "Microsoft Excel 95+",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The EXCEL export file will be generated for download.",
			MIME:            "application/vnd.ms-excel",
			Config: map[string]any{
				"worksheet": "ExportWorksheet",
				"cssFile":   "",
			},
		},
		PDF: {
			Label:           "PDF",
			Icon:            "file-pdf",
			IconClass:       "text-danger",
			Title:           "Portable Document Format",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The PDF export file will be generated for download.",
			MIME:            "application/pdf",
			Config: map[string]any{
				"mode":          "UTF-8",
				"format":        "A4-L",
				"marginTop":     20,
				"marginBottom":  20,
				"cssInline":     ".kv-wrap{padding:20px}",
				"contentBefore": "",
				"contentAfter":  "",
			},
		},
		JSON: {
			Label:           "JSON",
			Icon:            "file-code",
			IconClass:       "text-warning",
			Title:           "JavaScript Object Notation",
			ShowHeader:      true,
			ShowPageSummary: true,
			ShowFooter:      true,
			ShowCaption:     true,
			Filename:        DefaultFilename,
			AlertMsg:        "The JSON export file will be generated for download.",
			MIME:            "application/json",
			Config: map[string]any{
				"colHeads":     []any{},
				"slugColHeads": false,
				"indentSpace":  4,
			},
		},
	}
	if !withPDF {
		delete(t, PDF)
	}
	return t
}
