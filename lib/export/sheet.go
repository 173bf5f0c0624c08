package export

import (
	"strings"

	"github.com/spf13/cast"
)

// Cell is one exported value. Value is the typed value used by
// spreadsheet and JSON writers, Text its display form used by text
// writers. NumFmt is the custom spreadsheet number format, if any.
type Cell struct {
	Value  any
	Text   string
	NumFmt string
}

// TextOrValue returns Text, falling back to Value rendered as a string.
func (c Cell) TextOrValue() string {
	if c.Text != "" {
		return c.Text
	}
	if c.Value == nil {
		return ""
	}
	return cast.ToString(c.Value)
}

// Sheet is the neutral tabular form of a grid handed to the writers.
type Sheet struct {
	Caption string
	Headers []string
	Rows    [][]Cell
	Summary []Cell
	Footer  []Cell
}

// view applies the visibility flags of s to sh.
func (sh *Sheet) view(s Settings) Sheet {
	out := Sheet{Rows: sh.Rows}
	if s.ShowCaption {
		out.Caption = sh.Caption
	}
	if s.ShowHeader {
		out.Headers = sh.Headers
	}
	if s.ShowPageSummary {
		out.Summary = sh.Summary
	}
	if s.ShowFooter {
		out.Footer = sh.Footer
	}
	return out
}

// textRows flattens the visible parts of sh into rows of strings.
func (sh Sheet) textRows() [][]string {
	var rows [][]string
	if sh.Caption != "" {
		rows = append(rows, []string{sh.Caption})
	}
	if len(sh.Headers) > 0 {
		rows = append(rows, sh.Headers)
	}
	for _, r := range sh.Rows {
		rows = append(rows, cellTexts(r))
	}
	if hasContent(sh.Summary) {
		rows = append(rows, cellTexts(sh.Summary))
	}
	if hasContent(sh.Footer) {
		rows = append(rows, cellTexts(sh.Footer))
	}
	return rows
}

func cellTexts(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.TextOrValue()
	}
	return out
}

func hasContent(cells []Cell) bool {
	for _, c := range cells {
		if strings.TrimSpace(c.TextOrValue()) != "" {
			return true
		}
	}
	return false
}
