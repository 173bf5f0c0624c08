package format

import "strings"

// Separators are the thousands and decimal separators of a locale.
type Separators struct {
	Thousands string
	Decimal   string
}

// DefaultSeparators are the en-US separators.
var DefaultSeparators = Separators{Thousands: ",", Decimal: "."}

// ExcelFormat derives the mso-number-format string that spreadsheet
// applications read from exported HTML cells. currencyCode is used when
// spec names no currency. Formats without a spreadsheet equivalent
// yield "".
func ExcelFormat(spec Spec, seps Separators, currencyCode string) string {
	t, d := seps.Thousands, seps.Decimal
	if t == "" && d == "" {
		t, d = DefaultSeparators.Thousands, DefaultSeparators.Decimal
	}
	grouped := `\#` + escape(t) + `\#\#0`

	switch spec.Name {
	case Text, HTML, Raw, NText, Boolean:
		return `\@`
	case Integer:
		return grouped
	case Decimal, Percent, Scientific:
		n := spec.decimals(2)
		tail := ""
		if n > 0 {
			tail = escape(d) + strings.Repeat("0", n)
		}
		if spec.Name == Percent {
			tail += "%"
		}
		if spec.Name == Scientific {
			return "0" + tail + "E+00"
		}
		return grouped + tail
	case Currency:
		code := spec.Currency
		if code == "" {
			code = currencyCode
		}
		prefix := ""
		if code != "" {
			prefix = code + " "
		}
		return prefix + grouped + escape(d) + strings.Repeat("0", spec.decimals(2))
	case Date:
		return "Short Date"
	case Time:
		return "Short Time"
	case DateTime:
		return `yyyy\-MM\-dd HH\:mm\:ss`
	}
	return ""
}

func escape(sep string) string {
	if sep == "" {
		return ""
	}
	return `\` + sep
}

// NumFmt converts an mso-number-format string into a custom number format
// accepted by xlsx writers. Named formats map to their built-in patterns.
func NumFmt(excel string) string {
	switch excel {
	case "":
		return ""
	case "Short Date":
		return "yyyy-mm-dd"
	case "Short Time":
		return "hh:mm"
	}
	var sb strings.Builder
	escaped := false
	for _, r := range excel {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	out := sb.String()
	// Literal text ahead of the digits (a currency code) must be quoted.
	if i := strings.IndexAny(out, "#0"); i > 0 {
		return `"` + out[:i] + `"` + out[i:]
	}
	return out
}
