// Package format turns raw cell values into display text and derives the
// Excel number-format strings that accompany them in exported files.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Format names understood by Formatter and ExcelFormat.
const (
	Raw        = "raw"
	Text       = "text"
	NText      = "ntext"
	HTML       = "html"
	Boolean    = "boolean"
	Integer    = "integer"
	Decimal    = "decimal"
	Percent    = "percent"
	Scientific = "scientific"
	Currency   = "currency"
	Date       = "date"
	Time       = "time"
	DateTime   = "datetime"
)

// Spec describes how a column formats its values.
// Decimals < 0 means "use the default for the format".
type Spec struct {
	Name     string
	Decimals int
	Currency string
}

// Parse reads "name", "name:decimals" or "currency:CODE" (also
// "currency:CODE:decimals"). An empty string yields the text format.
func Parse(s string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	spec := Spec{Name: strings.ToLower(parts[0]), Decimals: -1}
	if spec.Name == "" {
		spec.Name = Text
	}
	if !known(spec.Name) {
		return Spec{}, fmt.Errorf("format: unknown format %q", parts[0])
	}

	rest := parts[1:]
	if spec.Name == Currency && len(rest) > 0 {
		if _, err := strconv.Atoi(rest[0]); err != nil {
			spec.Currency = strings.ToUpper(rest[0])
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 {
			return Spec{}, fmt.Errorf("format: invalid decimals %q in %q", rest[0], s)
		}
		spec.Decimals = n
	}
	return spec, nil
}

// MustParse is Parse for static configuration; it panics on error.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// String renders the spec back into its parseable form.
func (s Spec) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.Currency != "" {
		sb.WriteString(":" + s.Currency)
	}
	if s.Decimals >= 0 {
		sb.WriteString(":" + strconv.Itoa(s.Decimals))
	}
	return sb.String()
}

// IsZero reports whether no format was configured.
func (s Spec) IsZero() bool {
	return s.Name == ""
}

// decimals returns the configured number of decimals or def.
func (s Spec) decimals(def int) int {
	if s.Decimals < 0 {
		return def
	}
	return s.Decimals
}

// IsNumeric reports whether values in this format are numbers in exports.
func (s Spec) IsNumeric() bool {
	switch s.Name {
	case Integer, Decimal, Percent, Scientific, Currency:
		return true
	}
	return false
}

func known(name string) bool {
	switch name {
	case Raw, Text, NText, HTML, Boolean, Integer, Decimal, Percent,
		Scientific, Currency, Date, Time, DateTime:
		return true
	}
	return false
}
