package format

import (
	"html"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders values for one locale.
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	currency currency.Unit

	// NullDisplay is rendered for nil values.
	NullDisplay string
	// BooleanLabels are the [false, true] labels of the boolean format.
	BooleanLabels [2]string
	// DateLayout, TimeLayout and DateTimeLayout are Go time layouts.
	DateLayout     string
	TimeLayout     string
	DateTimeLayout string
}

// NewFormatter creates a formatter for the BCP 47 locale tag. Unknown tags
// fall back to English. The default currency is the locale's own.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	unit, _ := currency.FromTag(tag)
	if unit == (currency.Unit{}) {
		unit = currency.USD
	}
	return &Formatter{
		tag:            tag,
		printer:        message.NewPrinter(tag),
		currency:       unit,
		NullDisplay:    "",
		BooleanLabels:  [2]string{"No", "Yes"},
		DateLayout:     "2006-01-02",
		TimeLayout:     "15:04:05",
		DateTimeLayout: "2006-01-02 15:04:05",
	}
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// CurrencyCode returns the ISO 4217 code used when a spec names none.
func (f *Formatter) CurrencyCode() string {
	return f.currency.String()
}

// Separators returns the thousands and decimal separators of the locale.
func (f *Formatter) Separators() Separators {
	s := f.printer.Sprint(number.Decimal(1234.5, number.Scale(1)))
	seps := Separators{Thousands: ",", Decimal: "."}
	var found []rune
	for _, r := range s {
		if r < '0' || r > '9' {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 1:
		seps.Thousands = ""
		seps.Decimal = string(found[0])
	case 2:
		seps.Thousands = string(found[0])
		seps.Decimal = string(found[1])
	}
	return seps
}

// Format renders v as display HTML for spec. The result is already escaped
// except for the raw and html formats, which pass markup through.
func (f *Formatter) Format(v any, spec Spec) string {
	if v == nil {
		return html.EscapeString(f.NullDisplay)
	}
	switch spec.Name {
	case Raw, HTML:
		return cast.ToString(v)
	case "", Text:
		return html.EscapeString(cast.ToString(v))
	case NText:
		return strings.ReplaceAll(html.EscapeString(cast.ToString(v)), "\n", "<br>\n")
	}
	return html.EscapeString(f.Text(v, spec))
}

// Text renders v as plain text for spec. Values that cannot be coerced to
// the format's type are rendered as their string form.
func (f *Formatter) Text(v any, spec Spec) string {
	if v == nil {
		return f.NullDisplay
	}
	switch spec.Name {
	case Boolean:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return cast.ToString(v)
		}
		if b {
			return f.BooleanLabels[1]
		}
		return f.BooleanLabels[0]
	case Integer:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return cast.ToString(v)
		}
		return f.printer.Sprint(number.Decimal(n, number.Scale(0)))
	case Decimal:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return cast.ToString(v)
		}
		return f.printer.Sprint(number.Decimal(n, number.Scale(spec.decimals(2))))
	case Percent:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return cast.ToString(v)
		}
		return f.printer.Sprint(number.Percent(n, number.Scale(spec.decimals(0))))
	case Scientific:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return cast.ToString(v)
		}
		return f.printer.Sprintf("%.*E", spec.decimals(2), n)
	case Currency:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return cast.ToString(v)
		}
		unit := f.currency
		if spec.Currency != "" {
			if u, err := currency.ParseISO(spec.Currency); err == nil {
				unit = u
			}
		}
		sign := ""
		if n < 0 {
			sign, n = "-", -n
		}
		symbol := f.printer.Sprint(currency.NarrowSymbol(unit))
		return sign + symbol + f.printer.Sprint(number.Decimal(n, number.Scale(spec.decimals(2))))
	case Date, Time, DateTime:
		t, err := cast.ToTimeE(v)
		if err != nil {
			return cast.ToString(v)
		}
		switch spec.Name {
		case Date:
			return t.Format(f.DateLayout)
		case Time:
			return t.Format(f.TimeLayout)
		}
		return t.Format(f.DateTimeLayout)
	}
	return cast.ToString(v)
}

// Value converts v into the typed value written to spreadsheet cells:
// numbers for numeric formats, time.Time for dates, text otherwise.
func (f *Formatter) Value(v any, spec Spec) any {
	if v == nil {
		return nil
	}
	switch {
	case spec.IsNumeric():
		if n, err := cast.ToFloat64E(v); err == nil {
			return n
		}
	case spec.Name == Date || spec.Name == Time || spec.Name == DateTime:
		if t, err := cast.ToTimeE(v); err == nil {
			return t.In(time.UTC)
		}
	case spec.Name == Boolean:
		return f.Text(v, spec)
	}
	return cast.ToString(v)
}
