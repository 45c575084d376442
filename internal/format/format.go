// Package format renders money and percentages for people, in the configured locale.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"backoffice-mcp/internal/impact"
)

// DefaultLocale is used when no locale is configured or the configured one cannot be parsed.
const DefaultLocale = "es-AR"

// NotAvailable is shown for undefined deltas and ROI.
const NotAvailable = "N/A"

// Formatter renders values for one locale. It is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a formatter for the given BCP 47 locale, falling back to DefaultLocale.
func New(locale string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the locale tag in use.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Currency renders an amount with two decimals and locale grouping, e.g. "$ 150.000,00".
func (f *Formatter) Currency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$ " + f.Number(d, 2)
}

// Number renders d with the given number of decimals.
func (f *Formatter) Number(d decimal.Decimal, decimals int) string {
	return f.printer.Sprintf("%v", number.Decimal(d.Round(int32(decimals)).InexactFloat64(), number.Scale(decimals)))
}

// Count renders an integer with locale grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%v", number.Decimal(n))
}

// Percent renders a delta with an explicit sign, e.g. "+66,67 %". Undefined deltas render as N/A.
func (f *Formatter) Percent(d impact.Delta) string {
	if !d.Defined {
		return NotAvailable
	}
	return f.signedPct(d.Value)
}

// ROI renders the ROI percentage, or N/A when it is undefined.
func (f *Formatter) ROI(r impact.ROI) string {
	if !r.Defined {
		return NotAvailable
	}
	return f.signedPct(r.Pct)
}

func (f *Formatter) signedPct(v decimal.Decimal) string {
	sign := "+"
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	} else if v.IsZero() {
		sign = ""
	}
	return sign + f.Number(v, 2) + " %"
}

// BaselineLabel is the human name of a baseline.
func BaselineLabel(kind impact.BaselineKind) string {
	switch kind {
	case impact.BaselineMonth:
		return "Month average (excluding event days)"
	case impact.BaselineWeekday:
		return "Same weekday this month"
	case impact.BaselinePriorMonth:
		return "Same weekday, prior month"
	default:
		return string(kind)
	}
}
