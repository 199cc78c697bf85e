package money

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultCurrency = "INR"
	defaultLocale   = "en-IN"
)

// Formatter renders minor-unit amounts for a currency and locale.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a formatter, falling back to INR and en-IN when the codes do not parse.
func NewFormatter(currencyCode, locale string) Formatter {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		unit = currency.MustParseISO(defaultCurrency)
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.MustParse(defaultLocale)
	}
	return Formatter{unit: unit, printer: message.NewPrinter(tag)}
}

// Format renders amount (minor units) with the currency symbol and locale grouping.
func (f Formatter) Format(amount int64) string {
	major := float64(amount) / 100
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(major)))
}

// Currency returns the ISO code the formatter renders.
func (f Formatter) Currency() string {
	return f.unit.String()
}
