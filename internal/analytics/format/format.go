// Package format renders derived metrics as display strings. It is kept apart
// from the renderers so the conventions can be tested on their own.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// maxExact is the largest amount formatted digit for digit.
var maxExact = decimal.NewFromInt(math.MaxInt64)

// Defaults match the WebCanteen dashboard.
const (
	DefaultCurrency = "INR"
	DefaultLocale   = "en-IN"
)

// Formatter formats money, rates and counts for one currency and locale.
// A Formatter is safe for concurrent use.
type Formatter struct {
	printer *message.Printer
	code    string
	symbol  string
}

// New builds a Formatter for an ISO 4217 currency code and a BCP 47 locale.
func New(code, locale string) (*Formatter, error) {
	if strings.TrimSpace(code) == "" {
		code = DefaultCurrency
	}
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("format: currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("format: locale %q: %w", locale, err)
	}
	printer := message.NewPrinter(tag)
	symbol := strings.TrimSpace(printer.Sprint(currency.Symbol(unit)))
	if symbol == "" {
		symbol = unit.String()
	}
	return &Formatter{printer: printer, code: unit.String(), symbol: symbol}, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(code, locale string) *Formatter {
	f, err := New(code, locale)
	if err != nil {
		panic(err)
	}
	return f
}

// Code returns the ISO currency code.
func (f *Formatter) Code() string {
	return f.code
}

// Symbol returns the localized currency symbol.
func (f *Formatter) Symbol() string {
	return f.symbol
}

// Currency formats an amount with the currency symbol, locale grouping and
// no fraction digits. Halves round away from zero. Amounts beyond int64 are
// printed from their nearest float64 value.
func (f *Formatter) Currency(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	if rounded.GreaterThan(maxExact) {
		return sign + f.symbol + f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.MaxFractionDigits(0)))
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(rounded.IntPart()))
}

// Percent formats a ratio in [0,1] as a percentage with one fraction digit.
func (f *Formatter) Percent(rate float64) string {
	return f.printer.Sprint(number.Percent(rate, number.MinFractionDigits(1), number.MaxFractionDigits(1)))
}

// Count formats an integer with locale grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}
