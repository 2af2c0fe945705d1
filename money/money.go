// Package money holds the currency arithmetic of a quotation: rounding, tolerance
// checks and locale-aware display.
//
// Rounding is half-up, i.e. halves move away from zero, applied once to an exact
// value. Amounts are never rounded step by step.
package money

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultPrecision is the number of fraction digits used when a currency does not say.
const DefaultPrecision int32 = 2

// Currency describes how amounts are displayed.
type Currency struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	Code        string `json:"code,omitempty" yaml:"code"`
	Precision   *int32 `json:"precision,omitempty" yaml:"precision"`
	SymbolAfter bool   `json:"symbolAfter,omitempty" yaml:"symbol-after"`
	Locale      string `json:"locale,omitempty" yaml:"locale"`
}

// Digits returns the display precision.
func (c Currency) Digits() int32 {
	if c.Precision == nil || *c.Precision < 0 {
		return DefaultPrecision
	}
	return *c.Precision
}

// Round rounds d to precision fraction digits, halves away from zero.
func Round(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Round(precision)
}

// Tolerance is one unit in the last displayed digit.
func Tolerance(precision int32) decimal.Decimal {
	return decimal.New(1, -precision)
}

// Within reports whether a and b differ by at most one rounding unit.
func Within(a, b decimal.Decimal, precision int32) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance(precision))
}

// Sum adds values exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, values...)
}

// Formatter prints amounts for one currency.
type Formatter struct {
	cur   Currency
	group string
	point string
}

// NewFormatter returns a formatter for c. An empty or unparsable locale means English.
func NewFormatter(c Currency) *Formatter {
	tag := language.English
	if c.Locale != "" {
		if t, err := language.Parse(c.Locale); err == nil {
			tag = t
		}
	}
	group, point := separators(message.NewPrinter(tag))
	return &Formatter{cur: c, group: group, point: point}
}

// separators reads the locale's grouping and decimal marks off a sample number,
// e.g. "1,234.5" or "1.234,5".
func separators(p *message.Printer) (group, point string) {
	sample := p.Sprintf("%v", number.Decimal(1234.5, number.Scale(1)))
	var marks []string
	var cur strings.Builder
	for _, r := range sample {
		if unicode.IsDigit(r) {
			if cur.Len() > 0 {
				marks = append(marks, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	switch len(marks) {
	case 2:
		return marks[0], marks[1]
	case 1:
		return "", marks[0]
	}
	return ",", "."
}

// Currency returns the currency the formatter was built for.
func (f *Formatter) Currency() Currency { return f.cur }

// Amount renders d rounded to the currency precision with locale grouping, without symbol.
// Digits come from the exact decimal, so large totals print without float error.
func (f *Formatter) Amount(d decimal.Decimal) string {
	prec := f.cur.Digits()
	return f.localize(Round(d, prec).StringFixed(prec))
}

// Format renders d with the currency symbol, e.g. "$200.00" or "200,00 €".
func (f *Formatter) Format(d decimal.Decimal) string {
	amount := f.Amount(d)
	sym := strings.TrimSpace(f.cur.Symbol)
	switch {
	case sym == "":
		return amount
	case f.cur.SymbolAfter:
		return amount + " " + sym
	default:
		return sym + amount
	}
}

// Quantity renders a quantity with up to four fraction digits and no trailing zeros.
func (f *Formatter) Quantity(d decimal.Decimal) string {
	return f.localize(d.Round(4).String())
}

// localize groups the integer digits of a plain decimal string like "-1234.50"
// in threes and swaps in the locale's marks.
func (f *Formatter) localize(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if strings.Trim(whole+frac, "0") == "" {
		sign = ""
	}
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(f.point)
		b.WriteString(frac)
	}
	return b.String()
}
