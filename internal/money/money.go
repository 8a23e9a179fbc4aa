// Package money rounds and formats float amounts using shopspring/decimal.
// The simulator works in float64; amounts are only rounded when they leave
// the process.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"BRL": "R$",
	"CHF": "CHF ",
}

// Round rounds to cents, half away from zero.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Format renders amount with a currency symbol and thousands separators,
// e.g. Format(-1234.5, "USD") == "-$1,234.50". Unknown currencies are
// suffixed with their code.
func Format(amount float64, currency string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	body := groupThousands(whole) + "." + frac

	code := strings.ToUpper(currency)
	if sym, ok := symbols[code]; ok {
		return sign + sym + body
	}
	if code == "" {
		return sign + body
	}
	return sign + body + " " + code
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
