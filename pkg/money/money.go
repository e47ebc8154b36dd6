// Package money renders decimal amounts for display. Stored values stay decimal.
package money

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var symbols = map[enums.Currency]string{
	enums.CurrencyUSD: "$",
	enums.CurrencyCAD: "CA$",
	enums.CurrencyEUR: "€",
	enums.CurrencyGBP: "£",
}

var printer = message.NewPrinter(language.English)

// Format renders amount with two fraction digits and thousands grouping,
// e.g. 1234.5 USD -> "$1,234.50". Unknown currencies are suffixed with their code.
func Format(amount decimal.Decimal, currency enums.Currency) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	digits := printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))

	if symbol, ok := symbols[currency]; ok {
		return sign + symbol + digits
	}
	if currency == "" {
		return sign + digits
	}
	return sign + digits + " " + currency.String()
}
