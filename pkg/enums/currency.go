package enums

import "strings"

// Currency is an ISO 4217 code accepted for catalog prices and orders.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
)

// DefaultCurrency applies when a variant or order omits one.
const DefaultCurrency = CurrencyUSD

var currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return member(currencies, c) }

// ParseCurrency accepts lowercase input.
func ParseCurrency(value string) (Currency, error) {
	return parse(currencies, strings.ToUpper(value), "currency")
}
