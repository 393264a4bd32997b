package pricing

import "github.com/shopspring/decimal"

// DisplayPlaces is the precision of currency strings shown to people.
const DisplayPlaces int32 = 2

// FormatCurrency renders a stored price for display, e.g. "111.60 COP".
// Display rounding is applied to the string only; never feed the result back
// into a computation.
func FormatCurrency(d decimal.Decimal, currency string) string {
	s := d.StringFixed(DisplayPlaces)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatPercent renders a percentage with display precision, e.g. "39.50%".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces) + "%"
}
