// Package pricing derives, discounts and guards list prices for a set of
// price records. Every function is pure: callers pass the policy snapshot and
// rule set explicitly and receive new values back.
package pricing

import "github.com/shopspring/decimal"

// StoragePlaces is the precision prices are rounded to before they are stored.
const StoragePlaces int32 = 3

var (
	one = decimal.NewFromInt(1)

	// halfStorageUnit is 0.0005, half of the smallest stored increment.
	halfStorageUnit = decimal.New(5, -(StoragePlaces + 1))
)

// Round3 rounds a computed price to storage precision, half up: ties go
// toward positive infinity, so -0.0005 rounds to 0.000 and 0.0005 to 0.001.
func Round3(d decimal.Decimal) decimal.Decimal {
	return d.Add(halfStorageUnit).RoundFloor(StoragePlaces)
}

// discountFactor returns 1 - pct/100.
func discountFactor(pct decimal.Decimal) decimal.Decimal {
	return one.Sub(pct.Shift(-2))
}

// surchargeFactor returns 1 + pct/100.
func surchargeFactor(pct decimal.Decimal) decimal.Decimal {
	return one.Add(pct.Shift(-2))
}
