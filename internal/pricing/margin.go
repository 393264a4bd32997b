package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MarkupOnCost is (price - cost) / cost * 100. It is the definition the margin
// guard uses. Returns zero when cost is not positive.
func MarkupOnCost(price, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(cost).Mul(hundred)
}

// MarginOnPrice is (price - cost) / price * 100, the margin shown next to
// prices in editing screens. It is not interchangeable with MarkupOnCost.
// Returns zero when price is not positive.
func MarginOnPrice(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(hundred)
}

// MarginCheck is the outcome of the margin guard for one price.
type MarginCheck struct {
	IsAtRisk  bool            `json:"is_at_risk"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// Guard reports whether selling at price leaves less markup over cost than the
// policy floor. Records with unknown cost (<= 0) are never at risk.
func Guard(price, cost decimal.Decimal, policy PolicyConfig) MarginCheck {
	if !cost.IsPositive() {
		return MarginCheck{}
	}
	pct := MarkupOnCost(price, cost)
	return MarginCheck{
		IsAtRisk:  pct.LessThan(policy.MinMarginGuardPct),
		MarginPct: pct,
	}
}

// RiskFlag identifies a record whose price falls under the margin floor.
type RiskFlag struct {
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// GuardSet runs Guard over every record, pricing each with priceOf, and returns
// the records at risk in input order.
func GuardSet(records []PriceRecord, priceOf func(PriceRecord) decimal.Decimal, policy PolicyConfig) []RiskFlag {
	var flags []RiskFlag
	for _, rec := range records {
		price := priceOf(rec)
		check := Guard(price, rec.Cost, policy)
		if !check.IsAtRisk {
			continue
		}
		flags = append(flags, RiskFlag{
			SKU:       rec.SKU,
			Price:     price,
			Cost:      rec.Cost,
			MarginPct: check.MarginPct,
		})
	}
	return flags
}
