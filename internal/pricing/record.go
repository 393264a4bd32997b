package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceField names the price column a bulk edit targets.
type PriceField string

const (
	FieldRetail    PriceField = "price_retail"
	FieldWholesale PriceField = "price_wholesale"
)

// ParsePriceField accepts either column name.
func ParsePriceField(raw string) (PriceField, error) {
	switch f := PriceField(strings.ToLower(strings.TrimSpace(raw))); f {
	case FieldRetail, FieldWholesale:
		return f, nil
	}
	return "", fmt.Errorf("unknown price field %q", raw)
}

// Basis selects which list price a quote starts from.
type Basis string

const (
	BasisRetail    Basis = "retail"
	BasisWholesale Basis = "wholesale"
)

// ParseBasis accepts "retail" or "wholesale".
func ParseBasis(raw string) (Basis, error) {
	switch b := Basis(strings.ToLower(strings.TrimSpace(raw))); b {
	case BasisRetail, BasisWholesale:
		return b, nil
	}
	return "", fmt.Errorf("unknown price basis %q", raw)
}

// PriceRecord is the price, cost and volume-discount state of one SKU.
//
// A zero Cost means the acquisition cost is unknown. A zero DiscountNPct means
// the record has no override for that volume slot and the policy value applies.
type PriceRecord struct {
	SKU            string          `json:"sku"`
	Cost           decimal.Decimal `json:"cost"`
	PriceRetail    decimal.Decimal `json:"price_retail"`
	PriceWholesale decimal.Decimal `json:"price_wholesale"`
	Discount6Pct   decimal.Decimal `json:"discount_6_pct"`
	Discount12Pct  decimal.Decimal `json:"discount_12_pct"`
	Discount24Pct  decimal.Decimal `json:"discount_24_pct"`
	CategoryID     *string         `json:"category_id"`
	Brand          *string         `json:"brand"`
}

// Price returns the value of the given price column.
func (r PriceRecord) Price(field PriceField) decimal.Decimal {
	if field == FieldWholesale {
		return r.PriceWholesale
	}
	return r.PriceRetail
}

// WithPrice returns a copy of r with the given price column replaced.
func (r PriceRecord) WithPrice(field PriceField, value decimal.Decimal) PriceRecord {
	if field == FieldWholesale {
		r.PriceWholesale = value
		return r
	}
	r.PriceRetail = value
	return r
}

// Base returns the list price a quote on basis starts from.
func (r PriceRecord) Base(basis Basis) decimal.Decimal {
	if basis == BasisWholesale {
		return r.PriceWholesale
	}
	return r.PriceRetail
}

func (r PriceRecord) volumeOverride(slot int) decimal.Decimal {
	switch slot {
	case 24:
		return r.Discount24Pct
	case 12:
		return r.Discount12Pct
	case 6:
		return r.Discount6Pct
	}
	return decimal.Zero
}

func (r PriceRecord) clone() PriceRecord {
	out := r
	if r.CategoryID != nil {
		v := *r.CategoryID
		out.CategoryID = &v
	}
	if r.Brand != nil {
		v := *r.Brand
		out.Brand = &v
	}
	return out
}
