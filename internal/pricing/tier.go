package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a B2B customer classification.
type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierBronce   Tier = "BRONCE"
	TierPlata    Tier = "PLATA"
	TierOro      Tier = "ORO"
	TierDiamante Tier = "DIAMANTE"
)

// ParseTier accepts a tier name in any case. An empty string is STANDARD.
func ParseTier(raw string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case "":
		return TierStandard, nil
	case TierStandard, TierBronce, TierPlata, TierOro, TierDiamante:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", raw)
}

// TierRule grants a discount to a tier, optionally scoped to a category
// and/or a brand. A nil scope matches any value.
type TierRule struct {
	Tier               Tier            `json:"tier"`
	CategoryID         *string         `json:"category_id"`
	Brand              *string         `json:"brand"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	IsActive           bool            `json:"is_active"`
}

func (r TierRule) matches(tier Tier, categoryID, brand *string) bool {
	if !r.IsActive || r.Tier != tier {
		return false
	}
	if r.CategoryID != nil && (categoryID == nil || *r.CategoryID != *categoryID) {
		return false
	}
	if r.Brand != nil && (brand == nil || *r.Brand != *brand) {
		return false
	}
	return true
}

// TierRuleSet is an ordered list of rules. Order is significant: see
// ResolveTierDiscount.
type TierRuleSet []TierRule

// ResolveTierDiscount returns the discount of the first active rule, in stored
// order, that matches tier, category and brand. It returns zero for STANDARD or
// when nothing matches.
//
// Matching is first-match, not best-match: two overlapping rules for the same
// tier resolve to whichever was stored first.
func ResolveTierDiscount(rules TierRuleSet, tier Tier, categoryID, brand *string) decimal.Decimal {
	if tier == TierStandard || tier == "" {
		return decimal.Zero
	}
	for _, rule := range rules {
		if rule.matches(tier, categoryID, brand) {
			return rule.DiscountPercentage
		}
	}
	return decimal.Zero
}
