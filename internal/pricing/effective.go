package pricing

import "github.com/shopspring/decimal"

// QuoteRequest is a simulated sale of one record.
type QuoteRequest struct {
	Record   PriceRecord
	Basis    Basis
	Quantity int
	Tier     Tier
	Term     Term
}

// Breakdown carries every intermediate value of a quote.
//
// ListPrice is the effective list price (volume and tier discounts applied).
// TermPrice additionally carries the credit-term surcharge. Both are rounded
// from the unrounded intermediate, never from each other.
type Breakdown struct {
	Base        decimal.Decimal `json:"base"`
	VolumeSlot  int             `json:"volume_slot"`
	VolumePct   decimal.Decimal `json:"volume_pct"`
	AfterVolume decimal.Decimal `json:"after_volume"`
	TierPct     decimal.Decimal `json:"tier_pct"`
	AfterTier   decimal.Decimal `json:"after_tier"`
	TermPct     decimal.Decimal `json:"term_pct"`
	ListPrice   decimal.Decimal `json:"list_price"`
	TermPrice   decimal.Decimal `json:"term_price"`
}

// LadderStep is the term-adjusted price for one payment term.
type LadderStep struct {
	Term      Term            `json:"term"`
	Surcharge decimal.Decimal `json:"surcharge_pct"`
	TermPrice decimal.Decimal `json:"term_price"`
}

// Calculator quotes effective prices under one policy snapshot and rule set.
type Calculator struct {
	Policy PolicyConfig
	Rules  TierRuleSet
}

// NewCalculator returns a calculator bound to the given policy and rules.
func NewCalculator(policy PolicyConfig, rules TierRuleSet) Calculator {
	return Calculator{Policy: policy, Rules: rules}
}

// volumeSlot picks the largest threshold the quantity reaches.
func volumeSlot(qty int) int {
	switch {
	case qty >= 24:
		return 24
	case qty >= 12:
		return 12
	case qty >= 6:
		return 6
	}
	return 0
}

// Breakdown runs the quote in its fixed order: base, volume discount (retail
// basis only), tier discount, credit-term surcharge, rounding.
func (c Calculator) Breakdown(req QuoteRequest) Breakdown {
	b := Breakdown{Base: req.Record.Base(req.Basis)}
	price := b.Base

	if req.Basis != BasisWholesale {
		b.VolumeSlot = volumeSlot(req.Quantity)
		if b.VolumeSlot > 0 {
			pct := req.Record.volumeOverride(b.VolumeSlot)
			if !pct.IsPositive() {
				pct = c.Policy.VolumeDiscount(b.VolumeSlot)
			}
			b.VolumePct = pct
			price = price.Mul(discountFactor(pct))
		}
	}
	b.AfterVolume = price

	b.TierPct = ResolveTierDiscount(c.Rules, req.Tier, req.Record.CategoryID, req.Record.Brand)
	price = price.Mul(discountFactor(b.TierPct))
	b.AfterTier = price

	b.TermPct = c.Policy.CreditSurcharge(req.Term)
	b.ListPrice = Round3(b.AfterTier)
	b.TermPrice = Round3(b.AfterTier.Mul(surchargeFactor(b.TermPct)))
	return b
}

// ListPrice is the effective list price: volume and tier discounts, no
// credit-term surcharge.
func (c Calculator) ListPrice(req QuoteRequest) decimal.Decimal {
	return c.Breakdown(req).ListPrice
}

// TermPrice is the list price with the request's credit-term surcharge applied.
func (c Calculator) TermPrice(req QuoteRequest) decimal.Decimal {
	return c.Breakdown(req).TermPrice
}

// TermLadder prices the request under every supported payment term, ignoring
// req.Term.
func (c Calculator) TermLadder(req QuoteRequest) []LadderStep {
	req.Term = TermCash
	afterTier := c.Breakdown(req).AfterTier

	steps := make([]LadderStep, 0, len(Terms))
	for _, term := range Terms {
		pct := c.Policy.CreditSurcharge(term)
		steps = append(steps, LadderStep{
			Term:      term,
			Surcharge: pct,
			TermPrice: Round3(afterTier.Mul(surchargeFactor(pct))),
		})
	}
	return steps
}
