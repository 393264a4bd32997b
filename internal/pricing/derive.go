package pricing

// DeriveFromWholesale recomputes the retail price and volume discounts of a
// record from its wholesale anchor.
//
// PriceRetail becomes round3(wholesale * (1 + markup/100)) and the three
// per-SKU volume overrides are reset to the policy values, discarding whatever
// the record carried. The input record is not modified.
func DeriveFromWholesale(record PriceRecord, policy PolicyConfig) PriceRecord {
	out := record.clone()
	out.PriceRetail = Round3(record.PriceWholesale.Mul(surchargeFactor(policy.RetailMarkupPct)))
	out.Discount6Pct = policy.Vol6DiscountPct
	out.Discount12Pct = policy.Vol12DiscountPct
	out.Discount24Pct = policy.Vol24DiscountPct
	return out
}
