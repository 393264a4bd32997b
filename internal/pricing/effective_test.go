package pricing

import "testing"

func volumePolicy() PolicyConfig {
	return PolicyConfig{
		Vol6DiscountPct:  d("3"),
		Vol12DiscountPct: d("7"),
		Vol24DiscountPct: d("12"),
		Credit30DaysPct:  d("2"),
		Credit60DaysPct:  d("4"),
		Credit90DaysPct:  d("6"),
		Credit180DaysPct: d("10"),
	}
}

func TestListPrice_VolumeThresholds(t *testing.T) {
	record := PriceRecord{
		PriceRetail:   d("100"),
		Discount6Pct:  d("5"),
		Discount12Pct: d("10"),
		Discount24Pct: d("20"),
	}
	calc := NewCalculator(volumePolicy(), nil)

	cases := []struct {
		qty  int
		want string
	}{
		{qty: 1, want: "100"},
		{qty: 5, want: "100"},
		{qty: 6, want: "95"},
		{qty: 11, want: "95"},
		{qty: 12, want: "90"},
		{qty: 23, want: "90"},
		{qty: 24, want: "80"},
		{qty: 500, want: "80"},
	}

	for _, tc := range cases {
		got := calc.ListPrice(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: tc.qty})
		decEqual(t, "price", got, tc.want)
	}
}

func TestListPrice_FallsBackToPolicyWhenOverrideIsZero(t *testing.T) {
	record := PriceRecord{PriceRetail: d("200"), Discount12Pct: d("0"), Discount24Pct: d("15")}
	calc := NewCalculator(volumePolicy(), nil)

	b := calc.Breakdown(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 12})
	decEqual(t, "volume pct", b.VolumePct, "7")
	decEqual(t, "list price", b.ListPrice, "186")

	b = calc.Breakdown(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 30})
	decEqual(t, "override pct", b.VolumePct, "15")
	decEqual(t, "list price", b.ListPrice, "170")
}

func TestListPrice_WholesaleSkipsVolumeButKeepsTier(t *testing.T) {
	record := PriceRecord{PriceWholesale: d("50"), PriceRetail: d("80"), Discount24Pct: d("20"), Brand: strPtr("ACME")}
	rules := TierRuleSet{{Tier: TierOro, Brand: strPtr("ACME"), DiscountPercentage: d("10"), IsActive: true}}
	calc := NewCalculator(volumePolicy(), rules)

	b := calc.Breakdown(QuoteRequest{Record: record, Basis: BasisWholesale, Quantity: 48, Tier: TierOro})

	if b.VolumeSlot != 0 {
		t.Fatalf("volume slot = %d, want 0 on wholesale basis", b.VolumeSlot)
	}
	decEqual(t, "tier pct", b.TierPct, "10")
	decEqual(t, "list price", b.ListPrice, "45")
}

func TestBreakdown_DiscountOrderAndTermSurcharge(t *testing.T) {
	record := PriceRecord{PriceRetail: d("100"), CategoryID: strPtr("ferreteria")}
	rules := TierRuleSet{{Tier: TierPlata, CategoryID: strPtr("ferreteria"), DiscountPercentage: d("10"), IsActive: true}}
	policy := volumePolicy()
	policy.Vol6DiscountPct = d("10")
	calc := NewCalculator(policy, rules)

	b := calc.Breakdown(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 6, Tier: TierPlata, Term: Term180})

	decEqual(t, "after volume", b.AfterVolume, "90")
	decEqual(t, "after tier", b.AfterTier, "81")
	decEqual(t, "list price", b.ListPrice, "81")
	decEqual(t, "term pct", b.TermPct, "10")
	decEqual(t, "term price", b.TermPrice, "89.1")
}

func TestTermPrice_RoundsFromUnroundedListPrice(t *testing.T) {
	// 33.3335 * 0.97 = 32.333495. Surcharging the rounded 32.333 would give 35.566.
	record := PriceRecord{PriceRetail: d("33.3335")}
	policy := PolicyConfig{Vol6DiscountPct: d("3"), Credit180DaysPct: d("10")}
	calc := NewCalculator(policy, nil)

	req := QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 6, Term: Term180}
	decEqual(t, "list price", calc.ListPrice(req), "32.333")
	decEqual(t, "term price", calc.TermPrice(req), "35.567")
}

func TestListPrice_DoesNotClampMalformedPercentages(t *testing.T) {
	record := PriceRecord{PriceRetail: d("100")}
	rules := TierRuleSet{{Tier: TierBronce, DiscountPercentage: d("150"), IsActive: true}}
	calc := NewCalculator(PolicyConfig{Vol6DiscountPct: d("-10")}, rules)

	got := calc.ListPrice(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 6, Tier: TierBronce})
	decEqual(t, "price", got, "-55")
}

func TestTermLadder(t *testing.T) {
	record := PriceRecord{PriceRetail: d("100")}
	calc := NewCalculator(volumePolicy(), nil)

	ladder := calc.TermLadder(QuoteRequest{Record: record, Basis: BasisRetail, Quantity: 1, Term: Term90})

	want := map[Term]string{TermCash: "100", Term30: "102", Term60: "104", Term90: "106", Term180: "110"}
	if len(ladder) != len(want) {
		t.Fatalf("ladder has %d steps, want %d", len(ladder), len(want))
	}
	for i, step := range ladder {
		if step.Term != Terms[i] {
			t.Fatalf("step %d term = %d, want %d", i, step.Term, Terms[i])
		}
		decEqual(t, "ladder price", step.TermPrice, want[step.Term])
		if i > 0 && step.TermPrice.LessThan(ladder[i-1].TermPrice) {
			t.Fatalf("ladder not monotone at term %d", step.Term)
		}
	}
}

func TestCreditSurcharge_UnknownTermIsZero(t *testing.T) {
	decEqual(t, "term 45", volumePolicy().CreditSurcharge(Term(45)), "0")
	if Term(45).Valid() {
		t.Fatalf("term 45 should not be valid")
	}
}
