package pricing

import "testing"

func TestResolveTierDiscount_StandardIsAlwaysZero(t *testing.T) {
	rules := TierRuleSet{
		{Tier: TierStandard, DiscountPercentage: d("15"), IsActive: true},
		{Tier: TierOro, DiscountPercentage: d("10"), IsActive: true},
	}

	got := ResolveTierDiscount(rules, TierStandard, nil, nil)
	decEqual(t, "standard", got, "0")
}

func TestResolveTierDiscount_FirstMatchWins(t *testing.T) {
	general := TierRule{Tier: TierPlata, DiscountPercentage: d("5"), IsActive: true}
	scoped := TierRule{Tier: TierPlata, CategoryID: strPtr("lacteos"), DiscountPercentage: d("8"), IsActive: true}

	got := ResolveTierDiscount(TierRuleSet{general, scoped}, TierPlata, strPtr("lacteos"), nil)
	decEqual(t, "general first", got, "5")

	got = ResolveTierDiscount(TierRuleSet{scoped, general}, TierPlata, strPtr("lacteos"), nil)
	decEqual(t, "scoped first", got, "8")
}

func TestResolveTierDiscount_Scoping(t *testing.T) {
	rules := TierRuleSet{
		{Tier: TierOro, CategoryID: strPtr("limpieza"), DiscountPercentage: d("20"), IsActive: false},
		{Tier: TierOro, CategoryID: strPtr("limpieza"), Brand: strPtr("ACME"), DiscountPercentage: d("12"), IsActive: true},
		{Tier: TierOro, Brand: strPtr("ACME"), DiscountPercentage: d("7"), IsActive: true},
		{Tier: TierDiamante, DiscountPercentage: d("25"), IsActive: true},
	}

	cases := []struct {
		name     string
		tier     Tier
		category *string
		brand    *string
		want     string
	}{
		{name: "inactive rule skipped", tier: TierOro, category: strPtr("limpieza"), brand: strPtr("ACME"), want: "12"},
		{name: "brand only rule", tier: TierOro, category: strPtr("snacks"), brand: strPtr("ACME"), want: "7"},
		{name: "record without brand", tier: TierOro, category: strPtr("limpieza"), brand: nil, want: "0"},
		{name: "unscoped rule matches anything", tier: TierDiamante, category: nil, brand: strPtr("OTRA"), want: "25"},
		{name: "no rule for tier", tier: TierBronce, category: strPtr("limpieza"), brand: strPtr("ACME"), want: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveTierDiscount(rules, tc.tier, tc.category, tc.brand)
			decEqual(t, "discount", got, tc.want)
		})
	}
}

func TestParseTier(t *testing.T) {
	for raw, want := range map[string]Tier{"oro": TierOro, " Plata ": TierPlata, "": TierStandard, "DIAMANTE": TierDiamante} {
		got, err := ParseTier(raw)
		if err != nil {
			t.Fatalf("ParseTier(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseTier(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := ParseTier("platino"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}
