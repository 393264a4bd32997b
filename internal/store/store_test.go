package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/tarifario/internal/db"
	"github.com/Simplici0/tarifario/internal/migrations"
	"github.com/Simplici0/tarifario/internal/pricing"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(database))

	return New(database, nil), database
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func strPtr(v string) *string {
	return &v
}

func TestLoadPolicyWithoutRow(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.LoadPolicy(context.Background())
	assert.ErrorIs(t, err, ErrNoPolicy)
}

func TestSaveAndLoadPolicy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p := pricing.DefaultPolicy()
	p.Vol12DiscountPct = dec("7.5")
	p.Credit90DaysPct = dec("4")
	require.NoError(t, s.SavePolicy(ctx, p))

	p.RetailMarkupPct = dec("35")
	require.NoError(t, s.SavePolicy(ctx, p))

	got, err := s.LoadPolicy(ctx)
	require.NoError(t, err)
	assert.True(t, got.RetailMarkupPct.Equal(dec("35")), "markup = %s", got.RetailMarkupPct)
	assert.True(t, got.Vol12DiscountPct.Equal(dec("7.5")), "vol12 = %s", got.Vol12DiscountPct)
	assert.True(t, got.Credit90DaysPct.Equal(dec("4")), "credit90 = %s", got.Credit90DaysPct)
}

func TestSavePolicyRejectsInvalid(t *testing.T) {
	s, database := newTestStore(t)

	p := pricing.DefaultPolicy()
	p.Vol6DiscountPct = dec("120")
	require.Error(t, s.SavePolicy(context.Background(), p))

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM pricing_policy`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestLoadPolicyValidatesStoredRow(t *testing.T) {
	s, database := newTestStore(t)

	_, err := database.Exec(`INSERT INTO pricing_policy (id, credit_30_days_pct) VALUES (1, '-2')`)
	require.NoError(t, err)

	_, err = s.LoadPolicy(context.Background())
	assert.Error(t, err)
}

func TestTierRulesKeepInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rules := []pricing.TierRule{
		{Tier: pricing.TierOro, DiscountPercentage: dec("5"), IsActive: true},
		{Tier: pricing.TierOro, CategoryID: strPtr("tools"), DiscountPercentage: dec("12"), IsActive: true},
		{Tier: pricing.TierPlata, Brand: strPtr("acme"), DiscountPercentage: dec("3"), IsActive: false},
	}
	for _, r := range rules {
		require.NoError(t, s.AppendTierRule(ctx, r))
	}

	got, err := s.ListTierRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, pricing.TierOro, got[0].Tier)
	assert.Nil(t, got[0].CategoryID)
	assert.Equal(t, "tools", *got[1].CategoryID)
	assert.Equal(t, "acme", *got[2].Brand)
	assert.False(t, got[2].IsActive)

	// The generic rule was stored first, so it shadows the category rule.
	pct := pricing.ResolveTierDiscount(got, pricing.TierOro, strPtr("tools"), nil)
	assert.True(t, pct.Equal(dec("5")), "discount = %s", pct)
}

func TestAppendTierRuleRejectsUnknownTier(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.AppendTierRule(context.Background(), pricing.TierRule{Tier: "PLATINO"})
	assert.Error(t, err)
}

func TestCommitUpsertsAndGetRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := pricing.PriceRecord{
		SKU:            "SKU-1",
		Cost:           dec("80"),
		PriceRetail:    dec("130"),
		PriceWholesale: dec("100"),
		Discount6Pct:   dec("2"),
		CategoryID:     strPtr("tools"),
	}
	require.NoError(t, s.Commit(ctx, []pricing.PriceRecord{rec}, "initial load"))

	rec.PriceWholesale = dec("110.5")
	rec.Brand = strPtr("acme")
	require.NoError(t, s.Commit(ctx, []pricing.PriceRecord{rec}, "reprice"))

	got, err := s.GetRecord(ctx, " SKU-1 ")
	require.NoError(t, err)
	assert.True(t, got.PriceWholesale.Equal(dec("110.5")), "wholesale = %s", got.PriceWholesale)
	assert.True(t, got.Discount6Pct.Equal(dec("2")))
	assert.True(t, got.Discount24Pct.IsZero())
	assert.Equal(t, "tools", *got.CategoryID)
	assert.Equal(t, "acme", *got.Brand)

	all, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCommitPreservesThreeDecimals(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := pricing.PriceRecord{SKU: "SKU-2", Cost: dec("10"), PriceRetail: dec("32.333"), PriceWholesale: dec("33.334")}
	require.NoError(t, s.Commit(ctx, []pricing.PriceRecord{rec}, ""))

	got, err := s.Resolve(ctx, "SKU-2")
	require.NoError(t, err)
	assert.Equal(t, "32.333", got.PriceRetail.String())
	assert.Equal(t, "33.334", got.PriceWholesale.String())
}

func TestGetRecordNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecordsOrderedBySKU(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, []pricing.PriceRecord{
		{SKU: "b"}, {SKU: "c"}, {SKU: "a"},
	}, "batch"))

	got, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].SKU, got[1].SKU, got[2].SKU})
}

func TestCommitEmptyIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Commit(context.Background(), nil, "nothing"))
}
