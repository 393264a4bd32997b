package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/tarifario/internal/db"
	"github.com/Simplici0/tarifario/internal/migrations"
	"github.com/Simplici0/tarifario/internal/pricing"
)

func openSeedDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)

	brand := "acme"
	cfg := Config{
		Policy: pricing.DefaultPolicy(),
		TierRules: []pricing.TierRule{
			{Tier: pricing.TierOro, DiscountPercentage: decimal.NewFromInt(5), IsActive: true},
			{Tier: pricing.TierPlata, Brand: &brand, DiscountPercentage: decimal.NewFromInt(3), IsActive: true},
		},
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 3 {
				t.Fatalf("expected 3 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
		if stats.Skipped != 2 {
			t.Fatalf("expected 2 skipped in iteration %d, got %d", i, stats.Skipped)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM pricing_policy WHERE id = 1`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM tier_rules`, nil, 2)
	assertCount(t, database, `SELECT COUNT(*) FROM tier_rules WHERE position = ? AND brand = ?`, []any{2, "acme"}, 1)
}

func TestRunKeepsStoredPolicy(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)

	if _, err := database.Exec(`INSERT INTO pricing_policy (id, retail_markup_pct) VALUES (1, '45')`); err != nil {
		t.Fatalf("insert existing policy: %v", err)
	}

	if _, err := Run(database, Config{Policy: pricing.DefaultPolicy()}); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	var markup string
	if err := database.QueryRow(`SELECT retail_markup_pct FROM pricing_policy WHERE id = 1`).Scan(&markup); err != nil {
		t.Fatalf("query markup: %v", err)
	}
	if markup != "45" {
		t.Fatalf("retail_markup_pct = %q, want %q", markup, "45")
	}
}

func TestRunRejectsInvalidPolicy(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)

	p := pricing.DefaultPolicy()
	p.Credit60DaysPct = decimal.NewFromInt(101)
	if _, err := Run(database, Config{Policy: p}); err == nil {
		t.Fatalf("expected validation error")
	}
	assertCount(t, database, `SELECT COUNT(*) FROM pricing_policy`, nil, 0)
}

func TestRunRollsBackOnBadTierRule(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)

	cfg := Config{
		Policy:    pricing.DefaultPolicy(),
		TierRules: []pricing.TierRule{{Tier: "PLATINO"}},
	}
	if _, err := Run(database, cfg); err == nil {
		t.Fatalf("expected unknown tier error")
	}
	assertCount(t, database, `SELECT COUNT(*) FROM pricing_policy`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
