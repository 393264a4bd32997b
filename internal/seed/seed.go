package seed

import (
	"database/sql"
	"fmt"

	"github.com/Simplici0/tarifario/internal/pricing"
)

// Config contains the values required by startup seed.
type Config struct {
	Policy    pricing.PolicyConfig
	TierRules []pricing.TierRule
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run executes the startup seed in an idempotent way. Existing rows are never
// overwritten: a stored policy wins over the configured defaults, and tier
// rules are only seeded into an empty table.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if err := pricing.ValidatePolicy(cfg.Policy); err != nil {
		return Stats{}, fmt.Errorf("seed policy: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensurePolicy(tx, cfg.Policy, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureTierRules(tx, cfg.TierRules, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensurePolicy(tx *sql.Tx, p pricing.PolicyConfig, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM pricing_policy WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check pricing policy existence: %w", err)
	}
	if exists {
		stats.Skipped++
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO pricing_policy (
			id,
			retail_markup_pct,
			vol_6_discount_pct,
			vol_12_discount_pct,
			vol_24_discount_pct,
			credit_30_days_pct,
			credit_60_days_pct,
			credit_90_days_pct,
			credit_180_days_pct,
			min_margin_guard_pct
		)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.RetailMarkupPct,
		p.Vol6DiscountPct,
		p.Vol12DiscountPct,
		p.Vol24DiscountPct,
		p.Credit30DaysPct,
		p.Credit60DaysPct,
		p.Credit90DaysPct,
		p.Credit180DaysPct,
		p.MinMarginGuardPct,
	); err != nil {
		return fmt.Errorf("insert pricing policy singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureTierRules(tx *sql.Tx, rules []pricing.TierRule, stats *Stats) error {
	if len(rules) == 0 {
		return nil
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM tier_rules`).Scan(&count); err != nil {
		return fmt.Errorf("count tier rules: %w", err)
	}
	if count > 0 {
		stats.Skipped++
		return nil
	}

	for i, rule := range rules {
		tier, err := pricing.ParseTier(string(rule.Tier))
		if err != nil {
			return fmt.Errorf("tier rule %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO tier_rules (position, tier, category_id, brand, discount_percentage, is_active)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i+1, string(tier), rule.CategoryID, rule.Brand, rule.DiscountPercentage, rule.IsActive); err != nil {
			return fmt.Errorf("insert tier rule %d: %w", i+1, err)
		}
		stats.Inserts++
	}
	return nil
}
