// Package store persists price records, tier rules and the pricing policy in
// SQLite. It supplies the engine's inputs and commits its outputs; it never
// computes prices itself.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Simplici0/tarifario/internal/logger"
	"github.com/Simplici0/tarifario/internal/pricing"
)

var (
	ErrNotFound = errors.New("price record not found")
	ErrNoPolicy = errors.New("pricing policy not configured")
)

// Store is the SQLite-backed price list.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// New returns a store over an opened, migrated database.
func New(db *sql.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// LoadPolicy returns the stored policy, validated.
func (s *Store) LoadPolicy(ctx context.Context) (pricing.PolicyConfig, error) {
	var p pricing.PolicyConfig
	err := s.db.QueryRowContext(ctx, `
		SELECT
			retail_markup_pct,
			vol_6_discount_pct,
			vol_12_discount_pct,
			vol_24_discount_pct,
			credit_30_days_pct,
			credit_60_days_pct,
			credit_90_days_pct,
			credit_180_days_pct,
			min_margin_guard_pct
		FROM pricing_policy
		WHERE id = 1
	`).Scan(
		&p.RetailMarkupPct,
		&p.Vol6DiscountPct,
		&p.Vol12DiscountPct,
		&p.Vol24DiscountPct,
		&p.Credit30DaysPct,
		&p.Credit60DaysPct,
		&p.Credit90DaysPct,
		&p.Credit180DaysPct,
		&p.MinMarginGuardPct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pricing.PolicyConfig{}, ErrNoPolicy
		}
		return pricing.PolicyConfig{}, fmt.Errorf("query pricing_policy: %w", err)
	}

	if err := pricing.ValidatePolicy(p); err != nil {
		return pricing.PolicyConfig{}, fmt.Errorf("stored policy: %w", err)
	}
	return p, nil
}

// SavePolicy validates and stores the policy singleton.
func (s *Store) SavePolicy(ctx context.Context, p pricing.PolicyConfig) error {
	if err := pricing.ValidatePolicy(p); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
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
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			retail_markup_pct = excluded.retail_markup_pct,
			vol_6_discount_pct = excluded.vol_6_discount_pct,
			vol_12_discount_pct = excluded.vol_12_discount_pct,
			vol_24_discount_pct = excluded.vol_24_discount_pct,
			credit_30_days_pct = excluded.credit_30_days_pct,
			credit_60_days_pct = excluded.credit_60_days_pct,
			credit_90_days_pct = excluded.credit_90_days_pct,
			credit_180_days_pct = excluded.credit_180_days_pct,
			min_margin_guard_pct = excluded.min_margin_guard_pct,
			updated_at = CURRENT_TIMESTAMP
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
	)
	if err != nil {
		return fmt.Errorf("upsert pricing_policy: %w", err)
	}
	return nil
}

// ListTierRules returns every rule in stored order. The order is part of the
// matching contract, so it is never re-sorted by specificity.
func (s *Store) ListTierRules(ctx context.Context) (pricing.TierRuleSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tier, category_id, brand, discount_percentage, is_active
		FROM tier_rules
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tier rules: %w", err)
	}
	defer rows.Close()

	rules := make(pricing.TierRuleSet, 0)
	for rows.Next() {
		var (
			rule     pricing.TierRule
			tier     string
			category sql.NullString
			brand    sql.NullString
		)
		if err := rows.Scan(&tier, &category, &brand, &rule.DiscountPercentage, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("scan tier rule: %w", err)
		}
		rule.Tier = pricing.Tier(tier)
		rule.CategoryID = nullableString(category)
		rule.Brand = nullableString(brand)
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tier rules: %w", err)
	}
	return rules, nil
}

// AppendTierRule stores rule after every existing rule.
func (s *Store) AppendTierRule(ctx context.Context, rule pricing.TierRule) error {
	tier, err := pricing.ParseTier(string(rule.Tier))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tier_rules (position, tier, category_id, brand, discount_percentage, is_active)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM tier_rules), ?, ?, ?, ?, ?)
	`, string(tier), rule.CategoryID, rule.Brand, rule.DiscountPercentage, rule.IsActive)
	if err != nil {
		return fmt.Errorf("insert tier rule: %w", err)
	}
	return nil
}

const recordColumns = `sku, cost, price_retail, price_wholesale, discount_6_pct, discount_12_pct, discount_24_pct, category_id, brand`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (pricing.PriceRecord, error) {
	var (
		rec      pricing.PriceRecord
		category sql.NullString
		brand    sql.NullString
	)
	err := row.Scan(
		&rec.SKU,
		&rec.Cost,
		&rec.PriceRetail,
		&rec.PriceWholesale,
		&rec.Discount6Pct,
		&rec.Discount12Pct,
		&rec.Discount24Pct,
		&category,
		&brand,
	)
	if err != nil {
		return pricing.PriceRecord{}, err
	}
	rec.CategoryID = nullableString(category)
	rec.Brand = nullableString(brand)
	return rec, nil
}

// ListRecords returns every price record ordered by SKU.
func (s *Store) ListRecords(ctx context.Context) ([]pricing.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM price_records ORDER BY sku ASC`)
	if err != nil {
		return nil, fmt.Errorf("query price records: %w", err)
	}
	defer rows.Close()

	records := make([]pricing.PriceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price records: %w", err)
	}
	return records, nil
}

// GetRecord loads one record by SKU. Unknown SKUs return ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, sku string) (pricing.PriceRecord, error) {
	sku = strings.TrimSpace(sku)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM price_records WHERE sku = ?`, sku)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pricing.PriceRecord{}, fmt.Errorf("%w: %s", ErrNotFound, sku)
		}
		return pricing.PriceRecord{}, fmt.Errorf("query price record %s: %w", sku, err)
	}
	return rec, nil
}

// Resolve looks a SKU up for row validation.
func (s *Store) Resolve(ctx context.Context, sku string) (pricing.PriceRecord, error) {
	return s.GetRecord(ctx, sku)
}

// Commit upserts records in one transaction. The reason is logged with the
// change under a batch id; no history is kept.
func (s *Store) Commit(ctx context.Context, records []pricing.PriceRecord, reason string) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sku) DO UPDATE SET
			cost = excluded.cost,
			price_retail = excluded.price_retail,
			price_wholesale = excluded.price_wholesale,
			discount_6_pct = excluded.discount_6_pct,
			discount_12_pct = excluded.discount_12_pct,
			discount_24_pct = excluded.discount_24_pct,
			category_id = excluded.category_id,
			brand = excluded.brand,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare record upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.SKU,
			rec.Cost,
			rec.PriceRetail,
			rec.PriceWholesale,
			rec.Discount6Pct,
			rec.Discount12Pct,
			rec.Discount24Pct,
			rec.CategoryID,
			rec.Brand,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert price record %s: %w", rec.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit price records: %w", err)
	}

	logCtx := s.log.WithBatch(ctx, uuid.NewString(), reason, len(records))
	s.log.Info(logCtx, "price records committed")
	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
