// Package worksheet holds an editing session over a snapshot of the price
// list. A commit is gated by the margin check over every touched record.
//
// A Session is not safe for concurrent use.
package worksheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/tarifario/internal/pricing"
)

var (
	ErrUnknownSKU    = errors.New("unknown sku")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrMarginRisk    = errors.New("prices below the margin floor")
)

// Resolver looks a SKU up outside the session.
type Resolver interface {
	Resolve(ctx context.Context, sku string) (pricing.PriceRecord, error)
}

// Committer persists the modified records of a session.
type Committer interface {
	Commit(ctx context.Context, records []pricing.PriceRecord, reason string) error
}

// Scenario is the sale a quote or a margin check is priced under.
type Scenario struct {
	Basis    pricing.Basis `json:"basis"`
	Quantity int           `json:"quantity"`
	Tier     pricing.Tier  `json:"tier"`
	Term     pricing.Term  `json:"term"`
}

// Row is one line of an uploaded price sheet. An empty Wholesale only loads
// the record into the session.
type Row struct {
	Line      int    `json:"line"`
	SKU       string `json:"sku"`
	Wholesale string `json:"wholesale"`
}

// RowError describes why one row was not accepted.
type RowError struct {
	Line    int    `json:"line"`
	SKU     string `json:"sku"`
	Message string `json:"message"`
}

// RiskError lists the records that blocked a commit.
type RiskError struct {
	Flags []pricing.RiskFlag
}

func (e *RiskError) Error() string {
	skus := make([]string, 0, len(e.Flags))
	for _, f := range e.Flags {
		skus = append(skus, f.SKU)
	}
	return fmt.Sprintf("%s: %s", ErrMarginRisk, strings.Join(skus, ", "))
}

func (e *RiskError) Unwrap() error {
	return ErrMarginRisk
}

// Session is an in-memory working set priced under one policy snapshot.
type Session struct {
	Policy     pricing.PolicyConfig
	Rules      pricing.TierRuleSet
	AnchorMode bool

	records  []pricing.PriceRecord
	index    map[string]int
	modified map[string]bool
}

// New starts a session over a copy of records.
func New(policy pricing.PolicyConfig, rules pricing.TierRuleSet, records []pricing.PriceRecord, anchorMode bool) *Session {
	s := &Session{
		Policy:     policy,
		Rules:      rules,
		AnchorMode: anchorMode,
		index:      make(map[string]int, len(records)),
		modified:   make(map[string]bool),
	}
	for _, rec := range records {
		s.put(rec)
	}
	return s
}

func (s *Session) put(rec pricing.PriceRecord) {
	if i, ok := s.index[rec.SKU]; ok {
		s.records[i] = rec
		return
	}
	s.index[rec.SKU] = len(s.records)
	s.records = append(s.records, rec)
}

func (s *Session) calculator() pricing.Calculator {
	return pricing.NewCalculator(s.Policy, s.Rules)
}

// Records returns the working set in load order.
func (s *Session) Records() []pricing.PriceRecord {
	out := make([]pricing.PriceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns one record of the working set.
func (s *Session) Record(sku string) (pricing.PriceRecord, bool) {
	i, ok := s.index[sku]
	if !ok {
		return pricing.PriceRecord{}, false
	}
	return s.records[i], true
}

// Modified returns the SKUs touched since the last commit, in load order.
func (s *Session) Modified() []string {
	skus := make([]string, 0, len(s.modified))
	for _, rec := range s.records {
		if s.modified[rec.SKU] {
			skus = append(skus, rec.SKU)
		}
	}
	return skus
}

// ModifiedRecords returns the records touched since the last commit.
func (s *Session) ModifiedRecords() []pricing.PriceRecord {
	out := make([]pricing.PriceRecord, 0, len(s.modified))
	for _, rec := range s.records {
		if s.modified[rec.SKU] {
			out = append(out, rec)
		}
	}
	return out
}

// SetWholesale edits the wholesale price of sku. In anchor mode retail and
// the volume discounts are re-derived from the new wholesale price.
func (s *Session) SetWholesale(sku string, value decimal.Decimal) (pricing.PriceRecord, error) {
	i, ok := s.index[sku]
	if !ok {
		return pricing.PriceRecord{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	if value.IsNegative() {
		return pricing.PriceRecord{}, ErrNegativePrice
	}

	rec := s.records[i]
	rec.PriceWholesale = pricing.Round3(value)
	if s.AnchorMode {
		rec = pricing.DeriveFromWholesale(rec, s.Policy)
	}
	s.records[i] = rec
	s.modified[sku] = true
	return rec, nil
}

// ResolveRows validates uploaded rows against resolver, loads every resolved
// record into the session and applies any wholesale value. Rows that fail are
// reported and skipped; the rest still apply.
func (s *Session) ResolveRows(ctx context.Context, resolver Resolver, rows []Row) []RowError {
	var errs []RowError
	for _, row := range rows {
		sku := strings.TrimSpace(row.SKU)
		if sku == "" {
			errs = append(errs, RowError{Line: row.Line, Message: "sku is required"})
			continue
		}

		var (
			value    decimal.Decimal
			hasValue bool
		)
		if raw := strings.TrimSpace(row.Wholesale); raw != "" {
			v, err := decimal.NewFromString(raw)
			if err != nil {
				errs = append(errs, RowError{Line: row.Line, SKU: sku, Message: fmt.Sprintf("invalid wholesale price %q", raw)})
				continue
			}
			value, hasValue = v, true
		}

		if _, loaded := s.index[sku]; !loaded {
			rec, err := resolver.Resolve(ctx, sku)
			if err != nil {
				errs = append(errs, RowError{Line: row.Line, SKU: sku, Message: err.Error()})
				continue
			}
			s.put(rec)
		}

		if !hasValue {
			continue
		}
		if _, err := s.SetWholesale(sku, value); err != nil {
			errs = append(errs, RowError{Line: row.Line, SKU: sku, Message: err.Error()})
		}
	}
	return errs
}

// Apply runs op over the whole working set on field.
func (s *Session) Apply(op pricing.Operator, field pricing.PriceField) (pricing.BulkResult, error) {
	if err := op.Validate(); err != nil {
		return pricing.BulkResult{}, err
	}

	res := pricing.ApplyAll(op, s.records, field)
	s.records = res.Records
	for _, sku := range res.Modified {
		s.modified[sku] = true
	}
	return res, nil
}

func (s *Session) request(rec pricing.PriceRecord, sc Scenario) pricing.QuoteRequest {
	return pricing.QuoteRequest{
		Record:   rec,
		Basis:    sc.Basis,
		Quantity: sc.Quantity,
		Tier:     sc.Tier,
		Term:     sc.Term,
	}
}

// Quote prices one record of the working set under sc.
func (s *Session) Quote(sku string, sc Scenario) (pricing.Breakdown, error) {
	rec, ok := s.Record(sku)
	if !ok {
		return pricing.Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	return s.calculator().Breakdown(s.request(rec, sc)), nil
}

// Ladder prices one record under every payment term.
func (s *Session) Ladder(sku string, sc Scenario) ([]pricing.LadderStep, error) {
	rec, ok := s.Record(sku)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	return s.calculator().TermLadder(s.request(rec, sc)), nil
}

// Risks checks every modified record at its list price under sc.
func (s *Session) Risks(sc Scenario) []pricing.RiskFlag {
	calc := s.calculator()
	return pricing.GuardSet(s.ModifiedRecords(), func(rec pricing.PriceRecord) decimal.Decimal {
		return calc.ListPrice(s.request(rec, sc))
	}, s.Policy)
}

// commitScenarios are the sales a commit is guarded against: one unit at each
// stored list price.
var commitScenarios = []Scenario{
	{Basis: pricing.BasisRetail, Quantity: 1, Tier: pricing.TierStandard},
	{Basis: pricing.BasisWholesale, Quantity: 1, Tier: pricing.TierStandard},
}

// CommitRisks is the margin check Commit runs.
func (s *Session) CommitRisks() []pricing.RiskFlag {
	var flags []pricing.RiskFlag
	for _, sc := range commitScenarios {
		flags = append(flags, s.Risks(sc)...)
	}
	return flags
}

// Commit hands the modified records to c. It refuses with a *RiskError when
// any modified record sits under the margin floor.
func (s *Session) Commit(ctx context.Context, c Committer, reason string) ([]pricing.PriceRecord, error) {
	records := s.ModifiedRecords()
	if len(records) == 0 {
		return nil, nil
	}

	if flags := s.CommitRisks(); len(flags) > 0 {
		return nil, &RiskError{Flags: flags}
	}

	if err := c.Commit(ctx, records, reason); err != nil {
		return nil, err
	}
	s.modified = make(map[string]bool)
	return records, nil
}
