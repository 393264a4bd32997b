package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/tarifario/internal/apperr"
	"github.com/Simplici0/tarifario/internal/logger"
	"github.com/Simplici0/tarifario/internal/metrics"
	"github.com/Simplici0/tarifario/internal/pricing"
	"github.com/Simplici0/tarifario/internal/store"
	"github.com/Simplici0/tarifario/internal/worksheet"
)

type server struct {
	store      *store.Store
	log        *logger.Logger
	metrics    *metrics.PricingMetrics
	currency   string
	anchorMode bool
}

type recordView struct {
	pricing.PriceRecord
	RetailDisplay    string `json:"retail_display"`
	WholesaleDisplay string `json:"wholesale_display"`
	RetailMargin     string `json:"retail_margin"`
	WholesaleMargin  string `json:"wholesale_margin"`
}

type quoteRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Tier     string `json:"tier"`
	Term     int    `json:"term" validate:"oneof=0 30 60 90 180"`
	Basis    string `json:"basis"`
}

type quoteDisplay struct {
	ListPrice string `json:"list_price"`
	TermPrice string `json:"term_price"`
	Margin    string `json:"margin"`
}

type quoteResponse struct {
	SKU       string               `json:"sku"`
	Scenario  worksheet.Scenario   `json:"scenario"`
	Breakdown pricing.Breakdown    `json:"breakdown"`
	Ladder    []pricing.LadderStep `json:"ladder"`
	Margin    pricing.MarginCheck  `json:"margin"`
	Display   quoteDisplay         `json:"display"`
}

type bulkRequest struct {
	Op     string          `json:"op" validate:"required"`
	Value  decimal.Decimal `json:"value"`
	Field  string          `json:"field" validate:"required"`
	SKUs   []string        `json:"skus"`
	Reason string          `json:"reason"`
}

type bulkResponse struct {
	Modified  []string              `json:"modified"`
	Records   []pricing.PriceRecord `json:"records"`
	Risks     []pricing.RiskFlag    `json:"risks"`
	RowErrors []worksheet.RowError  `json:"row_errors"`
	Committed bool                  `json:"committed"`
}

type wholesaleRequest struct {
	Value  decimal.Decimal `json:"value" validate:"gte=0"`
	Anchor *bool           `json:"anchor"`
	Commit bool            `json:"commit"`
	Reason string          `json:"reason"`
}

type wholesaleResponse struct {
	Record    pricing.PriceRecord `json:"record"`
	Risks     []pricing.RiskFlag  `json:"risks"`
	Committed bool                `json:"committed"`
}

type wholesaleBatchRequest struct {
	Rows   []worksheet.Row `json:"rows" validate:"required,min=1"`
	Anchor *bool           `json:"anchor"`
	Commit bool            `json:"commit"`
	Reason string          `json:"reason"`
}

type tierRuleRequest struct {
	Tier               string          `json:"tier" validate:"required"`
	CategoryID         *string         `json:"category_id"`
	Brand              *string         `json:"brand"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"gte=0,lte=100"`
	IsActive           *bool           `json:"is_active"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}

func (s *server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.store.LoadPolicy(r.Context())
	if err != nil {
		writeError(r.Context(), s.log, w, err)
		return
	}
	writeSuccess(w, policy)
}

func (s *server) handleSavePolicy(w http.ResponseWriter, r *http.Request) {
	var policy pricing.PolicyConfig
	if err := decodeJSONBody(r, &policy); err != nil {
		writeError(r.Context(), s.log, w, err)
		return
	}
	if err := s.store.SavePolicy(r.Context(), policy); err != nil {
		writeError(r.Context(), s.log, w, err)
		return
	}
	s.log.Info(r.Context(), "pricing policy updated")
	writeSuccess(w, policy)
}

func (s *server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecords(r.Context())
	if err != nil {
		writeError(r.Context(), s.log, w, err)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			PriceRecord:      rec,
			RetailDisplay:    pricing.FormatCurrency(rec.PriceRetail, s.currency),
			WholesaleDisplay: pricing.FormatCurrency(rec.PriceWholesale, s.currency),
			RetailMargin:     pricing.FormatPercent(pricing.MarginOnPrice(rec.PriceRetail, rec.Cost)),
			WholesaleMargin:  pricing.FormatPercent(pricing.MarginOnPrice(rec.PriceWholesale, rec.Cost)),
		})
	}
	writeSuccess(w, views)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req quoteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	ctx = s.log.WithSKU(ctx, req.SKU)

	sc, err := parseScenario(req.Basis, req.Quantity, req.Tier, req.Term)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	rec, err := s.store.GetRecord(ctx, req.SKU)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	policy, rules, err := s.snapshot(ctx)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	session := worksheet.New(policy, rules, []pricing.PriceRecord{rec}, s.anchorMode)
	breakdown, err := session.Quote(rec.SKU, sc)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	ladder, err := session.Ladder(rec.SKU, sc)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	margin := pricing.Guard(breakdown.ListPrice, rec.Cost, policy)
	s.metrics.IncQuote(string(sc.Basis))

	writeSuccess(w, quoteResponse{
		SKU:       rec.SKU,
		Scenario:  sc,
		Breakdown: breakdown,
		Ladder:    ladder,
		Margin:    margin,
		Display: quoteDisplay{
			ListPrice: pricing.FormatCurrency(breakdown.ListPrice, s.currency),
			TermPrice: pricing.FormatCurrency(breakdown.TermPrice, s.currency),
			Margin:    pricing.FormatPercent(margin.MarginPct),
		},
	})
}

func (s *server) handleBulk(commit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req bulkRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeError(ctx, s.log, w, err)
			return
		}

		kind, err := pricing.ParseOperatorKind(req.Op)
		if err != nil {
			writeError(ctx, s.log, w, apperr.Wrap(apperr.CodeValidation, err, err.Error()))
			return
		}
		field, err := pricing.ParsePriceField(req.Field)
		if err != nil {
			writeError(ctx, s.log, w, apperr.Wrap(apperr.CodeValidation, err, err.Error()))
			return
		}
		op := pricing.Operator{Kind: kind, Value: req.Value}
		if err := op.Validate(); err != nil {
			writeError(ctx, s.log, w, apperr.Wrap(apperr.CodeValidation, err, err.Error()))
			return
		}
		ctx = s.log.WithOperator(ctx, string(kind), string(field))

		session, rowErrs, err := s.newSession(ctx, req.SKUs, s.anchorMode)
		if err != nil {
			writeError(ctx, s.log, w, err)
			return
		}
		if len(rowErrs) > 0 {
			s.log.Warn(s.log.WithField(ctx, "row_errors", len(rowErrs)), "skipping unresolved skus")
		}

		res, err := session.Apply(op, field)
		if err != nil {
			writeError(ctx, s.log, w, apperr.Wrap(apperr.CodeValidation, err, err.Error()))
			return
		}
		s.metrics.IncBulk(string(kind), len(res.Modified))

		resp := bulkResponse{
			Modified:  session.Modified(),
			Records:   session.ModifiedRecords(),
			Risks:     session.CommitRisks(),
			RowErrors: rowErrs,
		}
		if commit {
			if _, err := session.Commit(ctx, s.store, req.Reason); err != nil {
				if len(resp.Risks) > 0 {
					s.metrics.IncCommitBlocked()
				}
				writeError(ctx, s.log, w, err)
				return
			}
			resp.Committed = len(resp.Modified) > 0
		}
		writeSuccess(w, resp)
	}
}

func (s *server) handleSetWholesale(w http.ResponseWriter, r *http.Request) {
	sku := strings.TrimSpace(chi.URLParam(r, "sku"))
	ctx := s.log.WithSKU(r.Context(), sku)

	var req wholesaleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	anchor := s.anchorMode
	if req.Anchor != nil {
		anchor = *req.Anchor
	}

	session, rowErrs, err := s.newSession(ctx, []string{sku}, anchor)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	if len(rowErrs) > 0 {
		writeError(ctx, s.log, w, apperr.New(apperr.CodeNotFound, rowErrs[0].Message))
		return
	}

	rec, err := session.SetWholesale(sku, req.Value)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	resp := wholesaleResponse{Record: rec, Risks: session.CommitRisks()}
	if req.Commit {
		if _, err := session.Commit(ctx, s.store, req.Reason); err != nil {
			if len(resp.Risks) > 0 {
				s.metrics.IncCommitBlocked()
			}
			writeError(ctx, s.log, w, err)
			return
		}
		resp.Committed = true
	}
	writeSuccess(w, resp)
}

// handleWholesaleBatch applies an uploaded list of wholesale prices. Rows that
// do not resolve or parse are reported in row_errors and the rest still apply.
func (s *server) handleWholesaleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req wholesaleBatchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, s.log, w, err)
		return
	}

	anchor := s.anchorMode
	if req.Anchor != nil {
		anchor = *req.Anchor
	}

	policy, rules, err := s.snapshot(ctx)
	if err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	session := worksheet.New(policy, rules, nil, anchor)
	rowErrs := session.ResolveRows(ctx, s.store, req.Rows)

	resp := bulkResponse{
		Modified:  session.Modified(),
		Records:   session.ModifiedRecords(),
		Risks:     session.CommitRisks(),
		RowErrors: rowErrs,
	}
	if req.Commit {
		if _, err := session.Commit(ctx, s.store, req.Reason); err != nil {
			if len(resp.Risks) > 0 {
				s.metrics.IncCommitBlocked()
			}
			writeError(ctx, s.log, w, err)
			return
		}
		resp.Committed = len(resp.Modified) > 0
	}
	writeSuccess(w, resp)
}

func (s *server) handleTierRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ListTierRules(r.Context())
	if err != nil {
		writeError(r.Context(), s.log, w, err)
		return
	}
	if rules == nil {
		rules = pricing.TierRuleSet{}
	}
	writeSuccess(w, rules)
}

// handleAddTierRule appends a rule after the existing ones; on overlap the
// earlier rule keeps winning.
func (s *server) handleAddTierRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tierRuleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	tier, err := pricing.ParseTier(req.Tier)
	if err != nil {
		writeError(ctx, s.log, w, apperr.Wrap(apperr.CodeValidation, err, err.Error()))
		return
	}

	rule := pricing.TierRule{
		Tier:               tier,
		CategoryID:         req.CategoryID,
		Brand:              req.Brand,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.AppendTierRule(ctx, rule); err != nil {
		writeError(ctx, s.log, w, err)
		return
	}
	s.log.Info(s.log.WithField(ctx, "tier", string(tier)), "tier rule added")
	writeJSON(w, http.StatusCreated, successEnvelope{Data: rule})
}

func (s *server) snapshot(ctx context.Context) (pricing.PolicyConfig, pricing.TierRuleSet, error) {
	policy, err := s.store.LoadPolicy(ctx)
	if err != nil {
		return pricing.PolicyConfig{}, nil, err
	}
	rules, err := s.store.ListTierRules(ctx)
	if err != nil {
		return pricing.PolicyConfig{}, nil, err
	}
	return policy, rules, nil
}

// newSession snapshots the policy and rules and loads either the listed SKUs
// or, when none are given, the whole price list. SKUs that do not resolve are
// returned as row errors and left out of the session.
func (s *server) newSession(ctx context.Context, skus []string, anchor bool) (*worksheet.Session, []worksheet.RowError, error) {
	policy, rules, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(skus) == 0 {
		records, err := s.store.ListRecords(ctx)
		if err != nil {
			return nil, nil, err
		}
		return worksheet.New(policy, rules, records, anchor), nil, nil
	}

	session := worksheet.New(policy, rules, nil, anchor)
	rows := make([]worksheet.Row, 0, len(skus))
	for i, sku := range skus {
		rows = append(rows, worksheet.Row{Line: i + 1, SKU: sku})
	}
	return session, session.ResolveRows(ctx, s.store, rows), nil
}

func parseScenario(basisRaw string, qty int, tierRaw string, term int) (worksheet.Scenario, error) {
	basis := pricing.BasisRetail
	if strings.TrimSpace(basisRaw) != "" {
		b, err := pricing.ParseBasis(basisRaw)
		if err != nil {
			return worksheet.Scenario{}, apperr.Wrap(apperr.CodeValidation, err, err.Error())
		}
		basis = b
	}
	tier, err := pricing.ParseTier(tierRaw)
	if err != nil {
		return worksheet.Scenario{}, apperr.Wrap(apperr.CodeValidation, err, err.Error())
	}
	return worksheet.Scenario{
		Basis:    basis,
		Quantity: qty,
		Tier:     tier,
		Term:     pricing.Term(term),
	}, nil
}
