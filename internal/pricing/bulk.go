package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OperatorKind names a bulk edit.
type OperatorKind string

const (
	OpPercentage         OperatorKind = "PERCENTAGE"
	OpRoundPsychological OperatorKind = "ROUND_PSYCHOLOGICAL"
	OpSyncWholesale      OperatorKind = "SYNC_WHOLESALE"
	OpSyncRetail         OperatorKind = "SYNC_RETAIL"
	OpSetMargin          OperatorKind = "SET_MARGIN"
)

var (
	ErrUnknownOperator = errors.New("unknown bulk operator")
	ErrMarginTarget    = errors.New("margin target must be below 100")
)

var psychologicalStep = decimal.RequireFromString("0.10")

// ParseOperatorKind accepts an operator name in any case.
func ParseOperatorKind(raw string) (OperatorKind, error) {
	k := OperatorKind(strings.ToUpper(strings.TrimSpace(raw)))
	switch k {
	case OpPercentage, OpRoundPsychological, OpSyncWholesale, OpSyncRetail, OpSetMargin:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, raw)
}

// Operator is one bulk edit and its payload. Value is a percentage for every
// kind except ROUND_PSYCHOLOGICAL, which ignores it.
type Operator struct {
	Kind  OperatorKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Percentage scales the edited field by pct percent.
func Percentage(pct decimal.Decimal) Operator {
	return Operator{Kind: OpPercentage, Value: pct}
}

// RoundPsychological rounds the edited field up to the next unit minus 0.10.
func RoundPsychological() Operator {
	return Operator{Kind: OpRoundPsychological}
}

// SyncWholesale sets wholesale to retail less pct percent.
func SyncWholesale(pct decimal.Decimal) Operator {
	return Operator{Kind: OpSyncWholesale, Value: pct}
}

// SyncRetail sets retail to wholesale plus pct percent.
func SyncRetail(pct decimal.Decimal) Operator {
	return Operator{Kind: OpSyncRetail, Value: pct}
}

// SetMargin prices the edited field so it carries target percent of margin on
// price over cost.
func SetMargin(target decimal.Decimal) Operator {
	return Operator{Kind: OpSetMargin, Value: target}
}

// Validate rejects operators that can never be applied. Apply still treats an
// invalid SET_MARGIN as a no-op, so validation is for the caller's boundary.
func (o Operator) Validate() error {
	if _, err := ParseOperatorKind(string(o.Kind)); err != nil {
		return err
	}
	if o.Kind == OpSetMargin && o.Value.GreaterThanOrEqual(hundred) {
		return ErrMarginTarget
	}
	return nil
}

// Apply runs op on one record and reports whether the record was touched.
// The input record is never modified; no-op cases return it unchanged with
// false.
func Apply(op Operator, record PriceRecord, field PriceField) (PriceRecord, bool) {
	out := record.clone()
	current := record.Price(field)

	switch op.Kind {
	case OpPercentage:
		return out.WithPrice(field, Round3(current.Mul(surchargeFactor(op.Value)))), true

	case OpRoundPsychological:
		v := current.Ceil().Sub(psychologicalStep)
		if v.IsNegative() {
			v = decimal.Zero
		}
		return out.WithPrice(field, v), true

	case OpSyncWholesale:
		if field != FieldRetail {
			return out, false
		}
		out.PriceWholesale = Round3(record.PriceRetail.Mul(discountFactor(op.Value)))
		return out, true

	case OpSyncRetail:
		if field != FieldWholesale {
			return out, false
		}
		out.PriceRetail = Round3(record.PriceWholesale.Mul(surchargeFactor(op.Value)))
		return out, true

	case OpSetMargin:
		if !record.Cost.IsPositive() || op.Value.GreaterThanOrEqual(hundred) {
			return out, false
		}
		return out.WithPrice(field, Round3(record.Cost.Div(discountFactor(op.Value)))), true
	}
	return out, false
}

// BulkResult is the rewritten working set and the SKUs an operator touched.
type BulkResult struct {
	Records  []PriceRecord `json:"records"`
	Modified []string      `json:"modified"`
}

// ApplyAll maps op over every record independently. Records keep their input
// order; a no-op on one record does not affect the others.
func ApplyAll(op Operator, records []PriceRecord, field PriceField) BulkResult {
	res := BulkResult{Records: make([]PriceRecord, len(records))}
	for i, rec := range records {
		next, touched := Apply(op, rec, field)
		res.Records[i] = next
		if touched {
			res.Modified = append(res.Modified, rec.SKU)
		}
	}
	return res
}
