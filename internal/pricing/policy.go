package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Term is a deferred-payment window in days.
type Term int

const (
	TermCash Term = 0
	Term30   Term = 30
	Term60   Term = 60
	Term90   Term = 90
	Term180  Term = 180
)

// Terms lists every supported payment term in ladder order.
var Terms = []Term{TermCash, Term30, Term60, Term90, Term180}

// Valid reports whether t is one of the supported payment terms.
func (t Term) Valid() bool {
	for _, known := range Terms {
		if t == known {
			return true
		}
	}
	return false
}

// PolicyConfig is the process-wide pricing policy. Callers snapshot it once
// per session or batch and pass it by value into every engine call.
type PolicyConfig struct {
	RetailMarkupPct   decimal.Decimal `json:"retail_markup_pct" validate:"gte=0"`
	Vol6DiscountPct   decimal.Decimal `json:"vol_6_discount_pct" validate:"gte=0,lte=100"`
	Vol12DiscountPct  decimal.Decimal `json:"vol_12_discount_pct" validate:"gte=0,lte=100"`
	Vol24DiscountPct  decimal.Decimal `json:"vol_24_discount_pct" validate:"gte=0,lte=100"`
	Credit30DaysPct   decimal.Decimal `json:"credit_30_days_pct" validate:"gte=0,lte=100"`
	Credit60DaysPct   decimal.Decimal `json:"credit_60_days_pct" validate:"gte=0,lte=100"`
	Credit90DaysPct   decimal.Decimal `json:"credit_90_days_pct" validate:"gte=0,lte=100"`
	Credit180DaysPct  decimal.Decimal `json:"credit_180_days_pct" validate:"gte=0,lte=100"`
	MinMarginGuardPct decimal.Decimal `json:"min_margin_guard_pct" validate:"gte=0"`
}

// DefaultPolicy returns the policy used when no stored policy exists:
// 30% retail markup, no volume discounts, no credit surcharges and a 15%
// margin floor.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		RetailMarkupPct:   decimal.NewFromInt(30),
		MinMarginGuardPct: decimal.NewFromInt(15),
	}
}

// VolumeDiscount returns the global discount for a volume slot (6, 12 or 24).
func (p PolicyConfig) VolumeDiscount(slot int) decimal.Decimal {
	switch slot {
	case 24:
		return p.Vol24DiscountPct
	case 12:
		return p.Vol12DiscountPct
	case 6:
		return p.Vol6DiscountPct
	}
	return decimal.Zero
}

// CreditSurcharge returns the surcharge for a payment term. Cash and unknown
// terms carry no surcharge.
func (p PolicyConfig) CreditSurcharge(term Term) decimal.Decimal {
	switch term {
	case Term30:
		return p.Credit30DaysPct
	case Term60:
		return p.Credit60DaysPct
	case Term90:
		return p.Credit90DaysPct
	case Term180:
		return p.Credit180DaysPct
	}
	return decimal.Zero
}

var policyValidate = newPolicyValidator()

func newPolicyValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidatePolicy checks a policy once at load time. The engine itself never
// clamps percentages, so this is the only place malformed values are caught.
func ValidatePolicy(p PolicyConfig) error {
	err := policyValidate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate policy: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("invalid policy: %s", strings.Join(msgs, "; "))
}
