package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/tarifario/internal/pricing"
)

const (
	EnvPrefix  = "TARIFARIO"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env         string `envconfig:"ENV" default:"dev"`
	Port        string `envconfig:"PORT" default:"8080"`
	DBPath      string `envconfig:"DB_PATH" default:"./dev.db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	Currency    string `envconfig:"CURRENCY" default:"COP"`

	Policy PolicyDefaults `envconfig:"POLICY"`
}

// PolicyDefaults seeds the stored pricing policy when none exists yet.
type PolicyDefaults struct {
	RetailMarkupPct   decimal.Decimal `envconfig:"RETAIL_MARKUP_PCT" default:"30"`
	Vol6DiscountPct   decimal.Decimal `envconfig:"VOL_6_DISCOUNT_PCT" default:"0"`
	Vol12DiscountPct  decimal.Decimal `envconfig:"VOL_12_DISCOUNT_PCT" default:"0"`
	Vol24DiscountPct  decimal.Decimal `envconfig:"VOL_24_DISCOUNT_PCT" default:"0"`
	Credit30DaysPct   decimal.Decimal `envconfig:"CREDIT_30_DAYS_PCT" default:"0"`
	Credit60DaysPct   decimal.Decimal `envconfig:"CREDIT_60_DAYS_PCT" default:"0"`
	Credit90DaysPct   decimal.Decimal `envconfig:"CREDIT_90_DAYS_PCT" default:"0"`
	Credit180DaysPct  decimal.Decimal `envconfig:"CREDIT_180_DAYS_PCT" default:"0"`
	MinMarginGuardPct decimal.Decimal `envconfig:"MIN_MARGIN_GUARD_PCT" default:"15"`
}

// PricingPolicy converts the defaults into an engine policy.
func (p PolicyDefaults) PricingPolicy() pricing.PolicyConfig {
	return pricing.PolicyConfig{
		RetailMarkupPct:   p.RetailMarkupPct,
		Vol6DiscountPct:   p.Vol6DiscountPct,
		Vol12DiscountPct:  p.Vol12DiscountPct,
		Vol24DiscountPct:  p.Vol24DiscountPct,
		Credit30DaysPct:   p.Credit30DaysPct,
		Credit60DaysPct:   p.Credit60DaysPct,
		Credit90DaysPct:   p.Credit90DaysPct,
		Credit180DaysPct:  p.Credit180DaysPct,
		MinMarginGuardPct: p.MinMarginGuardPct,
	}
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, AppEnvDev)
}

// Load reads an optional .env file and the TARIFARIO_* environment variables.
// The default policy is validated here so a bad value fails at startup rather
// than mid-batch.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := pricing.ValidatePolicy(cfg.Policy.PricingPolicy()); err != nil {
		return Config{}, fmt.Errorf("default policy: %w", err)
	}

	return cfg, nil
}

// Warnings lists settings that are legal but probably unintended.
func (c Config) Warnings() []string {
	var warnings []string
	if !c.IsDev() && c.AutoMigrate {
		warnings = append(warnings, "TARIFARIO_AUTO_MIGRATE is enabled outside dev")
	}
	if c.Policy.MinMarginGuardPct.IsZero() {
		warnings = append(warnings, "TARIFARIO_POLICY_MIN_MARGIN_GUARD_PCT is 0; margin guard will only flag losses")
	}
	return warnings
}
