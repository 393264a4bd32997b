package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/tarifario/internal/pricing"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List or append tier discount rules",
		Long: `Tier rules are evaluated in stored order and the first active match wins.
New rules are appended after the existing ones.`,
	}
	cmd.AddCommand(newRulesListCmd(a), newRulesAddCmd(a))
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print tier rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.store.ListTierRules(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTIER\tCATEGORY\tBRAND\tDISCOUNT\tACTIVE")
			for i, r := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", i+1, r.Tier,
					orAny(r.CategoryID), orAny(r.Brand),
					pricing.FormatPercent(r.DiscountPercentage), r.IsActive)
			}
			return w.Flush()
		},
	}
}

func newRulesAddCmd(a *app) *cobra.Command {
	var (
		tierName string
		discount string
		category string
		brand    string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a tier discount rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := pricing.ParseTier(tierName)
			if err != nil {
				return err
			}
			pct, err := decimal.NewFromString(discount)
			if err != nil {
				return fmt.Errorf("invalid --discount %q: %w", discount, err)
			}
			if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("--discount must be between 0 and 100, got %s", pct)
			}

			rule := pricing.TierRule{
				Tier:               tier,
				CategoryID:         optional(category),
				Brand:              optional(brand),
				DiscountPercentage: pct,
				IsActive:           !inactive,
			}
			if err := a.store.AppendTierRule(cmd.Context(), rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s rule at %s\n", tier, pricing.FormatPercent(pct))
			return nil
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "", "customer tier (BRONCE, PLATA, ORO, DIAMANTE)")
	cmd.Flags().StringVar(&discount, "discount", "", "discount percentage")
	cmd.Flags().StringVar(&category, "category", "", "only match this category id")
	cmd.Flags().StringVar(&brand, "brand", "", "only match this brand")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "store the rule disabled")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("discount")
	return cmd
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func orAny(s *string) string {
	if s == nil {
		return "*"
	}
	return *s
}
