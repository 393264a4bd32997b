package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/tarifario/internal/pricing"
	"github.com/Simplici0/tarifario/internal/worksheet"
)

func newBulkCmd(a *app) *cobra.Command {
	var (
		opName string
		value  string
		field  string
		skus   []string
		commit bool
		reason string
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Preview or commit a bulk price operator",
		Long: `Apply one operator to the price list, or to the SKUs given with --sku.

Operators: PERCENTAGE, ROUND_PSYCHOLOGICAL, SYNC_WHOLESALE, SYNC_RETAIL, SET_MARGIN.
SKUs that cannot be resolved are reported on stderr and skipped.
Without --commit nothing is written. A commit is refused when any touched
record would sell under the margin floor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, err := pricing.ParseOperatorKind(opName)
			if err != nil {
				return err
			}
			target, err := pricing.ParsePriceField(field)
			if err != nil {
				return err
			}
			v := decimal.Zero
			if value != "" {
				if v, err = decimal.NewFromString(value); err != nil {
					return fmt.Errorf("invalid --value %q: %w", value, err)
				}
			}
			op := pricing.Operator{Kind: kind, Value: v}

			policy, err := a.store.LoadPolicy(ctx)
			if err != nil {
				return err
			}
			rules, err := a.store.ListTierRules(ctx)
			if err != nil {
				return err
			}

			var session *worksheet.Session
			if len(skus) == 0 {
				records, err := a.store.ListRecords(ctx)
				if err != nil {
					return err
				}
				session = worksheet.New(policy, rules, records, true)
			} else {
				session = worksheet.New(policy, rules, nil, true)
				rows := make([]worksheet.Row, 0, len(skus))
				for i, sku := range skus {
					rows = append(rows, worksheet.Row{Line: i + 1, SKU: sku})
				}
				for _, re := range session.ResolveRows(ctx, a.store, rows) {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped sku %d (%s): %s\n", re.Line, re.SKU, re.Message)
				}
			}

			before := session.Records()
			res, err := session.Apply(op, target)
			if err != nil {
				return err
			}

			touched := make(map[string]bool, len(res.Modified))
			for _, sku := range res.Modified {
				touched[sku] = true
			}

			out := cmd.OutOrStdout()
			cur := a.cfg.Currency
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SKU\tRETAIL\tWHOLESALE")
			for i, rec := range res.Records {
				if !touched[rec.SKU] {
					continue
				}
				fmt.Fprintf(w, "%s\t%s -> %s\t%s -> %s\n", rec.SKU,
					pricing.FormatCurrency(before[i].PriceRetail, cur), pricing.FormatCurrency(rec.PriceRetail, cur),
					pricing.FormatCurrency(before[i].PriceWholesale, cur), pricing.FormatCurrency(rec.PriceWholesale, cur))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "modified: %s\n", joinSKUs(session.Modified()))

			risks := session.CommitRisks()
			for _, r := range risks {
				fmt.Fprintf(out, "at risk: %s price %s cost %s markup %s\n", r.SKU,
					pricing.FormatCurrency(r.Price, cur),
					pricing.FormatCurrency(r.Cost, cur),
					pricing.FormatPercent(r.MarginPct))
			}

			if !commit {
				return nil
			}
			committed, err := session.Commit(ctx, a.store, reason)
			if err != nil {
				if errors.Is(err, worksheet.ErrMarginRisk) {
					return fmt.Errorf("commit refused: %w", err)
				}
				return err
			}
			fmt.Fprintf(out, "committed %d record(s)\n", len(committed))
			return nil
		},
	}

	cmd.Flags().StringVar(&opName, "op", "", "operator kind")
	cmd.Flags().StringVar(&value, "value", "", "operator percentage")
	cmd.Flags().StringVar(&field, "field", string(pricing.FieldRetail), "price field to edit (price_retail, price_wholesale)")
	cmd.Flags().StringArrayVar(&skus, "sku", nil, "limit the operator to these SKUs (repeatable)")
	cmd.Flags().BoolVar(&commit, "commit", false, "write the result")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the commit")
	_ = cmd.MarkFlagRequired("op")
	return cmd
}
