package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/tarifario/internal/pricing"
	"github.com/Simplici0/tarifario/internal/worksheet"
)

type scenarioFlags struct {
	sku   string
	qty   int
	tier  string
	term  int
	basis string
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sku, "sku", "", "SKU to price")
	cmd.Flags().IntVar(&f.qty, "qty", 1, "quantity sold")
	cmd.Flags().StringVar(&f.tier, "tier", "", "customer tier (STANDARD, BRONCE, PLATA, ORO, DIAMANTE)")
	cmd.Flags().StringVar(&f.basis, "basis", string(pricing.BasisRetail), "price basis (retail, wholesale)")
	_ = cmd.MarkFlagRequired("sku")
}

func (f *scenarioFlags) scenario() (worksheet.Scenario, error) {
	basis, err := pricing.ParseBasis(f.basis)
	if err != nil {
		return worksheet.Scenario{}, err
	}
	tier, err := pricing.ParseTier(f.tier)
	if err != nil {
		return worksheet.Scenario{}, err
	}
	term := pricing.Term(f.term)
	if !term.Valid() {
		return worksheet.Scenario{}, fmt.Errorf("unsupported term %d (want one of 0, 30, 60, 90, 180)", f.term)
	}
	if f.qty < 0 {
		return worksheet.Scenario{}, fmt.Errorf("quantity must not be negative")
	}
	return worksheet.Scenario{Basis: basis, Quantity: f.qty, Tier: tier, Term: term}, nil
}

// session loads a one-record session for sku.
func (a *app) session(ctx context.Context, sku string) (*worksheet.Session, error) {
	policy, err := a.store.LoadPolicy(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := a.store.ListTierRules(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := a.store.GetRecord(ctx, sku)
	if err != nil {
		return nil, err
	}
	return worksheet.New(policy, rules, []pricing.PriceRecord{rec}, true), nil
}

func newQuoteCmd(a *app) *cobra.Command {
	flags := &scenarioFlags{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price one SKU for a quantity, tier and payment term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := flags.scenario()
			if err != nil {
				return err
			}
			session, err := a.session(cmd.Context(), flags.sku)
			if err != nil {
				return err
			}
			b, err := session.Quote(flags.sku, sc)
			if err != nil {
				return err
			}
			rec, _ := session.Record(flags.sku)
			check := pricing.Guard(b.ListPrice, rec.Cost, session.Policy)

			cur := a.cfg.Currency
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "sku\t%s\n", rec.SKU)
			fmt.Fprintf(w, "base (%s)\t%s\n", sc.Basis, pricing.FormatCurrency(b.Base, cur))
			if b.VolumeSlot > 0 {
				fmt.Fprintf(w, "volume %d+\t-%s\n", b.VolumeSlot, pricing.FormatPercent(b.VolumePct))
			}
			if b.TierPct.IsPositive() {
				fmt.Fprintf(w, "tier %s\t-%s\n", sc.Tier, pricing.FormatPercent(b.TierPct))
			}
			fmt.Fprintf(w, "list price\t%s\n", pricing.FormatCurrency(b.ListPrice, cur))
			if sc.Term != pricing.TermCash {
				fmt.Fprintf(w, "term %d days\t+%s\n", sc.Term, pricing.FormatPercent(b.TermPct))
			}
			fmt.Fprintf(w, "term price\t%s\n", pricing.FormatCurrency(b.TermPrice, cur))
			if rec.Cost.IsPositive() {
				risk := ""
				if check.IsAtRisk {
					risk = " (below floor)"
				}
				fmt.Fprintf(w, "markup on cost\t%s%s\n", pricing.FormatPercent(check.MarginPct), risk)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&flags.term, "term", 0, "payment term in days (0, 30, 60, 90, 180)")
	return cmd
}

func newLadderCmd(a *app) *cobra.Command {
	flags := &scenarioFlags{}
	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Price one SKU under every payment term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := flags.scenario()
			if err != nil {
				return err
			}
			session, err := a.session(cmd.Context(), flags.sku)
			if err != nil {
				return err
			}
			steps, err := session.Ladder(flags.sku, sc)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TERM\tSURCHARGE\tPRICE")
			for _, step := range steps {
				fmt.Fprintf(w, "%d\t%s\t%s\n", step.Term, pricing.FormatPercent(step.Surcharge), pricing.FormatCurrency(step.TermPrice, a.cfg.Currency))
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}
