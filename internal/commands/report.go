package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/analytics"
	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

func newReportCommand() *cobra.Command {
	var (
		scope      string
		cardNumber string
		from       string
		to         string
		cur        string
		income     bool
		expense    bool
		subs       bool
	)

	cmd := &cobra.Command{
		Use:   "report <account-id>",
		Short: "Compute analytics over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing account id %q: %w", args[0], err)
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			req := analytics.Request{
				Scope:                analytics.Scope(scope),
				CardNumber:           cardNumber,
				Currency:             model.Currency(cur),
				IncludeIncome:        income,
				IncludeExpense:       expense,
				IncludeSubscriptions: subs,
			}
			if req.From, err = time.Parse(dateFormat, from); err != nil {
				return fmt.Errorf("parsing from date %q: %w", from, err)
			}
			if req.To, err = time.Parse(dateFormat, to); err != nil {
				return fmt.Errorf("parsing to date %q: %w", to, err)
			}

			report, err := e.analytics.Compute(cmd.Context(), accountID, req)
			if err != nil {
				return err
			}

			fmt.Printf("Report %s .. %s in %s (%s)\n", from, to, report.Currency, currency.Symbol(report.Currency))
			for _, l := range report.Lines {
				fmt.Println(l)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(analytics.ScopeAll), "asset scope: all, cash or card")
	cmd.Flags().StringVar(&cardNumber, "card", "", "card number (card scope)")
	cmd.Flags().StringVar(&from, "from", "", "range start YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&to, "to", "", "range end YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&cur, "currency", "EUR", "report currency")
	cmd.Flags().BoolVar(&income, "income", false, "include income totals")
	cmd.Flags().BoolVar(&expense, "expense", false, "include expense totals")
	cmd.Flags().BoolVar(&subs, "subscriptions", false, "include subscription sub-totals")

	return cmd
}
