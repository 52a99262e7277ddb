package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

func newAccountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}
	accountCmd.AddCommand(newAccountAddCommand())
	accountCmd.AddCommand(newAccountShowCommand())
	return accountCmd
}

func newAccountAddCommand() *cobra.Command {
	var username string
	var cash string
	var cur string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account and seed its default categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			opening, err := decimal.NewFromString(cash)
			if err != nil {
				return fmt.Errorf("parsing cash amount %q: %w", cash, err)
			}
			if opening.IsNegative() {
				return fmt.Errorf("cash must not be negative")
			}
			if !e.converter.Supported(model.Currency(cur)) {
				return fmt.Errorf("unsupported currency %s", cur)
			}

			account, err := e.store.CreateAccount(cmd.Context(), username, opening, model.Currency(cur))
			if err != nil {
				return err
			}
			if err := e.categories.Seed(cmd.Context(), account.ID); err != nil {
				return err
			}

			fmt.Printf("Created account %d (%s)\n", account.ID, account.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username (required)")
	_ = cmd.MarkFlagRequired("username")
	cmd.Flags().StringVar(&cash, "cash", "0", "opening cash balance")
	cmd.Flags().StringVar(&cur, "currency", "EUR", "preferred currency")

	return cmd
}

func newAccountShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account's balances and debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing account id %q: %w", args[0], err)
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			account, err := e.store.GetAccount(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Account %d (%s)\n", account.ID, account.Username)
			fmt.Printf("  Cash: %s %s\n", account.Cash.StringFixed(2), account.Currency)
			fmt.Printf("  Debt: %s %s\n", account.Debt.StringFixed(2), account.Currency)

			cardList, err := e.store.ListCards(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, c := range cardList {
				fmt.Printf("  %s card %s: %s %s\n", c.Type, c.MaskedNumber(), c.Balance.StringFixed(2), c.Currency)
			}
			return nil
		},
	}
}
