package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

func newCardCommand() *cobra.Command {
	cardCmd := &cobra.Command{
		Use:   "card",
		Short: "Card operations",
	}
	cardCmd.AddCommand(newCardIssueCommand())
	return cardCmd
}

func newCardIssueCommand() *cobra.Command {
	var cardType string
	var balance string
	var cur string

	cmd := &cobra.Command{
		Use:   "issue <account-id>",
		Short: "Issue a new card for an account",
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

			opening, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("parsing balance %q: %w", balance, err)
			}
			if !e.converter.Supported(model.Currency(cur)) {
				return fmt.Errorf("unsupported currency %s", cur)
			}

			// Verify the account exists before issuing against it.
			if _, err := e.store.GetAccount(cmd.Context(), accountID); err != nil {
				return err
			}

			card, err := e.cards.Issue(cmd.Context(), accountID, model.CardType(cardType), opening, model.Currency(cur))
			if err != nil {
				return err
			}

			fmt.Printf("Issued %s card %s (expiry %s, CVV %s)\n", card.Type, card.Number, card.Expiry, card.CVV)
			return nil
		},
	}

	cmd.Flags().StringVar(&cardType, "type", string(model.CardTypePrepaid), "card type: Credit, Debit, Prepaid or Virtual")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&cur, "currency", "EUR", "card currency")

	return cmd
}
