package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/debts"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
	"github.com/NikosGkoutzas/finance-ledger/internal/transactions"
)

const dateFormat = "2006-01-02"

func newTransactionCommand() *cobra.Command {
	txnCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"txn"},
		Short:   "Record and list transactions",
	}
	txnCmd.AddCommand(newTransactionAddCommand())
	txnCmd.AddCommand(newTransactionListCommand())
	txnCmd.AddCommand(newTransactionImportCommand())
	return txnCmd
}

func newTransactionAddCommand() *cobra.Command {
	var (
		method     string
		cardNumber string
		cardCVV    string
		cardExpiry string
		amount     string
		cur        string
		txnType    string
		categoryID int64
		recurring  bool
		start      string
		end        string
		recurrence string
	)

	cmd := &cobra.Command{
		Use:   "add <account-id>",
		Short: "Validate and record a transaction",
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

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", amount, err)
			}

			intent := transactions.Intent{
				Method:     model.PaymentMethod(method),
				CardNumber: cardNumber,
				CardCVV:    cardCVV,
				CardExpiry: cardExpiry,
				Amount:     value,
				Currency:   model.Currency(cur),
				Type:       model.TransactionType(txnType),
				CategoryID: categoryID,
				Recurring:  recurring,
				Recurrence: model.Recurrence(recurrence),
			}
			if recurring {
				if intent.StartDate, err = time.Parse(dateFormat, start); err != nil {
					return fmt.Errorf("parsing start date %q: %w", start, err)
				}
				if intent.EndDate, err = time.Parse(dateFormat, end); err != nil {
					return fmt.Errorf("parsing end date %q: %w", end, err)
				}
			}

			txn, err := e.transactions.Create(cmd.Context(), accountID, intent)
			if err != nil {
				return err
			}
			fmt.Println(txn.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", string(model.MethodCash), "payment method: Cash or Card")
	cmd.Flags().StringVar(&cardNumber, "card-number", "", "16-digit card number (card method)")
	cmd.Flags().StringVar(&cardCVV, "cvv", "", "3-digit CVV (card method)")
	cmd.Flags().StringVar(&cardExpiry, "expiry", "", "card expiry MM/YY (card method)")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&cur, "currency", "EUR", "transaction currency")
	cmd.Flags().StringVar(&txnType, "type", string(model.TypeExpense), "transaction type: Income or Expense")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "record as a recurring subscription")
	cmd.Flags().StringVar(&start, "start", "", "subscription start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "subscription end date YYYY-MM-DD")
	cmd.Flags().StringVar(&recurrence, "recurrence", string(model.RecurrenceMonthly), "recurrence: Daily, Weekly, Monthly or Yearly")

	return cmd
}

func newTransactionImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <account-id> <statement.csv>",
		Short: "Import a CSV statement of transactions",
		Long: `Import runs every row of a CSV statement through the regular transaction
pipeline. Rejected rows are reported but do not abort the batch.

Statement columns:
  type,method,amount,currency,category,card_number,card_cvv,card_expiry`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing account id %q: %w", args[0], err)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening statement: %w", err)
			}
			defer f.Close()

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			results, err := e.importer.Import(cmd.Context(), accountID, f)
			if err != nil {
				return err
			}

			imported := 0
			for _, r := range results {
				if r.Err != nil {
					fmt.Printf("%v\n", r.Err)
					continue
				}
				imported++
				fmt.Printf("row %d: %s\n", r.Line, r.Transaction.Message)
			}
			fmt.Printf("Imported %d of %d rows.\n", imported, len(results))
			return nil
		},
	}
	return cmd
}

func newTransactionListCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List an account's transactions",
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

			var filter storage.TransactionFilter
			if from != "" {
				t, err := time.Parse(dateFormat, from)
				if err != nil {
					return fmt.Errorf("parsing from date %q: %w", from, err)
				}
				filter.From = &t
			}
			if to != "" {
				t, err := time.Parse(dateFormat, to)
				if err != nil {
					return fmt.Errorf("parsing to date %q: %w", to, err)
				}
				filter.To = &t
			}

			txns, status, err := e.transactions.List(cmd.Context(), accountID, filter)
			if err != nil {
				return err
			}
			if status.State != debts.StateClear {
				fmt.Println(status.Message)
				return nil
			}

			for _, t := range txns {
				fmt.Printf("%s  %-7s %-4s  %10s %s  %s\n",
					t.Date.Format(dateFormat), t.Type, t.Method,
					t.Amount.StringFixed(2), t.Currency, t.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "only transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "only transactions on or before this date (YYYY-MM-DD)")

	return cmd
}
