package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/debts"
)

func newDebtCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debt <account-id>",
		Short: "Check an account's debt status",
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

			status, err := e.debts.Check(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			switch status.State {
			case debts.StateClear:
				fmt.Println("No pending debt action.")
			default:
				fmt.Println(status.Message)
			}
			return nil
		},
	}
}
