package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tick [account-id]",
		Short: "Apply due subscription periods (all accounts if none given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var ids []int64
			if len(args) > 0 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("parsing account id %q: %w", args[0], err)
				}
				ids = []int64{id}
			} else {
				if ids, err = e.store.ListAccountIDs(cmd.Context()); err != nil {
					return err
				}
			}

			total := 0
			for _, id := range ids {
				applied, err := e.subscriptions.Tick(cmd.Context(), id)
				total += applied
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "account %d: %v\n", id, err)
				}
			}

			fmt.Printf("Applied %d subscription period(s)\n", total)
			return nil
		},
	}
}
