// Package commands wires the finledger CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "finledger",
		Short:   "Personal finance ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "ledger.yaml", "path to the ledger configuration file")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand())
	rootCmd.AddCommand(newCardCommand())
	rootCmd.AddCommand(newTransactionCommand())
	rootCmd.AddCommand(newTickCommand())
	rootCmd.AddCommand(newDebtCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}
