package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/config"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

func newInitCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "ledger.db", "database file, relative to the ledger directory")

	return cmd
}

func runInit(dir, dbPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	configPath := filepath.Join(dir, "ledger.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("ledger already initialized: %s exists", configPath)
	}

	cfg := config.Default(filepath.Join(dir, dbPath))
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	// Create the database and schema up front so the first command that
	// needs it finds a migrated file.
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	fmt.Printf("Initialized ledger in %s\n", dir)
	return nil
}
