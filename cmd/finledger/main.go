package main

import (
	"os"

	"github.com/NikosGkoutzas/finance-ledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
