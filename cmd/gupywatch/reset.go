package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gupywatch/gupywatch/internal/ledger"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the ledger of recorded postings",
	Long:  "Deletes every recorded posting. The next cycle re-bootstraps all terms, so no alerts fire for postings visible on the first page.",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if !resetYes {
		fmt.Printf("Clear all recorded postings in %s? [y/N] ", cfg.DatabasePath)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	jobLedger, err := ledger.NewSQLiteLedger(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer jobLedger.Close()

	if err := jobLedger.ClearAll(); err != nil {
		logger.Error("failed to clear ledger", "error", err)
		os.Exit(1)
	}

	logger.Info("ledger cleared", "path", cfg.DatabasePath)
	return nil
}
