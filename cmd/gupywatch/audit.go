package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gupywatch/gupywatch/internal/audit"
	"github.com/gupywatch/gupywatch/internal/ledger"
)

// Entries shown per term in the audit view.
const auditEntryLimit = 200

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse recorded postings interactively (TUI)",
	Long:  "Shows the term picker TUI, then a browsable list of the ledger entries recorded under that term.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	jobLedger, err := ledger.NewSQLiteLedger(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer jobLedger.Close()

	terms, err := jobLedger.TermsWithJobs()
	if err != nil {
		logger.Error("failed to list terms", "error", err)
		os.Exit(1)
	}
	if len(terms) == 0 {
		fmt.Println("The ledger is empty. Run the daemon first.")
		return nil
	}

	for {
		choice, err := audit.RunTermPicker(terms)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		term := terms[choice]

		entries, err := audit.RunLoader(term, func() ([]ledger.Entry, error) {
			return jobLedger.RecentByTerm(term, auditEntryLimit)
		})
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		wantQuit, err := audit.RunAuditTUI(term, entries)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
