package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gupywatch/gupywatch/internal/ledger"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitoring daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"terms", len(cfg.Search.Terms),
		"page_size", cfg.Search.PageSize,
		"ai_enabled", cfg.AI.Enabled,
	)

	jobLedger, err := ledger.NewSQLiteLedger(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer jobLedger.Close()

	termCatalog, closeCatalog, err := setupCatalog(cfg, logger)
	if err != nil {
		logger.Error("failed to open term catalog", "error", err)
		os.Exit(1)
	}
	defer closeCatalog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := buildScheduler(cfg, jobLedger, termCatalog, maxMonitorPages, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
