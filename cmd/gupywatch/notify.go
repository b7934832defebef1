package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/gupywatch/gupywatch/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test notification and exit",
	Long:  "Sends a dummy posting through the configured notifier to verify credentials and chat access.",
	RunE:  runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Notification.Type != "telegram" {
		logger.Error("notify requires notification.type to be \"telegram\" in config")
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Gupy.Timeout}
	n := setupNotifier(cfg, httpClient, logger)

	if err := notify.SendTestMessage(cmd.Context(), n); err != nil {
		logger.Error("test message failed", "error", err)
		os.Exit(1)
	}

	logger.Info("test message sent successfully")
	return nil
}
