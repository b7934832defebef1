package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/gupywatch/gupywatch/internal/catalog"
	"github.com/gupywatch/gupywatch/internal/config"
	"github.com/gupywatch/gupywatch/internal/crawl"
	"github.com/gupywatch/gupywatch/internal/gupy"
	"github.com/gupywatch/gupywatch/internal/model"
	"github.com/gupywatch/gupywatch/internal/netcheck"
	"github.com/gupywatch/gupywatch/internal/notify"
	"github.com/gupywatch/gupywatch/internal/retry"
	"github.com/gupywatch/gupywatch/internal/scheduler"
	"github.com/gupywatch/gupywatch/internal/summarize"
)

// Runaway guard for a single monitor pass.
const maxMonitorPages = 50

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gupywatch",
	Short: "Gupy job-board monitor",
	Long:  "Gupywatch polls the Gupy job board for configured search terms and alerts you to new postings.",
	// Default to `start` so that `gupywatch` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: GUPYWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > GUPYWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("GUPYWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "telegram":
		logger.Info("using telegram notifier")
		return notify.NewTelegramNotifier(
			"",
			cfg.Notification.TelegramToken,
			cfg.Notification.TelegramChatID,
			cfg.Notification.DisableLinkPreview,
			httpClient,
			logger,
		)
	default:
		return notify.NewLogNotifier(logger)
	}
}

func setupSummarizer(cfg *config.Config, logger *slog.Logger) model.Summarizer {
	if !cfg.AI.Enabled {
		return summarize.NewNopSummarizer()
	}

	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := summarize.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	policy := retry.Policy{
		MaxAttempts: cfg.AI.MaxAttempts,
		BaseDelay:   cfg.AI.BaseDelay,
		Classify:    retry.DefaultClassify,
	}
	logger.Info("ai summarization enabled", "model", cfg.AI.Model, "max_attempts", cfg.AI.MaxAttempts)
	return summarize.NewSummarizer(provider, summarize.JobSummaryTemplate, policy, logger)
}

// setupCatalog selects the term source: a SQLite catalog when terms_db is
// set, otherwise the inline config list.
func setupCatalog(cfg *config.Config, logger *slog.Logger) (model.TermCatalog, func() error, error) {
	if cfg.Search.TermsDB != "" {
		c, err := catalog.NewSQLite(cfg.Search.TermsDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite term catalog", "path", cfg.Search.TermsDB)
		return c, c.Close, nil
	}
	return catalog.NewStatic(cfg.Search.Terms), func() error { return nil }, nil
}

func buildScheduler(cfg *config.Config, jobLedger model.JobLedger, termCatalog model.TermCatalog, maxPages int, logger *slog.Logger) *scheduler.Scheduler {
	gupyClient := gupy.NewClient(
		cfg.Gupy.BaseURL,
		cfg.Search.PageSize,
		cfg.Gupy.RequestsPerSecond,
		&http.Client{Timeout: cfg.Gupy.Timeout},
	)
	engine := crawl.NewEngine(gupyClient, jobLedger, cfg.Search.PageSize, maxPages, logger)

	prober := netcheck.NewProber(
		cfg.Connectivity.ProbeURL,
		&http.Client{Timeout: cfg.Connectivity.Timeout},
		logger,
	)

	notifierClient := &http.Client{Timeout: cfg.Gupy.Timeout}
	n := setupNotifier(cfg, notifierClient, logger)
	s := setupSummarizer(cfg, logger)

	return scheduler.NewScheduler(engine, termCatalog, jobLedger, prober, s, n, cfg.PollingInterval, logger)
}
