package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the gupywatch monitor.
// It is built once at startup and never mutated afterwards.
type Config struct {
	PollingInterval time.Duration
	DatabasePath    string
	Search          SearchConfig
	Gupy            GupyConfig
	Connectivity    ConnectivityConfig
	AI              AIConfig
	Notification    NotificationConfig
}

// SearchConfig lists the terms to poll, either inline or from a SQLite catalog.
type SearchConfig struct {
	Terms    []string // inline ordered term list
	TermsDB  string   // optional path to a SQLite catalog (search_terms table)
	PageSize int      // postings per page requested from the API
}

// GupyConfig controls the job-board API client.
type GupyConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // rate limit toward the Gupy API
}

// ConnectivityConfig controls the per-cycle reachability probe.
type ConnectivityConfig struct {
	ProbeURL string
	Timeout  time.Duration
}

// AIConfig controls the summarization layer.
type AIConfig struct {
	Enabled     bool
	BaseURL     string // defaults to https://api.openai.com/v1
	Model       string
	APIKey      string // expanded from env var by Load
	Timeout     time.Duration
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // backoff delay before the second attempt
}

// NotificationConfig selects the notifier and its credentials.
type NotificationConfig struct {
	Type               string `yaml:"type"` // "log" or "telegram"
	TelegramToken      string `yaml:"telegram_token"`
	TelegramChatID     string `yaml:"telegram_chat_id"`
	DisableLinkPreview bool   `yaml:"disable_link_preview"`
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	PollingInterval string                `yaml:"polling_interval"`
	DatabasePath    string                `yaml:"database_path"`
	Search          rawSearchConfig       `yaml:"search"`
	Gupy            rawGupyConfig         `yaml:"gupy"`
	Connectivity    rawConnectivityConfig `yaml:"connectivity"`
	AI              rawAIConfig           `yaml:"ai"`
	Notification    NotificationConfig    `yaml:"notification"`
}

type rawSearchConfig struct {
	Terms    []string `yaml:"terms"`
	TermsDB  string   `yaml:"terms_db"`
	PageSize int      `yaml:"page_size"`
}

type rawGupyConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type rawConnectivityConfig struct {
	ProbeURL string `yaml:"probe_url"`
	Timeout  string `yaml:"timeout"`
}

type rawAIConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (API keys, tokens).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := time.ParseDuration(raw.PollingInterval)
	if err != nil {
		return nil, fmt.Errorf("parse polling_interval %q: %w", raw.PollingInterval, err)
	}

	gupyTimeout := 15 * time.Second
	if raw.Gupy.Timeout != "" {
		gupyTimeout, err = time.ParseDuration(raw.Gupy.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse gupy.timeout %q: %w", raw.Gupy.Timeout, err)
		}
	}

	probeTimeout := 10 * time.Second
	if raw.Connectivity.Timeout != "" {
		probeTimeout, err = time.ParseDuration(raw.Connectivity.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse connectivity.timeout %q: %w", raw.Connectivity.Timeout, err)
		}
	}

	aiTimeout := 30 * time.Second
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseDelay := 1 * time.Second
	if raw.AI.BaseDelay != "" {
		aiBaseDelay, err = time.ParseDuration(raw.AI.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse ai.base_delay %q: %w", raw.AI.BaseDelay, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	aiMaxAttempts := raw.AI.MaxAttempts
	if aiMaxAttempts == 0 {
		aiMaxAttempts = 3
	}

	pageSize := raw.Search.PageSize
	if pageSize == 0 {
		pageSize = 10
	}

	rps := raw.Gupy.RequestsPerSecond
	if rps == 0 {
		rps = 1
	}

	dbPath := raw.DatabasePath
	if dbPath == "" {
		dbPath = "gupywatch.db"
	}

	probeURL := raw.Connectivity.ProbeURL
	if probeURL == "" {
		probeURL = "https://www.google.com"
	}

	cfg := &Config{
		PollingInterval: interval,
		DatabasePath:    dbPath,
		Search: SearchConfig{
			Terms:    raw.Search.Terms,
			TermsDB:  raw.Search.TermsDB,
			PageSize: pageSize,
		},
		Gupy: GupyConfig{
			BaseURL:           raw.Gupy.BaseURL,
			Timeout:           gupyTimeout,
			RequestsPerSecond: rps,
		},
		Connectivity: ConnectivityConfig{
			ProbeURL: probeURL,
			Timeout:  probeTimeout,
		},
		AI: AIConfig{
			Enabled:     raw.AI.Enabled,
			BaseURL:     aiBaseURL,
			Model:       raw.AI.Model,
			APIKey:      raw.AI.APIKey,
			Timeout:     aiTimeout,
			MaxAttempts: aiMaxAttempts,
			BaseDelay:   aiBaseDelay,
		},
		Notification: raw.Notification,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}

	if len(cfg.Search.Terms) == 0 && cfg.Search.TermsDB == "" {
		return fmt.Errorf("at least one search term (or search.terms_db) is required")
	}
	for _, term := range cfg.Search.Terms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("search.terms must not contain empty entries")
		}
	}

	if cfg.Search.PageSize < 1 || cfg.Search.PageSize > 100 {
		return fmt.Errorf("search.page_size must be between 1 and 100, got %d", cfg.Search.PageSize)
	}

	if cfg.Notification.Type == "telegram" {
		if cfg.Notification.TelegramToken == "" {
			return fmt.Errorf("notification.telegram_token is required when type is \"telegram\"")
		}
		if cfg.Notification.TelegramChatID == "" {
			return fmt.Errorf("notification.telegram_chat_id is required when type is \"telegram\"")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
		if cfg.AI.MaxAttempts < 1 {
			return fmt.Errorf("ai.max_attempts must be at least 1, got %d", cfg.AI.MaxAttempts)
		}
	}

	return nil
}
