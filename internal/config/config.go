// engine/internal/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir   string `yaml:"data_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"` // console | json
	} `yaml:"app"`

	Fetch struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		UserAgent      string  `yaml:"user_agent"`
		MaxBodyBytes   int64   `yaml:"max_body_bytes"`
		ReqPerSec      float64 `yaml:"req_per_sec"`
		Burst          int     `yaml:"burst"`
	} `yaml:"fetch"`

	Locator struct {
		ValidityThreshold     float64  `yaml:"validity_threshold"`
		MaxCandidates         int      `yaml:"max_candidates"`
		MaxAlternates         int      `yaml:"max_alternates"`
		ValidationConcurrency int      `yaml:"validation_concurrency"`
		CacheTTLMinutes       int      `yaml:"cache_ttl_minutes"`
		Paths                 []string `yaml:"paths"`
		ATSHosts              []string `yaml:"ats_hosts"`
		SearchURL             string   `yaml:"search_url"`
		DisableSearch         bool     `yaml:"disable_search"`
	} `yaml:"locator"`

	Cache struct {
		Backend       string `yaml:"backend"` // memory | redis
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`

	Renderer struct {
		Enabled                  bool     `yaml:"enabled"`
		Headless                 bool     `yaml:"headless"`
		NavigationTimeoutSeconds int      `yaml:"navigation_timeout_seconds"`
		KeywordThreshold         int      `yaml:"keyword_threshold"`
		SPAMarkerThreshold       int      `yaml:"spa_marker_threshold"`
		ScrollBudget             int      `yaml:"scroll_budget"`
		StableIterations         int      `yaml:"stable_iterations"`
		ScrollWaitMillis         int      `yaml:"scroll_wait_millis"`
		PayloadSignalThreshold   int      `yaml:"payload_signal_threshold"`
		JSHeavyHosts             []string `yaml:"js_heavy_hosts"`
	} `yaml:"renderer"`

	Extractor struct {
		OracleTextWindow int  `yaml:"oracle_text_window"`
		EnableVision     bool `yaml:"enable_vision"`
	} `yaml:"extractor"`

	Oracle struct {
		Enabled        bool    `yaml:"enabled"`
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		VisionModel    string  `yaml:"vision_model"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		ReqPerSec      float64 `yaml:"req_per_sec"`
		KeyringAccount string  `yaml:"keyring_account"`
	} `yaml:"oracle"`

	Ranker struct {
		MaxOracleExplanations int `yaml:"max_oracle_explanations"`
	} `yaml:"ranker"`

	Pipeline struct {
		MaxConcurrency    int `yaml:"max_concurrency"`
		BatchSize         int `yaml:"batch_size"`
		BatchDelaySeconds int `yaml:"batch_delay_seconds"`
		TopN              int `yaml:"top_n"`
	} `yaml:"pipeline"`

	Store struct {
		Enabled       bool   `yaml:"enabled"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"store"`
}

// Default returns a Config with every tunable set to its default.
func Default() Config {
	var cfg Config
	cfg.Renderer.Enabled = true
	cfg.Renderer.Headless = true
	cfg.Store.Enabled = true
	ApplyDefaults(&cfg)
	return cfg
}

// Load reads .env and the YAML file at path, then applies defaults and
// JOBSCOUT_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, err
		}
	}

	overrideFromEnv(&cfg)
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills zero values. Booleans are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "."
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "console"
	}

	if cfg.Fetch.TimeoutSeconds <= 0 {
		cfg.Fetch.TimeoutSeconds = 15
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Mozilla/5.0 (compatible; JobScout/1.0; +local)"
	}
	if cfg.Fetch.MaxBodyBytes <= 0 {
		cfg.Fetch.MaxBodyBytes = 5 << 20
	}
	if cfg.Fetch.ReqPerSec <= 0 {
		cfg.Fetch.ReqPerSec = 2.0
	}
	if cfg.Fetch.Burst <= 0 {
		cfg.Fetch.Burst = 4
	}

	if cfg.Locator.ValidityThreshold <= 0 {
		cfg.Locator.ValidityThreshold = 0.5
	}
	if cfg.Locator.MaxCandidates <= 0 {
		cfg.Locator.MaxCandidates = 10
	}
	if cfg.Locator.MaxAlternates <= 0 {
		cfg.Locator.MaxAlternates = 5
	}
	if cfg.Locator.ValidationConcurrency <= 0 {
		cfg.Locator.ValidationConcurrency = 10
	}
	if cfg.Locator.CacheTTLMinutes <= 0 {
		cfg.Locator.CacheTTLMinutes = 60
	}

	if cfg.Locator.SearchURL == "" {
		cfg.Locator.SearchURL = "https://duckduckgo.com/html/"
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}

	if cfg.Renderer.NavigationTimeoutSeconds <= 0 {
		cfg.Renderer.NavigationTimeoutSeconds = 30
	}
	if cfg.Renderer.KeywordThreshold <= 0 {
		cfg.Renderer.KeywordThreshold = 3
	}
	if cfg.Renderer.SPAMarkerThreshold <= 0 {
		cfg.Renderer.SPAMarkerThreshold = 1
	}
	if cfg.Renderer.ScrollBudget <= 0 {
		cfg.Renderer.ScrollBudget = 5
	}
	if cfg.Renderer.StableIterations <= 0 {
		cfg.Renderer.StableIterations = 2
	}
	if cfg.Renderer.ScrollWaitMillis <= 0 {
		cfg.Renderer.ScrollWaitMillis = 1500
	}
	if cfg.Renderer.PayloadSignalThreshold <= 0 {
		cfg.Renderer.PayloadSignalThreshold = 3
	}

	if cfg.Extractor.OracleTextWindow <= 0 {
		cfg.Extractor.OracleTextWindow = 15000
	}

	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Oracle.TimeoutSeconds <= 0 {
		cfg.Oracle.TimeoutSeconds = 60
	}
	if cfg.Oracle.ReqPerSec <= 0 {
		cfg.Oracle.ReqPerSec = 0.5
	}
	if cfg.Oracle.KeyringAccount == "" {
		cfg.Oracle.KeyringAccount = "jobscout:oracle"
	}

	if cfg.Ranker.MaxOracleExplanations <= 0 {
		cfg.Ranker.MaxOracleExplanations = 10
	}

	if cfg.Pipeline.MaxConcurrency <= 0 {
		cfg.Pipeline.MaxConcurrency = 3
	}
	if cfg.Pipeline.BatchSize <= 0 {
		cfg.Pipeline.BatchSize = 3
	}
	if cfg.Pipeline.BatchDelaySeconds < 0 {
		cfg.Pipeline.BatchDelaySeconds = 0
	}
	if cfg.Pipeline.TopN <= 0 {
		cfg.Pipeline.TopN = 20
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "jobscout.db"
	}
	if cfg.Store.RetentionDays <= 0 {
		cfg.Store.RetentionDays = 90
	}
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("JOBSCOUT_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("JOBSCOUT_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("JOBSCOUT_ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("JOBSCOUT_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("JOBSCOUT_REDIS_ADDR"); v != "" {
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("JOBSCOUT_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxConcurrency = n
		}
	}
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Locator.CacheTTLMinutes) * time.Minute
}

func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Renderer.NavigationTimeoutSeconds) * time.Second
}

func (c Config) ScrollWait() time.Duration {
	return time.Duration(c.Renderer.ScrollWaitMillis) * time.Millisecond
}

func (c Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}

func (c Config) Retention() time.Duration {
	return time.Duration(c.Store.RetentionDays) * 24 * time.Hour
}

func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Pipeline.BatchDelaySeconds) * time.Second
}
