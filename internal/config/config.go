// Package config loads settings from the YAML clipping config and the environment.
// Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/rss"
	"github.com/deusflow/newsclip/internal/telegram"
)

const (
	DefaultConfigPath = "configs/newsclip.yaml"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Oracle settings
	OracleProvider    string // gemini | openai
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	MaxOracleRequests int // maximum oracle requests per run (0 = unlimited)
	OracleMinInterval time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration // linear: attempt * RetryDelay
	PromptsDir        string
	SummaryCacheTTL   time.Duration

	// Scoring settings
	RelevanceThreshold  int
	SimilarityThreshold float64
	UseBatch            bool
	BatchSize           int
	Summarize           bool
	InsightMaxItems     int

	// Collection settings
	KeywordCombinations []rss.KeywordCombination
	Feeds               []string
	Language            string
	Country             string
	MaxResultsPerQuery  int
	MorningWindow       time.Duration
	AfternoonWindow     time.Duration
	AfternoonStartHour  int
	RunHours            []int // hours of the day `serve` runs the pipeline
	PriorityDomains     news.PriorityTable
	NationalDomains     []string
	Regions             telegram.RegionTable

	// Scraper settings
	ScrapeMaxArticles    int
	ScrapeMinDescription int

	// Storage settings
	StoreDSN      string
	SeenWindow    time.Duration
	RetentionDays int

	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// App settings
	LogLevel       string
	Debug          bool
	DryRun         bool
	MonitoringPort string
	FilePath       string
}

// fileConfig mirrors configs/newsclip.yaml.
type fileConfig struct {
	KeywordCombinations []rss.KeywordCombination `yaml:"keyword_combinations"`
	Feeds               []string                 `yaml:"feeds"`
	NewsSources         struct {
		PriorityMedia []news.PriorityDomain `yaml:"priority_media"`
		NationalMedia []struct {
			Name   string `yaml:"name"`
			Domain string `yaml:"domain"`
		} `yaml:"national_media"`
	} `yaml:"news_sources"`
	Regions  telegram.RegionTable `yaml:"regions"`
	Schedule struct {
		MorningHours       int   `yaml:"morning_hours"`
		EveningHours       int   `yaml:"evening_hours"`
		AfternoonStartHour int   `yaml:"afternoon_start_hour"`
		RunHours           []int `yaml:"run_hours"`
	} `yaml:"schedule"`
	Filtering struct {
		RelevanceThreshold  int     `yaml:"relevance_threshold"`
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		UseBatch            *bool   `yaml:"use_batch"`
		BatchSize           int     `yaml:"batch_size"`
		InsightMaxItems     int     `yaml:"insight_max_items"`
	} `yaml:"filtering"`
	Collection struct {
		Language           string `yaml:"language"`
		Country            string `yaml:"country"`
		MaxResultsPerQuery int    `yaml:"max_results_per_query"`
	} `yaml:"collection"`
}

func defaults() *Config {
	return &Config{
		OracleProvider:       ProviderGemini,
		MaxOracleRequests:    200,
		OracleMinInterval:    4 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           30 * time.Second,
		PromptsDir:           "prompts",
		SummaryCacheTTL:      24 * time.Hour,
		RelevanceThreshold:   60,
		SimilarityThreshold:  0.6,
		UseBatch:             true,
		BatchSize:            5,
		Summarize:            true,
		InsightMaxItems:      20,
		Language:             "ko",
		Country:              "KR",
		MaxResultsPerQuery:   20,
		MorningWindow:        16 * time.Hour,
		AfternoonWindow:      8 * time.Hour,
		AfternoonStartHour:   14,
		RunHours:             []int{10, 18},
		PriorityDomains:      news.DefaultPriorityTable(),
		Regions:              telegram.DefaultRegionTable(),
		ScrapeMaxArticles:    10,
		ScrapeMinDescription: 200,
		StoreDSN:             "data/newsclip.db",
		SeenWindow:           7 * 24 * time.Hour,
		RetentionDays:        30,
		LogLevel:             "info",
		MonitoringPort:       "8080",
		FilePath:             DefaultConfigPath,
	}
}

// Load reads the config file and the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Read loads settings without validating them. Commands that only touch the
// store use it so they do not need API keys.
func Read() (*Config, error) {
	cfg := defaults()

	// the default file is optional, an explicitly named one is not
	path := os.Getenv("NEWSCLIP_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	cfg.FilePath = path
	if err := cfg.loadFile(path); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, err
	}

	cfg.loadEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(fc.KeywordCombinations) > 0 {
		c.KeywordCombinations = fc.KeywordCombinations
	}
	if len(fc.Feeds) > 0 {
		c.Feeds = fc.Feeds
	}
	if len(fc.NewsSources.PriorityMedia) > 0 {
		c.PriorityDomains = fc.NewsSources.PriorityMedia
	}
	for _, m := range fc.NewsSources.NationalMedia {
		if m.Domain != "" {
			c.NationalDomains = append(c.NationalDomains, m.Domain)
		}
	}
	if len(fc.Regions) > 0 {
		c.Regions = fc.Regions
	}

	if fc.Schedule.MorningHours > 0 {
		c.MorningWindow = time.Duration(fc.Schedule.MorningHours) * time.Hour
	}
	if fc.Schedule.EveningHours > 0 {
		c.AfternoonWindow = time.Duration(fc.Schedule.EveningHours) * time.Hour
	}
	if fc.Schedule.AfternoonStartHour > 0 {
		c.AfternoonStartHour = fc.Schedule.AfternoonStartHour
	}
	if len(fc.Schedule.RunHours) > 0 {
		c.RunHours = fc.Schedule.RunHours
	}

	if fc.Filtering.RelevanceThreshold > 0 {
		c.RelevanceThreshold = fc.Filtering.RelevanceThreshold
	}
	if fc.Filtering.SimilarityThreshold > 0 {
		c.SimilarityThreshold = fc.Filtering.SimilarityThreshold
	}
	if fc.Filtering.UseBatch != nil {
		c.UseBatch = *fc.Filtering.UseBatch
	}
	if fc.Filtering.BatchSize > 0 {
		c.BatchSize = fc.Filtering.BatchSize
	}
	if fc.Filtering.InsightMaxItems > 0 {
		c.InsightMaxItems = fc.Filtering.InsightMaxItems
	}

	if fc.Collection.Language != "" {
		c.Language = fc.Collection.Language
	}
	if fc.Collection.Country != "" {
		c.Country = fc.Collection.Country
	}
	if fc.Collection.MaxResultsPerQuery > 0 {
		c.MaxResultsPerQuery = fc.Collection.MaxResultsPerQuery
	}
	return nil
}

func (c *Config) loadEnv() {
	c.OracleProvider = strings.ToLower(getEnvOrDefault("ORACLE_PROVIDER", c.OracleProvider))
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.GeminiModel = os.Getenv("GEMINI_MODEL")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIModel = os.Getenv("OPENAI_MODEL")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	c.MaxOracleRequests = getEnvIntOrDefault("MAX_ORACLE_REQUESTS", c.MaxOracleRequests)
	c.OracleMinInterval = getEnvDurationOrDefault("ORACLE_MIN_INTERVAL", c.OracleMinInterval)
	c.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", c.RetryAttempts)
	c.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", c.RetryDelay)
	c.PromptsDir = getEnvOrDefault("PROMPTS_DIR", c.PromptsDir)
	c.SummaryCacheTTL = getEnvDurationOrDefault("SUMMARY_CACHE_TTL", c.SummaryCacheTTL)

	c.RelevanceThreshold = getEnvIntOrDefault("RELEVANCE_THRESHOLD", c.RelevanceThreshold)
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			c.SimilarityThreshold = val
		}
	}
	c.UseBatch = getEnvBoolOrDefault("USE_BATCH", c.UseBatch)
	c.BatchSize = getEnvIntOrDefault("BATCH_SIZE", c.BatchSize)
	c.Summarize = getEnvBoolOrDefault("SUMMARIZE", c.Summarize)

	if v := os.Getenv("SCRAPE_MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			c.ScrapeMaxArticles = val
		}
	}

	// DATABASE_URL is what hosted Postgres providers export
	c.StoreDSN = getEnvOrDefault("STORE_DSN", getEnvOrDefault("DATABASE_URL", c.StoreDSN))
	if path := os.Getenv("CACHE_FILE_PATH"); path != "" && os.Getenv("STORE_DSN") == "" && os.Getenv("DATABASE_URL") == "" {
		c.StoreDSN = path
	}
	c.RetentionDays = getEnvIntOrDefault("RETENTION_DAYS", c.RetentionDays)
	if days := getEnvIntOrDefault("SEEN_DAYS", 0); days > 0 {
		c.SeenWindow = time.Duration(days) * 24 * time.Hour
	}

	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Debug = true
		c.LogLevel = "debug"
	}
	c.DryRun = getEnvBoolOrDefault("DRY_RUN", c.DryRun)
	c.MonitoringPort = getEnvOrDefault("MONITORING_PORT", c.MonitoringPort)
}

// AllowedDomains is the priority and national media list used to filter
// collected URLs. Empty means every outlet is allowed.
func (c *Config) AllowedDomains() []string {
	out := append([]string{}, c.PriorityDomains.Domains()...)
	return append(out, c.NationalDomains...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("30s") or plain seconds ("30").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.OracleProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("ORACLE_PROVIDER must be 'gemini' or 'openai'")
	}
	if !c.DryRun {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required")
		}
	}
	if len(c.KeywordCombinations) == 0 && len(c.Feeds) == 0 {
		return fmt.Errorf("no keyword_combinations or feeds configured in %s", c.FilePath)
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 100 {
		return fmt.Errorf("relevance threshold must be within 0..100, got %d", c.RelevanceThreshold)
	}
	if c.SimilarityThreshold <= 0 {
		return fmt.Errorf("similarity threshold must be positive, got %v", c.SimilarityThreshold)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if c.AfternoonStartHour < 0 || c.AfternoonStartHour > 23 {
		return fmt.Errorf("afternoon start hour must be within 0..23")
	}
	for _, h := range c.RunHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("run hour %d is out of range", h)
		}
	}
	if c.StoreDSN == "" {
		return fmt.Errorf("STORE_DSN is required")
	}
	return nil
}
