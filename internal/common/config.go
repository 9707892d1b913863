package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig     `toml:"logging"`
	Scan        ScanConfig        `toml:"scan"`
	Eligibility EligibilityConfig `toml:"eligibility"`
	Ranking     RankingConfig     `toml:"ranking"`
	Sources     SourcesConfig     `toml:"sources"`
	RSS         RSSConfig         `toml:"rss"`
	Cache       CacheConfig       `toml:"cache"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Output      OutputConfig      `toml:"output"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                       // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                  // default: "15:04:05"
	File       string   `toml:"file"`                                         // log file path when "file" output is enabled
}

// ScanConfig controls news collection and per-symbol work.
type ScanConfig struct {
	Timezone     string `toml:"timezone" validate:"required"`      // Exchange-local zone (default: "America/New_York")
	ReportZone   string `toml:"report_timezone"`                   // Secondary zone shown in reports (default: "Asia/Seoul")
	Window       string `toml:"window"`                            // Trailing news window (default: "12h")
	DedupPrefix  int    `toml:"dedup_prefix" validate:"min=1"`     // Headline runes used in the dedup key (default: 80)
	Workers      int    `toml:"workers" validate:"min=1,max=64"`   // Concurrent per-symbol lookups (default: 4)
	SessionStart string `toml:"session_start" validate:"required"` // Premarket session start, HH:MM local (default: "04:00")
}

// EligibilityConfig controls the price band and exchange allowlists.
type EligibilityConfig struct {
	PriceMin      float64  `toml:"price_min" validate:"gt=0"`
	PriceMax      float64  `toml:"price_max" validate:"gtfield=PriceMin"`
	ExchangeNames []string `toml:"exchange_names" validate:"min=1"`
	ExchangeCodes []string `toml:"exchange_codes" validate:"min=1"`
}

// RankingConfig controls the phase gate, thresholds and intraday bonuses.
type RankingConfig struct {
	LiveStart         string  `toml:"live_start" validate:"required"` // HH:MM local (default: "04:10")
	PreScanThreshold  int     `toml:"prescan_threshold" validate:"min=0,max=100"`
	LiveThreshold     int     `toml:"live_threshold" validate:"min=0,max=100"`
	MaxResults        int     `toml:"max_results" validate:"min=1,max=5"`
	BaseOffset        int     `toml:"base_offset"`
	ScoreWeight       float64 `toml:"score_weight"`
	BaseCap           int     `toml:"base_cap" validate:"min=0,max=90"`
	FinalCap          int     `toml:"final_cap" validate:"min=0,max=95"`
	RVOLMin           float64 `toml:"rvol_min"`
	RVOLBonus         int     `toml:"rvol_bonus"`
	DollarVolumeMin   int     `toml:"dollar_volume_min"` // thousands
	DollarVolumeMax   int     `toml:"dollar_volume_max"` // thousands
	DollarVolumeBonus int     `toml:"dollar_volume_bonus"`
	GapMin            float64 `toml:"gap_min"` // percent
	GapMax            float64 `toml:"gap_max"` // percent
	GapBonus          int     `toml:"gap_bonus"`
}

// SourcesConfig holds one API configuration per remote data provider.
// A provider without an API key is not wired (reduced-feature mode).
type SourcesConfig struct {
	Benzinga APIConfig `toml:"benzinga"`
	Polygon  APIConfig `toml:"polygon"`
	Finnhub  APIConfig `toml:"finnhub"`
	EODHD    APIConfig `toml:"eodhd"`
}

// APIConfig is the common shape of a remote provider configuration.
type APIConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`   // Empty uses the client default
	Timeout   string `toml:"timeout"`    // e.g., "10s"
	RateLimit int    `toml:"rate_limit"` // Requests per second
}

// Enabled reports whether the provider has credentials.
func (a APIConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

type RSSConfig struct {
	Enabled bool     `toml:"enabled"`
	Feeds   []string `toml:"feeds"`
	Timeout string   `toml:"timeout"`
}

// CacheConfig controls the on-disk exchange metadata cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	TTL     string `toml:"ttl"` // e.g., "168h"
}

// ScheduleConfig lists cron expressions used by the schedule command.
type ScheduleConfig struct {
	Crons []string `toml:"crons"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"` // Listen address for /metrics and /healthz in schedule mode
}

type OutputConfig struct {
	File   string `toml:"file"` // Empty writes the report to stdout
	Format string `toml:"format" validate:"oneof=text json markdown html"`
}

// DefaultRSSFeeds are the press-release feeds used when the structured news source is empty.
var DefaultRSSFeeds = []string{
	"https://www.prnewswire.com/rss/industry/business-technology-latest-news.rss",
	"https://www.businesswire.com/portal/site/home/news/rh/us/rss/industry/?vnsId=31326&newsLang=EN",
	"https://www.globenewswire.com/RssFeed/industry/All-Press-Releases.xml",
	"https://www.accesswire.com/rss/latest.xml",
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			File:       "logs/premarket.log",
		},
		Scan: ScanConfig{
			Timezone:     "America/New_York",
			ReportZone:   "Asia/Seoul",
			Window:       "12h",
			DedupPrefix:  80,
			Workers:      4,
			SessionStart: "04:00",
		},
		Eligibility: EligibilityConfig{
			PriceMin:      0.10,
			PriceMax:      3.00,
			ExchangeNames: []string{"NASDAQ", "NYSE", "NYSE American", "AMEX"},
			ExchangeCodes: []string{"XNAS", "XNYS", "XASE", "ARCX"},
		},
		Ranking: RankingConfig{
			LiveStart:         "04:10",
			PreScanThreshold:  55,
			LiveThreshold:     65,
			MaxResults:        5,
			BaseOffset:        25,
			ScoreWeight:       1.2,
			BaseCap:           90,
			FinalCap:          95,
			RVOLMin:           2,
			RVOLBonus:         10,
			DollarVolumeMin:   50,
			DollarVolumeMax:   250,
			DollarVolumeBonus: 8,
			GapMin:            0,
			GapMax:            12,
			GapBonus:          4,
		},
		Sources: SourcesConfig{
			Benzinga: APIConfig{Timeout: "10s", RateLimit: 5},
			Polygon:  APIConfig{Timeout: "10s", RateLimit: 5},
			Finnhub:  APIConfig{Timeout: "8s", RateLimit: 1},
			EODHD:    APIConfig{Timeout: "10s", RateLimit: 10},
		},
		RSS: RSSConfig{
			Enabled: true,
			Feeds:   append([]string(nil), DefaultRSSFeeds...),
			Timeout: "10s",
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "data/cache",
			TTL:     "168h",
		},
		Schedule: ScheduleConfig{
			// 03:40 ET pre-scan and 04:10 ET live scan, weekdays
			Crons: []string{"40 3 * * 1-5", "10 4 * * 1-5"},
		},
		Metrics: MetricsConfig{
			Addr: ":9108",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a single file (or defaults when path is empty)
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PREMARKET_ENV"); env != "" {
		config.Environment = env
	}

	// Logging
	if level := os.Getenv("PREMARKET_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("PREMARKET_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	// Scan
	if window := os.Getenv("PREMARKET_SCAN_WINDOW"); window != "" {
		config.Scan.Window = window
	}
	if workers := os.Getenv("PREMARKET_SCAN_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Scan.Workers = w
		}
	}
	if tz := os.Getenv("PREMARKET_TIMEZONE"); tz != "" {
		config.Scan.Timezone = tz
	}

	// Provider credentials use the conventional variable names
	if key := os.Getenv("BENZINGA_API_KEY"); key != "" {
		config.Sources.Benzinga.APIKey = key
	}
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		config.Sources.Polygon.APIKey = key
	}
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		config.Sources.Finnhub.APIKey = key
	}
	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Sources.EODHD.APIKey = key
	}

	// RSS
	if feeds := os.Getenv("PREMARKET_RSS_FEEDS"); feeds != "" {
		config.RSS.Feeds = splitList(feeds)
	}
	if enabled := os.Getenv("PREMARKET_RSS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.RSS.Enabled = b
		}
	}

	// Cache
	if enabled := os.Getenv("PREMARKET_CACHE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = b
		}
	}
	if path := os.Getenv("PREMARKET_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	// Metrics and output
	if addr := os.Getenv("PREMARKET_METRICS_ADDR"); addr != "" {
		config.Metrics.Addr = addr
	}
	if file := os.Getenv("PREMARKET_OUTPUT_FILE"); file != "" {
		config.Output.File = file
	}
}

// FlagOverrides carries command-line values; zero values leave config untouched.
type FlagOverrides struct {
	LogLevel string
	Workers  int
	Output   string
	Format   string
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.LogLevel != "" {
		config.Logging.Level = strings.ToLower(flags.LogLevel)
	}
	if flags.Workers > 0 {
		config.Scan.Workers = flags.Workers
	}
	if flags.Output != "" {
		config.Output.File = flags.Output
	}
	if flags.Format != "" {
		config.Output.Format = flags.Format
	}
}

// Validate checks struct constraints and the values validator tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	if _, err := time.LoadLocation(c.Scan.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("scan.timezone %q: %w", c.Scan.Timezone, err))
	}
	if _, err := ParseClock(c.Scan.SessionStart); err != nil {
		errs = append(errs, fmt.Errorf("scan.session_start: %w", err))
	}
	if _, err := ParseClock(c.Ranking.LiveStart); err != nil {
		errs = append(errs, fmt.Errorf("ranking.live_start: %w", err))
	}
	if _, err := time.ParseDuration(c.Scan.Window); err != nil {
		errs = append(errs, fmt.Errorf("scan.window %q: %w", c.Scan.Window, err))
	}
	if c.Cache.Enabled {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl %q: %w", c.Cache.TTL, err))
		}
	}
	return errors.Join(errs...)
}

// Location returns the exchange-local time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scan.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReportLocation returns the secondary report zone, or nil when none is configured.
func (c *Config) ReportLocation() *time.Location {
	if c.Scan.ReportZone == "" {
		return nil
	}
	loc, err := time.LoadLocation(c.Scan.ReportZone)
	if err != nil {
		return nil
	}
	return loc
}

// WindowDuration returns the trailing news window.
func (c *Config) WindowDuration() time.Duration {
	return ParseDurationOr(c.Scan.Window, 12*time.Hour)
}

// ParseDurationOr parses s, returning def when s is empty or invalid.
func ParseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
