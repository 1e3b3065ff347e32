package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Brands  BrandsConfig  `yaml:"brands" mapstructure:"brands"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	Headless       bool   `yaml:"headless" mapstructure:"headless"`
	ExecPath       string `yaml:"exec_path" mapstructure:"exec_path"`
	Locale         string `yaml:"locale" mapstructure:"locale"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	ViewportWidth  int    `yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" mapstructure:"viewport_height"`
	ScreenshotDir  string `yaml:"screenshot_dir" mapstructure:"screenshot_dir"`
}

// ContextOptions returns the options for every browsing context.
func (b BrowserConfig) ContextOptions() browser.ContextOptions {
	return browser.ContextOptions{
		Locale:    b.Locale,
		UserAgent: b.UserAgent,
		Viewport:  browser.Viewport{Width: b.ViewportWidth, Height: b.ViewportHeight},
	}
}

// ScrapeConfig configures search, extraction and social lookups.
type ScrapeConfig struct {
	MapsBaseURL          string   `yaml:"maps_base_url" mapstructure:"maps_base_url"`
	DefaultCategories    []string `yaml:"default_categories" mapstructure:"default_categories"`
	MaxLimit             int      `yaml:"max_limit" mapstructure:"max_limit"`
	DelayMinMs           int      `yaml:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMs           int      `yaml:"delay_max_ms" mapstructure:"delay_max_ms"`
	NavTimeoutSecs       int      `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SearchNavTimeoutSecs int      `yaml:"search_nav_timeout_secs" mapstructure:"search_nav_timeout_secs"`
	WebsiteTimeoutSecs   int      `yaml:"website_timeout_secs" mapstructure:"website_timeout_secs"`
	EngineTimeoutSecs    int      `yaml:"engine_timeout_secs" mapstructure:"engine_timeout_secs"`
	VisibleTimeoutMs     int      `yaml:"visible_timeout_ms" mapstructure:"visible_timeout_ms"`
	ScrollStep           int      `yaml:"scroll_step" mapstructure:"scroll_step"`
	MaxStagnantScrolls   int      `yaml:"max_stagnant_scrolls" mapstructure:"max_stagnant_scrolls"`
	MaxScrolls           int      `yaml:"max_scrolls" mapstructure:"max_scrolls"`
	SearchRatePerMin     int      `yaml:"search_rate_per_min" mapstructure:"search_rate_per_min"`
	NavRetries           int      `yaml:"nav_retries" mapstructure:"nav_retries"`
	JobTimeoutMins       int      `yaml:"job_timeout_mins" mapstructure:"job_timeout_mins"`
}

// Delay returns the randomized pause between browser actions.
func (s ScrapeConfig) Delay() resilience.Jitter {
	return resilience.NewJitter(s.DelayMinMs, s.DelayMaxMs)
}

// JobTimeout returns the overall job deadline, zero when disabled.
func (s ScrapeConfig) JobTimeout() time.Duration {
	return time.Duration(s.JobTimeoutMins) * time.Minute
}

// BrandsConfig points at an optional YAML override of the brand table.
type BrandsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// Load reads configuration from an optional .env file, config.yaml and
// LEADRADAR_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-radar.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.locale", "es-CO")
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.screenshot_dir", "screenshots")
	v.SetDefault("scrape.maps_base_url", "https://www.google.com")
	v.SetDefault("scrape.max_limit", 100)
	v.SetDefault("scrape.delay_min_ms", 1500)
	v.SetDefault("scrape.delay_max_ms", 3000)
	v.SetDefault("scrape.nav_timeout_secs", 20)
	v.SetDefault("scrape.search_nav_timeout_secs", 60)
	v.SetDefault("scrape.website_timeout_secs", 10)
	v.SetDefault("scrape.engine_timeout_secs", 15)
	v.SetDefault("scrape.visible_timeout_ms", 1000)
	v.SetDefault("scrape.scroll_step", 500)
	v.SetDefault("scrape.max_stagnant_scrolls", 3)
	v.SetDefault("scrape.max_scrolls", 100)
	v.SetDefault("scrape.search_rate_per_min", 20)
	v.SetDefault("scrape.nav_retries", 2)
	v.SetDefault("scrape.job_timeout_mins", 0)
	v.SetDefault("brands.file", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required for postgres")
	}
	if c.Scrape.MaxLimit < 1 {
		return eris.New("config: scrape.max_limit must be positive")
	}
	if c.Scrape.DelayMinMs < 0 || c.Scrape.DelayMaxMs < c.Scrape.DelayMinMs {
		return eris.New("config: scrape.delay_min_ms must be non-negative and not above delay_max_ms")
	}
	if c.Scrape.JobTimeoutMins < 0 {
		return eris.New("config: scrape.job_timeout_mins must not be negative")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
