package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "lead-radar.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "es-CO", cfg.Browser.Locale)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, 720, cfg.Browser.ViewportHeight)
	assert.Equal(t, "screenshots", cfg.Browser.ScreenshotDir)
	assert.Equal(t, "https://www.google.com", cfg.Scrape.MapsBaseURL)
	assert.Equal(t, 100, cfg.Scrape.MaxLimit)
	assert.Equal(t, 1500, cfg.Scrape.DelayMinMs)
	assert.Equal(t, 3000, cfg.Scrape.DelayMaxMs)
	assert.Equal(t, 20, cfg.Scrape.NavTimeoutSecs)
	assert.Equal(t, 60, cfg.Scrape.SearchNavTimeoutSecs)
	assert.Equal(t, 10, cfg.Scrape.WebsiteTimeoutSecs)
	assert.Equal(t, 15, cfg.Scrape.EngineTimeoutSecs)
	assert.Equal(t, 1000, cfg.Scrape.VisibleTimeoutMs)
	assert.Equal(t, 500, cfg.Scrape.ScrollStep)
	assert.Equal(t, 3, cfg.Scrape.MaxStagnantScrolls)
	assert.Equal(t, 100, cfg.Scrape.MaxScrolls)
	assert.Equal(t, 20, cfg.Scrape.SearchRatePerMin)
	assert.Equal(t, 2, cfg.Scrape.NavRetries)
	assert.Zero(t, cfg.Scrape.JobTimeout())
	assert.Empty(t, cfg.Scrape.DefaultCategories)
	assert.Empty(t, cfg.Brands.File)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - http://localhost:3000
scrape:
  job_timeout_mins: 45
  default_categories:
    - Panaderías
    - Ópticas
brands:
  file: brands.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 45*time.Minute, cfg.Scrape.JobTimeout())
	assert.Equal(t, []string{"Panaderías", "Ópticas"}, cfg.Scrape.DefaultCategories)
	assert.Equal(t, "brands.yaml", cfg.Brands.File)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Scrape.MaxLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADRADAR_LOG_LEVEL", "warn")
	t.Setenv("LEADRADAR_BROWSER_HEADLESS", "false")
	t.Setenv("LEADRADAR_BROWSER_EXEC_PATH", "/usr/bin/chromium")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADRADAR_SERVER_PORT", "3000")
	t.Setenv("LEADRADAR_SCRAPE_MAX_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Scrape.MaxLimit)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEADRADAR_SERVER_PORT=7070\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("LEADRADAR_SERVER_PORT") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LEADRADAR_STORE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "lead-radar.db"
	cfg.Scrape.MaxLimit = 100
	cfg.Scrape.DelayMinMs = 1500
	cfg.Scrape.DelayMaxMs = 3000
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"postgres with url", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "postgres://x" }, ""},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" }, "database_url is required"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"zero max limit", func(c *Config) { c.Scrape.MaxLimit = 0 }, "max_limit"},
		{"inverted delay", func(c *Config) { c.Scrape.DelayMinMs = 5000 }, "delay_min_ms"},
		{"negative delay", func(c *Config) { c.Scrape.DelayMinMs = -1 }, "delay_min_ms"},
		{"negative timeout", func(c *Config) { c.Scrape.JobTimeoutMins = -5 }, "job_timeout_mins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScrapeConfig_Delay(t *testing.T) {
	d := ScrapeConfig{DelayMinMs: 100, DelayMaxMs: 200}.Delay()
	assert.Equal(t, 100*time.Millisecond, d.Min)
	assert.Equal(t, 200*time.Millisecond, d.Max)
}

func TestBrowserConfig_ContextOptions(t *testing.T) {
	opts := BrowserConfig{Locale: "es-CO", UserAgent: "ua", ViewportWidth: 1280, ViewportHeight: 720}.ContextOptions()
	assert.Equal(t, "es-CO", opts.Locale)
	assert.Equal(t, "ua", opts.UserAgent)
	assert.Equal(t, 1280, opts.Viewport.Width)
	assert.Equal(t, 720, opts.Viewport.Height)
}
