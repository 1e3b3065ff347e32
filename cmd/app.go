package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-radar/internal/brands"
	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/config"
	"github.com/sells-group/lead-radar/internal/db"
	"github.com/sells-group/lead-radar/internal/extract"
	"github.com/sells-group/lead-radar/internal/job"
	"github.com/sells-group/lead-radar/internal/maps"
	"github.com/sells-group/lead-radar/internal/social"
	"github.com/sells-group/lead-radar/internal/store"
)

// appEnv holds the store and job service shared by the serve and scrape
// commands.
type appEnv struct {
	Store   store.Store
	Service *job.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "lead-radar.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initApp opens and migrates the store, then builds the scrape stages and
// the job service on top of it. Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	stages, err := buildStages(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	launcher := browser.ChromeLauncher{Headless: cfg.Browser.Headless, ExecPath: cfg.Browser.ExecPath}
	runner := job.NewRunner(st, launcher, stages, job.RunnerOptions{
		Categories: cfg.Scrape.DefaultCategories,
		Browser:    cfg.Browser.ContextOptions(),
		Delay:      cfg.Scrape.Delay(),
		Timeout:    cfg.Scrape.JobTimeout(),
	})
	svc := job.NewService(st, runner, job.NewRegistry(), cfg.Scrape.MaxLimit)

	return &appEnv{Store: st, Service: svc}, nil
}

// buildStages wires the search, extraction, social and brand stages from
// configuration.
func buildStages(c *config.Config) (job.Stages, error) {
	filter := brands.Default()
	if c.Brands.File != "" {
		f, err := brands.LoadFile(c.Brands.File)
		if err != nil {
			return job.Stages{}, eris.Wrap(err, "load brands")
		}
		filter = f
		zap.L().Info("loaded brand overrides",
			zap.String("file", c.Brands.File),
			zap.Strings("categories", filter.Categories()),
		)
	}

	shots := browser.NewScreenshotter(c.Browser.ScreenshotDir)
	delay := c.Scrape.Delay()

	searcher := maps.NewSearcher(maps.Options{
		BaseURL:            c.Scrape.MapsBaseURL,
		NavTimeout:         seconds(c.Scrape.SearchNavTimeoutSecs),
		ScrollStep:         c.Scrape.ScrollStep,
		MaxStagnantScrolls: c.Scrape.MaxStagnantScrolls,
		MaxScrolls:         c.Scrape.MaxScrolls,
		Delay:              delay,
	}, shots)

	extractor := extract.New(extract.Options{
		NavTimeout:     seconds(c.Scrape.NavTimeoutSecs),
		AttemptTimeout: time.Duration(c.Scrape.VisibleTimeoutMs) * time.Millisecond,
		NavRetries:     c.Scrape.NavRetries,
		Delay:          delay,
	}, shots)

	resolver := social.New(social.Options{
		WebsiteTimeout: seconds(c.Scrape.WebsiteTimeoutSecs),
		EngineTimeout:  seconds(c.Scrape.EngineTimeoutSecs),
		Delay:          delay,
		SearchLimiter:  searchLimiter(c.Scrape.SearchRatePerMin),
	})

	return job.Stages{
		Searcher:  searcher,
		Extractor: extractor,
		Resolver:  resolver,
		Brands:    filter,
	}, nil
}

// searchLimiter paces search-engine queries across all jobs. Zero or less
// disables pacing.
func searchLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
