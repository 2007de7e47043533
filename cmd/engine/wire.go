package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobscout-engine/internal/ats"
	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/extract"
	"jobscout-engine/internal/fetch"
	"jobscout-engine/internal/locate"
	"jobscout-engine/internal/metrics"
	"jobscout-engine/internal/oracle"
	"jobscout-engine/internal/pipeline"
	"jobscout-engine/internal/rank"
	"jobscout-engine/internal/render"
	"jobscout-engine/internal/secrets"
	"jobscout-engine/internal/store"
	"jobscout-engine/internal/util"
)

// app owns every long-lived resource the engine opens.
type app struct {
	log      *zap.Logger
	db       *store.DB                 // nil when the store is disabled
	rdb      *redis.Client             // nil unless cache.backend is redis
	browser  *render.PlaywrightBrowser // nil when rendering is disabled or unavailable
	locator  *locate.Locator
	orch     *pipeline.Orchestrator
	hub      *events.Hub
	registry *prometheus.Registry
}

func build(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log, hub: events.NewHub(), registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	limiter := util.NewHostLimiter(cfg.Fetch.ReqPerSec, cfg.Fetch.Burst)
	fetcher := fetch.New(fetch.Options{
		Timeout:      cfg.FetchTimeout(),
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Limiter:      limiter,
		Logger:       log,
	})

	// counted per company run; see WorkflowResult.OracleCalls
	orc := oracle.Counted(buildOracle(cfg, log))

	if cfg.Store.Enabled {
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.App.DataDir, path)
		}
		db, err := store.OpenAndMigrate(path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", path, err)
		}
		a.db = db
		log.Info("[store] ready", zap.String("path", path))
	}

	cache, err := a.buildCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	searchURL := cfg.Locator.SearchURL
	if cfg.Locator.DisableSearch {
		searchURL = ""
	}
	var known locate.KnownPages
	if a.db != nil {
		known = a.db
	}
	a.locator = locate.New(locate.Options{
		ValidityThreshold:     cfg.Locator.ValidityThreshold,
		MaxCandidates:         cfg.Locator.MaxCandidates,
		MaxAlternates:         cfg.Locator.MaxAlternates,
		ValidationConcurrency: cfg.Locator.ValidationConcurrency,
		TTL:                   cfg.CacheTTL(),
		Paths:                 cfg.Locator.Paths,
		ATSHosts:              cfg.Locator.ATSHosts,
		SearchURL:             searchURL,
	}, fetcher, orc, cache, known, log)

	if cfg.Renderer.Enabled {
		b, err := render.OpenPlaywright(render.PlaywrightOptions{
			Headless:  cfg.Renderer.Headless,
			UserAgent: cfg.Fetch.UserAgent,
		})
		if err != nil {
			// static-only still covers server-rendered pages and ATS APIs
			log.Warn("[render] browser unavailable; continuing static-only", zap.Error(err))
		} else {
			a.browser = b
		}
	}
	var browser render.Browser
	if a.browser != nil {
		browser = a.browser
	}
	renderer := render.New(render.Options{
		NavigationTimeout:      cfg.NavigationTimeout(),
		KeywordThreshold:       cfg.Renderer.KeywordThreshold,
		SPAMarkerThreshold:     cfg.Renderer.SPAMarkerThreshold,
		ScrollBudget:           cfg.Renderer.ScrollBudget,
		StableIterations:       cfg.Renderer.StableIterations,
		ScrollWait:             cfg.ScrollWait(),
		PayloadSignalThreshold: cfg.Renderer.PayloadSignalThreshold,
		JSHeavyHosts:           cfg.Renderer.JSHeavyHosts,
	}, fetcher, browser, log).WithProbe(ats.New(ats.Options{
		Timeout:      cfg.FetchTimeout(),
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Limiter:      limiter,
		Logger:       log,
	}))

	extractor := extract.Default(extract.Options{
		OracleTextWindow: cfg.Extractor.OracleTextWindow,
		EnableVision:     cfg.Extractor.EnableVision,
	}, orc, log)

	ranker := rank.New(rank.Options{MaxOracleExplanations: cfg.Ranker.MaxOracleExplanations}, orc, log)

	var st pipeline.Store
	if a.db != nil {
		st = a.db
	}
	a.orch = pipeline.New(pipeline.Options{
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		TopN:           cfg.Pipeline.TopN,
	}, pipeline.Stages{
		Locator:   a.locator,
		Renderer:  renderer,
		Extractor: extractor,
		Ranker:    ranker,
	}, st, m, log)

	log.Info("[engine] ready",
		zap.Bool("oracle", orc != nil),
		zap.Bool("browser", a.browser != nil),
		zap.Bool("store", a.db != nil),
		zap.String("cache", cfg.Cache.Backend),
		zap.Strings("strategies", extractor.Strategies()),
	)
	return a, nil
}

// buildOracle returns nil when the oracle is disabled or no key is set up;
// every stage then runs its heuristic path only.
func buildOracle(cfg config.Config, log *zap.Logger) oracle.Client {
	if !cfg.Oracle.Enabled {
		return nil
	}
	key, err := secrets.GetOracleKey(cfg.Oracle.KeyringAccount)
	if err != nil {
		log.Warn("[oracle] disabled", zap.Error(err))
		return nil
	}
	c, err := oracle.New(oracle.Options{
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      key,
		Model:       cfg.Oracle.Model,
		VisionModel: cfg.Oracle.VisionModel,
		Timeout:     cfg.OracleTimeout(),
		ReqPerSec:   cfg.Oracle.ReqPerSec,
		Logger:      log,
	})
	if errors.Is(err, oracle.ErrNoKey) {
		return nil
	}
	if err != nil {
		log.Warn("[oracle] disabled", zap.Error(err))
		return nil
	}
	return c
}

func (a *app) buildCache(ctx context.Context, cfg config.Config) (locate.Cache, error) {
	if cfg.Cache.Backend != "redis" {
		return locate.NewMemoryCache(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Cache.RedisAddr, err)
	}
	a.rdb = rdb
	return locate.NewRedisCache(rdb), nil
}

// scan runs one discovery pass, publishing progress to the event hub.
func (a *app) scan(ctx context.Context, cfg config.Config, batched bool, companies []domain.CompanyTarget, prefs domain.UserPreferences) pipeline.BatchResult {
	progress := a.hub.Progress("batch")
	var res pipeline.BatchResult
	if batched {
		res = a.orch.DiscoverInBatches(ctx, companies, prefs, cfg.Pipeline.BatchSize, cfg.BatchDelay(), progress)
	} else {
		res = a.orch.DiscoverMany(ctx, companies, prefs, cfg.Pipeline.MaxConcurrency, progress)
	}
	a.orch.Flush()

	a.log.Info("[scan] done",
		zap.Int("companies", len(res.Companies)),
		zap.Int("succeeded", res.Succeeded()),
		zap.Int("failures", len(res.Failures)),
		zap.Int("jobs", res.TotalJobs),
		zap.Duration("took", res.Duration),
	)
	for _, f := range res.Failures {
		a.log.Warn("[scan] company failed",
			zap.String("company", f.CompanyName),
			zap.String("step", f.Step),
			zap.String("kind", string(f.Kind)),
			zap.String("error", f.Error),
		)
	}
	return res
}

// pruneHistory drops discovery logs and ranked jobs older than keep.
func (a *app) pruneHistory(ctx context.Context, keep time.Duration) {
	if a.db == nil || keep <= 0 {
		return
	}
	logs, err := a.db.CleanupOldLogs(ctx, keep)
	if err != nil {
		a.log.Warn("[store] log cleanup failed", zap.Error(err))
	}
	jobs, err := a.db.CleanupOldJobs(ctx, keep)
	if err != nil {
		a.log.Warn("[store] job cleanup failed", zap.Error(err))
	}
	if logs > 0 || jobs > 0 {
		a.log.Info("[store] pruned history", zap.Int64("logs", logs), zap.Int64("jobs", jobs))
	}
}

func (a *app) Close() {
	if a.orch != nil {
		a.orch.Flush()
	}
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.log.Warn("[render] browser close", zap.Error(err))
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
