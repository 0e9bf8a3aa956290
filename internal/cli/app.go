package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/newsverdict/internal/artifact"
	"github.com/ppiankov/newsverdict/internal/cache"
	"github.com/ppiankov/newsverdict/internal/extract"
	"github.com/ppiankov/newsverdict/internal/history"
	"github.com/ppiankov/newsverdict/internal/llm"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/news"
	"github.com/ppiankov/newsverdict/internal/pipeline"
	"github.com/ppiankov/newsverdict/internal/telemetry"
	"github.com/ppiankov/newsverdict/internal/util"
	"github.com/ppiankov/newsverdict/internal/worker"
)

// appOptions selects the collaborators a command needs
type appOptions struct {
	News    bool
	History bool
}

// app holds everything a command shares: loaded artifacts, the pipeline
// and its collaborators
type app struct {
	cfg       *model.Config
	log       logging.Logger
	telemetry *telemetry.Provider
	predictor artifact.Predictor
	history   *history.Store
	pipeline  *pipeline.Pipeline
}

// newApp loads configuration and artifacts and wires the pipeline.
// Artifact loading failures are fatal.
func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 1. Logger and telemetry
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, err
	}
	tel := telemetry.NewProvider()

	// 2. Artifacts, loaded once
	predictor, err := artifact.Load(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}
	log.Debug("model artifacts loaded",
		logging.String("backend", cfg.Model.Backend),
		logging.String("dir", cfg.Model.Dir),
		logging.String("store", cfg.Model.Store))

	// 3. Shared HTTP plumbing
	client := util.NewHTTPClient(cfg.HTTP)
	c := newCache(cfg.Cache)

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(client, cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}
	limiter := worker.NewLimiter(cfg.HTTP.RateLimit, 1)

	extractor := extract.NewExtractor(
		extract.NewFetcher(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes),
		extract.Options{
			Robots:   robots,
			Limiter:  limiter,
			Cache:    c,
			CacheTTL: cfg.Cache.DiskTTL,
			Logger:   log,
		})

	a := &app{cfg: cfg, log: log, telemetry: tel, predictor: predictor}
	pipeOpts := pipeline.Options{
		Extractor: extractor,
		Telemetry: tel,
		Logger:    log,
	}

	// 4. News provider
	if opts.News {
		provider, err := news.NewProvider(cfg.News, client, cfg.HTTP.UserAgent, log)
		if err != nil {
			return nil, err
		}
		if cfg.Cache.Enabled {
			provider = news.NewCachedProvider(provider, c, cfg.Cache.MemoryTTL, log)
		}
		pipeOpts.News = provider
	}

	// 5. Optional summarizer
	summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm summarizer: %w", err)
	}
	if summarizer.IsEnabled() {
		log.Info("article summaries enabled", logging.String("provider", summarizer.ProviderName()))
	}
	pipeOpts.Summarizer = summarizer

	// 6. History
	if opts.History && cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = store
		pipeOpts.History = store
	}

	a.pipeline = pipeline.New(predictor, pipeOpts)
	return a, nil
}

func newCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Noop{}
	}
	return cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// ready reports whether the model backend can serve predictions
func (a *app) ready(ctx context.Context) error {
	if h, ok := a.predictor.(interface{ Health(context.Context) error }); ok {
		return h.Health(ctx)
	}
	return nil
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("close history", logging.Err(err))
		}
	}
	_ = a.log.Sync()
}
