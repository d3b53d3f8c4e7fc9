// ABOUTME: Component construction for the API server
// ABOUTME: Builds stores, caches, extractors and speech providers from configuration

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"readaloud-api/core/extract"
	"readaloud-api/core/interfaces"
	"readaloud-api/core/speech"
	"readaloud-api/infrastructure/cache/memory"
	rediscache "readaloud-api/infrastructure/cache/redis"
	sqlitecache "readaloud-api/infrastructure/cache/sqlite"
	"readaloud-api/infrastructure/llm"
	memorystore "readaloud-api/infrastructure/store/memory"
	"readaloud-api/infrastructure/store/postgres"
	redisstore "readaloud-api/infrastructure/store/redis"
	sqlitestore "readaloud-api/infrastructure/store/sqlite"
	"readaloud-api/infrastructure/tts/elevenlabs"
	"readaloud-api/infrastructure/tts/google"
	"readaloud-api/pkg/config"
	"readaloud-api/pkg/featureflags"

	"github.com/redis/go-redis/v9"
)

// components owns everything that needs closing on shutdown
type components struct {
	cfg    *config.Config
	logger interfaces.Logger

	redis   *redis.Client
	closers []io.Closer
}

func newComponents(cfg *config.Config, logger interfaces.Logger) *components {
	return &components{cfg: cfg, logger: logger}
}

// redisClient dials once and is shared by the redis store and cache
func (c *components) redisClient() (*redis.Client, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	client, err := rediscache.NewClient(c.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", c.cfg.Redis.Address, err)
	}
	c.redis = client
	c.closers = append(c.closers, client)
	return client, nil
}

func (c *components) articleStore(ctx context.Context) (interfaces.ArticleStore, error) {
	switch c.cfg.Store.Type {
	case "sqlite":
		store, err := sqlitestore.NewStore(c.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store)
		return store, nil

	case "redis":
		client, err := c.redisClient()
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, c.cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, closerFunc(func() error {
			pool.Close()
			return nil
		}))
		store := postgres.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return memorystore.NewStore(), nil
	}
}

func (c *components) cache() (interfaces.Cache, error) {
	switch c.cfg.Cache.Type {
	case "sqlite":
		cache, err := sqlitecache.NewSQLiteCacheWithLogger(c.cfg.Cache.SQLitePath, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, cache)
		return cache, nil

	case "redis":
		client, err := c.redisClient()
		if err != nil {
			return nil, err
		}
		return rediscache.NewRedisCacheWithClient(client), nil

	default:
		return memory.NewMemoryCache(), nil
	}
}

// extractor builds the tier chain: heuristic, then readability when the
// flag is on, then the model. Without an API key the model tier stays in
// the chain unconfigured, so pages that fail the quality gate end in error
// rather than completing with thin content.
func (c *components) extractor(ctx context.Context, flags featureflags.Manager, cache interfaces.Cache, metrics interfaces.PipelineMetrics) (*extract.Coordinator, error) {
	tiers := []extract.Tier{{Name: extract.TierHeuristic, Extractor: extract.HeuristicExtractor{}}}

	if flags.IsEnabled(ctx, featureflags.ReadabilityTier) {
		tiers = append(tiers, extract.Tier{Name: extract.TierReadability, Extractor: extract.ReadabilityExtractor{}})
	}

	modelCfg := extract.ModelConfig{
		Model:         c.cfg.LLM.Model,
		MaxInputChars: c.cfg.LLM.MaxInputChars,
	}
	var client extract.ChatClient
	var modelCache interfaces.Cache

	if c.cfg.LLM.APIKey != "" {
		openaiClient, err := llm.NewClient(llm.Config{
			APIKey:  c.cfg.LLM.APIKey,
			BaseURL: c.cfg.LLM.BaseURL,
			Timeout: c.cfg.LLM.Timeout,
		})
		if err != nil {
			return nil, err
		}
		client = openaiClient

		if flags.IsEnabled(ctx, featureflags.ModelCacheEnabled) {
			modelCache = cache
			modelCfg.CacheTTL = c.cfg.LLM.CacheTTL
		}
	} else {
		c.logger.Warn("No language model API key configured, pages failing the quality gate will error", nil)
	}

	tiers = append(tiers, extract.Tier{
		Name:      extract.TierModel,
		Extractor: extract.NewModelExtractor(client, modelCfg, modelCache, c.logger),
	})

	return extract.NewCoordinator(c.logger, metrics, tiers...), nil
}

func (c *components) synthesizer(ctx context.Context) (*speech.Synthesizer, error) {
	voice := speech.Voice{
		VoiceID:         c.cfg.Speech.VoiceID,
		ModelID:         c.cfg.Speech.ModelID,
		Stability:       c.cfg.Speech.Stability,
		SimilarityBoost: c.cfg.Speech.SimilarityBoost,
	}

	var provider speech.Provider
	switch c.cfg.Speech.Provider {
	case "google":
		p, err := google.NewProvider(ctx, c.cfg.Speech.ChunkSize)
		if err != nil {
			return nil, fmt.Errorf("create google speech client: %w", err)
		}
		c.closers = append(c.closers, p)
		provider = p
	default:
		provider = elevenlabs.NewProvider(c.cfg.Speech.APIKey, c.cfg.Speech.BaseURL, c.cfg.Pipeline.SynthesizeTimeout+10*time.Second)
	}

	return speech.NewSynthesizer(provider, voice, c.logger), nil
}

// Close releases resources in reverse order of acquisition
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Warn("Failed to close component", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	c.closers = nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
