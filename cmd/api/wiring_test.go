package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"readaloud-api/core/extract"
	"readaloud-api/pkg/config"
	"readaloud-api/pkg/featureflags"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *nopLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *nopLogger) Info(msg string, fields map[string]interface{})  {}
func (l *nopLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *nopLogger) Error(msg string, fields map[string]interface{}) {}

func TestComponents_ArticleStoreByType(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	for _, storeType := range []string{"memory", "sqlite", "redis"} {
		t.Run(storeType, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Type = storeType
			cfg.Store.SQLitePath = filepath.Join(dir, storeType+".db")
			cfg.Redis.Address = mr.Addr()

			comps := newComponents(cfg, &nopLogger{})
			defer comps.Close()

			store, err := comps.articleStore(context.Background())
			require.NoError(t, err)

			articles, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, articles)
		})
	}
}

func TestComponents_RedisClientShared(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Type = "redis"
	cfg.Cache.Type = "redis"
	cfg.Redis.Address = mr.Addr()

	comps := newComponents(cfg, &nopLogger{})
	defer comps.Close()

	_, err := comps.articleStore(context.Background())
	require.NoError(t, err)
	_, err = comps.cache()
	require.NoError(t, err)

	assert.Len(t, comps.closers, 1)
}

func TestComponents_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Type = "redis"
	cfg.Redis.Address = "127.0.0.1:1"

	comps := newComponents(cfg, &nopLogger{})
	defer comps.Close()

	_, err := comps.articleStore(context.Background())
	assert.ErrorContains(t, err, "connect to redis")
}

func TestComponents_CacheByType(t *testing.T) {
	dir := t.TempDir()

	for _, cacheType := range []string{"memory", "sqlite"} {
		t.Run(cacheType, func(t *testing.T) {
			cfg := config.Default()
			cfg.Cache.Type = cacheType
			cfg.Cache.SQLitePath = filepath.Join(dir, "cache.db")

			comps := newComponents(cfg, &nopLogger{})
			defer comps.Close()

			cache, err := comps.cache()
			require.NoError(t, err)
			require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), 0))

			got, err := cache.Get(context.Background(), "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), got)
		})
	}
}

func TestComponents_ExtractorTiers(t *testing.T) {
	tests := []struct {
		name        string
		readability bool
		apiKey      string
		want        []string
	}{
		{"unconfigured model", false, "", []string{extract.TierHeuristic, extract.TierModel}},
		{"with model", false, "sk-test", []string{extract.TierHeuristic, extract.TierModel}},
		{"all tiers", true, "sk-test", []string{extract.TierHeuristic, extract.TierReadability, extract.TierModel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LLM.APIKey = tt.apiKey
			flags := featureflags.NewStaticManager(map[featureflags.FeatureFlag]bool{
				featureflags.ReadabilityTier: tt.readability,
			})
			logger := &nopLogger{}

			comps := newComponents(cfg, logger)
			coordinator, err := comps.extractor(context.Background(), flags, nil, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, coordinator.TierNames())
			if tt.apiKey == "" {
				assert.Contains(t, logger.warns, "No language model API key configured, pages failing the quality gate will error")
			}
		})
	}
}

func TestComponents_ExtractorWithoutModelKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""
	flags := featureflags.NewStaticManager(nil)

	comps := newComponents(cfg, &nopLogger{})
	coordinator, err := comps.extractor(context.Background(), flags, nil, nil)
	require.NoError(t, err)

	t.Run("thin page errors", func(t *testing.T) {
		markup := `<html><head><title></title></head><body>only fifty characters of unstructured body text!!</body></html>`

		_, err := coordinator.Extract(context.Background(), markup, "https://example.com/thin")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model extractor not configured")
	})

	t.Run("well structured page completes", func(t *testing.T) {
		body := strings.Repeat("A sentence long enough to pass the gate. ", 10)
		markup := `<html><head><title>Good</title></head><body><article>` + body + `</article></body></html>`

		got, err := coordinator.Extract(context.Background(), markup, "https://example.com/good")

		require.NoError(t, err)
		assert.Equal(t, "Good", got.Title)
		assert.Equal(t, extract.TierHeuristic, got.Tier)
	})
}

func TestComponents_ElevenLabsSynthesizer(t *testing.T) {
	cfg := config.Default()

	comps := newComponents(cfg, &nopLogger{})
	synth, err := comps.synthesizer(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, synth)
	assert.Empty(t, comps.closers)
}
