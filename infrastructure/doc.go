// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package. These implementations handle external concerns
// such as storage, caching, HTTP communication, providers and logging.
//
// The infrastructure package is organized by technical concern:
//
// - store/memory, store/sqlite, store/redis, store/postgres: Article record stores
// - store/storetest: Conformance suite every store runs
// - cache/memory, cache/sqlite, cache/redis: Byte caches for audio and model responses
// - blob: Audio blob store on top of a cache
// - http/standard: Page fetcher with retries and charset decoding
// - llm: OpenAI chat client for model-based extraction
// - tts/elevenlabs, tts/google: Speech synthesis providers
// - logger/logrus: Structured logger
// - metrics: Prometheus collectors
//
// # Design Philosophy
//
// Infrastructure components are designed to be:
// - Pluggable: Easy to swap implementations
// - Configurable: Accept configuration objects
// - Testable: Include both unit and integration tests
// - Production-ready: Include retries, timeouts, and error handling
//
// # Stores
//
// Every store fences run writes on the article's attempt number, so a run
// that was superseded by a retry gets errors.ErrStaleRun instead of
// overwriting the newer attempt:
//
//	store, err := sqlite.NewStore("readaloud.db")
//	err = store.MarkCompleted(ctx, id, attempt, audioRef)
//
// # Caches
//
//	cache := memory.NewMemoryCache()
//	err := cache.Set(ctx, "key", []byte("value"), time.Hour)
//	value, err := cache.Get(ctx, "key")
//
// # Logger
//
//	logger := logrus.New(logrus.Options{Level: "info", Format: "json"})
//	logger.Info("Run completed", map[string]interface{}{"article_id": id})
package infrastructure
