// ABOUTME: Main entry point for the Read Aloud API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"readaloud-api/api"
	"readaloud-api/api/middleware"
	"readaloud-api/core/articles"
	"readaloud-api/core/interfaces"
	"readaloud-api/core/workers"
	"readaloud-api/infrastructure/blob"
	stdhttp "readaloud-api/infrastructure/http/standard"
	logruslogger "readaloud-api/infrastructure/logger/logrus"
	"readaloud-api/infrastructure/metrics"
	"readaloud-api/pkg/config"
	"readaloud-api/pkg/featureflags"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logruslogger.New(logruslogger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	flags := featureflags.NewEnvManager("FEATURE_")

	logger.Info("Starting Read Aloud API", map[string]interface{}{
		"port":            cfg.Server.Port,
		"store_type":      cfg.Store.Type,
		"cache_type":      cfg.Cache.Type,
		"speech_provider": cfg.Speech.Provider,
		"flags":           flags.GetAllFlags(),
	})

	if err := run(cfg, logger, flags); err != nil {
		logger.Error("Server exited with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	logger.Info("Server stopped", nil)
}

func run(cfg *config.Config, logger *logruslogger.Logger, flags featureflags.Manager) error {
	ctx := context.Background()

	comps := newComponents(cfg, logger)
	defer comps.Close()

	store, err := comps.articleStore(ctx)
	if err != nil {
		return err
	}
	cache, err := comps.cache()
	if err != nil {
		return err
	}

	var pipelineMetrics interfaces.PipelineMetrics = interfaces.NopMetrics{}
	var promMetrics *metrics.Pipeline
	if flags.IsEnabled(ctx, featureflags.MetricsEnabled) {
		promMetrics = metrics.NewPipeline()
		pipelineMetrics = promMetrics
	}

	deps := interfaces.Dependencies{
		Articles: store,
		Blobs:    blob.NewCacheBlobStore(cache, cfg.Server.PublicBaseURL),
		Fetcher: stdhttp.NewStandardHTTPClient(stdhttp.Options{
			Timeout:  cfg.Pipeline.FetchTimeout,
			Attempts: cfg.Pipeline.FetchAttempts,
		}),
		Logger:  logger,
		Metrics: pipelineMetrics,
	}

	extractor, err := comps.extractor(ctx, flags, cache, pipelineMetrics)
	if err != nil {
		return err
	}
	logger.Info("Extraction tiers configured", map[string]interface{}{
		"tiers": extractor.TierNames(),
	})

	synthesizer, err := comps.synthesizer(ctx)
	if err != nil {
		return err
	}

	orchestrator := articles.NewOrchestrator(deps, extractor, synthesizer, articles.Timeouts{
		Fetch:      cfg.Pipeline.FetchTimeout,
		Extract:    cfg.Pipeline.ExtractTimeout,
		Synthesize: cfg.Pipeline.SynthesizeTimeout,
		Store:      cfg.Pipeline.StoreTimeout,
	})
	scheduler := workers.NewRunScheduler(
		func(ctx context.Context, id string, attempt int) {
			orchestrator.Run(ctx, id, attempt)
		},
		workers.SchedulerConfig{MaxConcurrentRuns: cfg.Pipeline.MaxConcurrentRuns},
		logger.With(map[string]interface{}{"component": "scheduler"}),
	)
	service := articles.NewService(deps, scheduler)

	apiConfig := api.APIConfig{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if promMetrics != nil {
		apiConfig.Observer = promMetrics
		apiConfig.MetricsHandler = promMetrics.Handler()
	}
	if flags.IsEnabled(ctx, featureflags.RateLimitEnabled) && cfg.Server.RateLimitPerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)
		defer limiter.Stop()
		apiConfig.RateLimiter = limiter
	}

	humaAPI, router := api.NewAPI(apiConfig)
	api.RegisterRoutes(humaAPI, service)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveFailure := waitForStop(serveErr, quit, logger)
	shutdown(cfg.Server.ShutdownTimeout, srv, scheduler, logger)
	return serveFailure
}

// waitForStop blocks until a shutdown signal arrives or the server fails, and
// returns the server failure if there was one
func waitForStop(serveErr <-chan error, quit <-chan os.Signal, logger interfaces.Logger) error {
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed, shutting down", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return err
	case sig := <-quit:
		logger.Info("Shutting down server...", map[string]interface{}{
			"signal": sig.String(),
		})
		return nil
	}
}

// shutdown runs on every exit path so in-flight runs are drained or recorded
func shutdown(timeout time.Duration, srv *http.Server, scheduler *workers.RunScheduler, logger interfaces.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop taking requests first so no new runs get scheduled
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := scheduler.Stop(ctx); err != nil {
		logger.Warn("In-flight runs cancelled at shutdown", map[string]interface{}{
			"in_flight": scheduler.InFlight(),
			"error":     err.Error(),
		})
	}
}
