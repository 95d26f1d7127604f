// Package main is the entry point for the PromptGate server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"promptgate/internal/cache/embedding"
	"promptgate/internal/cache/semantic"
	"promptgate/internal/compress"
	"promptgate/internal/config"
	"promptgate/internal/gateway"
	httpserver "promptgate/internal/http"
	"promptgate/internal/llm"
	"promptgate/internal/resilience"
	"promptgate/internal/storage"
	"promptgate/internal/storage/postgres"
	"promptgate/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogging(cfg.Telemetry.LogFormat, cfg.Telemetry.LogLevel)
	slog.SetDefault(logger)

	slog.Info("Starting PromptGate",
		"version", "0.1.0",
		"http_port", cfg.Server.HTTPPort,
		"cache_backend", cfg.Cache.Backend,
		"compression_level", cfg.Compression.Level,
	)

	metrics := telemetry.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Compression facade over the default transform registry.
	compressor := compress.NewCompressor(compress.NewDefaultRegistry(), compress.Config{
		Enabled:  cfg.Compression.Enabled,
		Level:    cfg.Compression.Level,
		Pipeline: cfg.Compression.Pipeline,
	}, logger)
	compressor.SetMetrics(metrics)

	// Semantic cache backend.
	var cache *semantic.Service
	var recorder gateway.Recorder = storage.NewMemoryRecorder()

	if cfg.Cache.Enabled {
		var store semantic.Store

		switch cfg.Cache.Backend {
		case "postgres":
			db, err := postgres.Open(cfg.Database.GetDSN(), postgres.PoolConfig{
				MaxConns:   cfg.Database.MaxConns,
				MaxIdle:    cfg.Database.MaxIdle,
				ConnMaxAge: cfg.Database.ConnMaxAge,
			})
			if err != nil {
				slog.Error("Failed to connect to PostgreSQL", "error", err)
				os.Exit(1)
			}
			defer db.Close()

			var embedder *embedding.Service
			if cfg.Embedder.Enabled {
				client := embedding.NewOpenAIClient(cfg.Embedder.APIKey, cfg.Embedder.BaseURL, cfg.Embedder.Model)
				embedder = embedding.NewService(client, cfg.Embedder.Model)
				slog.Info("Approximate cache matching enabled", "model", cfg.Embedder.Model)
			}

			repo := semantic.NewRepository(db, embedder, cfg.Cache.SimilarityThreshold, cfg.Cache.TTL)
			if err := repo.EnsureSchema(ctx); err != nil {
				slog.Error("Failed to ensure cache schema", "error", err)
				os.Exit(1)
			}
			store = repo

			pgRecorder := postgres.NewRecorder(db)
			if err := pgRecorder.EnsureSchema(ctx); err != nil {
				slog.Error("Failed to ensure interactions schema", "error", err)
				os.Exit(1)
			}
			recorder = pgRecorder

		default:
			store = semantic.NewMemoryStore(semantic.MemoryStoreConfig{
				Capacity:       cfg.Cache.Capacity,
				TTL:            cfg.Cache.TTL,
				FuzzyThreshold: cfg.Cache.FuzzyThreshold,
			})
		}

		cache = semantic.NewService(store, metrics, logger)
	}

	// Upstream provider.
	var completer llm.Completer
	switch cfg.Providers.Default {
	case "bedrock":
		completer, err = llm.NewBedrockClient(llm.BedrockConfig{
			AccessKeyID:     cfg.Providers.Bedrock.AccessKeyID,
			SecretAccessKey: cfg.Providers.Bedrock.SecretAccessKey,
			Region:          cfg.Providers.Bedrock.Region,
		})
	default:
		completer, err = llm.NewOpenAIClient(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL)
	}
	if err != nil {
		slog.Error("Failed to initialize provider", "provider", cfg.Providers.Default, "error", err)
		os.Exit(1)
	}
	completer = resilience.NewCompleter(completer, resilience.DefaultRetryConfig(), resilience.DefaultCircuitBreakerConfig())

	gw := gateway.NewService(compressor, cache, completer, recorder, metrics, logger, cfg.Compression.UseGzip)

	lister, _ := recorder.(httpserver.InteractionLister)
	server := httpserver.NewServer(gw, cache, lister, metrics, logger, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := server.Start(ctx, cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
