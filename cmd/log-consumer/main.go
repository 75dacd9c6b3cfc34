package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/incident_triage/backend/internal/broker"
	"github.com/incident_triage/backend/internal/config"
	"github.com/incident_triage/backend/internal/db"
	httpapi "github.com/incident_triage/backend/internal/http"
	"github.com/incident_triage/backend/internal/http/handlers"
	"github.com/incident_triage/backend/internal/ingest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "log-consumer").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, db.OpenConfig{
		Backend:      cfg.StoreBackend,
		QdrantURL:    cfg.QdrantURL(),
		QdrantAPIKey: cfg.QdrantAPIKey,
		DatabaseURL:  cfg.DatabaseURL,
		Collection:   cfg.QdrantCollection,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("store not ready, collection will be created on first write")
	}

	pipeline := ingest.New(store, cfg.IngestBatchSize, cfg.IngestFlushTimeout, logger)

	var wg sync.WaitGroup
	if cfg.RabbitMQEnabled {
		dial := broker.RabbitMQDialer(broker.RabbitMQConfig{
			URL:      cfg.RabbitMQURL(),
			Queue:    cfg.RabbitMQQueueName,
			Prefetch: cfg.RabbitMQPrefetchCount,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info().Str("queue", cfg.RabbitMQQueueName).Msg("rabbitmq consumer started")
			_ = pipeline.Run(ctx, dial, cfg.RabbitMQReconnectDelay)
			logger.Info().Msg("rabbitmq consumer stopped")
		}()
	}

	h := &handlers.Handler{
		Store:     store,
		Pipeline:  pipeline,
		Validator: validator.New(),
		Logger:    logger,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpapi.IngestRouter(cfg, h, logger),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	wg.Wait()
	logger.Info().Msg("server stopped")
}
