package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/incident_triage/backend/internal/ai"
	"github.com/incident_triage/backend/internal/config"
	"github.com/incident_triage/backend/internal/db"
	httpapi "github.com/incident_triage/backend/internal/http"
	"github.com/incident_triage/backend/internal/http/handlers"
	"github.com/incident_triage/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "triage-server").Logger()

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

	llmCfg := ai.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	}
	llm, err := ai.New(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure llm")
	}
	defer func() {
		if err := ai.Close(llm); err != nil {
			logger.Warn().Err(err).Msg("close llm client")
		}
	}()
	if ai.Enabled(llm) {
		logger.Info().Str("provider", cfg.LLMProvider).Str("model", llmCfg.ResolvedModel()).Msg("llm triage enabled")
	} else {
		logger.Info().Msg("no LLM API key set, using summary triage")
	}

	h := &handlers.Handler{
		Store:       store,
		Query:       &service.QueryService{Store: store, Logger: logger},
		Triager:     &service.TriageService{LLM: llm, Logger: logger},
		Validator:   validator.New(),
		Logger:      logger,
		LLMTimeout:  cfg.LLMTimeout,
		FrontendDir: httpapi.FrontendDir(cfg.StaticDir),
	}
	srv := &http.Server{
		Addr:              ":" + cfg.TriagePort,
		Handler:           httpapi.TriageRouter(cfg, h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.TriagePort).Str("store", cfg.StoreBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
