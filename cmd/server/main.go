package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kerem-gursoy/uup/internal/config"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/repository"
	"github.com/kerem-gursoy/uup/internal/router"
	"github.com/kerem-gursoy/uup/internal/worker"
)

// @title                      Inventory API
// @version                    1.0
// @description                Suppliers, products, price and stock ledgers, and supplier invoice ingestion.
// @BasePath                   /
// @securityDefinitions.apikey CookieAuth
// @in                         cookie
// @name                       token
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the summary cache, the apply lock and the job queue. The API
	// keeps working without it.
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache, lock and workers")
		rdb = nil
	}

	files, err := infra.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	gemini, err := infra.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractionMaxDimension)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create extraction client")
	}
	cbCfg := infra.DefaultCBConfig("extraction")
	cbCfg.IsFailure = infra.IsExtractionFailure
	breaker := infra.NewCircuitBreaker(cbCfg)

	deps := router.Deps{
		DB:        db,
		Redis:     rdb,
		Files:     files,
		Extractor: infra.NewGuardedExtractor(gemini, breaker, cfg.ExtractionTimeout),
		Breaker:   breaker,
	}

	// Worker handlers are wired here so the pool shares the process's
	// infrastructure.
	var pool *worker.Pool
	if rdb != nil {
		deps.Thumbnails = worker.NewDispatcher(rdb)
		pool = worker.NewPool(rdb)
		pool.Handle(worker.QueueThumbnails, worker.JobInvoiceThumbnail,
			worker.NewThumbnailWorker(repository.NewInvoiceRepository(db), files))
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	r, err := router.New(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Parsing waits on the extraction service.
	if srv.WriteTimeout < cfg.ExtractionTimeout+10*time.Second {
		srv.WriteTimeout = cfg.ExtractionTimeout + 10*time.Second
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("inventory backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
