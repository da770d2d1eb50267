// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain/ports/adapter"
	pg "batch-transcriber/internal/infra/db/postgres"
	"batch-transcriber/internal/infra/discovery"
	"batch-transcriber/internal/infra/logging"
	"batch-transcriber/internal/infra/metrics"
	"batch-transcriber/internal/infra/queue"
	red "batch-transcriber/internal/infra/redis"
	"batch-transcriber/internal/infra/sched"
	"batch-transcriber/internal/infra/web"
	"batch-transcriber/internal/infra/worker"
	"batch-transcriber/internal/usecase"

	storageAdapter "batch-transcriber/internal/infra/adapters/storage"
	transcriptionAdapter "batch-transcriber/internal/infra/adapters/transcription"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)
	batchRepo := pg.NewBatchRepo(pool)
	recordRepo := pg.NewTranscriptionRepo(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	jobQueue := queue.NewRedisQueue(redisClient.Raw())
	progressCache := red.NewComputeCache(redisClient, "progress")

	// ---- Object storage (optional) ----
	var lister adapter.ObjectLister
	if cfg.Storage.Endpoint != "" {
		lister, err = storageAdapter.NewMinioLister(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("object storage")
		}
	}

	// ---- Discovery + transcription client ----
	validator := discovery.NewValidator()
	discoverer := discovery.NewDiscoverer(lister, logger)
	svc := transcriptionAdapter.NewHTTPClient(cfg.Transcription)

	// ---- Use cases ----
	dispatchUC := usecase.NewDispatchUseCase(batchRepo, recordRepo, jobQueue, discoverer, usecase.DispatchConfig{
		Lanes:      cfg.Pipeline.Lanes,
		JobTimeout: cfg.Pipeline.JobTimeout,
		ResultTTL:  cfg.Pipeline.ResultTTL,
		FailureTTL: cfg.Pipeline.FailureTTL,
	}, logger)
	progressUC := usecase.NewProgressUseCase(batchRepo, recordRepo, jobQueue, progressCache, cfg.Pipeline.ProgressTTL, logger)
	batchUC := usecase.NewBatchUseCase(batchRepo, recordRepo, validator, dispatchUC, progressUC, tm, logger)

	// ---- Worker pool ----
	pool2 := worker.NewPool(cfg.Pipeline.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	processor := worker.NewProcessor(jobQueue, recordRepo, svc, worker.PollPolicy{
		Interval: cfg.Transcription.PollInterval,
		MaxWait:  cfg.Transcription.MaxWait,
		Intake:   cfg.Pipeline.IntakeInterval,
	}, logger)
	go processor.Start(ctx, pool2)

	// ---- Reaper for crashed-worker jobs ----
	reaper := sched.NewReaper(time.Minute, jobQueue, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- Operator API ----
	srv := web.NewServer(batchUC, dispatchUC, progressUC, web.Health{
		Store:   func(ctx context.Context) error { return pool.Ping(ctx) },
		Queue:   jobQueue.Ping,
		Service: svc.Health,
	}, cfg.Admin.APIKey, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("operator API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = server.Shutdown(shutdownCtx)
}
