package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"mediarelay/internal/approval"
	"mediarelay/internal/cache"
	"mediarelay/internal/config"
	"mediarelay/internal/database"
	"mediarelay/internal/handlers"
	"mediarelay/internal/intake"
	"mediarelay/internal/jobs"
	"mediarelay/internal/log"
	"mediarelay/internal/pending"
	"mediarelay/internal/repository"
	"mediarelay/internal/server"
	"mediarelay/internal/storage"
	"mediarelay/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	uploads := repository.NewUploadRepository(dbPool)
	if err := uploads.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	registry := pending.NewRegistry()
	dedup := cache.NewDedup(redisClient, cfg.Intake.DedupTTL, logger)
	filter := intake.NewFilter(cfg.Intake, dedup, logger)

	api, err := telegram.Connect(cfg.Telegram)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect telegram")
	}

	machine := approval.NewMachine(
		registry,
		telegram.NewFeed(api),
		objectStore,
		uploads,
		cfg.Telegram.ReviewerID,
		cfg.Review.SessionTimeout,
		logger,
	)

	bot := telegram.New(api, cfg.Telegram, registry, filter, machine, uploads, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, registry, uploads, dbPool, redisClient, objectStore)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if cfg.Digest.Enabled {
		scheduler = jobs.NewScheduler(cfg.Digest.Schedule, uploads, registry, bot, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	logger.Info().
		Str("bot", bot.Username()).
		Int64("channel_id", cfg.Telegram.ChannelID).
		Int64("reviewer_id", cfg.Telegram.ReviewerID).
		Str("bucket", cfg.Storage.Bucket).
		Msg("mediarelay starting")

	if err := bot.NotifyReviewer(fmt.Sprintf(
		"✅ <b>Bot started</b>\n\n🤖 @%s\n🪣 Bucket: <code>%s</code>",
		bot.Username(), cfg.Storage.Bucket,
	)); err != nil {
		logger.Warn().Err(err).Msg("startup notification failed")
	}

	go func() {
		if err := bot.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("bot stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
