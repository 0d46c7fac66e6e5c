package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"librarybot/internal/app"
	"librarybot/internal/config"
	"librarybot/internal/ratelimit"
	"librarybot/internal/scheduler"
	"librarybot/internal/telegram"
	"librarybot/internal/util"
	"librarybot/pkg/store"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	fileStore, err := store.NewFileStore(cfg.StoragePath)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}

	var limiter app.SubmissionLimiter
	if cfg.MaxSubmissionsPerDay > 0 {
		limiter, err = ratelimit.NewSubmissionLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "librarybot:submissions",
			cfg.MaxSubmissionsPerDay, 24*time.Hour,
		)
		if err != nil {
			log.Fatalf("failed to init submission limiter: %v", err)
		}
	}

	engine, err := app.New(app.Config{
		Store:   fileStore,
		Admins:  cfg.AdminIDs,
		Limiter: limiter,
	})
	if err != nil {
		log.Fatalf("failed to init engine: %v", err)
	}

	bot, err := telegram.New(telegram.Config{
		Token:             cfg.BotToken,
		ChannelID:         cfg.ChannelID,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	}, engine)
	if err != nil {
		log.Fatalf("failed to init telegram bot: %v", err)
	}

	jobs, err := scheduler.New(scheduler.Config{
		App:                  engine,
		BackupIntervalHours:  cfg.BackupIntervalHours,
		CleanupRetentionDays: cfg.CleanupRetentionDays,
	})
	if err != nil {
		log.Fatalf("failed to init scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs.Start()
	defer jobs.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped: %v", err)
	}
	slog.Info("shutdown_complete")
}
