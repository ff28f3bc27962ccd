package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/castquest/castquest/internal/app"
	"github.com/castquest/castquest/internal/frames"
	jobmetrics "github.com/castquest/castquest/internal/jobs"
	"github.com/castquest/castquest/internal/mints"
	"github.com/castquest/castquest/internal/platform/cache"
	"github.com/castquest/castquest/internal/platform/db"
	"github.com/castquest/castquest/internal/quests"
	"github.com/castquest/castquest/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	questsService := quests.NewService(quests.NewRepository(pool), logger)
	expiryJob := jobs.NewQuestExpiryJob(questsService, logger, metrics)

	framesCache := frames.NewRenderCache(redisClient, cfg.FrameRenderTTL)
	framesService := frames.NewService(frames.NewRepository(pool), framesCache)
	warmupJob := jobs.NewFrameWarmupJob(framesService, logger, metrics)

	mintsService := mints.NewService(mints.NewRepository(pool), questsService, logger, cfg.MintSettleGrace)
	sweepJob := jobs.NewMintSweepJob(mintsService, logger, metrics)

	expiryTask, err := jobs.NewQuestExpiryScanTask(time.Now())
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewFrameRenderWarmupTask(jobs.FrameWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewMintSweepTask(time.Now())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuestExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskFrameRenderWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskMintSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/10 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/5 * * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
