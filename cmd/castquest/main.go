package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/castquest/castquest/internal/app"
	"github.com/castquest/castquest/internal/auth"
	"github.com/castquest/castquest/internal/dao"
	"github.com/castquest/castquest/internal/frames"
	"github.com/castquest/castquest/internal/media"
	"github.com/castquest/castquest/internal/mints"
	"github.com/castquest/castquest/internal/observability"
	"github.com/castquest/castquest/internal/platform/cache"
	"github.com/castquest/castquest/internal/platform/db"
	"github.com/castquest/castquest/internal/quests"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
	"github.com/castquest/castquest/internal/workers"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "castquest_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	registry := rbac.NewRegistry()
	rbacMiddleware := rbac.Middleware{Registry: registry, Logger: logger}
	auditLogger := shared.NewAuditLogger(dbpool)
	permissionsHandler := rbac.NewHandler(logger, registry, auditLogger, rbacMiddleware)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, registry, cfg.BootstrapAdminEmail)
	if cfg.BootstrapAdminEmail == "" {
		logger.Warn("BOOTSTRAP_ADMIN_EMAIL not set, no account will receive the super admin role")
	}

	framesRepo := frames.NewRepository(dbpool)
	framesCache := frames.NewRenderCache(redisClient, cfg.FrameRenderTTL)
	framesService := frames.NewService(framesRepo, framesCache)
	framesHandler := frames.NewHandler(logger, framesService, rbacMiddleware)

	questsRepo := quests.NewRepository(dbpool)
	questsService := quests.NewService(questsRepo, logger)
	questsHandler := quests.NewHandler(logger, questsService, rbacMiddleware)

	mintsRepo := mints.NewRepository(dbpool)
	mintsService := mints.NewService(mintsRepo, questsService, logger, cfg.MintSettleGrace)
	mintsHandler := mints.NewHandler(logger, mintsService, rbacMiddleware)

	mediaService := media.NewService(media.NewRepository(dbpool))
	mediaHandler := media.NewHandler(logger, mediaService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	workersHandler := workers.NewHandler(logger, inspector, rbacMiddleware)

	daoClient := dao.NewClient(cfg.DAONodeURL, cfg.DAOContract, cfg.DAOChainID)
	daoHandler := dao.NewHandler(logger, daoClient, rbacMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		FramesHandler:      framesHandler,
		QuestsHandler:      questsHandler,
		MintsHandler:       mintsHandler,
		MediaHandler:       mediaHandler,
		WorkersHandler:     workersHandler,
		DAOHandler:         daoHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
