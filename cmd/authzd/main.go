package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/authz/internal/app"
	"github.com/meridian-erp/authz/internal/authz/assignment"
	"github.com/meridian-erp/authz/internal/authz/bootstrap"
	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/decision"
	"github.com/meridian-erp/authz/internal/authz/events"
	"github.com/meridian-erp/authz/internal/authz/guard"
	"github.com/meridian-erp/authz/internal/authz/resolver"
	"github.com/meridian-erp/authz/internal/authz/role"
	"github.com/meridian-erp/authz/internal/observability"
	"github.com/meridian-erp/authz/internal/platform/cache"
	"github.com/meridian-erp/authz/internal/platform/db"
	"github.com/meridian-erp/authz/jobs"
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
		_ = redisClient.Close()
	}()

	cat := catalog.Default()

	roleRepo := role.NewRepository(pool)
	asgRepo := assignment.NewRepository(pool)

	if err := bootstrap.Run(ctx, roleRepo, cat, logger); err != nil {
		logger.Error("bootstrap roles", slog.Any("error", err))
		os.Exit(1)
	}

	decisionCache := decision.NewCache(redisClient, cfg.DecisionCacheTTL)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		_ = jobsClient.Close()
	}()
	publisher := events.Fanout{events.NewRedisPublisher(redisClient), jobsClient}

	roleStore := role.NewStore(roleRepo, cat, asgRepo, publisher, decisionCache, logger)
	res := resolver.New(roleRepo, asgRepo, cat, cfg.DefaultRoleID)
	reconciler := resolver.NewReconciler(res, asgRepo, decisionCache, logger)
	asgService := assignment.NewService(asgRepo, roleRepo, decisionCache, cfg.DefaultRoleID, logger)
	authGuard := guard.New(res, decisionCache, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterConfig{
		Logger:      logger,
		Config:      cfg,
		Metrics:     metrics,
		Catalog:     catalog.NewHandler(cat),
		Roles:       role.NewHandler(logger, roleStore),
		Assignments: assignment.NewHandler(logger, asgService, reconciler),
		Guard:       guard.NewHandler(logger, authGuard, metrics),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("authz service listening", slog.String("addr", cfg.AppAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
