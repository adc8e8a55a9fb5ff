package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/authz/internal/app"
	"github.com/meridian-erp/authz/internal/authz/assignment"
	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/decision"
	"github.com/meridian-erp/authz/internal/authz/events"
	"github.com/meridian-erp/authz/internal/authz/resolver"
	"github.com/meridian-erp/authz/internal/authz/role"
	"github.com/meridian-erp/authz/internal/observability"
	"github.com/meridian-erp/authz/internal/platform/cache"
	"github.com/meridian-erp/authz/internal/platform/db"
	"github.com/meridian-erp/authz/jobs"
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
		_ = redisClient.Close()
	}()

	cat := catalog.Default()
	roleRepo := role.NewRepository(pool)
	asgRepo := assignment.NewRepository(pool)

	decisionCache := decision.NewCache(redisClient, cfg.DecisionCacheTTL)
	res := resolver.New(roleRepo, asgRepo, cat, cfg.DefaultRoleID)
	reconciler := resolver.NewReconciler(res, asgRepo, decisionCache, logger)

	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRoleReconcile, Handler: jobs.NewRoleReconcileHandler(reconciler, metrics, logger)},
			{Type: jobs.TaskReconcileSweep, Handler: jobs.NewReconcileSweepHandler(roleRepo, reconciler, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewReconcileSweepTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	// The pub/sub subscription is the fast path: a RoleChanged edit is
	// repaired as soon as it is observed, ahead of the queued job.
	subscriber := events.NewRedisSubscriber(redisClient, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		return subscriber.Run(ctx, func(ctx context.Context, ev events.RoleChanged) {
			changed, err := reconciler.ReconcileRole(ctx, ev.RoleID)
			metrics.RecordReconcile(changed > 0, err)
			if err != nil {
				logger.Error("reconcile on role changed", slog.String("role", ev.RoleID), slog.Any("error", err))
				return
			}
			logger.Info("reconciled role on event", slog.String("role", ev.RoleID), slog.Int("repaired", changed))
		})
	})

	logger.Info("authz worker started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
