package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/authz/internal/authz/role"
	"github.com/meridian-erp/authz/internal/authz/resolver"
	"github.com/meridian-erp/authz/internal/observability"
)

// RoleLister enumerates roles for the sweep task.
type RoleLister interface {
	List(ctx context.Context) ([]role.Role, error)
}

// NewRoleReconcileHandler returns the handler for TaskRoleReconcile.
func NewRoleReconcileHandler(rec *resolver.Reconciler, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RoleReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		changed, err := rec.ReconcileRole(ctx, payload.RoleID)
		metrics.RecordReconcile(changed > 0, err)
		if err != nil {
			logger.Error("role reconcile job", slog.String("role", payload.RoleID), slog.Any("error", err))
			return err
		}
		logger.Info("role reconcile job done", slog.String("role", payload.RoleID), slog.Int("repaired", changed))
		return nil
	}
}

// NewReconcileSweepHandler returns the handler for TaskReconcileSweep.
// The sweep re-reconciles every role, catching actors whose snapshots
// drifted while no RoleChanged event was observed (expired
// assignments, restored backups).
func NewReconcileSweepHandler(roles RoleLister, rec *resolver.Reconciler, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		all, err := roles.List(ctx)
		if err != nil {
			return err
		}
		total := 0
		for _, rl := range all {
			changed, err := rec.ReconcileRole(ctx, rl.ID)
			metrics.RecordReconcile(changed > 0, err)
			if err != nil {
				logger.Error("reconcile sweep", slog.String("role", rl.ID), slog.Any("error", err))
				return err
			}
			total += changed
		}
		logger.Info("reconcile sweep done", slog.Int("roles", len(all)), slog.Int("repaired", total))
		return nil
	}
}
