package resolver

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/authz/internal/authz/assignment"
)

// reconcileConcurrency bounds the fan-out of a role-wide repair pass.
const reconcileConcurrency = 8

// Reconciler detects drift between an actor's stored permission
// snapshot and the canonical role definition and overwrites the
// snapshot with the recomputed set. The whole set is written at once,
// so an interrupted pass leaves the snapshot fully old or fully new,
// and repeating a pass is a no-op.
type Reconciler struct {
	resolver    *Resolver
	assignments assignment.RepositoryPort
	cache       assignment.ActorCacheInvalidator
	logger      *slog.Logger
}

// NewReconciler constructs a Reconciler. The cache may be nil for
// embedders without a decision cache.
func NewReconciler(res *Resolver, assignments assignment.RepositoryPort, cache assignment.ActorCacheInvalidator, logger *slog.Logger) *Reconciler {
	return &Reconciler{resolver: res, assignments: assignments, cache: cache, logger: logger}
}

// Reconcile repairs one actor's snapshot. It reports whether a write
// occurred; false means the snapshot already matched the canonical
// set. Actors without a stored assignment have nothing to repair.
func (r *Reconciler) Reconcile(ctx context.Context, actorID string) (bool, error) {
	asg, found, err := r.assignments.Get(ctx, actorID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	canonical, err := r.resolver.Resolve(ctx, actorID)
	if err != nil {
		return false, err
	}
	if snapshot := asg.SnapshotSet(); snapshot != nil && snapshot.Equal(canonical) {
		return false, nil
	}

	asg.PermissionSnapshot = canonical.Slice()
	if err := r.assignments.Save(ctx, asg); err != nil {
		return false, err
	}
	if r.cache != nil {
		if err := r.cache.InvalidateActor(ctx, actorID); err != nil {
			return true, err
		}
	}
	if r.logger != nil {
		r.logger.Info("reconciled permission snapshot",
			slog.String("actor", actorID),
			slog.String("role", asg.RoleID),
			slog.Int("permissions", len(asg.PermissionSnapshot)))
	}
	return true, nil
}

// ReconcileRole repairs every actor currently assigned the role,
// fanning out with bounded concurrency. Individual passes are
// independent; the first failure cancels the remainder. Returns how
// many snapshots changed.
func (r *Reconciler) ReconcileRole(ctx context.Context, roleID string) (int, error) {
	assignments, err := r.assignments.ListByRole(ctx, roleID)
	if err != nil {
		return 0, err
	}

	changed := make([]bool, len(assignments))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, asg := range assignments {
		g.Go(func() error {
			ch, err := r.Reconcile(ctx, asg.ActorID)
			if err != nil {
				return err
			}
			changed[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, ch := range changed {
		if ch {
			total++
		}
	}
	return total, nil
}
