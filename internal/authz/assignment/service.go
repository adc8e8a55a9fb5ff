package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/authz/internal/authz/role"
)

// ActorCacheInvalidator drops memoized decisions for one actor.
type ActorCacheInvalidator interface {
	InvalidateActor(ctx context.Context, actorID string) error
}

// Service handles assignment lifecycle. Snapshots are never written
// here; that is the reconciler's job.
type Service struct {
	repo          RepositoryPort
	roles         role.RepositoryPort
	cache         ActorCacheInvalidator
	defaultRoleID string
	logger        *slog.Logger
	now           func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles role.RepositoryPort, cache ActorCacheInvalidator, defaultRoleID string, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		roles:         roles,
		cache:         cache,
		defaultRoleID: defaultRoleID,
		logger:        logger,
		now:           time.Now,
	}
}

// Get fetches the actor's assignment.
func (s *Service) Get(ctx context.Context, actorID string) (Assignment, bool, error) {
	return s.repo.Get(ctx, actorID)
}

// Assign sets the actor's active role, replacing any prior assignment
// and clearing the stale snapshot. The actor's cached decisions are
// dropped before Assign returns.
func (s *Service) Assign(ctx context.Context, actorID, roleID string, expiresAt *time.Time) (Assignment, error) {
	if actorID == "" {
		return Assignment{}, fmt.Errorf("assignment: actor id required")
	}
	if _, found, err := s.roles.Get(ctx, roleID); err != nil {
		return Assignment{}, err
	} else if !found {
		return Assignment{}, fmt.Errorf("%w: %s", role.ErrNotFound, roleID)
	}
	a := Assignment{
		ActorID:    actorID,
		RoleID:     roleID,
		AssignedAt: s.now().UTC(),
		ExpiresAt:  expiresAt,
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return Assignment{}, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateActor(ctx, actorID); err != nil {
			return Assignment{}, fmt.Errorf("assignment: invalidate actor cache: %w", err)
		}
	}
	return a, nil
}

// EnsureActor creates a default-role assignment for a previously
// unknown actor. Called on first successful authentication; a no-op
// when an assignment already exists, expired or not.
func (s *Service) EnsureActor(ctx context.Context, actorID string) (Assignment, error) {
	a, found, err := s.repo.Get(ctx, actorID)
	if err != nil {
		return Assignment{}, err
	}
	if found {
		return a, nil
	}
	if s.logger != nil {
		s.logger.Info("seeding default assignment", slog.String("actor", actorID), slog.String("role", s.defaultRoleID))
	}
	return s.Assign(ctx, actorID, s.defaultRoleID, nil)
}

// Revoke removes the actor's assignment; the actor falls back to the
// default role on the next resolution.
func (s *Service) Revoke(ctx context.Context, actorID string) error {
	if err := s.repo.Delete(ctx, actorID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateActor(ctx, actorID); err != nil {
			return fmt.Errorf("assignment: invalidate actor cache: %w", err)
		}
	}
	return nil
}
