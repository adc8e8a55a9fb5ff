package role

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/events"
)

// AssignmentDirectory is the slice of the assignment store the role
// store needs for delete protection and reassignment.
type AssignmentDirectory interface {
	CountByRole(ctx context.Context, roleID string) (int, error)
	ReassignRole(ctx context.Context, fromRoleID, toRoleID string) error
}

// CacheInvalidator drops memoized decisions for a role's actors.
type CacheInvalidator interface {
	InvalidateRole(ctx context.Context, roleID string) error
}

// Store owns canonical role definitions. Every successful mutation
// follows the same ordering: persist, emit RoleChanged, invalidate the
// decision cache, and only then return to the caller. Snapshot
// reconciliation happens later and lazily.
type Store struct {
	repo        RepositoryPort
	catalog     *catalog.Catalog
	assignments AssignmentDirectory
	publisher   events.Publisher
	cache       CacheInvalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewStore constructs a Store. Publisher and cache may be nil for
// read-only embedders; mutations then skip the corresponding step.
func NewStore(repo RepositoryPort, cat *catalog.Catalog, assignments AssignmentDirectory, publisher events.Publisher, cache CacheInvalidator, logger *slog.Logger) *Store {
	return &Store{
		repo:        repo,
		catalog:     cat,
		assignments: assignments,
		publisher:   publisher,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Get fetches a role by id.
func (s *Store) Get(ctx context.Context, id string) (Role, bool, error) {
	return s.repo.Get(ctx, id)
}

// GetByLevel fetches the role holding the given rank, if any.
func (s *Store) GetByLevel(ctx context.Context, level int) (Role, bool, error) {
	return s.repo.GetByLevel(ctx, level)
}

// List returns all roles ordered by level then id.
func (s *Store) List(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Level != roles[j].Level {
			return roles[i].Level < roles[j].Level
		}
		return roles[i].ID < roles[j].ID
	})
	return roles, nil
}

// Upsert validates and persists a role. Permission references are
// checked against the catalog and the owner rank stays unique. When an
// existing role's permissions or level change, a RoleChanged event is
// emitted and the decision cache for its actors is dropped before
// Upsert returns.
func (s *Store) Upsert(ctx context.Context, r Role) (Role, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return Role{}, fmt.Errorf("role: name required")
	}
	if r.Level < 0 {
		return Role{}, fmt.Errorf("role: level must be non-negative")
	}
	perms, err := s.normalizePermissions(r.Permissions)
	if err != nil {
		return Role{}, err
	}
	r.Permissions = perms

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Level == LevelOwner {
		existing, found, err := s.repo.GetByLevel(ctx, LevelOwner)
		if err != nil {
			return Role{}, err
		}
		if found && existing.ID != r.ID {
			return Role{}, fmt.Errorf("%w: held by %s", ErrDuplicateLevel, existing.ID)
		}
	}

	prev, existed, err := s.repo.Get(ctx, r.ID)
	if err != nil {
		return Role{}, err
	}
	now := s.now().UTC()
	if existed {
		r.CreatedAt = prev.CreatedAt
		r.CreatedBy = prev.CreatedBy
		r.IsCustom = prev.IsCustom
	} else {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	if err := s.repo.Save(ctx, r); err != nil {
		return Role{}, err
	}

	if existed && (prev.Level != r.Level || !prev.PermissionSet().Equal(r.PermissionSet())) {
		if err := s.emitChanged(ctx, r.ID); err != nil {
			return Role{}, err
		}
	}
	return r, nil
}

// Delete removes a custom role. With live assignments the delete is
// rejected unless reassignTo names a replacement role; affected actors
// are moved first and their snapshots repaired via the replacement
// role's RoleChanged event.
func (s *Store) Delete(ctx context.Context, id, reassignTo string) error {
	r, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !r.IsCustom {
		return fmt.Errorf("%w: %s", ErrSystemRole, id)
	}

	count := 0
	if s.assignments != nil {
		count, err = s.assignments.CountByRole(ctx, id)
		if err != nil {
			return err
		}
	}
	if count > 0 {
		if reassignTo == "" {
			return fmt.Errorf("%w: %s has %d assignments", ErrInUse, id, count)
		}
		if _, targetFound, err := s.repo.Get(ctx, reassignTo); err != nil {
			return err
		} else if !targetFound {
			return fmt.Errorf("%w: reassignment target %s", ErrNotFound, reassignTo)
		}
		if err := s.assignments.ReassignRole(ctx, id, reassignTo); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.emitChanged(ctx, id); err != nil {
		return err
	}
	if count > 0 {
		if err := s.emitChanged(ctx, reassignTo); err != nil {
			return err
		}
	}
	return nil
}

// emitChanged publishes the change event and then drops cached
// decisions for the role's actors. A failed publish is logged and
// tolerated (the lazy reconciler self-heals on next read); a failed
// cache invalidation is returned because the mutation must not be
// reported committed while stale allows can still be served.
func (s *Store) emitChanged(ctx context.Context, roleID string) error {
	if s.publisher != nil {
		if err := s.publisher.PublishRoleChanged(ctx, events.NewRoleChanged(roleID)); err != nil && s.logger != nil {
			s.logger.Error("publish role changed", slog.String("role", roleID), slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateRole(ctx, roleID); err != nil {
			return fmt.Errorf("role: invalidate cache for %s: %w", roleID, err)
		}
	}
	return nil
}

func (s *Store) normalizePermissions(ids []catalog.ID) ([]catalog.ID, error) {
	set := make(catalog.Set, len(ids))
	for _, raw := range ids {
		id, err := catalog.ParseID(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPermissionRef, err)
		}
		if !s.catalog.Exists(id) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPermissionRef, id)
		}
		set[id] = struct{}{}
	}
	return set.Slice(), nil
}
