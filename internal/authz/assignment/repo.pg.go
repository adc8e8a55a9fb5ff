package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentColumns = `actor_id, role_id, assigned_at, expires_at, permission_snapshot`

// Get fetches the assignment for an actor.
func (r *Repository) Get(ctx context.Context, actorID string) (Assignment, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM authz_assignments WHERE actor_id = $1`, actorID)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, false, nil
		}
		return Assignment{}, false, err
	}
	return a, true, nil
}

// Save upserts the whole assignment record in a single statement.
func (r *Repository) Save(ctx context.Context, a Assignment) error {
	var snapshot []string
	if a.PermissionSnapshot != nil {
		snapshot = make([]string, len(a.PermissionSnapshot))
		for i, p := range a.PermissionSnapshot {
			snapshot[i] = string(p)
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO authz_assignments (`+assignmentColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (actor_id) DO UPDATE SET
			role_id = EXCLUDED.role_id,
			assigned_at = EXCLUDED.assigned_at,
			expires_at = EXCLUDED.expires_at,
			permission_snapshot = EXCLUDED.permission_snapshot`,
		a.ActorID, a.RoleID, a.AssignedAt, a.ExpiresAt, snapshot)
	return err
}

// Delete removes the actor's assignment.
func (r *Repository) Delete(ctx context.Context, actorID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authz_assignments WHERE actor_id = $1`, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRole returns every assignment referencing the role.
func (r *Repository) ListByRole(ctx context.Context, roleID string) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assignmentColumns+` FROM authz_assignments WHERE role_id = $1 ORDER BY actor_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByRole returns how many assignments reference the role.
func (r *Repository) CountByRole(ctx context.Context, roleID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM authz_assignments WHERE role_id = $1`, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ReassignRole moves every assignment from one role to another and
// clears snapshots so the reconciler recomputes them.
func (r *Repository) ReassignRole(ctx context.Context, fromRoleID, toRoleID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE authz_assignments
		SET role_id = $2, permission_snapshot = NULL
		WHERE role_id = $1`, fromRoleID, toRoleID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var a Assignment
	var expires *time.Time
	var snapshot []string
	if err := row.Scan(&a.ActorID, &a.RoleID, &a.AssignedAt, &expires, &snapshot); err != nil {
		return Assignment{}, err
	}
	a.ExpiresAt = expires
	if snapshot != nil {
		a.PermissionSnapshot = make([]catalog.ID, len(snapshot))
		for i, p := range snapshot {
			a.PermissionSnapshot[i] = catalog.ID(p)
		}
	}
	return a, nil
}
