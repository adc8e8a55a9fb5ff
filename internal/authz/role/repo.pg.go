package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

// uniqueViolation is the PostgreSQL error code raised by the partial
// unique index guarding the owner level.
const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, level, permissions, is_custom, created_at, created_by, updated_at, updated_by`

// Get fetches a role by id.
func (r *Repository) Get(ctx context.Context, id string) (Role, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM authz_roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, false, nil
		}
		return Role{}, false, err
	}
	return role, true, nil
}

// GetByLevel fetches the role holding the given level, if any.
func (r *Repository) GetByLevel(ctx context.Context, level int) (Role, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM authz_roles WHERE level = $1 ORDER BY id LIMIT 1`, level)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, false, nil
		}
		return Role{}, false, err
	}
	return role, true, nil
}

// List returns all roles ordered by level then id.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM authz_roles ORDER BY level, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// Save upserts a role. A unique-violation on the owner-level index is
// surfaced as ErrDuplicateLevel.
func (r *Repository) Save(ctx context.Context, role Role) error {
	perms := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		perms[i] = string(p)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO authz_roles (`+roleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			level = EXCLUDED.level,
			permissions = EXCLUDED.permissions,
			is_custom = EXCLUDED.is_custom,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		role.ID, role.Name, role.Description, role.Level, perms, role.IsCustom,
		role.CreatedAt, role.CreatedBy, role.UpdatedAt, role.UpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateLevel, role.ID)
		}
		return err
	}
	return nil
}

// Delete removes a role by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authz_roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var role Role
	var perms []string
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &perms,
		&role.IsCustom, &role.CreatedAt, &role.CreatedBy, &role.UpdatedAt, &role.UpdatedBy); err != nil {
		return Role{}, err
	}
	role.Permissions = make([]catalog.ID, len(perms))
	for i, p := range perms {
		role.Permissions[i] = catalog.ID(p)
	}
	return role, nil
}
