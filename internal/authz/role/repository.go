package role

import "context"

// RepositoryPort defines persistence for roles. Implementations must
// treat Save as an upsert keyed by Role.ID.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (Role, bool, error)
	GetByLevel(ctx context.Context, level int) (Role, bool, error)
	List(ctx context.Context) ([]Role, error)
	Save(ctx context.Context, r Role) error
	Delete(ctx context.Context, id string) error
}
