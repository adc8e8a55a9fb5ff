package assignment

import "context"

// RepositoryPort defines persistence for actor role assignments.
// Save replaces the whole record, snapshot included, so an interrupted
// reconcile leaves the snapshot fully old or fully new.
type RepositoryPort interface {
	Get(ctx context.Context, actorID string) (Assignment, bool, error)
	Save(ctx context.Context, a Assignment) error
	Delete(ctx context.Context, actorID string) error
	ListByRole(ctx context.Context, roleID string) ([]Assignment, error)
	CountByRole(ctx context.Context, roleID string) (int, error)
	ReassignRole(ctx context.Context, fromRoleID, toRoleID string) error
}
