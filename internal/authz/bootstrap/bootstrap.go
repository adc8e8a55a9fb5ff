// Package bootstrap seeds the default role set on first run.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/role"
)

// Well-known role ids created by the seed.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleViewer  = "viewer"
)

// DefaultRoles returns the system role set seeded on first run. The
// owner's stored permission list is display data only; decisions for
// the owner always use the live catalog.
func DefaultRoles(cat *catalog.Catalog) []role.Role {
	return []role.Role{
		{
			ID:          RoleOwner,
			Name:        "Owner",
			Description: "Full access to every capability",
			Level:       role.LevelOwner,
			Permissions: cat.AllIDs().Slice(),
		},
		{
			ID:          RoleAdmin,
			Name:        "Administrator",
			Description: "Manages users, roles, and all business records",
			Level:       1,
			Permissions: catalog.NewSet(
				catalog.PermProjectRead, catalog.PermProjectWrite, catalog.PermProjectDelete,
				catalog.PermContractRead, catalog.PermContractWrite,
				catalog.PermQuoteRead, catalog.PermQuoteWrite,
				catalog.PermOrderRead, catalog.PermOrderWrite,
				catalog.PermUserView, catalog.PermUserEdit,
				catalog.PermRoleView, catalog.PermRoleEdit,
				catalog.PermReportView, catalog.PermReportExport,
			).Slice(),
		},
		{
			ID:          RoleManager,
			Name:        "Manager",
			Description: "Edits business records and reviews reports",
			Level:       2,
			Permissions: catalog.NewSet(
				catalog.PermProjectRead, catalog.PermProjectWrite,
				catalog.PermContractRead, catalog.PermContractWrite,
				catalog.PermQuoteRead, catalog.PermQuoteWrite,
				catalog.PermOrderRead, catalog.PermOrderWrite,
				catalog.PermReportView,
			).Slice(),
		},
		{
			ID:          RoleStaff,
			Name:        "Staff",
			Description: "Works on assigned records",
			Level:       3,
			Permissions: catalog.NewSet(
				catalog.PermProjectRead, catalog.PermProjectWrite,
				catalog.PermQuoteRead, catalog.PermOrderRead,
			).Slice(),
		},
		{
			ID:          RoleViewer,
			Name:        "Viewer",
			Description: "Read-only default role",
			Level:       role.LevelDefault,
			Permissions: catalog.NewSet(
				catalog.PermProjectRead, catalog.PermQuoteRead, catalog.PermOrderRead,
			).Slice(),
		},
	}
}

// Run seeds the default roles exactly once. Prior seeding is detected
// by the presence of the owner-level role, so re-running is a no-op
// instead of a duplicate-insert error.
func Run(ctx context.Context, repo role.RepositoryPort, cat *catalog.Catalog, logger *slog.Logger) error {
	if _, found, err := repo.GetByLevel(ctx, role.LevelOwner); err != nil {
		return fmt.Errorf("bootstrap: probe owner role: %w", err)
	} else if found {
		if logger != nil {
			logger.Debug("role set already seeded")
		}
		return nil
	}

	now := time.Now().UTC()
	// The owner role is written last: its presence is the seed marker,
	// so an interrupted run stays re-runnable.
	defaults := DefaultRoles(cat)
	sort.SliceStable(defaults, func(i, j int) bool {
		return defaults[i].Level > defaults[j].Level
	})
	for _, r := range defaults {
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := repo.Save(ctx, r); err != nil {
			return fmt.Errorf("bootstrap: seed role %s: %w", r.ID, err)
		}
	}
	if logger != nil {
		logger.Info("seeded default role set", slog.Int("roles", len(DefaultRoles(cat))))
	}
	return nil
}
