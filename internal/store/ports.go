// Package store declares the outbound ports the HTTP layer depends on.
// Backends (in-memory, SQLite) implement these; the server never sees a
// concrete store type.
package store

import (
	"context"

	"horas/internal/core"
)

// ActivityPatch carries the fields an update may replace. Nil pointers leave
// the stored value untouched. PackageID uses a double pointer so a patch can
// distinguish "leave as is" (nil) from "clear the package" (*nil).
type ActivityPatch struct {
	Name        *string
	Description *string
	Hours       *float64
	Date        *string
	ProjectID   *int64
	CatalogID   *int64
	PackageID   **int64
}

// UserPatch carries the mutable user fields.
type UserPatch struct {
	Name *string
	Role *core.Role
}

type (
	ActivityStore interface {
		// ListActivities returns activities matching the filter, newest first.
		ListActivities(ctx context.Context, f core.ActivityFilter) ([]core.Activity, error)
		// CreateActivity stores a new activity and returns it with its id set.
		CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error)
		// UpdateActivity merges the patch into the record; core.ErrNotFound if absent.
		UpdateActivity(ctx context.Context, id int64, p ActivityPatch) (core.Activity, error)
		// DeleteActivity removes the record; core.ErrNotFound if absent.
		DeleteActivity(ctx context.Context, id int64) error
	}

	UserStore interface {
		// ListUsers returns all users, newest first.
		ListUsers(ctx context.Context) ([]core.User, error)
		// GetUserDetail returns a user with recent entries and memberships;
		// core.ErrNotFound if absent.
		GetUserDetail(ctx context.Context, id int64) (core.UserDetail, error)
		// CreateUser stores a new user; core.ErrConflict on duplicate email.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		// UpdateUser merges the patch; core.ErrNotFound if absent.
		UpdateUser(ctx context.Context, id int64, p UserPatch) (core.User, error)
		// DeleteUser removes the user and cascades to their activities.
		DeleteUser(ctx context.Context, id int64) error
	}

	// ReferenceReader serves the static form data: projects and their
	// packages and catalog activity types.
	ReferenceReader interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
		ListPackages(ctx context.Context, projectID int64) ([]core.Package, error)
		ListCatalog(ctx context.Context, projectID int64) ([]core.CatalogActivity, error)
	}

	// WorkPlanStore is append-only: plans are registered and listed, never
	// edited.
	WorkPlanStore interface {
		ListWorkPlans(ctx context.Context) ([]core.WorkPlan, error)
		CreateWorkPlan(ctx context.Context, p core.WorkPlan) (core.WorkPlan, error)
	}
)
