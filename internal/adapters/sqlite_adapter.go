// Package adapters composes the SQLite repository with the activity service
// so the HTTP layer sees one object implementing every store port.
package adapters

import (
	"context"

	"horas/internal/core"
	"horas/internal/services"
	"horas/internal/storage"
	"horas/internal/store"
)

// SQLiteAdapter routes activity mutations through the service (which
// publishes sync messages) and everything else straight to the repository.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.ActivityService
}

var (
	_ store.ActivityStore   = (*SQLiteAdapter)(nil)
	_ store.UserStore       = (*SQLiteAdapter)(nil)
	_ store.ReferenceReader = (*SQLiteAdapter)(nil)
	_ store.WorkPlanStore   = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.ActivityService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

func (a *SQLiteAdapter) ListActivities(ctx context.Context, f core.ActivityFilter) ([]core.Activity, error) {
	return a.service.ListActivities(ctx, f)
}

func (a *SQLiteAdapter) CreateActivity(ctx context.Context, act core.Activity) (core.Activity, error) {
	return a.service.CreateActivity(ctx, act)
}

func (a *SQLiteAdapter) UpdateActivity(ctx context.Context, id int64, p store.ActivityPatch) (core.Activity, error) {
	return a.service.UpdateActivity(ctx, id, p)
}

func (a *SQLiteAdapter) DeleteActivity(ctx context.Context, id int64) error {
	return a.service.DeleteActivity(ctx, id)
}

func (a *SQLiteAdapter) ListUsers(ctx context.Context) ([]core.User, error) {
	return a.storage.ListUsers(ctx)
}

func (a *SQLiteAdapter) GetUserDetail(ctx context.Context, id int64) (core.UserDetail, error) {
	return a.storage.GetUserDetail(ctx, id)
}

func (a *SQLiteAdapter) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	return a.storage.CreateUser(ctx, u)
}

func (a *SQLiteAdapter) UpdateUser(ctx context.Context, id int64, p store.UserPatch) (core.User, error) {
	return a.storage.UpdateUser(ctx, id, p)
}

func (a *SQLiteAdapter) DeleteUser(ctx context.Context, id int64) error {
	return a.storage.DeleteUser(ctx, id)
}

func (a *SQLiteAdapter) ListProjects(ctx context.Context) ([]core.Project, error) {
	return a.storage.ListProjects(ctx)
}

func (a *SQLiteAdapter) ListPackages(ctx context.Context, projectID int64) ([]core.Package, error) {
	return a.storage.ListPackages(ctx, projectID)
}

func (a *SQLiteAdapter) ListCatalog(ctx context.Context, projectID int64) ([]core.CatalogActivity, error) {
	return a.storage.ListCatalog(ctx, projectID)
}

func (a *SQLiteAdapter) ListWorkPlans(ctx context.Context) ([]core.WorkPlan, error) {
	return a.storage.ListWorkPlans(ctx)
}

func (a *SQLiteAdapter) CreateWorkPlan(ctx context.Context, p core.WorkPlan) (core.WorkPlan, error) {
	return a.storage.CreateWorkPlan(ctx, p)
}
