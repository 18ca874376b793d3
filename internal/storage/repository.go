// Package storage implements the SQLite backend. Schema and seed data live in
// embedded migrations; ids are assigned by AUTOINCREMENT.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"horas/internal/core"
	"horas/internal/sheets"
	"horas/internal/store"

	_ "modernc.org/sqlite"
)

const recentActivityLimit = 10

type SQLiteRepository struct {
	db *sql.DB
}

// Interface conformance
var (
	_ store.ActivityStore   = (*SQLiteRepository)(nil)
	_ store.UserStore       = (*SQLiteRepository)(nil)
	_ store.ReferenceReader = (*SQLiteRepository)(nil)
	_ store.WorkPlanStore   = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const activityColumns = "id, name, description, hours, date, user_id, project_id, catalog_id, package_id"

func scanActivity(row interface{ Scan(...any) error }) (core.Activity, error) {
	var a core.Activity
	var pkg sql.NullInt64
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Hours, &a.Date,
		&a.UserID, &a.ProjectID, &a.CatalogID, &pkg)
	if err != nil {
		return core.Activity{}, err
	}
	if pkg.Valid {
		a.PackageID = &pkg.Int64
	}
	return a, nil
}

// ListActivities returns matching activities, newest first.
func (r *SQLiteRepository) ListActivities(ctx context.Context, f core.ActivityFilter) ([]core.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE 1=1"
	var args []any
	if f.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, *f.ProjectID)
	}
	if f.Date != "" {
		query += " AND date = ?"
		args = append(args, f.Date)
	}
	if f.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *f.UserID)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []core.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CreateActivity validates, checks the package belongs to the given project,
// then inserts. The id comes from AUTOINCREMENT.
func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	if err := r.checkPackage(ctx, a.ProjectID, a.PackageID); err != nil {
		return core.Activity{}, err
	}

	var pkg sql.NullInt64
	if a.PackageID != nil {
		pkg = sql.NullInt64{Int64: *a.PackageID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (name, description, hours, date, user_id, project_id, catalog_id, package_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Description, a.Hours, a.Date, a.UserID, a.ProjectID, a.CatalogID, pkg)
	if err != nil {
		return core.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Activity{}, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	return a, nil
}

// GetActivity retrieves a single activity by id.
func (r *SQLiteRepository) GetActivity(ctx context.Context, id int64) (core.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Activity{}, core.ErrNotFound
	}
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// UpdateActivity merges the patch into the stored record, re-validates and
// writes it back. The row is marked pending so the sync worker picks it up
// again.
func (r *SQLiteRepository) UpdateActivity(ctx context.Context, id int64, p store.ActivityPatch) (core.Activity, error) {
	current, err := r.GetActivity(ctx, id)
	if err != nil {
		return core.Activity{}, err
	}

	merged := mergePatch(current, p)
	if err := merged.Validate(); err != nil {
		return core.Activity{}, err
	}
	if err := r.checkPackage(ctx, merged.ProjectID, merged.PackageID); err != nil {
		return core.Activity{}, err
	}

	var pkg sql.NullInt64
	if merged.PackageID != nil {
		pkg = sql.NullInt64{Int64: *merged.PackageID, Valid: true}
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE activities
		 SET name = ?, description = ?, hours = ?, date = ?, user_id = ?, project_id = ?,
		     catalog_id = ?, package_id = ?, sync_status = 'pending', version = version + 1
		 WHERE id = ?`,
		merged.Name, merged.Description, merged.Hours, merged.Date, merged.UserID,
		merged.ProjectID, merged.CatalogID, pkg, id)
	if err != nil {
		return core.Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return merged, nil
}

// DeleteActivity removes the record; core.ErrNotFound when the id is absent.
func (r *SQLiteRepository) DeleteActivity(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// checkPackage rejects a package that belongs to a different project.
func (r *SQLiteRepository) checkPackage(ctx context.Context, projectID int64, packageID *int64) error {
	if packageID == nil {
		return nil
	}
	var owner int64
	err := r.db.QueryRowContext(ctx,
		"SELECT project_id FROM packages WHERE id = ?", *packageID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrPackageMismatch
	}
	if err != nil {
		return fmt.Errorf("check package: %w", err)
	}
	if owner != projectID {
		return core.ErrPackageMismatch
	}
	return nil
}

func mergePatch(a core.Activity, p store.ActivityPatch) core.Activity {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Hours != nil {
		a.Hours = *p.Hours
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.ProjectID != nil {
		a.ProjectID = *p.ProjectID
	}
	if p.CatalogID != nil {
		a.CatalogID = *p.CatalogID
	}
	if p.PackageID != nil {
		a.PackageID = *p.PackageID
	}
	return a
}

const userColumns = "id, email, name, role, supervisor_id, created_at"

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	var supervisor sql.NullInt64
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &supervisor, &created)
	if err != nil {
		return core.User{}, err
	}
	if supervisor.Valid {
		u.SupervisorID = &supervisor.Int64
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

// parseTimestamp handles both driver-written RFC3339 values and SQLite's
// CURRENT_TIMESTAMP format.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ListUsers returns all users, newest first.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserDetail returns the user with their recent entries and the projects
// they have logged time against.
func (r *SQLiteRepository) GetUserDetail(ctx context.Context, id int64) (core.UserDetail, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserDetail{}, core.ErrNotFound
	}
	if err != nil {
		return core.UserDetail{}, fmt.Errorf("get user: %w", err)
	}

	detail := core.UserDetail{
		User:             u,
		RecentActivities: []core.ActivityEntry{},
		Projects:         []core.Membership{},
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.description, a.hours, a.date, a.user_id, a.project_id,
		        a.catalog_id, a.package_id, p.name
		 FROM activities a
		 JOIN projects p ON p.id = a.project_id
		 WHERE a.user_id = ?
		 ORDER BY a.id DESC
		 LIMIT ?`, id, recentActivityLimit)
	if err != nil {
		return core.UserDetail{}, fmt.Errorf("recent activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry core.ActivityEntry
		var pkg sql.NullInt64
		err := rows.Scan(&entry.ID, &entry.Name, &entry.Description, &entry.Hours,
			&entry.Date, &entry.UserID, &entry.ProjectID, &entry.CatalogID, &pkg,
			&entry.ProjectName)
		if err != nil {
			return core.UserDetail{}, fmt.Errorf("scan recent activity: %w", err)
		}
		if pkg.Valid {
			entry.PackageID = &pkg.Int64
		}
		detail.RecentActivities = append(detail.RecentActivities, entry)
	}
	if err := rows.Err(); err != nil {
		return core.UserDetail{}, err
	}

	memberRows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT p.id, p.name
		 FROM activities a
		 JOIN projects p ON p.id = a.project_id
		 WHERE a.user_id = ?
		 ORDER BY p.id`, id)
	if err != nil {
		return core.UserDetail{}, fmt.Errorf("memberships: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		m := core.Membership{Role: string(u.Role)}
		if err := memberRows.Scan(&m.ProjectID, &m.ProjectName); err != nil {
			return core.UserDetail{}, fmt.Errorf("scan membership: %w", err)
		}
		detail.Projects = append(detail.Projects, m)
	}
	return detail, memberRows.Err()
}

// CreateUser inserts a new user; duplicate emails map to core.ErrConflict.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.Role == "" {
		u.Role = core.RoleEmployee
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email = ? COLLATE NOCASE", u.Email).Scan(&exists)
	if err == nil {
		return core.User{}, core.ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("check email: %w", err)
	}

	var supervisor sql.NullInt64
	if u.SupervisorID != nil {
		supervisor = sql.NullInt64{Int64: *u.SupervisorID, Valid: true}
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, name, role, supervisor_id, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Email, u.Name, u.Role, supervisor, now.Format(time.RFC3339))
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	return u, nil
}

// UpdateUser merges the patch into the record; core.ErrNotFound if absent.
func (r *SQLiteRepository) UpdateUser(ctx context.Context, id int64, p store.UserPatch) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}

	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, role = ? WHERE id = ?", u.Name, u.Role, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the user; their activities go with them via the FK
// cascade.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, status FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []core.Project{}
	for rows.Next() {
		var p core.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListPackages returns packages for a project, or all when projectID is 0.
func (r *SQLiteRepository) ListPackages(ctx context.Context, projectID int64) ([]core.Package, error) {
	query := "SELECT id, name, project_id FROM packages"
	var args []any
	if projectID != 0 {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	packages := []core.Package{}
	for rows.Next() {
		var p core.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.ProjectID); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// ListCatalog returns catalog entries for a project, or all when projectID is 0.
func (r *SQLiteRepository) ListCatalog(ctx context.Context, projectID int64) ([]core.CatalogActivity, error) {
	query := "SELECT id, name, project_id FROM catalog_activities"
	var args []any
	if projectID != 0 {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	catalog := []core.CatalogActivity{}
	for rows.Next() {
		var c core.CatalogActivity
		if err := rows.Scan(&c.ID, &c.Name, &c.ProjectID); err != nil {
			return nil, fmt.Errorf("scan catalog activity: %w", err)
		}
		catalog = append(catalog, c)
	}
	return catalog, rows.Err()
}

func (r *SQLiteRepository) ListWorkPlans(ctx context.Context) ([]core.WorkPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, supervisor_id, project_id, description, estimated_hours, start_date, end_date, file_name
		 FROM work_plans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list work plans: %w", err)
	}
	defer rows.Close()

	plans := []core.WorkPlan{}
	for rows.Next() {
		var p core.WorkPlan
		err := rows.Scan(&p.ID, &p.SupervisorID, &p.ProjectID, &p.Description,
			&p.EstimatedHours, &p.StartDate, &p.EndDate, &p.FileName)
		if err != nil {
			return nil, fmt.Errorf("scan work plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *SQLiteRepository) CreateWorkPlan(ctx context.Context, p core.WorkPlan) (core.WorkPlan, error) {
	if err := p.Validate(); err != nil {
		return core.WorkPlan{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO work_plans (supervisor_id, project_id, description, estimated_hours, start_date, end_date, file_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.SupervisorID, p.ProjectID, p.Description, p.EstimatedHours, p.StartDate, p.EndDate, p.FileName)
	if err != nil {
		return core.WorkPlan{}, fmt.Errorf("create work plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.WorkPlan{}, fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	return p, nil
}

// GetActivityRow returns the denormalized spreadsheet row for an activity:
// the entry itself plus user, project and package names.
func (r *SQLiteRepository) GetActivityRow(ctx context.Context, id int64) (sheets.ActivityRow, error) {
	var row sheets.ActivityRow
	var pkgName sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT a.date, u.name, p.name, pk.name, a.name, a.description, a.hours
		 FROM activities a
		 JOIN users u ON u.id = a.user_id
		 JOIN projects p ON p.id = a.project_id
		 LEFT JOIN packages pk ON pk.id = a.package_id
		 WHERE a.id = ?`, id).
		Scan(&row.Date, &row.UserName, &row.ProjectName, &pkgName,
			&row.Name, &row.Description, &row.Hours)
	if errors.Is(err, sql.ErrNoRows) {
		return sheets.ActivityRow{}, core.ErrNotFound
	}
	if err != nil {
		return sheets.ActivityRow{}, fmt.Errorf("get activity row: %w", err)
	}
	row.PackageName = pkgName.String
	return row, nil
}

// PendingSyncActivity carries the minimal fields a sync queue message needs.
type PendingSyncActivity struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingSyncActivities returns activities not yet mirrored to the
// supervisor spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncActivities(ctx context.Context, limit int) ([]PendingSyncActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM activities
		 WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync activities: %w", err)
	}
	defer rows.Close()

	pending := []PendingSyncActivity{}
	for rows.Next() {
		var p PendingSyncActivity
		var created string
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending activity: %w", err)
		}
		p.CreatedAt = parseTimestamp(created)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced records a successful spreadsheet append for the activity.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE activities SET sync_status = 'synced' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark activity synced: %w", err)
	}
	return nil
}

// MarkSyncError flags the activity so a later sweep can retry it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE activities SET sync_status = 'error' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark activity sync error: %w", err)
	}
	return nil
}
