// Package memory provides the session-scoped in-memory backend. It holds the
// working set of activities plus seeded reference data, so the service runs
// with no external dependencies.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"horas/internal/core"
	"horas/internal/store"
)

type Store struct {
	mu             sync.Mutex
	users          []core.User
	projects       []core.Project
	packages       []core.Package
	catalog        []core.CatalogActivity
	activities     []core.Activity // most-recent-first
	plans          []core.WorkPlan
	nextActivityID int64
	nextUserID     int64
	nextPlanID     int64
}

// New returns an empty store.
func New() *Store {
	return &Store{nextActivityID: 1, nextUserID: 1, nextPlanID: 1}
}

// NewSeeded returns a store preloaded with the demo data set: three users
// under one supervisor, three projects with packages and catalog types, and
// three logged activities.
func NewSeeded() *Store {
	supervisor := int64(55)
	pkg1 := int64(1)
	s := New()
	s.users = []core.User{
		{ID: 103, Email: "lucia.vega@horas.dev", Name: "Lucía Vega", Role: core.RoleEmployee, SupervisorID: &supervisor, CreatedAt: time.Now()},
		{ID: 102, Email: "carlos.rivera@horas.dev", Name: "Carlos Rivera", Role: core.RoleEmployee, SupervisorID: &supervisor, CreatedAt: time.Now()},
		{ID: 101, Email: "maria.lopez@horas.dev", Name: "María López", Role: core.RoleEmployee, SupervisorID: &supervisor, CreatedAt: time.Now()},
		{ID: 55, Email: "supervisor@horas.dev", Name: "Supervisor", Role: core.RoleManager, CreatedAt: time.Now()},
	}
	s.nextUserID = 104
	s.projects = []core.Project{
		{ID: 1, Name: "Proyecto Alpha", Status: "ACTIVE"},
		{ID: 2, Name: "Proyecto Beta", Status: "ACTIVE"},
		{ID: 3, Name: "Proyecto Gamma", Status: "ACTIVE"},
	}
	s.packages = []core.Package{
		{ID: 1, Name: "PK-ALPHA-01", ProjectID: 1},
		{ID: 2, Name: "PK-ALPHA-02", ProjectID: 1},
		{ID: 3, Name: "PK-BETA-01", ProjectID: 2},
	}
	s.catalog = []core.CatalogActivity{
		{ID: 1, Name: "Sesión", ProjectID: 1},
		{ID: 2, Name: "Desarrollo", ProjectID: 1},
		{ID: 3, Name: "Retrabajo", ProjectID: 2},
		{ID: 4, Name: "Tiempo muerto", ProjectID: 2},
		{ID: 5, Name: "QA", ProjectID: 3},
	}
	s.activities = []core.Activity{
		{ID: 3, Name: "QA", Description: "Pruebas de validación en sitio", Hours: 2.5, Date: "2024-07-03", UserID: 103, ProjectID: 3, CatalogID: 5},
		{ID: 2, Name: "Retrabajo", Description: "Diagrama entidad-relación inicial", Hours: 4, Date: "2024-07-02", UserID: 102, ProjectID: 2, CatalogID: 3},
		{ID: 1, Name: "Sesión", Description: "Entrevistas con usuarios clave", Hours: 3, Date: "2024-07-01", UserID: 101, ProjectID: 1, CatalogID: 1, PackageID: &pkg1},
	}
	s.nextActivityID = 4
	return s
}

// Interface conformance
var (
	_ store.ActivityStore   = (*Store)(nil)
	_ store.UserStore       = (*Store)(nil)
	_ store.ReferenceReader = (*Store)(nil)
	_ store.WorkPlanStore   = (*Store)(nil)
)

// NextID returns the id the next created activity will get. The counter is
// monotonic: deleting the highest record never makes its id reusable.
func (s *Store) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextActivityID
}

// ListActivities returns matching activities in insertion order, newest first.
func (s *Store) ListActivities(_ context.Context, f core.ActivityFilter) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterActivities(s.activities, f), nil
}

// CreateActivity assigns the next id and prepends the record.
func (s *Store) CreateActivity(_ context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPackage(a.ProjectID, a.PackageID); err != nil {
		return core.Activity{}, err
	}
	a.ID = s.nextActivityID
	s.nextActivityID++
	s.activities = append([]core.Activity{a}, s.activities...)
	return a, nil
}

// UpdateActivity merges the patch into the matching record. Returns
// core.ErrNotFound when the id is absent.
func (s *Store) UpdateActivity(_ context.Context, id int64, p store.ActivityPatch) (core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.activities {
		if s.activities[i].ID != id {
			continue
		}
		merged := applyPatch(s.activities[i], p)
		if err := merged.Validate(); err != nil {
			return core.Activity{}, err
		}
		if err := s.checkPackage(merged.ProjectID, merged.PackageID); err != nil {
			return core.Activity{}, err
		}
		s.activities[i] = merged
		return merged, nil
	}
	return core.Activity{}, core.ErrNotFound
}

// DeleteActivity removes the matching record. Returns core.ErrNotFound when
// the id is absent.
func (s *Store) DeleteActivity(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.activities {
		if s.activities[i].ID == id {
			s.activities = append(s.activities[:i], s.activities[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func applyPatch(a core.Activity, p store.ActivityPatch) core.Activity {
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

// checkPackage enforces that a referenced package belongs to the activity's
// project. Caller holds the lock.
func (s *Store) checkPackage(projectID int64, packageID *int64) error {
	if packageID == nil {
		return nil
	}
	for _, pkg := range s.packages {
		if pkg.ID == *packageID {
			if pkg.ProjectID != projectID {
				return core.ErrPackageMismatch
			}
			return nil
		}
	}
	return core.ErrPackageMismatch
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) GetUserDetail(_ context.Context, id int64) (core.UserDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *core.User
	for i := range s.users {
		if s.users[i].ID == id {
			user = &s.users[i]
			break
		}
	}
	if user == nil {
		return core.UserDetail{}, core.ErrNotFound
	}

	detail := core.UserDetail{User: *user}
	seen := map[int64]bool{}
	for _, a := range s.activities {
		if a.UserID != id {
			continue
		}
		if len(detail.RecentActivities) < 10 {
			detail.RecentActivities = append(detail.RecentActivities, core.ActivityEntry{
				Activity:    a,
				ProjectName: s.projectName(a.ProjectID),
			})
		}
		if !seen[a.ProjectID] {
			seen[a.ProjectID] = true
			detail.Projects = append(detail.Projects, core.Membership{
				ProjectID:   a.ProjectID,
				ProjectName: s.projectName(a.ProjectID),
				Role:        "member",
			})
		}
	}
	return detail, nil
}

func (s *Store) projectName(id int64) string {
	for _, p := range s.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, core.ErrConflict
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	if u.Role == "" {
		u.Role = core.RoleEmployee
	}
	u.CreatedAt = time.Now()
	s.users = append([]core.User{u}, s.users...)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, p store.UserPatch) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
			s.users[i].Name = *p.Name
		}
		if p.Role != nil && p.Role.Valid() {
			s.users[i].Role = *p.Role
		}
		return s.users[i], nil
	}
	return core.User{}, core.ErrNotFound
}

// DeleteUser removes the user and every activity they logged.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.users {
		if s.users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.ErrNotFound
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)

	kept := s.activities[:0]
	for _, a := range s.activities {
		if a.UserID != id {
			kept = append(kept, a)
		}
	}
	s.activities = kept
	return nil
}

func (s *Store) ListProjects(_ context.Context) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

// ListPackages returns the packages for one project, or all when projectID
// is zero.
func (s *Store) ListPackages(_ context.Context, projectID int64) ([]core.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Package, 0, len(s.packages))
	for _, p := range s.packages {
		if projectID == 0 || p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListCatalog(_ context.Context, projectID int64) ([]core.CatalogActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CatalogActivity, 0, len(s.catalog))
	for _, c := range s.catalog {
		if projectID == 0 || c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListWorkPlans(_ context.Context) ([]core.WorkPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.WorkPlan, len(s.plans))
	copy(out, s.plans)
	return out, nil
}

// CreateWorkPlan appends a plan. Plans have no update or delete path.
func (s *Store) CreateWorkPlan(_ context.Context, p core.WorkPlan) (core.WorkPlan, error) {
	if err := p.Validate(); err != nil {
		return core.WorkPlan{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextPlanID
	s.nextPlanID++
	s.plans = append(s.plans, p)
	return p, nil
}
