package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

type (
	Role string

	// Date carries day precision; the time component is always local midnight.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64     `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		Role         Role      `json:"role"`
		SupervisorID *int64    `json:"supervisorId,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Project struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Status      string `json:"status,omitempty"`
	}

	// Package is an optional sub-grouping of work within a project.
	Package struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		ProjectID int64  `json:"projectId"`
	}

	// CatalogActivity is a predefined activity-type label scoped to a project.
	CatalogActivity struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		ProjectID int64  `json:"projectId"`
	}

	// Activity is a single logged unit of work: hours spent on a date
	// against a project, optionally narrowed to a package.
	Activity struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Hours       float64 `json:"hours"`
		Date        string  `json:"date"` // ISO yyyy-mm-dd
		UserID      int64   `json:"userId"`
		ProjectID   int64   `json:"projectId"`
		CatalogID   int64   `json:"catalogId"`
		PackageID   *int64  `json:"packageId,omitempty"`
	}

	// WorkPlan is a supervisor's hour estimate for a project window.
	WorkPlan struct {
		ID             int64   `json:"id"`
		SupervisorID   int64   `json:"supervisorId"`
		ProjectID      int64   `json:"projectId"`
		Description    string  `json:"description"`
		EstimatedHours float64 `json:"estimatedHours"`
		StartDate      string  `json:"startDate"`
		EndDate        string  `json:"endDate"`
		FileName       string  `json:"fileName,omitempty"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrInvalidHours    = errors.New("invalid hours")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyEmail      = errors.New("empty email")
	ErrMissingUser     = errors.New("missing user id")
	ErrMissingProject  = errors.New("missing project id")
	ErrPackageMismatch = errors.New("package belongs to a different project")
	ErrInvalidWindow   = errors.New("start date after end date")
	ErrInvalidRole      = errors.New("invalid role")
	ErrLongDescription  = errors.New("description too long (max 500 characters)")
	ErrEmptyDescription = errors.New("empty description")
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO yyyy-mm-dd string into a local-midnight Date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day at local midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// NewDateIn creates a Date at midnight in the given location.
func NewDateIn(loc *time.Location, year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)}
}

func parseDateIn(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in wire format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Role != "" && !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (a Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Description) > 500 {
		return ErrLongDescription
	}
	if a.Hours <= 0 {
		return ErrInvalidHours
	}
	if _, err := ParseDate(a.Date); err != nil {
		return err
	}
	if a.UserID <= 0 {
		return ErrMissingUser
	}
	if a.ProjectID <= 0 {
		return ErrMissingProject
	}
	return nil
}

func (p WorkPlan) Validate() error {
	if p.SupervisorID <= 0 {
		return ErrMissingUser
	}
	if p.ProjectID <= 0 {
		return ErrMissingProject
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if p.EstimatedHours <= 0 {
		return ErrInvalidHours
	}
	start, err := ParseDate(p.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := ParseDate(p.EndDate)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if end.Before(start.Time) {
		return ErrInvalidWindow
	}
	return nil
}
