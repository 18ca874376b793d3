package core

// ActivityEntry is an activity enriched with its parent project name, used in
// user detail payloads.
type ActivityEntry struct {
	Activity
	ProjectName string `json:"projectName"`
}

// Membership links a user to a project with a role label.
type Membership struct {
	ProjectID   int64  `json:"projectId"`
	ProjectName string `json:"projectName"`
	Role        string `json:"role"`
}

// UserDetail is a user with recent time entries (newest first, capped by the
// store) and project memberships.
type UserDetail struct {
	User
	RecentActivities []ActivityEntry `json:"recentActivities"`
	Projects         []Membership    `json:"projects"`
}

// PlanProgress compares a work plan's estimate against hours actually logged
// inside its window.
type PlanProgress struct {
	Plan           WorkPlan `json:"plan"`
	ActualHours    float64  `json:"actualHours"`
	RemainingHours float64  `json:"remainingHours"`
}
