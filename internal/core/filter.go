package core

// ActivityFilter narrows an activity collection. Zero-value fields impose no
// constraint; set fields must match exactly and combine with AND.
type ActivityFilter struct {
	ProjectID *int64
	Date      string
	UserID    *int64
}

// IsZero reports whether the filter has no criteria set.
func (f ActivityFilter) IsZero() bool {
	return f.ProjectID == nil && f.Date == "" && f.UserID == nil
}

// Matches reports whether one activity satisfies every set criterion.
func (f ActivityFilter) Matches(a Activity) bool {
	if f.ProjectID != nil && a.ProjectID != *f.ProjectID {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if f.UserID != nil && a.UserID != *f.UserID {
		return false
	}
	return true
}

// FilterActivities returns the activities matching the filter, preserving the
// input's relative order. The result is always a new slice.
func FilterActivities(activities []Activity, f ActivityFilter) []Activity {
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}
