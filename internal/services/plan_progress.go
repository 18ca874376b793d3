package services

import (
	"context"
	"fmt"

	"horas/internal/core"
	"horas/internal/store"
)

// PlanProgressService compares each work plan's estimate against the hours
// actually logged on its project inside the plan window.
type PlanProgressService struct {
	plans      store.WorkPlanStore
	activities store.ActivityStore
}

func NewPlanProgressService(plans store.WorkPlanStore, activities store.ActivityStore) *PlanProgressService {
	return &PlanProgressService{plans: plans, activities: activities}
}

// Progress returns one entry per registered plan. Remaining hours can go
// negative when a project overruns its estimate.
func (s *PlanProgressService) Progress(ctx context.Context) ([]core.PlanProgress, error) {
	plans, err := s.plans.ListWorkPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list work plans: %w", err)
	}

	activities, err := s.activities.ListActivities(ctx, core.ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	progress := make([]core.PlanProgress, 0, len(plans))
	for _, plan := range plans {
		actual := actualHours(plan, activities)
		progress = append(progress, core.PlanProgress{
			Plan:           plan,
			ActualHours:    actual,
			RemainingHours: plan.EstimatedHours - actual,
		})
	}
	return progress, nil
}

// actualHours sums hours logged on the plan's project with a date inside the
// plan window, both ends inclusive. Activities with unparseable dates are
// skipped.
func actualHours(plan core.WorkPlan, activities []core.Activity) float64 {
	start, err := core.ParseDate(plan.StartDate)
	if err != nil {
		return 0
	}
	end, err := core.ParseDate(plan.EndDate)
	if err != nil {
		return 0
	}

	var total float64
	for _, a := range activities {
		if a.ProjectID != plan.ProjectID {
			continue
		}
		d, err := core.ParseDate(a.Date)
		if err != nil {
			continue
		}
		if d.Before(start.Time) || d.After(end.Time) {
			continue
		}
		total += a.Hours
	}
	return total
}
