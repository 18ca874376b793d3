package services

import (
	"context"
	"math"
	"testing"

	"horas/internal/core"
	"horas/internal/memory"
)

func TestPlanProgress(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	svc := NewPlanProgressService(st, st)

	plan := core.WorkPlan{
		SupervisorID:   55,
		ProjectID:      1,
		Description:    "Fase de descubrimiento",
		EstimatedHours: 10,
		StartDate:      "2024-07-01",
		EndDate:        "2024-07-31",
	}
	if _, err := st.CreateWorkPlan(ctx, plan); err != nil {
		t.Fatalf("CreateWorkPlan: %v", err)
	}

	progress, err := svc.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("got %d entries, want 1", len(progress))
	}

	// Seed has one 3h activity on project 1 inside July 2024
	got := progress[0]
	if math.Abs(got.ActualHours-3) > 1e-9 {
		t.Errorf("ActualHours = %v, want 3", got.ActualHours)
	}
	if math.Abs(got.RemainingHours-7) > 1e-9 {
		t.Errorf("RemainingHours = %v, want 7", got.RemainingHours)
	}
}

func TestPlanProgressWindowBounds(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewPlanProgressService(st, st)

	activities := []core.Activity{
		{Name: "antes", Hours: 1, Date: "2024-06-30", UserID: 1, ProjectID: 7},
		{Name: "inicio", Hours: 2, Date: "2024-07-01", UserID: 1, ProjectID: 7},
		{Name: "fin", Hours: 4, Date: "2024-07-31", UserID: 1, ProjectID: 7},
		{Name: "despues", Hours: 8, Date: "2024-08-01", UserID: 1, ProjectID: 7},
		{Name: "otro proyecto", Hours: 16, Date: "2024-07-15", UserID: 1, ProjectID: 8},
	}
	for _, a := range activities {
		if _, err := st.CreateActivity(ctx, a); err != nil {
			t.Fatalf("CreateActivity(%s): %v", a.Name, err)
		}
	}

	if _, err := st.CreateWorkPlan(ctx, core.WorkPlan{
		SupervisorID:   1,
		ProjectID:      7,
		Description:    "ventana julio",
		EstimatedHours: 5,
		StartDate:      "2024-07-01",
		EndDate:        "2024-07-31",
	}); err != nil {
		t.Fatalf("CreateWorkPlan: %v", err)
	}

	progress, err := svc.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("got %d entries, want 1", len(progress))
	}

	// Only the two in-window entries count; both ends inclusive
	if math.Abs(progress[0].ActualHours-6) > 1e-9 {
		t.Errorf("ActualHours = %v, want 6", progress[0].ActualHours)
	}
	// Overrun goes negative rather than clamping
	if math.Abs(progress[0].RemainingHours-(-1)) > 1e-9 {
		t.Errorf("RemainingHours = %v, want -1", progress[0].RemainingHours)
	}
}
