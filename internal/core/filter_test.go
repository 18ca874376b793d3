package core

import (
	"reflect"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func sampleActivities() []Activity {
	return []Activity{
		{ID: 1, Name: "Sesión", Hours: 3, Date: "2024-07-01", UserID: 101, ProjectID: 1},
		{ID: 2, Name: "Retrabajo", Hours: 4, Date: "2024-07-02", UserID: 102, ProjectID: 2},
		{ID: 3, Name: "QA", Hours: 2.5, Date: "2024-07-03", UserID: 103, ProjectID: 3},
	}
}

func TestFilterActivitiesIdentity(t *testing.T) {
	in := sampleActivities()
	out := FilterActivities(in, ActivityFilter{})
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("empty filter must return input unchanged, got %v", out)
	}
	// Must be a fresh slice, not an alias of the input.
	out[0].Name = "mutated"
	if in[0].Name == "mutated" {
		t.Fatalf("filter result aliases input slice")
	}
}

func TestFilterActivitiesByProject(t *testing.T) {
	out := FilterActivities(sampleActivities(), ActivityFilter{ProjectID: int64p(1)})
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("projectId=1 filter: got %v, want only activity #1", out)
	}
}

func TestFilterActivitiesConjunction(t *testing.T) {
	cases := []struct {
		name string
		f    ActivityFilter
		ids  []int64
	}{
		{"date only", ActivityFilter{Date: "2024-07-02"}, []int64{2}},
		{"user only", ActivityFilter{UserID: int64p(103)}, []int64{3}},
		{"project and matching user", ActivityFilter{ProjectID: int64p(2), UserID: int64p(102)}, []int64{2}},
		{"project and mismatching user", ActivityFilter{ProjectID: int64p(2), UserID: int64p(101)}, nil},
		{"no match yields empty", ActivityFilter{Date: "1999-01-01"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := FilterActivities(sampleActivities(), tc.f)
			var ids []int64
			for _, a := range out {
				ids = append(ids, a.ID)
			}
			if !reflect.DeepEqual(ids, tc.ids) {
				t.Fatalf("got ids %v, want %v", ids, tc.ids)
			}
		})
	}
}

// Independent equality filters commute: filtering by project then user equals
// filtering by user then project.
func TestFilterActivitiesCommutes(t *testing.T) {
	in := sampleActivities()
	a := FilterActivities(FilterActivities(in, ActivityFilter{ProjectID: int64p(2)}), ActivityFilter{UserID: int64p(102)})
	b := FilterActivities(FilterActivities(in, ActivityFilter{UserID: int64p(102)}), ActivityFilter{ProjectID: int64p(2)})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("filter order changed the result: %v vs %v", a, b)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	in := []Activity{
		{ID: 9, ProjectID: 1},
		{ID: 4, ProjectID: 1},
		{ID: 7, ProjectID: 2},
		{ID: 1, ProjectID: 1},
	}
	out := FilterActivities(in, ActivityFilter{ProjectID: int64p(1)})
	want := []int64{9, 4, 1}
	for i, a := range out {
		if a.ID != want[i] {
			t.Fatalf("position %d: got id %d, want %d", i, a.ID, want[i])
		}
	}
}
