package core

import (
	"sort"
	"time"
)

// PeriodTotals holds hour sums for the three dashboard windows anchored at a
// reference instant: the current day, the trailing 7 days, and the current
// calendar month. The windows overlap, so one activity may count in all three.
type PeriodTotals struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
}

// GroupTotal is an hour sum for one value of a grouping dimension.
type GroupTotal struct {
	Key   int64   `json:"id"`
	Hours float64 `json:"hours"`
}

// GroupTotalsList flattens a totals map into a deterministic id-ordered list
// for JSON payloads.
func GroupTotalsList(totals map[int64]float64) []GroupTotal {
	out := make([]GroupTotal, 0, len(totals))
	for k, h := range totals {
		out = append(out, GroupTotal{Key: k, Hours: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ComputePeriodTotals buckets activity hours into day/week/month windows.
//
// Each window is inclusive on both ends: day is [midnight(now), now], week is
// [midnight(now)-6d, now], month is [first-of-month(now), now]. An activity's
// date is taken at midnight in now's location; activities with unparseable
// dates are skipped. An empty collection yields all-zero totals.
func ComputePeriodTotals(activities []Activity, now time.Time) PeriodTotals {
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := dayStart.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	var totals PeriodTotals
	for _, a := range activities {
		d, err := parseDateIn(a.Date, loc)
		if err != nil {
			continue
		}
		if !d.Before(dayStart) && !d.After(now) {
			totals.Day += a.Hours
		}
		if !d.Before(weekStart) && !d.After(now) {
			totals.Week += a.Hours
		}
		if !d.Before(monthStart) && !d.After(now) {
			totals.Month += a.Hours
		}
	}
	return totals
}

// ComputeGroupTotals sums hours per grouping key. Keys with no matching
// activity are absent from the result; callers default to zero for display.
// Iteration order does not affect the sums.
func ComputeGroupTotals(activities []Activity, keyFn func(Activity) int64) map[int64]float64 {
	totals := make(map[int64]float64)
	for _, a := range activities {
		totals[keyFn(a)] += a.Hours
	}
	return totals
}

// SumByProject groups activity hours by project id.
func SumByProject(activities []Activity) map[int64]float64 {
	return ComputeGroupTotals(activities, func(a Activity) int64 { return a.ProjectID })
}

// SumByUser groups activity hours by user id.
func SumByUser(activities []Activity) map[int64]float64 {
	return ComputeGroupTotals(activities, func(a Activity) int64 { return a.UserID })
}
