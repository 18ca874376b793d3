// Package core provides the timesheet domain model and its computations.
//
// This file contains parsing for hour quantities entered as text. Hours are
// a continuous quantity; half-hour granularity is common but not enforced.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseHours converts a decimal string to an hour quantity.
//
// It accepts both dot (3.5) and comma (3,5) decimal separators. The result
// must be positive and at most 24 (a single calendar day).
//
// Examples:
//
//	ParseHours("3")    -> 3, nil
//	ParseHours("2,5")  -> 2.5, nil
//	ParseHours("-1")   -> 0, ErrInvalidHours
//	ParseHours("25")   -> 0, ErrInvalidHours
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidHours
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only plain positive values allowed
		return 0, ErrInvalidHours
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidHours
		}
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidHours
	}
	if h <= 0 || h > 24 {
		return 0, ErrInvalidHours
	}
	return h, nil
}
