// Package period handles the calendar-month arithmetic used by budgets and
// reports. Every value it returns is in UTC.
package period

import (
	"fmt"
	"time"
)

const (
	// MonthLayout is the YYYY-MM form accepted in query strings.
	MonthLayout = "2006-01"
	// LabelLayout is the "Apr 2025" form used by trend reports.
	LabelLayout = "Jan 2006"
	// TrendMonths is the length of every trailing trend window.
	TrendMonths = 6
)

// ParseMonth parses a strict YYYY-MM string into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t, nil
}

// ParseMonthOrCurrent parses s, falling back to the month containing now
// when s is empty.
func ParseMonthOrCurrent(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return StartOfMonth(now), nil
	}
	return ParseMonth(s)
}

// StartOfMonth returns 00:00 UTC on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first day of the month after month.
func NextMonth(month time.Time) time.Time {
	return StartOfMonth(month).AddDate(0, 1, 0)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Trailing returns n month starts ending with the month containing now,
// current month first.
func Trailing(now time.Time, n int) []time.Time {
	months := make([]time.Time, 0, n)
	current := StartOfMonth(now)
	for i := 0; i < n; i++ {
		months = append(months, current.AddDate(0, -i, 0))
	}
	return months
}

// Label formats month as "Apr 2025".
func Label(month time.Time) string {
	return month.UTC().Format(LabelLayout)
}

// ParseLabel is the inverse of Label.
func ParseLabel(s string) (time.Time, error) {
	t, err := time.Parse(LabelLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month label %q: %w", s, err)
	}
	return t, nil
}

// Name returns the long form used in emails, e.g. "April 2025".
func Name(month time.Time) string {
	return month.UTC().Format("January 2006")
}
