package workweek

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the storage format for record dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the storage format for clock-in/out times of day.
	ClockLayout = "15:04:05"
)

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsWeekStart reports whether t is the day the working week starts (Monday).
func IsWeekStart(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// IsMonthStart reports whether t is the first day of its month.
func IsMonthStart(t time.Time) bool {
	return t.Day() == 1
}

// WeekKey returns the fencing token for weekly resets, e.g. "2026-W36".
// ISO weeks start on Monday, which matches the reset trigger day.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the fencing token for monthly resets, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// WeekLabel derives the fine-report column label "M.N" from a stored date,
// where N is the week-of-month counted in 7-day blocks from the 1st.
// Returns "" for unparsable input.
func WeekLabel(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	weekNum := (t.Day()-1)/7 + 1
	return fmt.Sprintf("%d.%d", int(t.Month()), weekNum)
}

// Date formats t as a stored record date.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Clock formats t as a stored time of day.
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

// FirstOfMonth returns midnight on the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekdaysBetween returns every non-weekend date in [from, to], in
// chronological order, formatted with DateLayout. An empty range yields nil.
func WeekdaysBetween(from, to time.Time) []string {
	var days []string
	for d := Midnight(from); !d.After(Midnight(to)); d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) {
			continue
		}
		days = append(days, Date(d))
	}
	return days
}
