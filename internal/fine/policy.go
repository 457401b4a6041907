package fine

import (
	"math"
	"time"
)

const (
	// WorkStartHour is the hour clock-ins start counting as late.
	WorkStartHour = 9
	// WorkEndHour is the hour the working day ends; leaving earlier is fined.
	WorkEndHour = 15
	// LeaveApplyDeadlineHour is the last hour a same-day paid-leave
	// application is accepted (strictly before 08:00:00).
	LeaveApplyDeadlineHour = 8
	// MaxDailyFine caps the total fine written to any single record.
	MaxDailyFine = 1000
)

// Statuses produced by the late policy. The record ledger owns the rest of
// the status vocabulary.
const (
	StatusNormal              = "NORMAL"
	StatusLate                = "LATE"
	StatusAbsenceLateExceeded = "ABSENCE_LATE_EXCEEDED"
)

// Late maps a clock-in time to its fine and status. Only the hour component
// matters: before 09 is free, each hour from 09 adds 100 on top of 500, and
// 14:00 or later counts as an absence by exceeded lateness.
func Late(clockIn time.Time) (int, string) {
	hour := clockIn.Hour()
	switch {
	case hour < WorkStartHour:
		return 0, StatusNormal
	case hour == 9:
		return 500, StatusLate
	case hour == 10:
		return 600, StatusLate
	case hour == 11:
		return 700, StatusLate
	case hour == 12:
		return 800, StatusLate
	case hour == 13:
		return 900, StatusLate
	default:
		return MaxDailyFine, StatusAbsenceLateExceeded
	}
}

// Early maps a clock-out time to the early-leave fine: 100 per started hour
// remaining until the 15:00 work end, zero at or after it.
func Early(clockOut time.Time) int {
	end := time.Date(clockOut.Year(), clockOut.Month(), clockOut.Day(),
		WorkEndHour, 0, 0, 0, clockOut.Location())
	if !clockOut.Before(end) {
		return 0
	}
	hoursEarly := int(math.Ceil(end.Sub(clockOut).Seconds() / 3600))
	return hoursEarly * 100
}

// Combine merges an already-recorded fine with an early-leave fine, clamped
// to the daily cap.
func Combine(existing, early int) int {
	return Clamp(existing + early)
}

// Clamp forces a fine into [0, MaxDailyFine]. Every fine is clamped at the
// point it is written.
func Clamp(f int) int {
	if f < 0 {
		return 0
	}
	if f > MaxDailyFine {
		return MaxDailyFine
	}
	return f
}

// PastApplyDeadline reports whether now is past the same-day paid-leave
// application deadline (08:00:00).
func PastApplyDeadline(now time.Time) bool {
	deadline := time.Date(now.Year(), now.Month(), now.Day(),
		LeaveApplyDeadlineHour, 0, 0, 0, now.Location())
	return now.After(deadline)
}
