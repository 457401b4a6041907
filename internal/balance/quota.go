package balance

import (
	balanceerrors "github.com/murabitopit/attendance-app/internal/balance/errors"
	"github.com/murabitopit/attendance-app/internal/user"
)

// Per-period grants. Resets overwrite the balance with the grant; unused
// quota from the previous period is forfeited, never carried over.
const (
	WeeklyRestQuota       = 1
	MonthlyPaidLeaveQuota = 2
)

// ApplyWeeklyReset sets the rest balance to the weekly grant unless the
// reset for weekKey was already applied. Reports whether the user changed.
func ApplyWeeklyReset(u *user.User, weekKey string) bool {
	if u.LastResetWeek == weekKey {
		return false
	}
	u.RestBalance = WeeklyRestQuota
	u.LastResetWeek = weekKey
	return true
}

// ApplyMonthlyReset sets the paid leave balance to the monthly grant unless
// the reset for monthKey was already applied.
func ApplyMonthlyReset(u *user.User, monthKey string) bool {
	if u.LastResetMonth == monthKey {
		return false
	}
	u.PaidLeaveBalance = MonthlyPaidLeaveQuota
	u.LastResetMonth = monthKey
	return true
}

// Consume decrements the named balance by one. The caller is responsible
// for persisting the user afterwards.
func Consume(u *user.User, field string) error {
	switch field {
	case user.FieldRestBalance:
		if u.RestBalance < 1 {
			return balanceerrors.ErrInsufficientBalance
		}
		u.RestBalance--
	case user.FieldPaidLeaveBalance:
		if u.PaidLeaveBalance < 1 {
			return balanceerrors.ErrInsufficientBalance
		}
		u.PaidLeaveBalance--
	default:
		return balanceerrors.ErrUnknownBalanceField
	}
	return nil
}

// Add applies an admin delta to the named balance. There is no floor; a
// correction may drive the balance negative.
func Add(u *user.User, field string, delta int) error {
	switch field {
	case user.FieldRestBalance:
		u.RestBalance += delta
	case user.FieldPaidLeaveBalance:
		u.PaidLeaveBalance += delta
	default:
		return balanceerrors.ErrUnknownBalanceField
	}
	return nil
}
