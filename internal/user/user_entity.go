package user

import (
	"time"

	"github.com/google/uuid"
)

// User is one member of the tracked group. Balances are born at zero on
// registration; the reset tokens record the last week/month a quota reset
// was applied so sweeps can be re-run safely.
type User struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name             string    `gorm:"column:name;type:varchar(100);not null;uniqueIndex:uq_users_name"`
	RestBalance      int       `gorm:"column:rest_balance;not null;default:0"`
	PaidLeaveBalance int       `gorm:"column:paid_leave_balance;not null;default:0"`
	InitialFine      int       `gorm:"column:initial_fine;not null;default:0"`
	LastResetWeek    string    `gorm:"column:last_reset_week;type:varchar(10);not null;default:''"`
	LastResetMonth   string    `gorm:"column:last_reset_month;type:varchar(7);not null;default:''"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Balance field names accepted by consume/adjust operations.
const (
	FieldRestBalance      = "rest_balance"
	FieldPaidLeaveBalance = "paid_leave_balance"
)
