package record

import (
	"time"

	"github.com/google/uuid"
)

// Statuses a record can carry beyond the ones produced by the late policy.
// A checked-out record that left early gets the EarlyLeaveSuffix appended.
const (
	StatusAbsence        = "ABSENCE"
	StatusHolidayWork    = "HOLIDAY_WORK"
	StatusCheckedOut     = "CHECKED_OUT"
	StatusRest           = "REST"
	StatusPaidLeave      = "PAID_LEAVE"
	StatusSpecialAbsence = "SPECIAL_ABSENCE"

	EarlyLeaveSuffix = "/EARLY_LEAVE"
)

// NoClock marks the clock fields of leave records that never had a
// physical clock-in.
const NoClock = "-"

// Record is one day's worth of attendance state for one user. The unique
// index on (user_id, record_date) is what actually enforces the
// one-record-per-day rule.
type Record struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_records_user_date"`
	RecordDate string    `gorm:"column:record_date;type:varchar(10);not null;uniqueIndex:uq_records_user_date"`
	ClockIn    string    `gorm:"column:clock_in;type:varchar(8);not null;default:''"`
	ClockOut   string    `gorm:"column:clock_out;type:varchar(8);not null;default:''"`
	Status     string    `gorm:"column:status;type:varchar(40);not null"`
	Fine       int       `gorm:"column:fine;not null;default:0"`
	Note       string    `gorm:"column:note;type:text;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "records"
}

// IsOpen reports whether the record still waits for a clock-out. Leave
// records carry the NoClock sentinel and are never open.
func (r *Record) IsOpen() bool {
	return r.ClockOut == ""
}
