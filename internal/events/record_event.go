package events

import "time"

const AttendanceRecordTopic = "attendance.record.v1"

// Event types carried on the attendance record topic.
const (
	RecordCreated     = "record_created"
	RecordClosed      = "record_closed"
	LeaveApplied      = "leave_applied"
	RecordBackfilled  = "record_backfilled"
	RecordForceClosed = "record_force_closed"
)

type RecordEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	RecordDate string    `json:"record_date"`
	Status     string    `json:"status"`
	Fine       int       `json:"fine"`
	OccurredAt time.Time `json:"occurred_at"`
}
