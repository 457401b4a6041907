package kafka

import "time"

// OutboxModel exists only so migrations can create the outbox table; the
// repository talks to it with raw SQL.
type OutboxModel struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey"`
	AggregateID  string     `gorm:"column:aggregate_id;type:varchar(64);not null"`
	EventType    string     `gorm:"column:event_type;type:varchar(64);not null"`
	Topic        string     `gorm:"column:topic;type:varchar(128);not null"`
	Payload      []byte     `gorm:"column:payload;type:jsonb;not null"`
	Status       string     `gorm:"column:status;type:varchar(16);not null;default:pending;index"`
	RetryCount   int        `gorm:"column:retry_count;not null;default:0"`
	ErrorMessage *string    `gorm:"column:error_message;type:varchar(500)"`
	NextRetryAt  *time.Time `gorm:"column:next_retry_at"`
	ProcessedAt  *time.Time `gorm:"column:processed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (OutboxModel) TableName() string {
	return "outbox_events"
}
