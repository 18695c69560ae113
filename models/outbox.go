package models

import "time"

const (
	OutboxKindOrderPlaced    = "order_placed"
	OutboxKindOrderCompleted = "order_completed"

	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// NotificationOutbox is a persisted notification intent. The triggering
// operation (checkout, status change) only enqueues a row; a worker loop
// drains due rows and retries with backoff, so best-effort side effects stay
// observable instead of vanishing with the request.
type NotificationOutbox struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind          string    `gorm:"type:varchar(30);not null;index" json:"kind"`
	Payload       string    `gorm:"type:text;not null" json:"payload"`
	Status        string    `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	Attempts      int       `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time `gorm:"not null;index" json:"next_attempt_at"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
