package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeDesktop = "desktop"
	DeviceTypeUnknown = "unknown"
)

// PushSubscription is one push-capable browsing context. The endpoint is the
// delivery address assigned by the push provider, not a user identity; it is
// globally unique and tied to exactly one user for bookkeeping.
type PushSubscription struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Endpoint   string    `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256dh     string    `gorm:"not null" json:"p256dh"`
	Auth       string    `gorm:"not null" json:"auth"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	DeviceType string    `gorm:"type:varchar(10);not null;default:'unknown'" json:"device_type"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DedupKey groups subscriptions believed to belong to the same browsing
// session: the user agent string when present, the endpoint otherwise.
func (s *PushSubscription) DedupKey() string {
	if s.UserAgent != "" {
		return s.UserAgent
	}
	return s.Endpoint
}

// NotificationPayload is the transient message shape delivered to the
// background worker on the client. It is never persisted as-is.
type NotificationPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Badge string                 `json:"badge,omitempty"`
	Tag   string                 `json:"tag"`
	Data  map[string]interface{} `json:"data"`
}
