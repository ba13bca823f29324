package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/selvamresidency/hotel-backend/pkg/enums"
)

// NotificationOutbox is a queued email awaiting delivery by the dispatcher.
type NotificationOutbox struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Kind          enums.TemplateKind       `gorm:"column:kind;type:text;not null"`
	Recipient     string                   `gorm:"column:recipient;type:text;not null"`
	Fields        string                   `gorm:"column:fields;type:jsonb;not null"`
	Status        enums.NotificationStatus `gorm:"column:status;type:text;not null;default:pending"`
	AttemptCount  int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                  `gorm:"column:last_error;type:text"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	NextAttemptAt time.Time                `gorm:"column:next_attempt_at;not null"`
	SentAt        *time.Time               `gorm:"column:sent_at"`
}

func (NotificationOutbox) TableName() string { return "notification_outbox" }
