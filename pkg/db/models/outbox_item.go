package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stickerlandia/print-service/pkg/enums"
)

// OutboxItem is an integration event appended inside the producing command's
// transaction. Rows are terminal once processed or failed and are never
// deleted by the service.
type OutboxItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.EventType `gorm:"column:event_type;not null"`
	EventData     json.RawMessage `gorm:"column:event_data;type:jsonb;not null"`
	EventTime     time.Time       `gorm:"column:event_time;autoCreateTime;index:idx_outbox_unprocessed,priority:2"`
	Processed     bool            `gorm:"column:processed;not null;default:false;index:idx_outbox_unprocessed,priority:1"`
	Failed        bool            `gorm:"column:failed;not null;default:false"`
	FailureReason *string         `gorm:"column:failure_reason"`
	TraceID       *string         `gorm:"column:trace_id"`
}

func (OutboxItem) TableName() string {
	return "outbox_items"
}
