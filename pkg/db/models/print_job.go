package models

import (
	"time"

	"github.com/stickerlandia/print-service/pkg/enums"
)

// PrintJob is a single sticker print request moving through the queue.
// Version backs the optimistic claim and acknowledge updates.
type PrintJob struct {
	PrintJobID    string               `gorm:"column:print_job_id;type:uuid;primaryKey"`
	PrinterID     string               `gorm:"column:printer_id;not null;index:idx_print_jobs_claim,priority:1"`
	UserID        string               `gorm:"column:user_id;not null"`
	StickerID     string               `gorm:"column:sticker_id;not null"`
	StickerURL    string               `gorm:"column:sticker_url;not null"`
	Status        enums.PrintJobStatus `gorm:"column:status;not null;index:idx_print_jobs_claim,priority:2"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime;index:idx_print_jobs_claim,priority:3"`
	ProcessedAt   *time.Time           `gorm:"column:processed_at"`
	CompletedAt   *time.Time           `gorm:"column:completed_at"`
	FailureReason *string              `gorm:"column:failure_reason"`
	Version       int                  `gorm:"column:version;not null;default:0"`
}

func (PrintJob) TableName() string {
	return "print_jobs"
}
