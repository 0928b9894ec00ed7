package models

import "time"

// Printer is a registered physical printer bound to an event booth. The
// primary key is the composite id derived from event and printer names.
type Printer struct {
	PrinterID        string     `gorm:"column:printer_id;primaryKey"`
	EventName        string     `gorm:"column:event_name;not null;uniqueIndex:idx_printers_event_printer"`
	PrinterName      string     `gorm:"column:printer_name;not null;uniqueIndex:idx_printers_event_printer"`
	APIKey           string     `gorm:"column:api_key;not null;uniqueIndex:idx_printers_api_key"`
	LastHeartbeat    *time.Time `gorm:"column:last_heartbeat"`
	LastJobProcessed *time.Time `gorm:"column:last_job_processed"`
	Version          int        `gorm:"column:version;not null;default:0"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Printer) TableName() string {
	return "printers"
}
