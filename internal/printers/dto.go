package printers

import (
	"time"

	"github.com/stickerlandia/print-service/pkg/enums"
)

// RegisteredPrinter is returned once at registration; the api key is never
// readable again afterwards.
type RegisteredPrinter struct {
	PrinterID string `json:"printerId"`
	APIKey    string `json:"apiKey"`
}

// PrinterStatusView is the operator-facing status row for one printer.
type PrinterStatusView struct {
	PrinterID        string              `json:"printerId"`
	PrinterName      string              `json:"printerName"`
	Status           enums.PrinterStatus `json:"status"`
	LastHeartbeat    *time.Time          `json:"lastHeartbeat,omitempty"`
	LastJobProcessed *time.Time          `json:"lastJobProcessed,omitempty"`
	ActiveJobs       int64               `json:"activeJobs"`
}
