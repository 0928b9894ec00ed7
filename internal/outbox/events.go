package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/stickerlandia/print-service/pkg/enums"
)

// PrinterRegisteredEvent announces a new printer.
type PrinterRegisteredEvent struct {
	PrinterID string `json:"printerId"`
}

// PrinterDeletedEvent announces a printer removal.
type PrinterDeletedEvent struct {
	PrinterID   string `json:"printerId"`
	EventName   string `json:"eventName"`
	PrinterName string `json:"printerName"`
}

// PrintJobQueuedEvent announces a newly submitted job.
type PrintJobQueuedEvent struct {
	PrintJobID string `json:"printJobId"`
	PrinterID  string `json:"printerId"`
	UserID     string `json:"userId"`
	StickerID  string `json:"stickerId"`
}

// PrintJobCompletedEvent announces a successful print.
type PrintJobCompletedEvent struct {
	PrintJobID string `json:"printJobId"`
	PrinterID  string `json:"printerId"`
	UserID     string `json:"userId"`
	StickerID  string `json:"stickerId"`
}

// PrintJobFailedEvent announces a failed print.
type PrintJobFailedEvent struct {
	PrintJobID    string `json:"printJobId"`
	PrinterID     string `json:"printerId"`
	UserID        string `json:"userId"`
	StickerID     string `json:"stickerId"`
	FailureReason string `json:"failureReason"`
}

// decodeEvent checks that the stored payload deserializes into the concrete
// type for the event. The processor refuses to forward bytes it cannot parse.
func decodeEvent(eventType enums.EventType, data json.RawMessage) (any, error) {
	var (
		target any
		err    error
	)
	switch eventType {
	case enums.EventPrinterRegistered:
		var ev PrinterRegisteredEvent
		err = strictUnmarshal(data, &ev)
		target = ev
	case enums.EventPrinterDeleted:
		var ev PrinterDeletedEvent
		err = strictUnmarshal(data, &ev)
		target = ev
	case enums.EventPrintJobQueued:
		var ev PrintJobQueuedEvent
		err = strictUnmarshal(data, &ev)
		target = ev
	case enums.EventPrintJobCompleted:
		var ev PrintJobCompletedEvent
		err = strictUnmarshal(data, &ev)
		target = ev
	case enums.EventPrintJobFailed:
		var ev PrintJobFailedEvent
		err = strictUnmarshal(data, &ev)
		target = ev
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

func strictUnmarshal(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(data, target)
}
