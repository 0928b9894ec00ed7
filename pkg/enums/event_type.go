package enums

// EventType identifies the integration event stored in an outbox row.
type EventType string

const (
	EventPrinterRegistered EventType = "printers.registered.v1"
	EventPrinterDeleted    EventType = "printers.deleted.v1"
	EventPrintJobQueued    EventType = "printJobs.queued.v1"
	EventPrintJobCompleted EventType = "printJobs.completed.v1"
	EventPrintJobFailed    EventType = "printJobs.failed.v1"
)

func (t EventType) Known() bool {
	switch t {
	case EventPrinterRegistered, EventPrinterDeleted,
		EventPrintJobQueued, EventPrintJobCompleted, EventPrintJobFailed:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}
