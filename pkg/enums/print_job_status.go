package enums

type PrintJobStatus string

const (
	PrintJobQueued     PrintJobStatus = "queued"
	PrintJobProcessing PrintJobStatus = "processing"
	PrintJobCompleted  PrintJobStatus = "completed"
	PrintJobFailed     PrintJobStatus = "failed"
)

func (s PrintJobStatus) Valid() bool {
	switch s {
	case PrintJobQueued, PrintJobProcessing, PrintJobCompleted, PrintJobFailed:
		return true
	}
	return false
}

// Terminal reports whether a job in this status can no longer change.
func (s PrintJobStatus) Terminal() bool {
	return s == PrintJobCompleted || s == PrintJobFailed
}

func (s PrintJobStatus) String() string {
	return string(s)
}
