package printjobs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
)

// Repository defines persistence operations for the print_jobs table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.PrintJob) error
	FindByID(ctx context.Context, printJobID string) (*models.PrintJob, error)
	FindQueued(ctx context.Context, printerID string, limit int) ([]models.PrintJob, error)
	ClaimOne(ctx context.Context, printJobID string, version int, at time.Time) (bool, error)
	FinishTx(tx *gorm.DB, printJobID string, version int, status enums.PrintJobStatus, at time.Time, failureReason *string) (bool, error)
	CountInStatus(ctx context.Context, printerID string, status enums.PrintJobStatus) (int64, error)
	DeleteForPrinterTx(tx *gorm.DB, printerID string) error
}
