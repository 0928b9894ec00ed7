package printjobs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a print-jobs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, job *models.PrintJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, printJobID string) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.WithContext(ctx).
		Where("print_job_id = ?", printJobID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) FindQueued(ctx context.Context, printerID string, limit int) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := r.db.WithContext(ctx).
		Where("printer_id = ? AND status = ?", printerID, enums.PrintJobQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimOne attempts the queued-to-processing transition. The status and
// version predicates make the update a no-op when another poller got there
// first; the caller reads RowsAffected through the bool return.
func (r *repository) ClaimOne(ctx context.Context, printJobID string, version int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PrintJob{}).
		Where("print_job_id = ? AND status = ? AND version = ?", printJobID, enums.PrintJobQueued, version).
		Updates(map[string]any{
			"status":       enums.PrintJobProcessing,
			"processed_at": at,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FinishTx moves a processing job to its terminal status inside the caller's
// transaction, guarded by the same version predicate as ClaimOne.
func (r *repository) FinishTx(tx *gorm.DB, printJobID string, version int, status enums.PrintJobStatus, at time.Time, failureReason *string) (bool, error) {
	updates := map[string]any{
		"status":       status,
		"completed_at": at,
		"version":      gorm.Expr("version + 1"),
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	res := tx.
		Model(&models.PrintJob{}).
		Where("print_job_id = ? AND status = ? AND version = ?", printJobID, enums.PrintJobProcessing, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CountInStatus(ctx context.Context, printerID string, status enums.PrintJobStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PrintJob{}).
		Where("printer_id = ? AND status = ?", printerID, status).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteForPrinterTx(tx *gorm.DB, printerID string) error {
	return tx.
		Where("printer_id = ?", printerID).
		Delete(&models.PrintJob{}).Error
}
