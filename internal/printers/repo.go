package printers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a printers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, printer *models.Printer) error {
	return r.db.WithContext(ctx).Create(printer).Error
}

func (r *repository) FindByID(ctx context.Context, printerID string) (*models.Printer, error) {
	var printer models.Printer
	err := r.db.WithContext(ctx).
		Where("printer_id = ?", printerID).
		First(&printer).Error
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *repository) FindByEventAndName(ctx context.Context, eventName, printerName string) (*models.Printer, error) {
	var printer models.Printer
	err := r.db.WithContext(ctx).
		Where("event_name = ? AND printer_name = ?", eventName, printerName).
		First(&printer).Error
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *repository) FindByAPIKey(ctx context.Context, apiKey string) (*models.Printer, error) {
	var printer models.Printer
	err := r.db.WithContext(ctx).
		Where("api_key = ?", apiKey).
		First(&printer).Error
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventName string) ([]models.Printer, error) {
	var printers []models.Printer
	err := r.db.WithContext(ctx).
		Where("event_name = ?", eventName).
		Order("printer_name ASC").
		Find(&printers).Error
	if err != nil {
		return nil, err
	}
	return printers, nil
}

func (r *repository) UpdateHeartbeat(ctx context.Context, printerID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Printer{}).
		Where("printer_id = ?", printerID).
		Update("last_heartbeat", at).Error
}

func (r *repository) UpdateLastJobProcessed(ctx context.Context, printerID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Printer{}).
		Where("printer_id = ?", printerID).
		Update("last_job_processed", at).Error
}

func (r *repository) DeleteTx(tx *gorm.DB, printerID string) error {
	return tx.
		Where("printer_id = ?", printerID).
		Delete(&models.Printer{}).Error
}
