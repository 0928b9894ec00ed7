package printers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
)

// Repository defines persistence operations for the printers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, printer *models.Printer) error
	FindByID(ctx context.Context, printerID string) (*models.Printer, error)
	FindByEventAndName(ctx context.Context, eventName, printerName string) (*models.Printer, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Printer, error)
	ListByEvent(ctx context.Context, eventName string) ([]models.Printer, error)
	UpdateHeartbeat(ctx context.Context, printerID string, at time.Time) error
	UpdateLastJobProcessed(ctx context.Context, printerID string, at time.Time) error
	DeleteTx(tx *gorm.DB, printerID string) error
}
