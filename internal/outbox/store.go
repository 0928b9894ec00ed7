package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
)

// Store persists integration events alongside the business writes that
// produce them.
type Store interface {
	AppendTx(tx *gorm.DB, eventType enums.EventType, payload any, traceID *string) error
	FetchUnprocessed(ctx context.Context, maxCount int) ([]models.OutboxItem, error)
	MarkResult(ctx context.Context, id uuid.UUID, processed, failed bool, failureReason *string) error
}

type store struct {
	db *gorm.DB
}

// NewStore builds an outbox store bound to the provided DB.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

// AppendTx marshals the payload and inserts the row inside the caller's
// transaction so the event commits atomically with the business change.
func (s *store) AppendTx(tx *gorm.DB, eventType enums.EventType, payload any, traceID *string) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", eventType, err)
	}
	item := models.OutboxItem{
		ID:        uuid.New(),
		EventType: eventType,
		EventData: data,
		TraceID:   traceID,
	}
	return tx.Create(&item).Error
}

func (s *store) FetchUnprocessed(ctx context.Context, maxCount int) ([]models.OutboxItem, error) {
	if maxCount <= 0 {
		maxCount = 100
	}
	var rows []models.OutboxItem
	err := s.db.WithContext(ctx).
		Where("processed = ? AND failed = ?", false, false).
		Order("event_time ASC").
		Order("id ASC").
		Limit(maxCount).
		Find(&rows).Error
	return rows, err
}

// MarkResult flips the terminal flags on a single row. Repeating the same
// update is harmless, which keeps the processor idempotent across crashes.
func (s *store) MarkResult(ctx context.Context, id uuid.UUID, processed, failed bool, failureReason *string) error {
	updates := map[string]any{
		"processed": processed,
		"failed":    failed,
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	return s.db.WithContext(ctx).
		Model(&models.OutboxItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}
