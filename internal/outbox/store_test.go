package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_items (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  event_data TEXT,
  event_time DATETIME,
  processed BOOLEAN NOT NULL DEFAULT 0,
  failed BOOLEAN NOT NULL DEFAULT 0,
  failure_reason TEXT,
  trace_id TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestAppendTxCommitMakesItemFetchable(t *testing.T) {
	db := setupOutboxTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	event := PrintJobQueuedEvent{
		PrintJobID: "job-1",
		PrinterID:  "STICKERLANDIA-2026-BOOTH-1",
		UserID:     "user-1",
		StickerID:  "sticker-1",
	}
	trace := "req-1"

	tx := db.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, store.AppendTx(tx, enums.EventPrintJobQueued, event, &trace))
	require.NoError(t, tx.Commit().Error)

	rows, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventPrintJobQueued, rows[0].EventType)
	require.NotNil(t, rows[0].TraceID)
	assert.Equal(t, "req-1", *rows[0].TraceID)

	var decoded PrintJobQueuedEvent
	require.NoError(t, json.Unmarshal(rows[0].EventData, &decoded))
	assert.Equal(t, event, decoded)
}

func TestAppendTxRollbackLeavesNothingBehind(t *testing.T) {
	db := setupOutboxTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	event := PrinterRegisteredEvent{PrinterID: "STICKERLANDIA-2026-BOOTH-1"}

	tx := db.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, store.AppendTx(tx, enums.EventPrinterRegistered, event, nil))
	require.NoError(t, tx.Rollback().Error)

	rows, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows, "rolled back append must not leave an outbox row")
}

func TestFetchUnprocessedExcludesTerminalRows(t *testing.T) {
	db := setupOutboxTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	for _, jobID := range []string{"job-1", "job-2", "job-3"} {
		tx := db.Begin()
		require.NoError(t, tx.Error)
		event := PrintJobQueuedEvent{PrintJobID: jobID, PrinterID: "P", UserID: "u", StickerID: "s"}
		require.NoError(t, store.AppendTx(tx, enums.EventPrintJobQueued, event, nil))
		require.NoError(t, tx.Commit().Error)
	}

	rows, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	reason := "Unknown event type"
	require.NoError(t, store.MarkResult(ctx, rows[0].ID, true, false, nil))
	require.NoError(t, store.MarkResult(ctx, rows[1].ID, false, true, &reason))

	remaining, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, rows[2].ID, remaining[0].ID)

	// Repeating the same terminal update is harmless.
	require.NoError(t, store.MarkResult(ctx, rows[1].ID, false, true, &reason))
	again, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, again, 1)

	var failedRow struct {
		Failed        bool
		FailureReason *string
	}
	require.NoError(t, db.Table("outbox_items").Where("id = ?", rows[1].ID).Select("failed", "failure_reason").Scan(&failedRow).Error)
	assert.True(t, failedRow.Failed)
	require.NotNil(t, failedRow.FailureReason)
	assert.Equal(t, reason, *failedRow.FailureReason)
}
