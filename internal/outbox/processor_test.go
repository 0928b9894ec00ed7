package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
	"github.com/stickerlandia/print-service/pkg/logger"
)

type markCall struct {
	id        uuid.UUID
	processed bool
	failed    bool
	reason    *string
}

type fakeStore struct {
	mu       sync.Mutex
	items    []models.OutboxItem
	fetchErr error
	markErr  error
	marks    []markCall
}

func (s *fakeStore) AppendTx(tx *gorm.DB, eventType enums.EventType, payload any, traceID *string) error {
	return errors.New("not used")
}

func (s *fakeStore) FetchUnprocessed(ctx context.Context, maxCount int) ([]models.OutboxItem, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if maxCount < len(s.items) {
		return s.items[:maxCount], nil
	}
	return s.items, nil
}

func (s *fakeStore) MarkResult(ctx context.Context, id uuid.UUID, processed, failed bool, failureReason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.marks = append(s.marks, markCall{id: id, processed: processed, failed: failed, reason: failureReason})
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []enums.EventType
	errFor    map[enums.EventType]error
}

func (p *fakePublisher) Publish(ctx context.Context, eventType enums.EventType, data []byte, attributes map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errFor[eventType]; ok {
		return err
	}
	p.published = append(p.published, eventType)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func queuedItem(t *testing.T, eventType enums.EventType, payload any) models.OutboxItem {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return models.OutboxItem{
		ID:        uuid.New(),
		EventType: eventType,
		EventData: data,
	}
}

func newTestProcessor(t *testing.T, store Store, pub Publisher) *Processor {
	t.Helper()
	proc, err := NewProcessor(ProcessorParams{
		Store:     store,
		Publisher: pub,
		Logger:    testLogger(),
		BatchSize: 10,
	})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return proc
}

func TestRunOncePublishesAndMarksProcessed(t *testing.T) {
	item := queuedItem(t, enums.EventPrintJobQueued, PrintJobQueuedEvent{
		PrintJobID: uuid.NewString(),
		PrinterID:  "STICKERLANDIA-2026-BOOTH-1",
		UserID:     "user-1",
		StickerID:  "sticker-1",
	})
	store := &fakeStore{items: []models.OutboxItem{item}}
	pub := &fakePublisher{}

	stats, err := newTestProcessor(t, store, pub).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if stats.Published != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(store.marks) != 1 || !store.marks[0].processed || store.marks[0].failed {
		t.Fatalf("expected one processed mark, got %+v", store.marks)
	}
	if len(pub.published) != 1 || pub.published[0] != enums.EventPrintJobQueued {
		t.Fatalf("unexpected publishes %v", pub.published)
	}
}

func TestRunOnceUnknownEventTypeIsTerminal(t *testing.T) {
	item := models.OutboxItem{
		ID:        uuid.New(),
		EventType: "printers.exploded.v9",
		EventData: json.RawMessage(`{}`),
	}
	store := &fakeStore{items: []models.OutboxItem{item}}
	pub := &fakePublisher{}

	stats, err := newTestProcessor(t, store, pub).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", stats)
	}
	if len(pub.published) != 0 {
		t.Fatalf("nothing should publish for unknown types")
	}
	mark := store.marks[0]
	if !mark.failed || mark.processed || mark.reason == nil || *mark.reason != "Unknown event type" {
		t.Fatalf("unexpected mark %+v", mark)
	}
}

func TestRunOnceUndeserializablePayloadIsTerminal(t *testing.T) {
	item := models.OutboxItem{
		ID:        uuid.New(),
		EventType: enums.EventPrinterRegistered,
		EventData: json.RawMessage(`{not json`),
	}
	store := &fakeStore{items: []models.OutboxItem{item}}
	pub := &fakePublisher{}

	stats, err := newTestProcessor(t, store, pub).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", stats)
	}
	mark := store.marks[0]
	if mark.reason == nil || *mark.reason != "Contents of outbox item cannot be deserialized." {
		t.Fatalf("unexpected reason %+v", mark.reason)
	}
}

func TestRunOncePublishErrorMarksFailedAndContinues(t *testing.T) {
	bad := queuedItem(t, enums.EventPrinterRegistered, PrinterRegisteredEvent{PrinterID: "A-B"})
	good := queuedItem(t, enums.EventPrinterDeleted, PrinterDeletedEvent{
		PrinterID:   "A-B",
		EventName:   "A",
		PrinterName: "B",
	})
	store := &fakeStore{items: []models.OutboxItem{bad, good}}
	pub := &fakePublisher{errFor: map[enums.EventType]error{
		enums.EventPrinterRegistered: errors.New("broker unavailable"),
	}}

	stats, err := newTestProcessor(t, store, pub).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if stats.Published != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(store.marks) != 2 {
		t.Fatalf("expected exactly one mark per item, got %d", len(store.marks))
	}
	if !store.marks[0].failed || store.marks[0].reason == nil || *store.marks[0].reason != "broker unavailable" {
		t.Fatalf("unexpected first mark %+v", store.marks[0])
	}
	if !store.marks[1].processed {
		t.Fatalf("second item should still publish, got %+v", store.marks[1])
	}
}

func TestRunOnceFetchErrorEndsPass(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("db down")}
	pub := &fakePublisher{}

	_, err := newTestProcessor(t, store, pub).RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if len(store.marks) != 0 {
		t.Fatalf("no marks expected on fetch failure")
	}
}
