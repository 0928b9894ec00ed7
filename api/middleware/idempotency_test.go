package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stickerlandia/print-service/pkg/logger"
)

type memoryIdempotencyStore struct {
	records map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{records: map[string]string{}}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.records[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func postPrinters(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/printers", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"printerId":"P-%d"}`, calls)
	}))

	body := `{"eventName":"summit","printerName":"booth-1"}`
	first := postPrinters(handler, "key-1", body)
	second := postPrinters(handler, "key-1", body)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on both calls, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	handler := Idempotency(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	postPrinters(handler, "key-1", `{"printerName":"booth-1"}`)
	second := postPrinters(handler, "key-1", `{"printerName":"booth-2"}`)

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with different body, got %d", second.Code)
	}
}

func TestIdempotencyDoesNotReplayServerErrors(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	body := `{"printerName":"booth-1"}`
	first := postPrinters(handler, "key-1", body)
	second := postPrinters(handler, "key-1", body)

	if calls != 2 {
		t.Fatalf("expected the retry to reach the handler, ran %d times", calls)
	}
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 first, got %d", first.Code)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected the retry to succeed with 201, got %d", second.Code)
	}
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	postPrinters(handler, "", `{}`)
	postPrinters(handler, "", `{}`)

	if calls != 2 {
		t.Fatalf("expected every keyless request to reach the handler, ran %d times", calls)
	}
}
