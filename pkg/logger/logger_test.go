package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithPrinterID(ctx, "DEVOPSDAYS-BOOTH-1")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"printer_id\"")) {
		t.Fatalf("expected printer_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerWithFieldsAccumulates(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{
		"event_name": "stickerlandia-2026",
		"batch_size": 50,
	})
	log.Info(ctx, "pass complete")

	if !bytes.Contains(buf.Bytes(), []byte("\"event_name\"")) {
		t.Fatalf("expected event_name in entry; got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"batch_size\"")) {
		t.Fatalf("expected batch_size in entry; got %s", buf.String())
	}
}
