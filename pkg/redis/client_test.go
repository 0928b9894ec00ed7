package redis

import (
	"testing"

	"github.com/stickerlandia/print-service/pkg/config"
)

func configFixture(addr string) config.RedisConfig {
	return config.RedisConfig{Address: addr}
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	c := &Client{}
	key := c.IdempotencyKey("print-jobs", "abc-123")
	if key != "sl:idempotency:print-jobs:abc-123" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestBuildKeySkipsEmptyParts(t *testing.T) {
	c := &Client{}
	key := c.IdempotencyKey("", "abc-123")
	if key != "sl:idempotency:abc-123" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(configFixture("")); err == nil {
		t.Fatal("expected error for missing url/address")
	}
	opts, err := optionsFromConfig(configFixture("localhost:6379"))
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
}
