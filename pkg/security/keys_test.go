package security

import "testing"

func TestGenerateAPIKeyLength(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if len(key) < 64 {
		t.Fatalf("expected at least 64 chars, got %d", len(key))
	}
}

func TestGenerateAPIKeyUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey: %v", err)
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key generated")
		}
		seen[key] = struct{}{}
	}
}
