package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyBytes = 48

// GenerateAPIKey returns an opaque printer credential. 48 random bytes encode
// to 64 url-safe characters, which is the minimum length callers rely on.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
