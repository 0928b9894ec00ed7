// Package env reads process environment values with fallbacks. Structured
// configuration goes through pkg/config; this covers the handful of knobs
// read before config is loaded.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
