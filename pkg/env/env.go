// Package env holds the few raw environment lookups that run before the
// envconfig layer is available, such as the logger's output format switch.
package env

import (
	"os"
	"strings"
)

// GetOr returns the named variable, or fallback when it is unset or blank.
func GetOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// Enabled reports whether the named variable holds a truthy flag value.
func Enabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
