package sqlite

import (
	"errors"
	"fmt"
	"strings"
)

// Logger is the subset of interfaces.Logger the cache uses
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

const (
	maxKeyLength = 255

	// MaxValueLength bounds a single entry; audio for a long article fits
	MaxValueLength = 64 << 20
)

// patterns that are harmless under parameterization but worth a warning
var suspiciousPatterns = []string{"--", "/*", "*/", ";", "'", "\"", "\\", "\n", "\r", "\t"}

// ValidateKey rejects empty, oversized or NUL-containing keys and warns
// about suspicious ones
func ValidateKey(key string, logger Logger) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("key too long: max %d characters", maxKeyLength)
	}
	if strings.Contains(key, "\x00") {
		return errors.New("key cannot contain null bytes")
	}

	if logger == nil {
		return nil
	}
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(key, pattern) {
			logger.Warn("Suspicious pattern detected in cache key", map[string]interface{}{
				"pattern":     pattern,
				"key_length":  len(key),
				"key_preview": truncateKey(key),
			})
		}
	}
	return nil
}

// truncateKey returns a safe preview of the key for logging
func truncateKey(key string) string {
	const maxPreview = 50
	if len(key) <= maxPreview {
		return key
	}
	return key[:maxPreview] + "..."
}

// ValidateValue rejects empty or oversized values
func ValidateValue(value []byte) error {
	if len(value) == 0 {
		return errors.New("value cannot be empty")
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("value too large: max %d bytes", MaxValueLength)
	}
	return nil
}
