package errors

import (
	"strings"
	"unicode"
)

// MaxTotal caps how many cards a single session may request. The
// structurally reachable card space is orders of magnitude larger, but
// requests beyond this bound are treated as misuse rather than handed
// to the duplicate-rejection safety valve.
const MaxTotal = 1_000_000

// ValidateTotal validates a requested card count.
// Zero is allowed and yields an empty batch.
func ValidateTotal(total int) error {
	if total < 0 {
		return New(ErrCodeInvalidInput, "total cards cannot be negative: %d", total)
	}
	if total > MaxTotal {
		return New(ErrCodeInvalidInput, "total cards too large: %d (max %d)", total, MaxTotal)
	}
	return nil
}

// ValidateBatchSize validates a progress-reporting batch size.
func ValidateBatchSize(size int) error {
	if size < 0 {
		return New(ErrCodeInvalidInput, "batch size cannot be negative: %d", size)
	}
	return nil
}

// ValidateWorkers validates a generator worker count.
func ValidateWorkers(workers int) error {
	if workers < 0 {
		return New(ErrCodeInvalidInput, "workers cannot be negative: %d", workers)
	}
	if workers > 256 {
		return New(ErrCodeInvalidInput, "workers too large: %d (max 256)", workers)
	}
	return nil
}

// ValidateEventName validates an event name used to scope a shared
// registry. Names become part of storage keys, so the rules are
// intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - Maximum length of 128 characters
func ValidateEventName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "event name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidConfig, "event name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidConfig, "event name contains invalid characters")
		}
	}
	if strings.Contains(name, ":") {
		return New(ErrCodeInvalidConfig, "event name cannot contain %q", ":")
	}
	return nil
}
