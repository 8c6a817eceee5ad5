package render

import (
	"strings"

	"github.com/goliatone/go-predictform/pkg/model"
)

// RequiredMessage is the inline hint attached to an unset field after a
// blocked submit.
const RequiredMessage = "Please fill out this field."

// MissingFieldErrors maps every missing field to the required hint.
func MissingFieldErrors(missing []model.FieldName) map[string][]string {
	if len(missing) == 0 {
		return nil
	}
	out := make(map[string][]string, len(missing))
	for _, name := range missing {
		out[string(name)] = []string{RequiredMessage}
	}
	return out
}

// MergeErrors combines field error maps, trimming blanks and dropping
// duplicate messages while preserving order.
func MergeErrors(sets ...map[string][]string) map[string][]string {
	merged := make(map[string][]string)
	for _, set := range sets {
		for key, messages := range set {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			merged[key] = append(merged[key], messages...)
		}
	}
	for key, messages := range merged {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			delete(merged, key)
			continue
		}
		merged[key] = normalized
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
