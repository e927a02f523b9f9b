package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh document ID.
func New() string {
	return uuid.NewString()
}

// Short returns the first 8 characters of an ID for display.
// "3f1c9a2e-..." -> "3f1c9a2e"
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Resolve finds the full ID among candidates that starts with prefix.
// It fails when no candidate or more than one candidate matches.
func Resolve(prefix string, candidates []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("empty ID")
	}
	var match string
	for _, c := range candidates {
		if c == prefix {
			return c, nil
		}
		if strings.HasPrefix(c, prefix) {
			if match != "" {
				return "", fmt.Errorf("ambiguous ID %q", prefix)
			}
			match = c
		}
	}
	if match == "" {
		return "", fmt.Errorf("no ID matches %q", prefix)
	}
	return match, nil
}
