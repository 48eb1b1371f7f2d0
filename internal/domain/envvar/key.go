package envvar

import (
	"fmt"
	"strings"
)

// Key is a value object for an environment variable name
type Key struct {
	value string
}

// NewKey validates an environment variable name.
// Names are case-sensitive; surrounding whitespace is trimmed.
func NewKey(key string) (Key, error) {
	key = strings.TrimSpace(key)

	if key == "" {
		return Key{}, fmt.Errorf("environment variable key cannot be empty")
	}

	if len(key) > 255 {
		return Key{}, fmt.Errorf("key %q too long (max 255 characters)", key)
	}

	// Unix env var rules: letter or underscore first, then alphanumerics and underscores
	if !isValidKey(key) {
		return Key{}, fmt.Errorf("invalid key %q: must start with letter/underscore and contain only alphanumeric and underscores", key)
	}

	return Key{value: key}, nil
}

func (k Key) String() string {
	return k.value
}

func (k Key) Equals(other Key) bool {
	return k.value == other.value
}

// Sensitive reports whether the name marks a secret by convention.
func (k Key) Sensitive() bool {
	return IsSensitive(k.value)
}

var sensitiveMarkers = []string{"KEY", "SECRET", "TOKEN"}

// IsSensitive reports whether name contains one of the markers KEY, SECRET
// or TOKEN. Matching is case-sensitive.
func IsSensitive(name string) bool {
	for _, marker := range sensitiveMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func isValidKey(key string) bool {
	if len(key) == 0 {
		return false
	}

	first := rune(key[0])
	if !((first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z') || first == '_') {
		return false
	}

	for _, c := range key {
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}

	return true
}
