// Package uuid provides UUID v4 generation plus local placeholder ids for
// entities created while offline.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LocalPrefix marks identifiers generated on this device before the remote
// store has assigned an objectId.
const LocalPrefix = "local-"

// New generates a new UUID v4.
func New() string {
	return uuid.New().String()
}

// NewLocal generates a placeholder id for an offline-created entity.
func NewLocal() string {
	return LocalPrefix + uuid.New().String()
}

// IsLocal reports whether an id is a placeholder that still awaits
// reconciliation with a server-assigned objectId.
func IsLocal(id string) bool {
	return strings.HasPrefix(id, LocalPrefix)
}

// Validate returns an error if the string is not a valid UUID, ignoring the
// local placeholder prefix if present.
func Validate(s string) error {
	trimmed := strings.TrimPrefix(s, LocalPrefix)
	if _, err := uuid.Parse(trimmed); err != nil {
		return fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return nil
}
