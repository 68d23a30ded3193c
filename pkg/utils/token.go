package utils

import (
	"github.com/google/uuid"
)

// GenerateRequestToken returns a fresh session-scoped token used to guard
// the duration-update, export and user-search endpoints against replay.
func GenerateRequestToken() string {
	return uuid.NewString()
}
