// Package util contains small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID returns a new random UUID string, used for session identifiers.
func NewID() string {
	return uuid.NewString()
}
