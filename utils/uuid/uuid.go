// Package uuid renders random 128-bit identifiers as text.
package uuid

import (
	google_uuid "github.com/google/uuid"
)

// New returns a random identifier in canonical textual form
func New() string {
	return google_uuid.New().String()
}

// Valid reports whether s is an identifier in canonical textual form
func Valid(s string) bool {
	_, err := google_uuid.Parse(s)

	return err == nil
}
