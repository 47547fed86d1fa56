package graph

import (
	"github.com/jrife/graphkv/utils/uuid"
)

// MakeID returns a new random element identifier. Uniqueness is
// probabilistic; the store does not enforce it.
func MakeID() string {
	return uuid.New()
}
