package kv

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrClosed indicates that the store was closed
	ErrClosed = errors.New("store was closed")
	// ErrNoSuchTable indicates that the table doesn't exist. Either it hasn't been created or was deleted
	ErrNoSuchTable = errors.New("table does not exist")
	// ErrTableExists indicates that a table could not be created because one with that name exists
	ErrTableExists = errors.New("table already exists")
	// ErrInvalidMutation indicates that a mutation has no row or no updates
	ErrInvalidMutation = errors.New("invalid mutation")
)

// MutationsRejectedError is returned by BatchWriter.Flush when
// the store refuses to apply buffered mutations
type MutationsRejectedError struct {
	// Mutation is the first rejected mutation
	Mutation *Mutation
	// Rejected is the number of mutations that were not applied
	Rejected int
	// Cause is the reason the first mutation was rejected
	Cause error
}

func (err *MutationsRejectedError) Error() string {
	return fmt.Sprintf("%d mutation(s) rejected, first on row %q: %s", err.Rejected, err.Mutation.Row, err.Cause)
}

// Unwrap returns the cause of the first rejection
func (err *MutationsRejectedError) Unwrap() error {
	return err.Cause
}
