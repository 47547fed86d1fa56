package graph

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies a failure of the encoding layer
type Kind int

const (
	// KindUnknown is any failure not produced by this layer
	KindUnknown Kind = iota
	// KindDecode means bytes do not correspond to a value of the
	// expected shape or reference a type unknown to this process
	KindDecode
	// KindMutationRejected means the store refused a mutation
	KindMutationRejected
	// KindTableLifecycle means creating or deleting a table failed
	KindTableLifecycle
	// KindInterrupted means a post-write wait was cut short
	KindInterrupted
)

var (
	// ErrDecode marks decode failures
	ErrDecode = errors.New("decode failed")
	// ErrMutationRejected marks mutations the store refused to apply
	ErrMutationRejected = errors.New("mutation rejected")
	// ErrTableLifecycle marks failed table creation or deletion
	ErrTableLifecycle = errors.New("table operation failed")
	// ErrInterrupted marks a post-write delay that was interrupted
	ErrInterrupted = errors.New("wait interrupted")
)

var kinds = []struct {
	kind Kind
	mark error
}{
	{KindDecode, ErrDecode},
	{KindMutationRejected, ErrMutationRejected},
	{KindTableLifecycle, ErrTableLifecycle},
	{KindInterrupted, ErrInterrupted},
}

// String implements fmt.Stringer
func (kind Kind) String() string {
	switch kind {
	case KindDecode:
		return "decode"
	case KindMutationRejected:
		return "mutation rejected"
	case KindTableLifecycle:
		return "table lifecycle"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Mark attaches kind to err. The original error stays
// reachable with errors.Is and errors.As.
func Mark(err error, kind Kind) error {
	if err == nil {
		return nil
	}

	for _, k := range kinds {
		if k.kind == kind {
			return errors.Mark(err, k.mark)
		}
	}

	return err
}

// KindOf returns the kind err was marked with
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, k := range kinds {
		if errors.Is(err, k.mark) {
			return k.kind
		}
	}

	return KindUnknown
}
