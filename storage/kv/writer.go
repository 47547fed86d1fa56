package kv

import (
	"sync"
)

// ApplyFunc applies a batch of valid mutations to a table, in order.
// It must either apply every update of a mutation or none of them.
// It returns a *MutationsRejectedError if any mutation was not applied.
type ApplyFunc func(mutations []*Mutation) error

var _ BatchWriter = (*bufferedWriter)(nil)

// NewBufferedWriter returns a BatchWriter that buffers mutations
// in memory and hands them to apply when flushed. Plugins use it to
// share buffering behavior.
func NewBufferedWriter(config BatchWriterConfig, apply ApplyFunc) BatchWriter {
	return &bufferedWriter{config: config, apply: apply}
}

type bufferedWriter struct {
	mu     sync.Mutex
	config BatchWriterConfig
	apply  ApplyFunc
	buffer []*Mutation
	closed bool
}

// AddMutation implements BatchWriter.AddMutation
func (writer *bufferedWriter) AddMutation(mutation *Mutation) error {
	if err := mutation.Validate(); err != nil {
		return err
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return ErrClosed
	}

	writer.buffer = append(writer.buffer, mutation)

	if writer.config.MaxMutations > 0 && len(writer.buffer) >= writer.config.MaxMutations {
		return writer.flush()
	}

	return nil
}

// Flush implements BatchWriter.Flush
func (writer *bufferedWriter) Flush() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return ErrClosed
	}

	return writer.flush()
}

// Close implements BatchWriter.Close
func (writer *bufferedWriter) Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return nil
	}

	err := writer.flush()
	writer.closed = true

	return err
}

func (writer *bufferedWriter) flush() error {
	if len(writer.buffer) == 0 {
		return nil
	}

	mutations := writer.buffer
	writer.buffer = nil

	return writer.apply(mutations)
}

// Reject builds the error an ApplyFunc returns when
// mutations could not be applied because of cause
func Reject(mutations []*Mutation, cause error) error {
	return &MutationsRejectedError{
		Mutation: mutations[0],
		Rejected: len(mutations),
		Cause:    cause,
	}
}
