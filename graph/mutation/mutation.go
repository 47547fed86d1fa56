// Package mutation applies changes to a table through caller-owned
// writers and scanners. It never opens, closes or retries anything it
// is handed. Every failure is returned to the caller marked with a
// graph.Kind.
package mutation

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/utils/log"
	"go.uber.org/zap"
)

// Option configures AddMutation and DeleteAllEntries
type Option func(*options)

type options struct {
	delay     time.Duration
	autoFlush bool
	logger    *zap.Logger
}

func newOptions(opts []Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithDelay makes AddMutation block for d after the writer
// accepts the mutation. Callers that immediately scan what they
// wrote use it to wait out stores whose writers acknowledge
// mutations before scanners can see them. The default is no delay.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithAutoFlush makes AddMutation flush the writer after every mutation
func WithAutoFlush(autoFlush bool) Option {
	return func(o *options) {
		o.autoFlush = autoFlush
	}
}

// WithLogger sets the logger. The default is the logger
// carried by the context or zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// AddMutation submits m to writer and then waits for the configured delay.
// A rejected mutation is a KindMutationRejected failure. A delay cut short
// by ctx is a KindInterrupted failure; the mutation has still been submitted.
func AddMutation(ctx context.Context, writer kv.BatchWriter, m *kv.Mutation, opts ...Option) error {
	o := newOptions(opts)
	logger := log.Operation(ctx, o.logger, "AddMutation")

	if m != nil {
		logger = logger.With(zap.ByteString("row", m.Row))
	}

	logger.Debug("start")
	defer logger.Debug("return")

	err := writer.AddMutation(m)
	mutationsTotal.WithLabelValues(result(err)).Inc()

	if err != nil {
		logger.Debug("writer rejected mutation", zap.Error(err))

		return graph.Mark(errors.Wrap(err, "could not add mutation"), graph.KindMutationRejected)
	}

	if o.autoFlush {
		if err := Flush(ctx, writer, WithLogger(o.logger)); err != nil {
			return err
		}
	}

	if err := Sleep(ctx, o.delay); err != nil {
		logger.Debug("delay interrupted", zap.Error(err))

		return err
	}

	return nil
}

// Flush applies everything buffered by writer. If the store rejects
// any buffered mutation it fails with KindMutationRejected. The
// *kv.MutationsRejectedError naming the first rejection stays
// reachable with errors.As.
func Flush(ctx context.Context, writer kv.BatchWriter, opts ...Option) error {
	o := newOptions(opts)
	logger := log.Operation(ctx, o.logger, "Flush")
	logger.Debug("start")
	defer logger.Debug("return")

	err := writer.Flush()
	flushesTotal.WithLabelValues(result(err)).Inc()

	if err != nil {
		logger.Debug("flush failed", zap.Error(err))

		return graph.Mark(errors.Wrap(err, "could not flush"), graph.KindMutationRejected)
	}

	return nil
}

// FirstEntry returns the first entry of scanner. The boolean is
// false if the scanner yields no entries. The scanner is left open.
func FirstEntry(ctx context.Context, scanner kv.Scanner) (kv.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return kv.Entry{}, false, graph.Mark(errors.Wrap(err, "could not read first entry"), graph.KindInterrupted)
	}

	if scanner.Next() {
		return scanner.Entry(), true, nil
	}

	if err := scanner.Error(); err != nil {
		return kv.Entry{}, false, errors.Wrap(err, "could not read first entry")
	}

	return kv.Entry{}, false, nil
}

// DeleteAllEntries submits a delete to writer for every entry scanner
// yields and returns how many were submitted. It does not flush and does
// not wait after each delete: only WithLogger applies. Entries written to
// the scanned range by others while it runs may survive.
func DeleteAllEntries(ctx context.Context, scanner kv.Scanner, writer kv.BatchWriter, opts ...Option) (int, error) {
	o := newOptions(opts)
	logger := log.Operation(ctx, o.logger, "DeleteAllEntries")
	logger.Debug("start")
	defer logger.Debug("return")

	deleted := 0

	for scanner.Next() {
		if err := ctx.Err(); err != nil {
			return deleted, graph.Mark(errors.Wrapf(err, "stopped after %d deletes", deleted), graph.KindInterrupted)
		}

		key := scanner.Entry().Key
		m := kv.NewMutation(key.Row).PutDelete(key.Family, key.Qualifier)

		if err := AddMutation(ctx, writer, m, WithLogger(o.logger)); err != nil {
			return deleted, err
		}

		deleted++
		deletedEntriesTotal.Inc()
	}

	if err := scanner.Error(); err != nil {
		logger.Debug("scan failed", zap.Error(err))

		return deleted, errors.Wrapf(err, "scan failed after %d deletes", deleted)
	}

	logger.Debug("deleted entries", zap.Int("count", deleted))

	return deleted, nil
}

// CreateTableIfNotExists creates table unless it already exists
func CreateTableIfNotExists(ctx context.Context, ops kv.TableOperations, table string, opts ...Option) error {
	o := newOptions(opts)
	logger := log.Operation(ctx, o.logger, "CreateTableIfNotExists").With(zap.String("table", table))
	logger.Debug("start")
	defer logger.Debug("return")

	exists, err := ops.Exists(table)

	if err != nil {
		return tableFailure(logger, errors.Wrapf(err, "could not check table %q", table))
	}

	if exists {
		return nil
	}

	err = ops.Create(table)
	tableOperationsTotal.WithLabelValues("create", result(err)).Inc()

	// Someone else created it between the check and the create
	if errors.Is(err, kv.ErrTableExists) {
		return nil
	}

	if err != nil {
		return tableFailure(logger, errors.Wrapf(err, "could not create table %q", table))
	}

	return nil
}

// RecreateTable deletes table if it exists and creates it again empty.
// The two steps are not atomic: if the create fails the table is gone.
func RecreateTable(ctx context.Context, ops kv.TableOperations, table string, opts ...Option) error {
	o := newOptions(opts)
	logger := log.Operation(ctx, o.logger, "RecreateTable").With(zap.String("table", table))
	logger.Debug("start")
	defer logger.Debug("return")

	exists, err := ops.Exists(table)

	if err != nil {
		return tableFailure(logger, errors.Wrapf(err, "could not check table %q", table))
	}

	if exists {
		err := ops.Delete(table)
		tableOperationsTotal.WithLabelValues("delete", result(err)).Inc()

		if err != nil {
			return tableFailure(logger, errors.Wrapf(err, "could not delete table %q", table))
		}
	}

	err = ops.Create(table)
	tableOperationsTotal.WithLabelValues("create", result(err)).Inc()

	if err != nil {
		return tableFailure(logger, errors.Wrapf(err, "could not create table %q", table))
	}

	return nil
}

func tableFailure(logger *zap.Logger, err error) error {
	logger.Debug("table operation failed", zap.Error(err))

	return graph.Mark(err, graph.KindTableLifecycle)
}

// Sleep blocks for d or until ctx is done. Being cut short
// is a KindInterrupted failure.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return graph.Mark(errors.Wrapf(ctx.Err(), "interrupted during %s wait", d), graph.KindInterrupted)
	}
}
