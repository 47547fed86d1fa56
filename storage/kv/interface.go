package kv

import (
	"github.com/jrife/graphkv/storage/kv/keys"
)

// PluginOptions are plugin-specific settings, usually
// read from configuration
type PluginOptions map[string]interface{}

// Plugin represents a kv storage plugin
type Plugin interface {
	// Name returns the name of the storage plugin
	Name() string
	// NewStore returns an instance of the plugin store
	NewStore(options PluginOptions) (Store, error)
	// NewTempStore returns an instance of the plugin store
	// initialized with some sane defaults. It is meant for
	// tests that need an initialized instance of the plugin's
	// store without knowing how to initialize it
	NewTempStore() (Store, error)
}

// Store is a handle to a sorted key-value store holding
// zero or more tables.
type Store interface {
	// Tables returns the table administration interface
	Tables() TableOperations
	// NewScanner opens a scanner over table. It must return
	// ErrNoSuchTable if the table does not exist and ErrClosed
	// if the store was closed.
	NewScanner(table string, options ScanOptions) (Scanner, error)
	// NewBatchWriter returns a writer for table. The table
	// is not required to exist until the writer flushes.
	NewBatchWriter(table string, config BatchWriterConfig) (BatchWriter, error)
	// Close closes the store. Operations started after Close
	// returns must return ErrClosed.
	Close() error
	// Delete closes then deletes this store and all its contents.
	Delete() error
}

// TableOperations manages the lifecycle of tables
type TableOperations interface {
	// Exists reports whether the table exists
	Exists(table string) (bool, error)
	// Create creates the table. It returns ErrTableExists if
	// the table already exists.
	Create(table string) error
	// Delete deletes the table and all its entries. It returns
	// ErrNoSuchTable if the table does not exist.
	Delete(table string) error
	// List lists table names in ascending order
	List() ([]string, error)
}

// BatchWriter buffers mutations and applies them to a table
// when flushed. Implementations must be safe for concurrent use.
type BatchWriter interface {
	// AddMutation validates and buffers a mutation. It may flush
	// if the buffer is full, in which case it returns any error
	// the flush produced.
	AddMutation(mutation *Mutation) error
	// Flush applies all buffered mutations. If any mutation is
	// rejected it returns a *MutationsRejectedError. Mutations
	// are never partially applied to a row.
	Flush() error
	// Close flushes then releases the writer
	Close() error
}

// BatchWriterConfig tunes a BatchWriter
type BatchWriterConfig struct {
	// MaxMutations is the number of buffered mutations
	// that triggers an automatic flush. MaxMutations <= 0
	// means only explicit calls to Flush or Close flush.
	MaxMutations int
}

// Column selects a column family, or a single column
// when Qualifier is not nil
type Column struct {
	Family    []byte
	Qualifier []byte
}

// Matches returns true if key falls within this column
func (column Column) Matches(key Key) bool {
	if string(column.Family) != string(key.Family) {
		return false
	}

	return column.Qualifier == nil || string(column.Qualifier) == string(key.Qualifier)
}

// ScanOptions describes what a scanner returns
type ScanOptions struct {
	// Rows is the range of rows to scan
	Rows keys.Range
	// Columns restricts results to these columns. An empty
	// list matches every column.
	Columns []Column
}

// Matches returns true if an entry with this key
// should be returned by a scanner using these options
func (options ScanOptions) Matches(key Key) bool {
	if !options.Rows.Contains(key.Row) {
		return false
	}

	if len(options.Columns) == 0 {
		return true
	}

	for _, column := range options.Columns {
		if column.Matches(key) {
			return true
		}
	}

	return false
}

// Scanner iterates over entries in ascending key order. It must only
// be used by one goroutine at a time. Each scanner observes a consistent
// snapshot of every row it returns.
type Scanner interface {
	// Next advances the scanner to the next entry.
	// A fresh scanner must call Next once to
	// advance to the first entry. Next returns false
	// if there is no next entry or if it encounters an
	// error.
	Next() bool
	// Entry returns the current entry
	Entry() Entry
	// Error returns the error, if any.
	Error() error
	// Close releases resources held by the scanner
	Close() error
}
