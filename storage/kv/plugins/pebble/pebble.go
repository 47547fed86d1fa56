// Package pebble is a kv plugin backed by a pebble LSM. All tables
// share one keyspace: a catalog section records which tables exist and
// a data section holds each table's entries under a table prefix.
package pebble

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
	"github.com/jrife/graphkv/storage/kv/keys/composite"
	"github.com/jrife/graphkv/utils/uuid"
)

const (
	// DriverName is the name of this plugin
	DriverName = "pebble"
)

var (
	catalogPrefix = []byte{0x01}
	dataPrefix    = []byte{0x02}
)

// Plugins returns the plugins provided by this package
func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&PebblePlugin{},
	}
}

// PebblePlugin creates pebble stores
type PebblePlugin struct {
}

// Name implements kv.Plugin.Name
func (plugin *PebblePlugin) Name() string {
	return DriverName
}

// NewStore implements kv.Plugin.NewStore. It requires a "path"
// option. If the "memory" option is true the store lives in an
// in-memory filesystem.
func (plugin *PebblePlugin) NewStore(options kv.PluginOptions) (kv.Store, error) {
	var config PebbleStoreConfig

	if path, ok := options["path"]; !ok {
		return nil, fmt.Errorf("\"path\" is required")
	} else if pathString, ok := path.(string); !ok {
		return nil, fmt.Errorf("\"path\" must be a string")
	} else {
		config.Path = pathString
	}

	if memory, ok := options["memory"]; ok {
		memoryBool, ok := memory.(bool)

		if !ok {
			return nil, fmt.Errorf("\"memory\" must be a bool")
		}

		config.InMemory = memoryBool
	}

	return New(config)
}

// NewTempStore implements kv.Plugin.NewTempStore
func (plugin *PebblePlugin) NewTempStore() (kv.Store, error) {
	return plugin.NewStore(kv.PluginOptions{
		"path":   filepath.Join(os.TempDir(), fmt.Sprintf("pebble-%s", uuid.New())),
		"memory": true,
	})
}

// PebbleStoreConfig configures a PebbleStore
type PebbleStoreConfig struct {
	Path     string
	InMemory bool
}

var _ kv.Store = (*PebbleStore)(nil)

// New opens or creates the pebble database at config.Path
func New(config PebbleStoreConfig) (*PebbleStore, error) {
	options := &pebble.Options{}

	if config.InMemory {
		options.FS = vfs.NewMem()
	}

	db, err := pebble.Open(config.Path, options)

	if err != nil {
		return nil, errors.Wrapf(err, "could not open pebble store at %s", config.Path)
	}

	return &PebbleStore{db: db, config: config}, nil
}

// PebbleStore implements kv.Store on top of pebble. Table lifecycle
// operations and flushes are serialized so that a flush never races
// with the deletion of its table.
type PebbleStore struct {
	mu     sync.RWMutex
	db     *pebble.DB
	config PebbleStoreConfig
	closed bool
}

func catalogKey(table string) []byte {
	return append(append([]byte{}, catalogPrefix...), table...)
}

func tablePrefix(table string) []byte {
	return composite.AppendComponent(append([]byte{}, dataPrefix...), []byte(table))
}

// exists must be called with mu held
func (store *PebbleStore) exists(table string) (bool, error) {
	_, closer, err := store.db.Get(catalogKey(table))

	if err == pebble.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "could not read catalog entry for table %q", table)
	}

	closer.Close()

	return true, nil
}

// Tables implements kv.Store.Tables
func (store *PebbleStore) Tables() kv.TableOperations {
	return &pebbleTables{store: store}
}

// NewScanner implements kv.Store.NewScanner
func (store *PebbleStore) NewScanner(table string, options kv.ScanOptions) (kv.Scanner, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	if ok, err := store.exists(table); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	prefix := tablePrefix(table)
	lower, upper := composite.Bounds(prefix, options.Rows)
	iter, err := store.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})

	if err != nil {
		return nil, errors.Wrap(err, "could not create iterator")
	}

	return &PebbleScanner{iter: iter, prefix: prefix, options: options}, nil
}

// NewBatchWriter implements kv.Store.NewBatchWriter. Each flush
// commits the buffered mutations as one pebble batch.
func (store *PebbleStore) NewBatchWriter(table string, config kv.BatchWriterConfig) (kv.BatchWriter, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	return kv.NewBufferedWriter(config, func(mutations []*kv.Mutation) error {
		if err := store.apply(table, mutations); err != nil {
			return kv.Reject(mutations, err)
		}

		return nil
	}), nil
}

func (store *PebbleStore) apply(table string, mutations []*kv.Mutation) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return kv.ErrClosed
	}

	if ok, err := store.exists(table); err != nil {
		return err
	} else if !ok {
		return errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	prefix := tablePrefix(table)
	batch := store.db.NewBatch()
	defer batch.Close()

	for _, mutation := range mutations {
		for _, update := range mutation.Updates {
			key := composite.Encode(prefix, update.Key(mutation.Row))

			if update.Delete {
				if err := batch.Delete(key, nil); err != nil {
					return errors.Wrapf(err, "could not delete key %#v", key)
				}

				continue
			}

			if err := batch.Set(key, update.Value, nil); err != nil {
				return errors.Wrapf(err, "could not set key %#v", key)
			}
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "could not commit batch")
	}

	return nil
}

// Close implements kv.Store.Close
func (store *PebbleStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return nil
	}

	store.closed = true

	return store.db.Close()
}

// Delete implements kv.Store.Delete
func (store *PebbleStore) Delete() error {
	if err := store.Close(); err != nil {
		return errors.Wrap(err, "could not close store")
	}

	if store.config.InMemory {
		return nil
	}

	if err := os.RemoveAll(store.config.Path); err != nil {
		return errors.Wrapf(err, "could not remove path %s", store.config.Path)
	}

	return nil
}

var _ kv.TableOperations = (*pebbleTables)(nil)

type pebbleTables struct {
	store *PebbleStore
}

func (tables *pebbleTables) Exists(table string) (bool, error) {
	tables.store.mu.RLock()
	defer tables.store.mu.RUnlock()

	if tables.store.closed {
		return false, kv.ErrClosed
	}

	return tables.store.exists(table)
}

func (tables *pebbleTables) Create(table string) error {
	tables.store.mu.Lock()
	defer tables.store.mu.Unlock()

	if tables.store.closed {
		return kv.ErrClosed
	}

	if ok, err := tables.store.exists(table); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(kv.ErrTableExists, "table %q", table)
	}

	if err := tables.store.db.Set(catalogKey(table), []byte{}, pebble.Sync); err != nil {
		return errors.Wrapf(err, "could not create table %q", table)
	}

	return nil
}

func (tables *pebbleTables) Delete(table string) error {
	tables.store.mu.Lock()
	defer tables.store.mu.Unlock()

	if tables.store.closed {
		return kv.ErrClosed
	}

	if ok, err := tables.store.exists(table); err != nil {
		return err
	} else if !ok {
		return errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	prefix := tablePrefix(table)
	batch := tables.store.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(prefix, keys.Inc(prefix), nil); err != nil {
		return errors.Wrapf(err, "could not delete entries of table %q", table)
	}

	if err := batch.Delete(catalogKey(table), nil); err != nil {
		return errors.Wrapf(err, "could not delete table %q", table)
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrapf(err, "could not delete table %q", table)
	}

	return nil
}

func (tables *pebbleTables) List() ([]string, error) {
	tables.store.mu.RLock()
	defer tables.store.mu.RUnlock()

	if tables.store.closed {
		return nil, kv.ErrClosed
	}

	iter, err := tables.store.db.NewIter(&pebble.IterOptions{LowerBound: catalogPrefix, UpperBound: dataPrefix})

	if err != nil {
		return nil, errors.Wrap(err, "could not create iterator")
	}

	defer iter.Close()

	names := []string{}

	for valid := iter.First(); valid; valid = iter.Next() {
		names = append(names, string(bytes.TrimPrefix(iter.Key(), catalogPrefix)))
	}

	return names, iter.Error()
}

var _ kv.Scanner = (*PebbleScanner)(nil)

// PebbleScanner adapts a pebble iterator bounded to one table
type PebbleScanner struct {
	iter    *pebble.Iterator
	prefix  []byte
	options kv.ScanOptions
	started bool
	entry   kv.Entry
	err     error
}

// Next implements kv.Scanner.Next
func (scanner *PebbleScanner) Next() bool {
	if scanner.err != nil || scanner.iter == nil {
		return false
	}

	for {
		var valid bool

		if !scanner.started {
			valid = scanner.iter.First()
			scanner.started = true
		} else {
			valid = scanner.iter.Next()
		}

		if !valid {
			scanner.err = scanner.iter.Error()
			scanner.Close()

			return false
		}

		key, err := composite.Decode(scanner.prefix, scanner.iter.Key())

		if err != nil {
			scanner.err = err
			scanner.Close()

			return false
		}

		if !scanner.options.Matches(key) {
			continue
		}

		// iterator memory is only valid until the next positioning call
		scanner.entry = kv.Entry{Key: key, Value: append([]byte{}, scanner.iter.Value()...)}

		return true
	}
}

// Entry implements kv.Scanner.Entry
func (scanner *PebbleScanner) Entry() kv.Entry {
	return scanner.entry
}

// Error implements kv.Scanner.Error
func (scanner *PebbleScanner) Error() error {
	return scanner.err
}

// Close implements kv.Scanner.Close
func (scanner *PebbleScanner) Close() error {
	if scanner.iter == nil {
		return nil
	}

	iter := scanner.iter
	scanner.iter = nil

	return iter.Close()
}
