// Package bbolt is a kv plugin backed by a single bbolt file.
// Each table is a top-level bucket whose keys are flattened
// with the composite package.
package bbolt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys/composite"
	"github.com/jrife/graphkv/utils/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	// DriverName is the name of this plugin
	DriverName = "bbolt"
)

// Plugins returns the plugins provided by this package
func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&BBoltPlugin{},
	}
}

// BBoltPlugin creates bbolt stores
type BBoltPlugin struct {
}

// Name implements kv.Plugin.Name
func (plugin *BBoltPlugin) Name() string {
	return DriverName
}

// NewStore implements kv.Plugin.NewStore. It requires
// a "path" option.
func (plugin *BBoltPlugin) NewStore(options kv.PluginOptions) (kv.Store, error) {
	var config BBoltStoreConfig

	if path, ok := options["path"]; !ok {
		return nil, fmt.Errorf("\"path\" is required")
	} else if pathString, ok := path.(string); !ok {
		return nil, fmt.Errorf("\"path\" must be a string")
	} else {
		config.Path = pathString
	}

	store, err := New(config)

	if err != nil {
		return nil, err
	}

	return store, nil
}

// NewTempStore implements kv.Plugin.NewTempStore
func (plugin *BBoltPlugin) NewTempStore() (kv.Store, error) {
	return plugin.NewStore(kv.PluginOptions{
		"path": filepath.Join(os.TempDir(), fmt.Sprintf("bbolt-%s", uuid.New())),
	})
}

// BBoltStoreConfig configures a BBoltStore
type BBoltStoreConfig struct {
	Path string
}

var _ kv.Store = (*BBoltStore)(nil)

// New opens or creates the bbolt file at config.Path
func New(config BBoltStoreConfig) (*BBoltStore, error) {
	db, err := bolt.Open(config.Path, 0666, nil)

	if err != nil {
		return nil, errors.Wrapf(err, "could not open bbolt store at %s", config.Path)
	}

	return &BBoltStore{db: db}, nil
}

// BBoltStore implements kv.Store on top of bbolt
type BBoltStore struct {
	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
}

// Tables implements kv.Store.Tables
func (store *BBoltStore) Tables() kv.TableOperations {
	return &bboltTables{store: store}
}

// view runs fn in a read-only transaction unless the store is closed
func (store *BBoltStore) view(fn func(txn *bolt.Tx) error) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return kv.ErrClosed
	}

	return store.db.View(fn)
}

// update runs fn in a read-write transaction unless the store is closed
func (store *BBoltStore) update(fn func(txn *bolt.Tx) error) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return kv.ErrClosed
	}

	return store.db.Update(fn)
}

// NewScanner implements kv.Store.NewScanner. The scanner holds a
// read-only transaction open until it is closed.
func (store *BBoltStore) NewScanner(table string, options kv.ScanOptions) (kv.Scanner, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	transaction, err := store.db.Begin(false)

	if err != nil {
		return nil, errors.Wrap(err, "could not begin transaction")
	}

	bucket := transaction.Bucket([]byte(table))

	if bucket == nil {
		transaction.Rollback()

		return nil, errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	lower, upper := composite.Bounds(nil, options.Rows)

	return &BBoltScanner{
		transaction: transaction,
		cursor:      bucket.Cursor(),
		lower:       lower,
		upper:       upper,
		options:     options,
	}, nil
}

// NewBatchWriter implements kv.Store.NewBatchWriter. Each flush
// applies the buffered mutations in a single bbolt transaction.
func (store *BBoltStore) NewBatchWriter(table string, config kv.BatchWriterConfig) (kv.BatchWriter, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	return kv.NewBufferedWriter(config, func(mutations []*kv.Mutation) error {
		err := store.update(func(txn *bolt.Tx) error {
			bucket := txn.Bucket([]byte(table))

			if bucket == nil {
				return errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
			}

			for _, mutation := range mutations {
				for _, update := range mutation.Updates {
					key := composite.Encode(nil, update.Key(mutation.Row))

					if update.Delete {
						if err := bucket.Delete(key); err != nil {
							return errors.Wrapf(err, "could not delete key %#v", key)
						}

						continue
					}

					if err := bucket.Put(key, update.Value); err != nil {
						return errors.Wrapf(err, "could not put key %#v", key)
					}
				}
			}

			return nil
		})

		if err != nil {
			return kv.Reject(mutations, err)
		}

		return nil
	}), nil
}

// Close implements kv.Store.Close
func (store *BBoltStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return nil
	}

	store.closed = true

	return store.db.Close()
}

// Delete implements kv.Store.Delete
func (store *BBoltStore) Delete() error {
	path := store.db.Path()

	if err := store.Close(); err != nil {
		return errors.Wrap(err, "could not close store")
	}

	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "could not remove path %s", path)
	}

	return nil
}

var _ kv.TableOperations = (*bboltTables)(nil)

type bboltTables struct {
	store *BBoltStore
}

func (tables *bboltTables) Exists(table string) (bool, error) {
	exists := false

	err := tables.store.view(func(txn *bolt.Tx) error {
		exists = txn.Bucket([]byte(table)) != nil

		return nil
	})

	return exists, err
}

func (tables *bboltTables) Create(table string) error {
	return tables.store.update(func(txn *bolt.Tx) error {
		if _, err := txn.CreateBucket([]byte(table)); err != nil {
			if err == bolt.ErrBucketExists {
				return errors.Wrapf(kv.ErrTableExists, "table %q", table)
			}

			return errors.Wrapf(err, "could not create table %q", table)
		}

		return nil
	})
}

func (tables *bboltTables) Delete(table string) error {
	return tables.store.update(func(txn *bolt.Tx) error {
		if err := txn.DeleteBucket([]byte(table)); err != nil {
			if err == bolt.ErrBucketNotFound {
				return errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
			}

			return errors.Wrapf(err, "could not delete table %q", table)
		}

		return nil
	})
}

func (tables *bboltTables) List() ([]string, error) {
	names := []string{}

	err := tables.store.view(func(txn *bolt.Tx) error {
		return txn.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return names, nil
}

var _ kv.Scanner = (*BBoltScanner)(nil)

// BBoltScanner walks a bucket cursor between the flattened bounds
// of the requested row range
type BBoltScanner struct {
	transaction *bolt.Tx
	cursor      *bolt.Cursor
	lower       []byte
	upper       []byte
	options     kv.ScanOptions
	started     bool
	entry       kv.Entry
	err         error
}

// Next implements kv.Scanner.Next
func (scanner *BBoltScanner) Next() bool {
	if scanner.err != nil || scanner.cursor == nil {
		return false
	}

	var k, v []byte

	for {
		if !scanner.started {
			k, v = scanner.cursor.Seek(scanner.lower)
			scanner.started = true
		} else {
			k, v = scanner.cursor.Next()
		}

		if k == nil || (scanner.upper != nil && bytes.Compare(k, scanner.upper) >= 0) {
			scanner.Close()

			return false
		}

		key, err := composite.Decode(nil, k)

		if err != nil {
			scanner.err = err
			scanner.Close()

			return false
		}

		if !scanner.options.Matches(key) {
			continue
		}

		// bbolt memory is only valid for the life of the transaction
		scanner.entry = kv.Entry{Key: key, Value: append([]byte{}, v...)}

		return true
	}
}

// Entry implements kv.Scanner.Entry
func (scanner *BBoltScanner) Entry() kv.Entry {
	return scanner.entry
}

// Error implements kv.Scanner.Error
func (scanner *BBoltScanner) Error() error {
	return scanner.err
}

// Close implements kv.Scanner.Close
func (scanner *BBoltScanner) Close() error {
	if scanner.cursor == nil {
		return nil
	}

	scanner.cursor = nil

	return scanner.transaction.Rollback()
}
