// Package memory is an in-memory kv plugin. It plays the role of
// a mock instance for tests and local experimentation: nothing
// survives the process.
package memory

import (
	"bytes"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
)

const (
	// DriverName is the name of this plugin
	DriverName = "memory"
)

// Plugins returns the plugins provided by this package
func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&MemoryPlugin{},
	}
}

// MemoryPlugin creates in-memory stores
type MemoryPlugin struct {
}

// Name implements kv.Plugin.Name
func (plugin *MemoryPlugin) Name() string {
	return DriverName
}

// NewStore implements kv.Plugin.NewStore. Options are ignored.
func (plugin *MemoryPlugin) NewStore(options kv.PluginOptions) (kv.Store, error) {
	return New(), nil
}

// NewTempStore implements kv.Plugin.NewTempStore
func (plugin *MemoryPlugin) NewTempStore() (kv.Store, error) {
	return New(), nil
}

var _ kv.Store = (*MemoryStore)(nil)

// MemoryStore keeps one sorted tree per table
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*treemap.Map
	closed bool
}

// New creates an empty MemoryStore
func New() *MemoryStore {
	return &MemoryStore{tables: map[string]*treemap.Map{}}
}

func newTable() *treemap.Map {
	return treemap.NewWith(func(a, b interface{}) int {
		return kv.Compare(a.(kv.Key), b.(kv.Key))
	})
}

// Tables implements kv.Store.Tables
func (store *MemoryStore) Tables() kv.TableOperations {
	return &memoryTables{store: store}
}

// NewScanner implements kv.Store.NewScanner. The scanner reads
// a snapshot of the matching entries up front.
func (store *MemoryStore) NewScanner(table string, options kv.ScanOptions) (kv.Scanner, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	t, ok := store.tables[table]

	if !ok {
		return nil, errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	entries, _ := scanTable(t, options)

	return kv.NewSliceScanner(entries), nil
}

// scanTable collects the entries of t matching options. It seeks to
// the first key of each step with Ceiling instead of walking the tree,
// so it visits only keys inside the row range. visited counts them.
func scanTable(t *treemap.Map, options kv.ScanOptions) (entries []kv.Entry, visited int) {
	entries = []kv.Entry{}
	k, v := t.Ceiling(kv.Key{Row: options.Rows.Min})

	for k != nil {
		key := k.(kv.Key)

		if options.Rows.Max != nil && bytes.Compare(key.Row, options.Rows.Max) >= 0 {
			break
		}

		visited++

		if options.Matches(key) {
			entries = append(entries, kv.Entry{Key: key, Value: v.([]byte)})
		}

		k, v = t.Ceiling(kv.Key{Row: key.Row, Family: key.Family, Qualifier: keys.Next(key.Qualifier)})
	}

	return entries, visited
}

// NewBatchWriter implements kv.Store.NewBatchWriter
func (store *MemoryStore) NewBatchWriter(table string, config kv.BatchWriterConfig) (kv.BatchWriter, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, kv.ErrClosed
	}

	return kv.NewBufferedWriter(config, func(mutations []*kv.Mutation) error {
		return store.apply(table, mutations)
	}), nil
}

func (store *MemoryStore) apply(table string, mutations []*kv.Mutation) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return kv.Reject(mutations, kv.ErrClosed)
	}

	t, ok := store.tables[table]

	if !ok {
		return kv.Reject(mutations, errors.Wrapf(kv.ErrNoSuchTable, "table %q", table))
	}

	for _, mutation := range mutations {
		row := copyBytes(mutation.Row)

		for _, update := range mutation.Updates {
			key := kv.Key{Row: row, Family: copyBytes(update.Family), Qualifier: copyBytes(update.Qualifier)}

			if update.Delete {
				t.Remove(key)
			} else {
				t.Put(key, copyBytes(update.Value))
			}
		}
	}

	return nil
}

// Close implements kv.Store.Close
func (store *MemoryStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.closed = true

	return nil
}

// Delete implements kv.Store.Delete
func (store *MemoryStore) Delete() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.closed = true
	store.tables = map[string]*treemap.Map{}

	return nil
}

var _ kv.TableOperations = (*memoryTables)(nil)

type memoryTables struct {
	store *MemoryStore
}

func (tables *memoryTables) Exists(table string) (bool, error) {
	tables.store.mu.RLock()
	defer tables.store.mu.RUnlock()

	if tables.store.closed {
		return false, kv.ErrClosed
	}

	_, ok := tables.store.tables[table]

	return ok, nil
}

func (tables *memoryTables) Create(table string) error {
	tables.store.mu.Lock()
	defer tables.store.mu.Unlock()

	if tables.store.closed {
		return kv.ErrClosed
	}

	if _, ok := tables.store.tables[table]; ok {
		return errors.Wrapf(kv.ErrTableExists, "table %q", table)
	}

	tables.store.tables[table] = newTable()

	return nil
}

func (tables *memoryTables) Delete(table string) error {
	tables.store.mu.Lock()
	defer tables.store.mu.Unlock()

	if tables.store.closed {
		return kv.ErrClosed
	}

	if _, ok := tables.store.tables[table]; !ok {
		return errors.Wrapf(kv.ErrNoSuchTable, "table %q", table)
	}

	delete(tables.store.tables, table)

	return nil
}

func (tables *memoryTables) List() ([]string, error) {
	tables.store.mu.RLock()
	defer tables.store.mu.RUnlock()

	if tables.store.closed {
		return nil, kv.ErrClosed
	}

	names := make([]string, 0, len(tables.store.tables))

	for name := range tables.store.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}

	return append(make([]byte, 0, len(b)), b...)
}
