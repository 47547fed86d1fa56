package mutation_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/graph/encoding"
	"github.com/jrife/graphkv/graph/mutation"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
	"github.com/jrife/graphkv/storage/kv/plugins"
)

const table = "graph"

func tempStore(t *testing.T, plugin kv.Plugin) kv.Store {
	store, err := plugin.NewTempStore()

	if err != nil {
		t.Fatalf("Could not build a %s store: %s", plugin.Name(), err.Error())
	}

	t.Cleanup(func() { store.Delete() })

	return store
}

func writer(t *testing.T, store kv.Store) kv.BatchWriter {
	w, err := store.NewBatchWriter(table, kv.BatchWriterConfig{})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	t.Cleanup(func() { w.Close() })

	return w
}

func scanner(t *testing.T, store kv.Store, options kv.ScanOptions) kv.Scanner {
	s, err := store.NewScanner(table, options)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func scan(t *testing.T, store kv.Store, options kv.ScanOptions) []kv.Entry {
	entries, err := kv.ReadAll(scanner(t, store, options))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return entries
}

func put(t *testing.T, store kv.Store, rows ...string) {
	w := writer(t, store)

	for _, row := range rows {
		m := kv.NewMutation([]byte(row)).Put([]byte("f"), []byte("q"), []byte(row))

		if err := mutation.AddMutation(context.Background(), w, m); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}
	}

	if err := mutation.Flush(context.Background(), w); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}
}

func TestMutations(t *testing.T) {
	for _, plugin := range plugins.Plugins() {
		plugin := plugin

		t.Run(plugin.Name(), func(t *testing.T) {
			t.Run("create-table-if-not-exists", func(t *testing.T) { testCreateTableIfNotExists(t, plugin) })
			t.Run("recreate-table", func(t *testing.T) { testRecreateTable(t, plugin) })
			t.Run("delete-all-entries", func(t *testing.T) { testDeleteAllEntries(t, plugin) })
			t.Run("delete-all-entries-waits-for-flush", func(t *testing.T) { testDeleteAllEntriesWaitsForFlush(t, plugin) })
			t.Run("first-entry", func(t *testing.T) { testFirstEntry(t, plugin) })
			t.Run("vertex", func(t *testing.T) { testVertex(t, plugin) })
			t.Run("auto-flush", func(t *testing.T) { testAutoFlush(t, plugin) })
			t.Run("rejected", func(t *testing.T) { testRejected(t, plugin) })
		})
	}
}

func testCreateTableIfNotExists(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	put(t, store, "a")

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	tables, err := store.Tables().List()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff([]string{table}, tables); diff != "" {
		t.Fatal(diff)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func testRecreateTable(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	// recreating a missing table creates it
	if err := mutation.RecreateTable(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	put(t, store, "a", "b", "c", "d")

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	if err := mutation.RecreateTable(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func testDeleteAllEntries(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	put(t, store, "a", "r1", "r2", "r3", "s")

	w := writer(t, store)
	deleted, err := mutation.DeleteAllEntries(ctx, scanner(t, store, kv.ScanOptions{Rows: keys.All().Prefix([]byte("r"))}), w)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if deleted != 3 {
		t.Fatalf("expected 3 deletes, got %d", deleted)
	}

	if err := mutation.Flush(ctx, w); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All().Prefix([]byte("r"))}); len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}

	var rows []string

	for _, entry := range scan(t, store, kv.ScanOptions{Rows: keys.All()}) {
		rows = append(rows, string(entry.Key.Row))
	}

	if diff := cmp.Diff([]string{"a", "s"}, rows); diff != "" {
		t.Fatal(diff)
	}
}

func testDeleteAllEntriesWaitsForFlush(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	put(t, store, "r1", "r2", "r3")

	w := writer(t, store)
	start := time.Now()
	deleted, err := mutation.DeleteAllEntries(ctx, scanner(t, store, kv.ScanOptions{Rows: keys.All()}), w, mutation.WithAutoFlush(true), mutation.WithDelay(time.Hour))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if deleted != 3 {
		t.Fatalf("expected 3 deletes, got %d", deleted)
	}

	if elapsed := time.Since(start); elapsed > time.Minute {
		t.Fatalf("expected no post-write wait, took %s", elapsed)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 3 {
		t.Fatalf("expected deletes to wait for Flush, got %d entries", len(entries))
	}

	if err := mutation.Flush(ctx, w); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func testFirstEntry(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()
	options := kv.ScanOptions{Rows: keys.All().Eq([]byte("x"))}

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	_, ok, err := mutation.FirstEntry(ctx, scanner(t, store, options))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if ok {
		t.Fatalf("expected no entry in an empty range")
	}

	value, err := encoding.ObjectToValue("v")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	w := writer(t, store)
	m := kv.NewMutation([]byte("x")).Put([]byte("f"), []byte("q"), value)

	if err := mutation.AddMutation(ctx, w, m, mutation.WithAutoFlush(true)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	entry, ok, err := mutation.FirstEntry(ctx, scanner(t, store, options))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if !ok {
		t.Fatalf("expected an entry")
	}

	if diff := cmp.Diff(kv.Key{Row: []byte("x"), Family: []byte("f"), Qualifier: []byte("q")}, entry.Key); diff != "" {
		t.Fatal(diff)
	}

	decoded, err := encoding.ValueToObject(entry.Value)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if decoded != "v" {
		t.Fatalf("expected %q, got %#v", "v", decoded)
	}
}

func testVertex(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	cq, err := encoding.TypedObjectToText(graph.Vertex, "abc-123")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	w := writer(t, store)
	m := kv.NewMutation(encoding.StringToText("abc-123")).Put(graph.VertexType.Bytes(), cq, graph.EmptyValue())

	if err := mutation.AddMutation(ctx, w, m, mutation.WithAutoFlush(true)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	entries := scan(t, store, kv.ScanOptions{
		Rows:    keys.All().Eq([]byte("abc-123")),
		Columns: []kv.Column{{Family: graph.VertexType.Bytes()}},
	})

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	recordType, obj, err := encoding.TextToTypedObject(entries[0].Key.Qualifier)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if recordType != graph.Vertex || obj != "abc-123" {
		t.Fatalf("expected (VERTEX, abc-123), got (%s, %#v)", recordType, obj)
	}
}

func testAutoFlush(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	w := writer(t, store)
	m := kv.NewMutation([]byte("a")).Put([]byte("f"), []byte("q"), []byte("1"))

	if err := mutation.AddMutation(ctx, w, m); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 0 {
		t.Fatalf("expected buffered mutation to be invisible, got %d entries", len(entries))
	}

	m = kv.NewMutation([]byte("b")).Put([]byte("f"), []byte("q"), []byte("2"))

	if err := mutation.AddMutation(ctx, w, m, mutation.WithAutoFlush(true)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if entries := scan(t, store, kv.ScanOptions{Rows: keys.All()}); len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func testRejected(t *testing.T, plugin kv.Plugin) {
	store := tempStore(t, plugin)
	ctx := context.Background()

	if err := mutation.CreateTableIfNotExists(ctx, store.Tables(), table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	w := writer(t, store)

	if err := store.Tables().Delete(table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	m := kv.NewMutation([]byte("a")).Put([]byte("f"), []byte("q"), []byte("1"))
	err := mutation.AddMutation(ctx, w, m, mutation.WithAutoFlush(true))

	if graph.KindOf(err) != graph.KindMutationRejected {
		t.Fatalf("expected mutation rejected error, got %#v", err)
	}

	if !errors.Is(err, kv.ErrNoSuchTable) {
		t.Fatalf("expected err to wrap ErrNoSuchTable, got %#v", err)
	}

	var rejected *kv.MutationsRejectedError

	if !errors.As(err, &rejected) {
		t.Fatalf("expected err to be a MutationsRejectedError, got %#v", err)
	}

	if diff := cmp.Diff(m, rejected.Mutation); diff != "" {
		t.Fatal(diff)
	}
}

func TestAddMutationInvalid(t *testing.T) {
	w := &fakeWriter{}

	testCases := map[string]struct {
		mutation *kv.Mutation
	}{
		"nil":        {mutation: nil},
		"no-row":     {mutation: kv.NewMutation(nil).Put([]byte("f"), []byte("q"), nil)},
		"no-updates": {mutation: kv.NewMutation([]byte("a"))},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			err := mutation.AddMutation(context.Background(), w, testCase.mutation)

			if graph.KindOf(err) != graph.KindMutationRejected {
				t.Fatalf("expected mutation rejected error, got %#v", err)
			}

			if !errors.Is(err, kv.ErrInvalidMutation) {
				t.Fatalf("expected err to wrap ErrInvalidMutation, got %#v", err)
			}
		})
	}
}

func TestAddMutationDelay(t *testing.T) {
	w := &fakeWriter{}
	m := kv.NewMutation([]byte("a")).Put([]byte("f"), []byte("q"), nil)
	start := time.Now()

	if err := mutation.AddMutation(context.Background(), w, m, mutation.WithDelay(20*time.Millisecond)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected AddMutation to wait at least 20ms, waited %s", elapsed)
	}

	if w.added != 1 {
		t.Fatalf("expected 1 mutation, got %d", w.added)
	}
}

func TestAddMutationInterrupted(t *testing.T) {
	w := &fakeWriter{}
	m := kv.NewMutation([]byte("a")).Put([]byte("f"), []byte("q"), nil)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := mutation.AddMutation(ctx, w, m, mutation.WithDelay(time.Hour))

	if graph.KindOf(err) != graph.KindInterrupted {
		t.Fatalf("expected interrupted error, got %#v", err)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected err to wrap context.Canceled, got %#v", err)
	}

	// the mutation was submitted before the wait
	if w.added != 1 {
		t.Fatalf("expected 1 mutation, got %d", w.added)
	}
}

func TestSleep(t *testing.T) {
	if err := mutation.Sleep(context.Background(), 0); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if err := mutation.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := mutation.Sleep(ctx, time.Hour); graph.KindOf(err) != graph.KindInterrupted {
		t.Fatalf("expected interrupted error, got %#v", err)
	}
}

func TestFlushRejected(t *testing.T) {
	cause := errors.New("quota exceeded")
	m := kv.NewMutation([]byte("a")).Put([]byte("f"), []byte("q"), nil)
	w := &fakeWriter{flushErr: kv.Reject([]*kv.Mutation{m}, cause)}

	err := mutation.Flush(context.Background(), w)

	if graph.KindOf(err) != graph.KindMutationRejected {
		t.Fatalf("expected mutation rejected error, got %#v", err)
	}

	if !errors.Is(err, cause) {
		t.Fatalf("expected err to wrap cause, got %#v", err)
	}
}

func TestDeleteAllEntriesInterrupted(t *testing.T) {
	w := &fakeWriter{}
	s := kv.NewSliceScanner([]kv.Entry{
		{Key: kv.Key{Row: []byte("a"), Family: []byte("f"), Qualifier: []byte("q")}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deleted, err := mutation.DeleteAllEntries(ctx, s, w)

	if graph.KindOf(err) != graph.KindInterrupted {
		t.Fatalf("expected interrupted error, got %#v", err)
	}

	if deleted != 0 || w.added != 0 {
		t.Fatalf("expected no deletes, got %d", deleted)
	}
}

func TestDeleteAllEntriesScanError(t *testing.T) {
	cause := errors.New("scan failed")
	w := &fakeWriter{}

	_, err := mutation.DeleteAllEntries(context.Background(), &failingScanner{err: cause}, w)

	if !errors.Is(err, cause) {
		t.Fatalf("expected err to wrap cause, got %#v", err)
	}
}

func TestTableLifecycleFailures(t *testing.T) {
	cause := errors.New("permission denied")

	testCases := map[string]struct {
		ops kv.TableOperations
		run func(ctx context.Context, ops kv.TableOperations) error
	}{
		"create-exists-check": {
			ops: &fakeTables{existsErr: cause},
			run: func(ctx context.Context, ops kv.TableOperations) error {
				return mutation.CreateTableIfNotExists(ctx, ops, table)
			},
		},
		"create": {
			ops: &fakeTables{createErr: cause},
			run: func(ctx context.Context, ops kv.TableOperations) error {
				return mutation.CreateTableIfNotExists(ctx, ops, table)
			},
		},
		"recreate-delete": {
			ops: &fakeTables{exists: true, deleteErr: cause},
			run: func(ctx context.Context, ops kv.TableOperations) error {
				return mutation.RecreateTable(ctx, ops, table)
			},
		},
		"recreate-create": {
			ops: &fakeTables{exists: true, createErr: cause},
			run: func(ctx context.Context, ops kv.TableOperations) error {
				return mutation.RecreateTable(ctx, ops, table)
			},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			err := testCase.run(context.Background(), testCase.ops)

			if graph.KindOf(err) != graph.KindTableLifecycle {
				t.Fatalf("expected table lifecycle error, got %#v", err)
			}

			if !errors.Is(err, cause) {
				t.Fatalf("expected err to wrap cause, got %#v", err)
			}
		})
	}
}

func TestCreateTableIfNotExistsRace(t *testing.T) {
	ops := &fakeTables{createErr: kv.ErrTableExists}

	if err := mutation.CreateTableIfNotExists(context.Background(), ops, table); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}
}

type fakeWriter struct {
	added    int
	flushErr error
}

func (w *fakeWriter) AddMutation(m *kv.Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}

	w.added++

	return nil
}

func (w *fakeWriter) Flush() error {
	return w.flushErr
}

func (w *fakeWriter) Close() error {
	return nil
}

type failingScanner struct {
	err error
}

func (s *failingScanner) Next() bool {
	return false
}

func (s *failingScanner) Entry() kv.Entry {
	return kv.Entry{}
}

func (s *failingScanner) Error() error {
	return s.err
}

func (s *failingScanner) Close() error {
	return nil
}

type fakeTables struct {
	exists    bool
	existsErr error
	createErr error
	deleteErr error
}

func (ops *fakeTables) Exists(name string) (bool, error) {
	return ops.exists, ops.existsErr
}

func (ops *fakeTables) Create(name string) error {
	return ops.createErr
}

func (ops *fakeTables) Delete(name string) error {
	return ops.deleteErr
}

func (ops *fakeTables) List() ([]string, error) {
	return nil, nil
}
